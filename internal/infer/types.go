// Package infer turns a stream of raw occupancy snapshots into semantic
// move events. It holds the only multi-step state in the pipeline: the
// stable baseline, the latest observed board, and whatever lift/capture
// interaction is currently in flight.
package infer

import "github.com/park285/chessnut-link/internal/board"

// Change records one square whose occupancy differs between the stable
// baseline and the current board.
type Change struct {
	Square board.Square
	Before board.Piece
	After  board.Piece
}

// MoveEvent is emitted once per resolved move.
type MoveEvent struct {
	Move     string // four-character coordinate move, e.g. "e2e4"
	From     board.Square
	To       board.Square
	Moving   board.Piece
	Captured board.Piece // Empty when nothing was (heuristically) captured
	Castle   bool        // true when resolved by the castling heuristic
	FEN      string      // position after the move was adopted as stable
}

// MoveCallback receives resolved moves in submission order.
type MoveCallback func(ev MoveEvent)

// HighlightCallback receives square names to illuminate. An empty list
// means "clear all highlights".
type HighlightCallback func(squares []string)

// State names the classifier's interaction state.
type State string

const (
	StateIdle       State = "idle"
	StateInProgress State = "in_progress"
)

// pendingMove accumulates the endpoints of an interaction spread across
// several snapshots. It never survives a resolution.
type pendingMove struct {
	From     board.Square
	To       board.Square
	Moving   board.Piece
	Captured board.Piece
}

// liftedPiece remembers the first piece seen leaving the board.
type liftedPiece struct {
	Square board.Square
	Piece  board.Piece
}
