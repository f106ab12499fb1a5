// Package linkdto holds the wire-facing types exchanged with consumers of
// the link daemon: inferred moves and session summaries.
package linkdto

import "time"

// MoveKind distinguishes how a move was produced on the physical board.
type MoveKind string

const (
	MoveKindSimple  MoveKind = "simple"
	MoveKindCapture MoveKind = "capture"
	MoveKindCastle  MoveKind = "castle"
)

// MoveEvent is one inferred move as published to consumers.
type MoveEvent struct {
	SessionID string    `json:"session_id,omitempty"`
	BoardID   string    `json:"board_id"`
	Move      string    `json:"move"` // coordinate form, e.g. "e2e4"
	SAN       string    `json:"san,omitempty"`
	Kind      MoveKind  `json:"kind"`
	FEN       string    `json:"fen"`
	Ply       int       `json:"ply"`
	At        time.Time `json:"at"`
}
