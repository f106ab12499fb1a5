package infer

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/park285/chessnut-link/internal/board"
	"github.com/park285/chessnut-link/internal/obslog"
	"github.com/park285/chessnut-link/internal/snapshot"
)

const (
	defaultResetDiffLimit = 10
	defaultHistoryLimit   = 10

	// A capture-completion attempt is only meaningful while the diff is
	// still small; beyond this the interaction is something else.
	captureCompletionMaxDiff = 3
)

// Engine is the move classifier. One logical snapshot stream feeds it in
// arrival order; callbacks fire synchronously during SubmitSnapshot.
type Engine struct {
	mu sync.Mutex

	resetDiffLimit int
	historyLimit   int

	initialized bool
	stable      board.Position
	current     board.Board
	previous    board.Board

	pending        *pendingMove
	pendingCapture []board.Square
	firstRemoved   *liftedPiece

	history []board.Board // diagnostics only, never read by classification

	cbM     sync.RWMutex
	nextCb  int
	moveCbs []moveCbEntry
	hlCbs   []hlCbEntry
}

type moveCbEntry struct {
	id int
	cb MoveCallback
}

type hlCbEntry struct {
	id int
	cb HighlightCallback
}

type Option func(*Engine)

// WithResetDiffLimit overrides the bulk-reset threshold (default 10).
func WithResetDiffLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.resetDiffLimit = n
		}
	}
}

// WithHistoryLimit overrides the diagnostic board history depth.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.historyLimit = n
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		resetDiffLimit: defaultResetDiffLimit,
		historyLimit:   defaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnMove registers a move callback and returns its registration id.
func (e *Engine) OnMove(cb MoveCallback) int {
	e.cbM.Lock()
	defer e.cbM.Unlock()
	e.nextCb++
	e.moveCbs = append(e.moveCbs, moveCbEntry{id: e.nextCb, cb: cb})
	return e.nextCb
}

func (e *Engine) RemoveMoveCallback(id int) {
	e.cbM.Lock()
	defer e.cbM.Unlock()
	for i, entry := range e.moveCbs {
		if entry.id == id {
			e.moveCbs = append(e.moveCbs[:i], e.moveCbs[i+1:]...)
			break
		}
	}
}

// OnHighlight registers a highlight callback and returns its registration id.
func (e *Engine) OnHighlight(cb HighlightCallback) int {
	e.cbM.Lock()
	defer e.cbM.Unlock()
	e.nextCb++
	e.hlCbs = append(e.hlCbs, hlCbEntry{id: e.nextCb, cb: cb})
	return e.nextCb
}

func (e *Engine) RemoveHighlightCallback(id int) {
	e.cbM.Lock()
	defer e.cbM.Unlock()
	for i, entry := range e.hlCbs {
		if entry.id == id {
			e.hlCbs = append(e.hlCbs[:i], e.hlCbs[i+1:]...)
			break
		}
	}
}

// emission collects outbound events produced under the state lock so they
// can be delivered after it is released.
type emission struct {
	move      *MoveEvent
	highlight []string // non-nil empty slice means "clear"
}

// SubmitSnapshot decodes one raw frame and runs a classification pass.
// A malformed frame fails the single call and leaves all state untouched.
func (e *Engine) SubmitSnapshot(frame []byte) error {
	if len(frame) != snapshot.FrameLen {
		return fmt.Errorf("%w: got %d bytes, need exactly %d", snapshot.ErrInvalidFrame, len(frame), snapshot.FrameLen)
	}
	b, err := snapshot.Decode(frame)
	if err != nil {
		return err
	}

	e.mu.Lock()
	ems := e.ingest(b)
	e.mu.Unlock()

	e.emit(ems)
	return nil
}

// ForceStableBaseline unconditionally adopts the current board as stable
// and clears all pending state. Hosts call this on (re)connect or when the
// player re-racks the pieces.
func (e *Engine) ForceStableBaseline() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return
	}
	e.stable.Board = e.current
	e.clearPending()
	obslog.L().Info("infer_force_baseline")
}

// Position renders the FEN of the latest observed board (not the stable
// baseline), carrying the engine's side-to-move and castling bookkeeping.
func (e *Engine) Position() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos := e.stable
	pos.Board = e.current
	return pos.FEN()
}

// StableFEN renders the FEN of the stable baseline.
func (e *Engine) StableFEN() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stable.FEN()
}

// Stable returns a copy of the stable baseline board.
func (e *Engine) Stable() board.Board {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stable.Board
}

// State reports whether an interaction is in flight.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inProgress() {
		return StateInProgress
	}
	return StateIdle
}

// History returns the bounded list of recently observed boards, oldest
// first. Diagnostics/replay only.
func (e *Engine) History() []board.Board {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]board.Board, len(e.history))
	copy(out, e.history)
	return out
}

func (e *Engine) emit(ems []emission) {
	if len(ems) == 0 {
		return
	}
	e.cbM.RLock()
	moveCbs := make([]moveCbEntry, len(e.moveCbs))
	copy(moveCbs, e.moveCbs)
	hlCbs := make([]hlCbEntry, len(e.hlCbs))
	copy(hlCbs, e.hlCbs)
	e.cbM.RUnlock()

	for _, em := range ems {
		if em.highlight != nil {
			for _, entry := range hlCbs {
				if entry.cb != nil {
					entry.cb(em.highlight)
				}
			}
		}
		if em.move != nil {
			for _, entry := range moveCbs {
				if entry.cb != nil {
					entry.cb(*em.move)
				}
			}
		}
	}
}

// ingest records the new observation and classifies it. Callers hold mu.
func (e *Engine) ingest(b board.Board) []emission {
	if !e.initialized {
		// The first observation is ground truth: there is no way to
		// validate an a-priori arrangement against hardware alone.
		e.stable = board.NewPosition(b)
		e.current = b
		e.previous = b
		e.initialized = true
		e.pushHistory(b)
		obslog.L().Info("infer_baseline_init", zap.String("fen", e.stable.FEN()))
		return nil
	}
	e.previous = e.current
	e.current = b
	e.pushHistory(b)
	return e.classify()
}

// classify evaluates the stable/current difference set. The branch order
// mirrors the physical interaction patterns: settled board, wholesale
// reset, lift, two-step capture, then the one-shot shapes.
func (e *Engine) classify() []emission {
	changes := Diff(e.stable.Board, e.current)
	n := len(changes)

	if n == 0 {
		if e.inProgress() {
			return e.completePending()
		}
		return nil
	}

	if n > e.resetDiffLimit {
		// Board lifted off the surface, re-racked, or a sensor fault:
		// silently adopt the new arrangement as the baseline.
		e.stable.Board = e.current
		e.clearPending()
		obslog.L().Info("infer_rebaseline", zap.Int("diff_count", n))
		return nil
	}

	missing, appeared := split(changes)

	if len(missing) == 1 && len(appeared) == 0 && !e.inProgress() {
		lift := missing[0]
		e.firstRemoved = &liftedPiece{Square: lift.Square, Piece: lift.Before}
		e.pending = &pendingMove{From: lift.Square, To: board.NoSquare, Moving: lift.Before}
		obslog.L().Debug("infer_lift",
			zap.String("square", lift.Square.Name()),
			zap.String("piece", lift.Before.String()),
		)
		return []emission{{highlight: []string{}}}
	}

	if len(missing) == 2 && len(appeared) == 0 {
		if e.firstRemoved == nil {
			// Both pieces vanished between snapshots; the lower square is
			// recorded deterministically and capture completion corrects
			// the guess by matching codes.
			e.firstRemoved = &liftedPiece{Square: missing[0].Square, Piece: missing[0].Before}
		}
		e.pendingCapture = []board.Square{missing[0].Square, missing[1].Square}
		if e.pending == nil {
			e.pending = &pendingMove{From: board.NoSquare, To: board.NoSquare}
		}
		e.pending.Moving = e.firstRemoved.Piece
		obslog.L().Debug("infer_capture_pending",
			zap.String("a", missing[0].Square.Name()),
			zap.String("b", missing[1].Square.Name()),
		)
		return nil
	}

	if len(e.pendingCapture) > 0 && n <= captureCompletionMaxDiff {
		if ems, ok := e.tryCompleteCapture(); ok {
			return ems
		}
		// Not resolvable yet; fall through to the one-shot shapes.
	}

	if len(missing) == 1 && len(appeared) == 1 {
		from, to := missing[0], appeared[0]
		// Destination occupancy on the stable board marks an ambiguous
		// capture: the square may have been vacated and refilled by an
		// unrelated intermediate step. Heuristic, reported as advisory.
		return e.completeMove(from.Square, to.Square, e.current.At(to.Square), to.Before, false)
	}

	if len(missing) == 2 && len(appeared) == 1 {
		dest := appeared[0]
		moving := e.current.At(dest.Square)
		source := board.NoSquare
		for _, m := range missing {
			if m.Before == moving {
				source = m.Square
				break
			}
		}
		if source.Valid() {
			return e.completeMove(source, dest.Square, moving, dest.Before, false)
		}
		obslog.L().Warn("infer_capture_source_missing",
			zap.String("dest", dest.Square.Name()),
			zap.String("piece", moving.String()),
		)
		return nil
	}

	if len(missing) == 2 && len(appeared) == 2 {
		if ems, ok := e.tryCastle(missing, appeared); ok {
			return ems
		}
		// Two-for-two that is not a castling shape: unrecoverable
		// ambiguity. Pending state is dropped; the baseline is kept so
		// the next settled snapshot still diffs cleanly.
		obslog.L().Warn("infer_ambiguous", zap.Int("diff_count", n))
		e.clearPending()
		return nil
	}

	if len(e.pendingCapture) > 0 && n >= captureCompletionMaxDiff {
		return e.restartFromStalePending(changes)
	}

	obslog.L().Debug("infer_wait",
		zap.Int("diff_count", n),
		zap.Int("missing", len(missing)),
		zap.Int("appeared", len(appeared)),
	)
	return nil
}

// tryCompleteCapture resolves the two-step lift/remove/place capture:
// the destination is a pending square now holding the first-removed piece,
// the source a pending square that is empty and held that piece on the
// stable board.
func (e *Engine) tryCompleteCapture() ([]emission, bool) {
	if e.firstRemoved == nil || len(e.pendingCapture) == 0 {
		return nil, false
	}
	dest, src := board.NoSquare, board.NoSquare
	for _, sq := range e.pendingCapture {
		if dest == board.NoSquare && e.current.At(sq) == e.firstRemoved.Piece {
			dest = sq
		}
		if src == board.NoSquare && e.current.At(sq) == board.Empty && e.stable.Board.At(sq) == e.firstRemoved.Piece {
			src = sq
		}
	}
	if !dest.Valid() || !src.Valid() || dest == src {
		return nil, false
	}
	ems := e.completeMove(src, dest, e.firstRemoved.Piece, e.stable.Board.At(dest), false)
	return ems, true
}

// tryCastle looks for a king displaced exactly two squares; the rook's
// relocation is absorbed as part of the same difference set.
func (e *Engine) tryCastle(missing, appeared []Change) ([]emission, bool) {
	for _, m := range missing {
		if !m.Before.IsKing() {
			continue
		}
		for _, a := range appeared {
			if e.current.At(a.Square) != m.Before {
				continue
			}
			delta := int(a.Square) - int(m.Square)
			if delta == 2 || delta == -2 {
				return e.completeMove(m.Square, a.Square, m.Before, board.Empty, true), true
			}
		}
	}
	return nil, false
}

// restartFromStalePending discards a pending capture that was abandoned
// mid-air and treats the squares outside it as a brand-new simple move.
func (e *Engine) restartFromStalePending(changes []Change) []emission {
	inPending := map[board.Square]bool{}
	for _, sq := range e.pendingCapture {
		inPending[sq] = true
	}
	var outside []Change
	for _, c := range changes {
		if !inPending[c.Square] {
			outside = append(outside, c)
		}
	}
	missing, appeared := split(outside)
	if len(missing) == 1 && len(appeared) == 1 {
		obslog.L().Debug("infer_pending_superseded",
			zap.String("from", missing[0].Square.Name()),
			zap.String("to", appeared[0].Square.Name()),
		)
		e.pendingCapture = nil
		e.firstRemoved = nil
		return e.completeMove(missing[0].Square, appeared[0].Square, e.current.At(appeared[0].Square), appeared[0].Before, false)
	}
	obslog.L().Warn("infer_pending_discard", zap.Int("outside", len(outside)))
	e.pendingCapture = nil
	return nil
}

// completePending handles a zero-diff tick while an interaction is open:
// a fully resolved pending move completes; an open pending-capture set
// keeps waiting; anything else means the piece went back to its origin and
// the interaction is abandoned.
func (e *Engine) completePending() []emission {
	if e.pending != nil && e.pending.From.Valid() && e.pending.To.Valid() {
		return e.completeMove(e.pending.From, e.pending.To, e.pending.Moving, e.pending.Captured, false)
	}
	if len(e.pendingCapture) > 0 {
		return nil
	}
	obslog.L().Debug("infer_interaction_abandoned")
	e.clearPending()
	return nil
}

// completeMove emits the resolved move, adopts current as the new stable
// baseline, advances the position bookkeeping and returns to idle.
func (e *Engine) completeMove(from, to board.Square, moving, captured board.Piece, castle bool) []emission {
	ev := MoveEvent{
		Move:     board.CoordMove(from, to),
		From:     from,
		To:       to,
		Moving:   moving,
		Captured: captured,
		Castle:   castle,
	}

	e.applyBookkeeping(from, to, moving, captured, castle)
	e.stable.Board = e.current
	e.clearPending()
	ev.FEN = e.stable.FEN()

	obslog.L().Info("infer_move",
		zap.String("move", ev.Move),
		zap.String("piece", moving.String()),
		zap.String("captured", captured.String()),
		zap.Bool("castle", castle),
	)
	return []emission{{move: &ev, highlight: []string{from.Name(), to.Name()}}}
}

// applyBookkeeping maintains the exporter-only position state: side to
// move, counters, en-passant target and castling rights. None of it feeds
// classification.
func (e *Engine) applyBookkeeping(from, to board.Square, moving, captured board.Piece, castle bool) {
	e.stable.WhiteToMove = !e.stable.WhiteToMove
	e.stable.Plies++
	if moving.IsPawn() || captured != board.Empty {
		e.stable.HalfmoveClock = 0
	} else {
		e.stable.HalfmoveClock++
	}

	e.stable.EnPassant = board.NoSquare
	if moving == board.WhitePawn && from.Rank() == 1 && to.Rank() == 3 && from.File() == to.File() {
		e.stable.EnPassant = from + 8
	} else if moving == board.BlackPawn && from.Rank() == 6 && to.Rank() == 4 && from.File() == to.File() {
		e.stable.EnPassant = from - 8
	}

	switch moving {
	case board.WhiteKing:
		e.stable.Castling.WhiteKingSide = false
		e.stable.Castling.WhiteQueenSide = false
		if castle {
			e.stable.WhiteCastled = true
		}
	case board.BlackKing:
		e.stable.Castling.BlackKingSide = false
		e.stable.Castling.BlackQueenSide = false
		if castle {
			e.stable.BlackCastled = true
		}
	}
	clearRookRights := func(sq board.Square) {
		switch sq {
		case 0:
			e.stable.Castling.WhiteQueenSide = false
		case 7:
			e.stable.Castling.WhiteKingSide = false
		case 56:
			e.stable.Castling.BlackQueenSide = false
		case 63:
			e.stable.Castling.BlackKingSide = false
		}
	}
	if moving.IsRook() {
		clearRookRights(from)
	}
	if captured.IsRook() {
		clearRookRights(to)
	}
}

func (e *Engine) inProgress() bool {
	return e.pending != nil || len(e.pendingCapture) > 0 || e.firstRemoved != nil
}

func (e *Engine) clearPending() {
	e.pending = nil
	e.pendingCapture = nil
	e.firstRemoved = nil
}

func (e *Engine) pushHistory(b board.Board) {
	e.history = append(e.history, b)
	if len(e.history) > e.historyLimit {
		e.history = e.history[len(e.history)-e.historyLimit:]
	}
}
