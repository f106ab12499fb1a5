package board

import (
	"strconv"
	"strings"
)

// CastlingRights tracks the four independent castling permissions.
type CastlingRights struct {
	WhiteKingSide  bool
	WhiteQueenSide bool
	BlackKingSide  bool
	BlackQueenSide bool
}

// AllCastlingRights returns the rights of the initial position.
func AllCastlingRights() CastlingRights {
	return CastlingRights{WhiteKingSide: true, WhiteQueenSide: true, BlackKingSide: true, BlackQueenSide: true}
}

func (c CastlingRights) fenField() string {
	var sb strings.Builder
	if c.WhiteKingSide {
		sb.WriteByte('K')
	}
	if c.WhiteQueenSide {
		sb.WriteByte('Q')
	}
	if c.BlackKingSide {
		sb.WriteByte('k')
	}
	if c.BlackQueenSide {
		sb.WriteByte('q')
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

// Position aggregates a board with the bookkeeping needed for FEN export.
// The inference engine owns exactly three of these: stable, current and
// previous; everything else receives copies.
type Position struct {
	Board         Board
	WhiteToMove   bool
	Castling      CastlingRights
	WhiteCastled  bool
	BlackCastled  bool
	EnPassant     Square // NoSquare when absent
	HalfmoveClock int
	Plies         int // confirmed half-moves since the session baseline
}

// NewPosition wraps b as a fresh position with white to move and full
// castling rights.
func NewPosition(b Board) Position {
	return Position{
		Board:       b,
		WhiteToMove: true,
		Castling:    AllCastlingRights(),
		EnPassant:   NoSquare,
	}
}

// FullMoveNumber derives the FEN fullmove counter from the confirmed plies.
func (p Position) FullMoveNumber() int { return p.Plies/2 + 1 }

// FEN renders the standard position notation: piece placement rank 8 to
// rank 1 with run-length-encoded empties, side to move, castling field,
// en-passant target, halfmove clock and fullmove number.
func (p Position) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		run := 0
		for file := 0; file < 8; file++ {
			pc := p.Board[rank*8+file]
			if pc == Empty {
				run++
				continue
			}
			if run > 0 {
				sb.WriteByte(byte('0' + run))
				run = 0
			}
			sb.WriteByte(pc.Symbol())
		}
		if run > 0 {
			sb.WriteByte(byte('0' + run))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if p.WhiteToMove {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	sb.WriteByte(' ')
	sb.WriteString(p.Castling.fenField())

	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.Name())

	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfmoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMoveNumber()))
	return sb.String()
}
