package board

import (
	"errors"
	"fmt"
)

// Square indexes one of the 64 board squares: index = rank*8 + file,
// rank 0 being rank "1" and file 0 being file "a".
type Square int

// NoSquare marks an absent optional square (en-passant target and the like).
const NoSquare Square = -1

// NumSquares is the board cell count.
const NumSquares = 64

// ErrInvalidSquareName is returned when a square name cannot be parsed.
var ErrInvalidSquareName = errors.New("invalid square name")

// Valid reports whether s is a real board square.
func (s Square) Valid() bool { return s >= 0 && s < NumSquares }

// File returns the file index 0..7 (file a = 0).
func (s Square) File() int { return int(s) & 7 }

// Rank returns the rank index 0..7 (rank 1 = 0).
func (s Square) Rank() int { return int(s) >> 3 }

// Name returns the two-character square name, e.g. "e4".
func (s Square) Name() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

func (s Square) String() string { return s.Name() }

// ParseSquare converts a two-character name back to its index. Malformed
// names are an error, never a silently usable index.
func ParseSquare(name string) (Square, error) {
	if len(name) != 2 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquareName, name)
	}
	file := int(name[0] - 'a')
	rank := int(name[1] - '1')
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquareName, name)
	}
	return Square(rank*8 + file), nil
}

// CoordMove renders the four-character coordinate move for a from/to pair.
// Promotion suffixes are intentionally not produced.
func CoordMove(from, to Square) string {
	return from.Name() + to.Name()
}
