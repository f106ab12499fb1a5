package board

import "strings"

// Board is the full occupancy of the 64 squares, indexed by Square.
type Board [NumSquares]Piece

// StartingBoard returns the standard initial arrangement.
func StartingBoard() Board {
	var b Board
	back := [8]Piece{WhiteRook, WhiteKnight, WhiteBishop, WhiteQueen, WhiteKing, WhiteBishop, WhiteKnight, WhiteRook}
	for f := 0; f < 8; f++ {
		b[f] = back[f]
		b[8+f] = WhitePawn
		b[48+f] = BlackPawn
		b[56+f] = back[f] + (BlackPawn - WhitePawn)
	}
	return b
}

// At returns the piece on sq, Empty for out-of-range squares.
func (b Board) At(sq Square) Piece {
	if !sq.Valid() {
		return Empty
	}
	return b[sq]
}

// String renders the board rank 8 down to rank 1, one rank per line,
// for logs and test failures.
func (b Board) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		for file := 0; file < 8; file++ {
			sb.WriteByte(b[rank*8+file].Symbol())
		}
		if rank > 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
