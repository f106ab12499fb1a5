package board

import "fmt"

// Piece is the occupancy code of one square as reported by the board
// hardware: 0 is empty, 1..12 enumerate the twelve piece/color combinations.
// The mapping is fixed and shared by the snapshot decoder, the classifier
// logging, and the position exporter.
type Piece uint8

const (
	Empty Piece = iota
	WhitePawn
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
)

// MaxPiece is the highest valid piece code.
const MaxPiece = BlackKing

var pieceSymbols = [MaxPiece + 1]byte{
	'.',
	'P', 'N', 'B', 'R', 'Q', 'K',
	'p', 'n', 'b', 'r', 'q', 'k',
}

// Valid reports whether p is within the defined code range.
func (p Piece) Valid() bool { return p <= MaxPiece }

// Symbol returns the FEN letter for p ('.' for an empty square).
// Total over all valid codes; invalid codes map to '?' so they are
// visible in diagnostics instead of masquerading as empty squares.
func (p Piece) Symbol() byte {
	if !p.Valid() {
		return '?'
	}
	return pieceSymbols[p]
}

// IsWhite reports whether p is a white piece.
func (p Piece) IsWhite() bool { return p >= WhitePawn && p <= WhiteKing }

// IsBlack reports whether p is a black piece.
func (p Piece) IsBlack() bool { return p >= BlackPawn && p <= BlackKing }

// IsKing reports whether p is either king.
func (p Piece) IsKing() bool { return p == WhiteKing || p == BlackKing }

// IsPawn reports whether p is either pawn.
func (p Piece) IsPawn() bool { return p == WhitePawn || p == BlackPawn }

// IsRook reports whether p is either rook.
func (p Piece) IsRook() bool { return p == WhiteRook || p == BlackRook }

func (p Piece) String() string {
	if p == Empty {
		return "empty"
	}
	if !p.Valid() {
		return fmt.Sprintf("piece(%d)", uint8(p))
	}
	return string(p.Symbol())
}
