package board

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSquareNameRoundTrip(t *testing.T) {
	for i := 0; i < NumSquares; i++ {
		sq := Square(i)
		got, err := ParseSquare(sq.Name())
		if err != nil {
			t.Fatalf("ParseSquare(%q): %v", sq.Name(), err)
		}
		if got != sq {
			t.Fatalf("round trip mismatch: index %d -> %q -> %d", i, sq.Name(), got)
		}
	}
}

func TestParseSquareRejectsMalformed(t *testing.T) {
	for _, name := range []string{"", "e", "e44", "i1", "a0", "a9", "4e", "--"} {
		if _, err := ParseSquare(name); err == nil {
			t.Fatalf("ParseSquare(%q) accepted malformed input", name)
		}
	}
}

func TestCoordMove(t *testing.T) {
	from, _ := ParseSquare("e2")
	to, _ := ParseSquare("e4")
	if got := CoordMove(from, to); got != "e2e4" {
		t.Fatalf("CoordMove = %q, want e2e4", got)
	}
}

func TestPieceSymbolTotal(t *testing.T) {
	seen := map[byte]Piece{}
	for p := Empty; p <= MaxPiece; p++ {
		s := p.Symbol()
		if s == '?' {
			t.Fatalf("code %d has no symbol", p)
		}
		if prev, dup := seen[s]; dup {
			t.Fatalf("symbol %q assigned to both %d and %d", s, prev, p)
		}
		seen[s] = p
	}
	if Piece(13).Symbol() != '?' {
		t.Fatalf("out-of-range code should map to '?'")
	}
}

func TestStartingBoardFEN(t *testing.T) {
	pos := NewPosition(StartingBoard())
	const want = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	if got := pos.FEN(); got != want {
		t.Fatalf("start FEN mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestFENAfterMoves(t *testing.T) {
	// 1.e4 as a physical rearrangement: pawn from e2 to e4.
	b := StartingBoard()
	b[12] = Empty
	b[28] = WhitePawn
	pos := Position{
		Board:         b,
		WhiteToMove:   false,
		Castling:      AllCastlingRights(),
		EnPassant:     Square(20), // e3
		HalfmoveClock: 0,
		Plies:         1,
	}
	const want = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
	if got := pos.FEN(); got != want {
		t.Fatalf("FEN mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestFENCastlingField(t *testing.T) {
	cases := []struct {
		rights CastlingRights
		want   string
	}{
		{AllCastlingRights(), "KQkq"},
		{CastlingRights{WhiteKingSide: true, BlackQueenSide: true}, "Kq"},
		{CastlingRights{}, "-"},
	}
	for _, tc := range cases {
		if got := tc.rights.fenField(); got != tc.want {
			t.Fatalf("fenField(%+v) = %q, want %q", tc.rights, got, tc.want)
		}
	}
}

func TestStartingBoardLayout(t *testing.T) {
	b := StartingBoard()
	want := Board{}
	copy(want[:], []Piece{
		WhiteRook, WhiteKnight, WhiteBishop, WhiteQueen, WhiteKing, WhiteBishop, WhiteKnight, WhiteRook,
		WhitePawn, WhitePawn, WhitePawn, WhitePawn, WhitePawn, WhitePawn, WhitePawn, WhitePawn,
	})
	for f := 0; f < 8; f++ {
		want[48+f] = BlackPawn
	}
	copy(want[56:], []Piece{
		BlackRook, BlackKnight, BlackBishop, BlackQueen, BlackKing, BlackBishop, BlackKnight, BlackRook,
	})
	if diff := cmp.Diff(want, b); diff != "" {
		t.Fatalf("starting board mismatch (-want +got):\n%s", diff)
	}
}
