package infer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/chessnut-link/internal/board"
)

func TestDiffDeterministicOrder(t *testing.T) {
	stable := board.StartingBoard()
	current := stable
	current[12] = board.Empty       // e2
	current[28] = board.WhitePawn   // e4
	current[57] = board.Empty       // b8
	current[42] = board.BlackKnight // c6

	got := Diff(stable, current)
	want := []Change{
		{Square: 12, Before: board.WhitePawn, After: board.Empty},
		{Square: 28, Before: board.Empty, After: board.WhitePawn},
		{Square: 42, Before: board.Empty, After: board.BlackKnight},
		{Square: 57, Before: board.BlackKnight, After: board.Empty},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Diff mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffIdenticalBoards(t *testing.T) {
	b := board.StartingBoard()
	if got := Diff(b, b); len(got) != 0 {
		t.Fatalf("identical boards produced %d changes", len(got))
	}
}

func TestSplitCountsReplacedSquareAsAppeared(t *testing.T) {
	stable := board.StartingBoard()
	current := stable
	current[12] = board.Empty
	current[51] = board.WhiteQueen // d7: black pawn swapped for white queen

	missing, appeared := split(Diff(stable, current))
	if len(missing) != 1 || missing[0].Square != 12 {
		t.Fatalf("missing = %v, want just e2", missing)
	}
	if len(appeared) != 1 || appeared[0].Square != 51 {
		t.Fatalf("appeared = %v, want just d7", appeared)
	}
}
