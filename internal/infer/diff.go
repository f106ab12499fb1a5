package infer

import "github.com/park285/chessnut-link/internal/board"

// Diff lists every square whose occupancy differs between stable and
// current, in ascending square order so results are deterministic.
func Diff(stable, current board.Board) []Change {
	var out []Change
	for i := 0; i < board.NumSquares; i++ {
		if stable[i] != current[i] {
			out = append(out, Change{Square: board.Square(i), Before: stable[i], After: current[i]})
		}
	}
	return out
}

// split partitions changes into squares that lost their piece ("missing")
// and squares now holding one ("appeared"). A square whose piece was
// swapped for another counts as appeared only.
func split(changes []Change) (missing, appeared []Change) {
	for _, c := range changes {
		if c.After == board.Empty {
			missing = append(missing, c)
		} else {
			appeared = append(appeared, c)
		}
	}
	return missing, appeared
}
