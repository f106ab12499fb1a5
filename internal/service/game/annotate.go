package game

import (
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// annotateSAN replays the UCI move list from the standard start position and
// returns the SAN for the final move. Annotation is advisory: any failure
// (non-standard start, impossible sequence after a rebaseline) yields "" and
// the recording continues on UCI alone.
func annotateSAN(movesUCI []string) string {
	if len(movesUCI) == 0 {
		return ""
	}
	g := nchess.NewGame()
	for _, mv := range movesUCI[:len(movesUCI)-1] {
		if err := g.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return ""
		}
	}
	pos := g.Position()
	last := strings.ToLower(strings.TrimSpace(movesUCI[len(movesUCI)-1]))
	mv, err := nchess.UCINotation{}.Decode(pos, last)
	if err != nil {
		return ""
	}
	return nchess.AlgebraicNotation{}.Encode(pos, mv)
}
