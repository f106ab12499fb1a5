// Package snapshot unpacks raw occupancy frames from the board hardware.
package snapshot

import (
	"errors"
	"fmt"

	"github.com/park285/chessnut-link/internal/board"
)

// FrameLen is the size of one occupancy frame: one nibble per square,
// two squares per byte.
const FrameLen = 32

// ErrInvalidFrame is returned for frames that cannot encode a full board.
var ErrInvalidFrame = errors.New("invalid snapshot frame")

// Decode unpacks a raw frame into a fresh board. The transport enumerates
// squares in reverse board order: byte i carries square 63-2i in its low
// nibble and square 63-2i-1 in its high nibble. Nibble values above the
// defined piece range are treated as empty (undefined sensor codes).
func Decode(frame []byte) (board.Board, error) {
	var b board.Board
	if len(frame) < FrameLen {
		return b, fmt.Errorf("%w: got %d bytes, need %d", ErrInvalidFrame, len(frame), FrameLen)
	}
	for i := 0; i < FrameLen; i++ {
		lo := board.Piece(frame[i] & 0x0f)
		hi := board.Piece(frame[i] >> 4)
		b[63-2*i] = sanitize(lo)
		b[63-2*i-1] = sanitize(hi)
	}
	return b, nil
}

func sanitize(p board.Piece) board.Piece {
	if !p.Valid() {
		return board.Empty
	}
	return p
}

// Encode packs a board back into the wire layout. Used by tests and replay
// tooling; the daemon itself only decodes.
func Encode(b board.Board) []byte {
	frame := make([]byte, FrameLen)
	for i := 0; i < FrameLen; i++ {
		lo := byte(b[63-2*i]) & 0x0f
		hi := byte(b[63-2*i-1]) & 0x0f
		frame[i] = hi<<4 | lo
	}
	return frame
}
