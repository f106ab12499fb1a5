// Package bridgefast talks to the BLE-to-IP bridge that fronts the physical
// board: a JSON REST surface for commands and a websocket stream for raw
// occupancy snapshots.
package bridgefast

import (
	"encoding/base64"
	"fmt"
)

// SnapshotMessage is one websocket frame from the bridge: a full occupancy
// reading plus housekeeping the core does not consume.
type SnapshotMessage struct {
	BoardID   string `json:"board_id"`
	Seq       uint64 `json:"seq"`
	Frame     string `json:"frame"` // base64 of the raw 32-byte frame
	Battery   int    `json:"battery,omitempty"`
	Timestamp int64  `json:"ts,omitempty"`
}

// FrameBytes decodes the base64 frame payload.
func (m *SnapshotMessage) FrameBytes() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(m.Frame)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return raw, nil
}

// StatusResponse mirrors the bridge /status document.
type StatusResponse struct {
	Model     string `json:"model"`
	Firmware  string `json:"firmware"`
	Battery   int    `json:"battery"`
	Connected bool   `json:"connected"`
}

// LEDRequest names the squares to illuminate; an empty list clears all LEDs.
type LEDRequest struct {
	BoardID string   `json:"board_id,omitempty"`
	Squares []string `json:"squares"`
}

// NoticeRequest pushes a short text to the bridge's companion surface.
type NoticeRequest struct {
	BoardID string `json:"board_id,omitempty"`
	Text    string `json:"text"`
}

// wsCommand is the envelope for commands written onto the websocket.
type wsCommand struct {
	Type    string   `json:"type"`
	BoardID string   `json:"board_id,omitempty"`
	Squares []string `json:"squares,omitempty"`
}

// WebSocketState tracks the snapshot stream lifecycle.
type WebSocketState int

const (
	WSStateDisconnected WebSocketState = iota
	WSStateConnecting
	WSStateConnected
	WSStateReconnecting
	WSStateFailed
)

func (s WebSocketState) String() string {
	switch s {
	case WSStateDisconnected:
		return "disconnected"
	case WSStateConnecting:
		return "connecting"
	case WSStateConnected:
		return "connected"
	case WSStateReconnecting:
		return "reconnecting"
	case WSStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
