package linkdto

import "time"

// SessionState summarises a recording session for external consumers.
type SessionState struct {
	SessionID   string    `json:"session_id"`
	BoardID     string    `json:"board_id"`
	FEN         string    `json:"fen"`
	MovesUCI    []string  `json:"moves_uci"`
	MovesSAN    []string  `json:"moves_san"`
	Status      string    `json:"status"`
	Rebaselines int       `json:"rebaselines"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
