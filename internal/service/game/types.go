// Package game keeps the live recording session for a board: every inferred
// move is appended to a redis-backed session, annotated with SAN when the
// move sequence is reconstructible, and archived on session end.
package game

import (
	"time"

	"github.com/park285/chessnut-link/pkg/linkdto"
)

type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusEnded  Status = "ENDED"
)

// Session is the live recording state for one physical board.
type Session struct {
	ID       string   `json:"id"`
	BoardID  string   `json:"board_id"`
	FEN      string   `json:"fen"`
	MovesUCI []string `json:"moves_uci"`
	MovesSAN []string `json:"moves_san"`
	Status   Status   `json:"status"`

	// Rebaselines counts how often tracking restarted mid-session. A session
	// with rebaselines is still recorded but its SAN annotation stops being
	// reliable from that point on.
	Rebaselines int `json:"rebaselines"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
}

func (s *Session) Active() bool {
	return s != nil && s.Status == StatusActive
}

// DTO converts the session into its wire representation.
func (s *Session) DTO() *linkdto.SessionState {
	if s == nil {
		return nil
	}
	return &linkdto.SessionState{
		SessionID:   s.ID,
		BoardID:     s.BoardID,
		FEN:         s.FEN,
		MovesUCI:    append([]string(nil), s.MovesUCI...),
		MovesSAN:    append([]string(nil), s.MovesSAN...),
		Status:      string(s.Status),
		Rebaselines: s.Rebaselines,
		StartedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
