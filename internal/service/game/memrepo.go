package game

import (
	"context"
	"sync"
)

// MemArchiver keeps ended sessions in memory. Used when no DATABASE_URL is
// configured and by tests.
type MemArchiver struct {
	mu       sync.Mutex
	sessions []*Session
}

func NewMemArchiver() *MemArchiver {
	return &MemArchiver{}
}

func (a *MemArchiver) SaveSession(_ context.Context, s *Session) error {
	if s == nil {
		return nil
	}
	cp := *s
	a.mu.Lock()
	a.sessions = append(a.sessions, &cp)
	a.mu.Unlock()
	return nil
}

// Sessions returns a snapshot of everything archived so far.
func (a *MemArchiver) Sessions() []*Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Session, len(a.sessions))
	copy(out, a.sessions)
	return out
}
