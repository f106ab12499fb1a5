package game

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/chessnut-link/pkg/linkdto"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return newManagerWithClient(rdb, time.Hour)
}

func TestStartAppendEnd(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	s, err := m.StartSession(ctx, "board-1", startFEN)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if s.ID == "" || s.Status != StatusActive {
		t.Fatalf("unexpected session: %+v", s)
	}

	s1, san, err := m.AppendMove(ctx, "board-1", "e2e4", "after-e4")
	if err != nil {
		t.Fatalf("AppendMove: %v", err)
	}
	if len(s1.MovesUCI) != 1 || s1.MovesUCI[0] != "e2e4" {
		t.Fatalf("MovesUCI = %v", s1.MovesUCI)
	}
	if san != "e4" {
		t.Errorf("SAN = %q, want e4", san)
	}
	if s1.FEN != "after-e4" {
		t.Errorf("FEN not updated: %q", s1.FEN)
	}

	s2, san2, err := m.AppendMove(ctx, "board-1", "b8c6", "after-nc6")
	if err != nil {
		t.Fatalf("AppendMove 2: %v", err)
	}
	if san2 != "Nc6" {
		t.Errorf("SAN = %q, want Nc6", san2)
	}
	if len(s2.MovesSAN) != 2 {
		t.Fatalf("MovesSAN = %v", s2.MovesSAN)
	}

	ended, err := m.EndSession(ctx, "board-1")
	if err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if ended.Status != StatusEnded || ended.EndedAt.IsZero() {
		t.Fatalf("session not ended: %+v", ended)
	}

	dto := ended.DTO()
	if dto.SessionID != ended.ID || dto.Status != string(StatusEnded) || len(dto.MovesUCI) != 2 {
		t.Fatalf("DTO = %+v", dto)
	}
	if _, err := m.ActiveSession(ctx, "board-1"); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestAppendWithoutSession(t *testing.T) {
	m := newTestManager(t)
	if _, _, err := m.AppendMove(context.Background(), "board-x", "e2e4", "fen"); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestStartSessionEndsPrevious(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	arch := NewMemArchiver()
	m.AttachArchiver(arch)

	first, err := m.StartSession(ctx, "board-1", startFEN)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	second, err := m.StartSession(ctx, "board-1", startFEN)
	if err != nil {
		t.Fatalf("StartSession 2: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("second session reused the first session's id")
	}

	got := arch.Sessions()
	if len(got) != 1 || got[0].ID != first.ID {
		t.Fatalf("archived = %v, want the first session", got)
	}

	active, err := m.ActiveSession(ctx, "board-1")
	if err != nil {
		t.Fatalf("ActiveSession: %v", err)
	}
	if active.ID != second.ID {
		t.Fatalf("active = %s, want %s", active.ID, second.ID)
	}
}

func TestRebaselineSuppressesSAN(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, err := m.StartSession(ctx, "board-1", startFEN); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if err := m.NoteRebaseline(ctx, "board-1", "scrambled-fen"); err != nil {
		t.Fatalf("NoteRebaseline: %v", err)
	}

	s, san, err := m.AppendMove(ctx, "board-1", "e2e4", "fen")
	if err != nil {
		t.Fatalf("AppendMove: %v", err)
	}
	if san != "" {
		t.Errorf("SAN = %q, want empty after rebaseline", san)
	}
	if s.Rebaselines != 1 {
		t.Errorf("Rebaselines = %d, want 1", s.Rebaselines)
	}
	if len(s.MovesSAN) != 1 || s.MovesSAN[0] != "" {
		t.Errorf("MovesSAN = %v, want one empty entry", s.MovesSAN)
	}
}

func TestNoteRebaselineWithoutSessionIsNoop(t *testing.T) {
	m := newTestManager(t)
	if err := m.NoteRebaseline(context.Background(), "board-x", "fen"); err != nil {
		t.Fatalf("NoteRebaseline without session: %v", err)
	}
}

func TestEndSessionArchives(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	arch := NewMemArchiver()
	m.AttachArchiver(arch)

	if _, err := m.StartSession(ctx, "board-1", startFEN); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, _, err := m.AppendMove(ctx, "board-1", "g1f3", "fen"); err != nil {
		t.Fatalf("AppendMove: %v", err)
	}
	if _, err := m.EndSession(ctx, "board-1"); err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	got := arch.Sessions()
	if len(got) != 1 {
		t.Fatalf("archived %d sessions, want 1", len(got))
	}
	if got[0].Status != StatusEnded || len(got[0].MovesUCI) != 1 {
		t.Fatalf("archived session = %+v", got[0])
	}
}

func TestPublishMove(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	m := newManagerWithClient(rdb, time.Hour)
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, EventChannel("board-1"))
	t.Cleanup(func() { _ = sub.Close() })
	if _, err := sub.Receive(ctx); err != nil { // subscription confirmation
		t.Fatalf("subscribe: %v", err)
	}

	ev := &linkdto.MoveEvent{BoardID: "board-1", Move: "e2e4", Kind: linkdto.MoveKindSimple, FEN: "fen", Ply: 1}
	if err := m.PublishMove(ctx, ev); err != nil {
		t.Fatalf("PublishMove: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var got linkdto.MoveEvent
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if got.Move != "e2e4" || got.Kind != linkdto.MoveKindSimple {
			t.Fatalf("payload = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestAnnotateSAN(t *testing.T) {
	cases := []struct {
		moves []string
		want  string
	}{
		{[]string{"e2e4"}, "e4"},
		{[]string{"e2e4", "e7e5", "g1f3"}, "Nf3"},
		{[]string{"e2e4", "e7e5", "f1c4", "b8c6", "d1h5", "g8f6", "h5f7"}, "Qxf7#"},
		{[]string{"e2e5"}, ""},         // illegal
		{[]string{"e2e4", "e2e4"}, ""}, // impossible sequence
		{nil, ""},
	}
	for _, tc := range cases {
		if got := annotateSAN(tc.moves); got != tc.want {
			t.Errorf("annotateSAN(%v) = %q, want %q", tc.moves, got, tc.want)
		}
	}
}
