package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/chessnut-link/internal/obslog"
	"github.com/park285/chessnut-link/pkg/linkdto"
)

var (
	ErrNoActiveSession = errors.New("no active session for board")
	ErrSessionEnded    = errors.New("session already ended")
)

// Archiver persists finished sessions. Implementations: Repository (postgres)
// and MemArchiver (tests, DB-less deployments).
type Archiver interface {
	SaveSession(ctx context.Context, s *Session) error
}

// Manager owns live sessions in redis, one active session per board.
type Manager struct {
	rdb      *redis.Client
	ttl      time.Duration
	archiver Archiver
}

func NewManager(redisURL string, ttl time.Duration) (*Manager, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for session manager")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{rdb: rdb, ttl: ttl}, nil
}

// newManagerWithClient is the test seam for miniredis.
func newManagerWithClient(rdb *redis.Client, ttl time.Duration) *Manager {
	return &Manager{rdb: rdb, ttl: ttl}
}

func (m *Manager) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

// AttachArchiver wires persistence for ended sessions.
func (m *Manager) AttachArchiver(a Archiver) {
	if m != nil {
		m.archiver = a
	}
}

// StartSession opens a new recording session for the board, ending any
// session still marked active.
func (m *Manager) StartSession(ctx context.Context, boardID, fen string) (*Session, error) {
	if m == nil || m.rdb == nil {
		return nil, fmt.Errorf("session manager not initialized")
	}
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return nil, fmt.Errorf("board id required")
	}

	if prev, err := m.ActiveSession(ctx, boardID); err == nil && prev != nil {
		if _, endErr := m.EndSession(ctx, boardID); endErr != nil {
			return nil, endErr
		}
	}

	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		BoardID:   boardID,
		FEN:       fen,
		MovesUCI:  []string{},
		MovesSAN:  []string{},
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}
	if err := m.rdb.Set(ctx, boardKey(boardID), s.ID, m.ttl).Err(); err != nil {
		return nil, err
	}
	obslog.L().Info("session_start",
		zap.String("session_id", s.ID),
		zap.String("board_id", boardID),
	)
	return s, nil
}

// ActiveSession returns the board's active session, or ErrNoActiveSession.
func (m *Manager) ActiveSession(ctx context.Context, boardID string) (*Session, error) {
	if m == nil || m.rdb == nil {
		return nil, fmt.Errorf("session manager not initialized")
	}
	id, err := m.rdb.Get(ctx, boardKey(boardID)).Result()
	if err == redis.Nil {
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, err
	}
	s, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil || s.Status != StatusActive {
		return nil, ErrNoActiveSession
	}
	return s, nil
}

// AppendMove records one inferred move on the board's active session and
// returns the session plus the advisory SAN ("" when not reconstructible).
// The append runs under WATCH so concurrent writers cannot drop moves.
func (m *Manager) AppendMove(ctx context.Context, boardID, uci, fen string) (*Session, string, error) {
	s, err := m.ActiveSession(ctx, boardID)
	if err != nil {
		return nil, "", err
	}

	key := sessionKey(s.ID)
	oldLen := len(s.MovesUCI)
	var san string

	txErr := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNoActiveSession
		}
		if err != nil {
			return err
		}
		var cur Session
		if err := json.Unmarshal(raw, &cur); err != nil {
			return err
		}
		if cur.Status != StatusActive {
			return ErrSessionEnded
		}
		if len(cur.MovesUCI) != oldLen {
			return redis.TxFailedErr
		}

		cur.MovesUCI = append(cur.MovesUCI, uci)
		san = ""
		if cur.Rebaselines == 0 {
			san = annotateSAN(cur.MovesUCI)
		}
		cur.MovesSAN = append(cur.MovesSAN, san)
		cur.FEN = fen
		cur.UpdatedAt = time.Now()

		pipe := tx.TxPipeline()
		newRaw, _ := json.Marshal(&cur)
		pipe.Set(ctx, key, newRaw, m.ttl)
		pipe.Expire(ctx, boardKey(cur.BoardID), m.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		s = &cur
		return nil
	}, key)
	if txErr != nil {
		return nil, "", txErr
	}

	obslog.L().Info("session_move",
		zap.String("session_id", s.ID),
		zap.String("board_id", s.BoardID),
		zap.String("uci", uci),
		zap.String("san", san),
		zap.Int("plies", len(s.MovesUCI)),
	)
	return s, san, nil
}

// NoteRebaseline marks the active session as rearranged; SAN annotation is
// suppressed from this point.
func (m *Manager) NoteRebaseline(ctx context.Context, boardID, fen string) error {
	s, err := m.ActiveSession(ctx, boardID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSession) {
			return nil
		}
		return err
	}
	s.Rebaselines++
	s.FEN = fen
	s.UpdatedAt = time.Now()
	if err := m.save(ctx, s); err != nil {
		return err
	}
	obslog.L().Warn("session_rebaseline",
		zap.String("session_id", s.ID),
		zap.String("board_id", boardID),
		zap.Int("count", s.Rebaselines),
	)
	return nil
}

// EndSession closes the active session and hands it to the archiver.
func (m *Manager) EndSession(ctx context.Context, boardID string) (*Session, error) {
	s, err := m.ActiveSession(ctx, boardID)
	if err != nil {
		return nil, err
	}
	s.Status = StatusEnded
	s.EndedAt = time.Now()
	s.UpdatedAt = s.EndedAt
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}
	if err := m.rdb.Del(ctx, boardKey(boardID)).Err(); err != nil {
		return nil, err
	}
	obslog.L().Info("session_end",
		zap.String("session_id", s.ID),
		zap.String("board_id", boardID),
		zap.Int("plies", len(s.MovesUCI)),
	)
	if m.archiver != nil {
		if err := m.archiver.SaveSession(ctx, s); err != nil {
			obslog.L().Error("session_archive_error",
				zap.String("session_id", s.ID),
				zap.Error(err),
			)
		}
	}
	return s, nil
}

// PublishMove broadcasts an inferred move on the board's event channel for
// external subscribers (viewers, broadcasters). Fire-and-forget: a board
// with no subscribers publishes into the void.
func (m *Manager) PublishMove(ctx context.Context, ev *linkdto.MoveEvent) error {
	if m == nil || m.rdb == nil || ev == nil {
		return nil
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return m.rdb.Publish(ctx, EventChannel(ev.BoardID), raw).Err()
}

// EventChannel names the pub/sub channel carrying a board's move events.
func EventChannel(boardID string) string { return "link:events:" + strings.TrimSpace(boardID) }

func (m *Manager) save(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return m.rdb.Set(ctx, sessionKey(s.ID), raw, m.ttl).Err()
}

func (m *Manager) get(ctx context.Context, id string) (*Session, error) {
	raw, err := m.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func sessionKey(id string) string { return "link:session:" + strings.TrimSpace(id) }
func boardKey(id string) string   { return "link:board:" + strings.TrimSpace(id) }

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
