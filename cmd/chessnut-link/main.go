package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/park285/chessnut-link/internal/board"
	"github.com/park285/chessnut-link/internal/bridgefast"
	appcfg "github.com/park285/chessnut-link/internal/config"
	"github.com/park285/chessnut-link/internal/infer"
	"github.com/park285/chessnut-link/internal/msgcat"
	"github.com/park285/chessnut-link/internal/obslog"
	"github.com/park285/chessnut-link/internal/service/game"
	"github.com/park285/chessnut-link/pkg/linkdto"
)

const lowBatteryThreshold = 15

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = obslog.L().Sync() }()

	client := bridgefast.NewClient(cfg.BridgeBaseURL, bridgefast.WithBoardID(cfg.BoardID))
	ws := bridgefast.NewWebSocket(cfg.BridgeWSURL, 5, time.Second)
	sink := bridgefast.NewLEDSink(cfg.LEDTransport, client, ws, obslog.L())
	deb := bridgefast.NewDebouncer(cfg.SnapshotDebounce)

	engine := infer.NewEngine(
		infer.WithResetDiffLimit(cfg.ResetDiffLimit),
		infer.WithHistoryLimit(cfg.HistoryLimit),
	)

	var catalog *msgcat.Catalog
	if cfg.NoticesEnabled {
		catalog, err = msgcat.New(cfg.NoticeTemplateDir)
		if err != nil {
			log.Fatalf("message catalog error: %v", err)
		}
	}

	var sessions *game.Manager
	if cfg.RedisURL != "" {
		sessions, err = game.NewManager(cfg.RedisURL, time.Duration(cfg.SessionTTLSec)*time.Second)
		if err != nil {
			log.Fatalf("session manager init error: %v", err)
		}
		defer func() { _ = sessions.Close() }()

		if cfg.DatabaseURL != "" {
			repo, rerr := game.NewRepository(cfg.DatabaseURL)
			if rerr != nil {
				log.Fatalf("session repo init error: %v", rerr)
			}
			defer func() { _ = repo.Close() }()
			sessions.AttachArchiver(repo)
		} else {
			sessions.AttachArchiver(game.NewMemArchiver())
		}
	}

	app := &daemon{
		cfg:      cfg,
		client:   client,
		sink:     sink,
		engine:   engine,
		sessions: sessions,
		catalog:  catalog,
	}

	ws.OnSnapshot(func(msg *bridgefast.SnapshotMessage) {
		app.handleSnapshot(msg, deb)
	})
	ws.OnStateChange(app.handleStreamState)
	engine.OnMove(app.handleMove)
	engine.OnHighlight(app.handleHighlight)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cctx, cancel := context.WithTimeout(gctx, 10*time.Second)
		defer cancel()
		return ws.Connect(cctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return ws.Close(closeCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		obslog.L().Error("daemon_exit", zap.Error(err))
		os.Exit(1)
	}

	if sessions != nil {
		endCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := sessions.EndSession(endCtx, cfg.BoardID); err != nil && !errors.Is(err, game.ErrNoActiveSession) {
			obslog.L().Warn("session_end_on_shutdown", zap.Error(err))
		}
	}
	obslog.L().Info("daemon_stopped")
}

type daemon struct {
	cfg      *appcfg.AppConfig
	client   *bridgefast.Client
	sink     bridgefast.LEDSink
	engine   *infer.Engine
	sessions *game.Manager
	catalog  *msgcat.Catalog

	wasConnected  atomic.Bool
	batteryWarned atomic.Bool
}

func (d *daemon) handleSnapshot(msg *bridgefast.SnapshotMessage, deb *bridgefast.Debouncer) {
	frame, err := msg.FrameBytes()
	if err != nil {
		obslog.L().Warn("snapshot_frame_decode", zap.Error(err), zap.Uint64("seq", msg.Seq))
		return
	}
	d.checkBattery(msg.Battery)
	if !deb.Admit(frame) {
		return
	}
	if err := d.engine.SubmitSnapshot(frame); err != nil {
		obslog.L().Warn("snapshot_rejected", zap.Error(err), zap.Uint64("seq", msg.Seq))
	}
}

func (d *daemon) handleMove(ev infer.MoveEvent) {
	if d.sessions != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		_, san, err := d.sessions.AppendMove(ctx, d.cfg.BoardID, ev.Move, ev.FEN)
		if errors.Is(err, game.ErrNoActiveSession) {
			if _, serr := d.sessions.StartSession(ctx, d.cfg.BoardID, ev.FEN); serr == nil {
				d.notify(ctx, "session.started", map[string]any{
					"BoardID": d.cfg.BoardID, "SessionID": sessionIDFor(ctx, d.sessions, d.cfg.BoardID),
				})
				_, san, err = d.sessions.AppendMove(ctx, d.cfg.BoardID, ev.Move, ev.FEN)
			} else {
				err = serr
			}
		}
		if err != nil {
			obslog.L().Error("session_append_error", zap.String("move", ev.Move), zap.Error(err))
		}
		d.publishMove(ctx, ev, san)
		d.notifyMove(ev, san)
		return
	}
	d.notifyMove(ev, "")
}

func (d *daemon) publishMove(ctx context.Context, ev infer.MoveEvent, san string) {
	s, err := d.sessions.ActiveSession(ctx, d.cfg.BoardID)
	if err != nil {
		return
	}
	kind := linkdto.MoveKindSimple
	switch {
	case ev.Castle:
		kind = linkdto.MoveKindCastle
	case ev.Captured != board.Empty:
		kind = linkdto.MoveKindCapture
	}
	dto := &linkdto.MoveEvent{
		SessionID: s.ID,
		BoardID:   d.cfg.BoardID,
		Move:      ev.Move,
		SAN:       san,
		Kind:      kind,
		FEN:       ev.FEN,
		Ply:       len(s.MovesUCI),
		At:        time.Now(),
	}
	if err := d.sessions.PublishMove(ctx, dto); err != nil {
		obslog.L().Warn("move_publish_error", zap.String("move", ev.Move), zap.Error(err))
	}
}

func (d *daemon) notifyMove(ev infer.MoveEvent, san string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	switch {
	case ev.Castle:
		d.notify(ctx, "move.castle", map[string]any{"Move": ev.Move})
	case ev.Captured != board.Empty:
		d.notify(ctx, "move.capture", map[string]any{"Move": ev.Move, "To": ev.To.Name()})
	case san != "":
		d.notify(ctx, "move.annotated", map[string]any{"Move": ev.Move, "SAN": san})
	default:
		d.notify(ctx, "move.detected", map[string]any{"Move": ev.Move})
	}
}

func (d *daemon) handleHighlight(squares []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := d.sink.Set(ctx, squares); err != nil {
		obslog.L().Warn("led_set_error", zap.Strings("squares", squares), zap.Error(err))
	}
}

func (d *daemon) handleStreamState(state bridgefast.WebSocketState) {
	obslog.L().Info("stream_state", zap.String("state", state.String()))
	switch state {
	case bridgefast.WSStateConnected:
		if d.wasConnected.Swap(true) {
			// Reconnect: moves made while the stream was down are
			// unobservable, so adopt whatever the board shows now.
			d.engine.ForceStableBaseline()
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if d.sessions != nil {
				if err := d.sessions.NoteRebaseline(ctx, d.cfg.BoardID, d.engine.StableFEN()); err != nil {
					obslog.L().Warn("session_rebaseline_error", zap.Error(err))
				}
			}
			d.notify(ctx, "stream.reconnected", nil)
		}
	case bridgefast.WSStateReconnecting:
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		d.notify(ctx, "stream.lost", nil)
	}
}

func (d *daemon) checkBattery(level int) {
	if level <= 0 || level > lowBatteryThreshold {
		if level > lowBatteryThreshold {
			d.batteryWarned.Store(false)
		}
		return
	}
	if d.batteryWarned.Swap(true) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	d.notify(ctx, "board.battery_low", map[string]any{"Battery": level})
}

func (d *daemon) notify(ctx context.Context, key string, data map[string]any) {
	if d.catalog == nil {
		return
	}
	text, err := d.catalog.Render(key, data)
	if err != nil {
		obslog.L().Warn("notice_render_error", zap.String("key", key), zap.Error(err))
		return
	}
	if err := d.client.SendNotice(ctx, text); err != nil {
		obslog.L().Warn("notice_send_error", zap.String("key", key), zap.Error(err))
	}
}

func sessionIDFor(ctx context.Context, m *game.Manager, boardID string) string {
	s, err := m.ActiveSession(ctx, boardID)
	if err != nil || s == nil {
		return ""
	}
	return s.ID
}
