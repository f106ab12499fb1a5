package bridgefast

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var errNotConnected = errors.New("ws not connected")

// LEDSink abstracts LED commands over HTTP or the websocket.
type LEDSink interface {
	Set(ctx context.Context, squares []string) error
	Clear(ctx context.Context) error
}

type transportMode string

const (
	transportWS   transportMode = "ws"
	transportAuto transportMode = "auto"
)

// NewLEDSink builds a sink for the given mode. In auto mode the websocket
// is preferred while connected, with a single fallback to HTTP.
func NewLEDSink(mode string, c *Client, ws *WebSocket, logger *zap.Logger) LEDSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch transportMode(mode) {
	case transportWS:
		return &wsLEDSink{ws: ws, boardID: boardIDOf(c)}
	case transportAuto:
		return &autoLEDSink{
			ws:     &wsLEDSink{ws: ws, boardID: boardIDOf(c)},
			http:   &httpLEDSink{c: c},
			logger: logger,
		}
	default:
		return &httpLEDSink{c: c}
	}
}

func boardIDOf(c *Client) string {
	if c == nil {
		return ""
	}
	return c.boardID
}

type httpLEDSink struct{ c *Client }

func (h *httpLEDSink) Set(ctx context.Context, squares []string) error {
	if h == nil || h.c == nil {
		return errors.New("http led sink not available")
	}
	return h.c.SetLEDs(ctx, squares)
}

func (h *httpLEDSink) Clear(ctx context.Context) error {
	if h == nil || h.c == nil {
		return errors.New("http led sink not available")
	}
	return h.c.ClearLEDs(ctx)
}

type wsLEDSink struct {
	ws      *WebSocket
	boardID string
}

func (w *wsLEDSink) Set(ctx context.Context, squares []string) error {
	if w == nil || w.ws == nil {
		return errors.New("ws led sink not available")
	}
	if squares == nil {
		squares = []string{}
	}
	return w.ws.writeCommand(ctx, &wsCommand{Type: "led", BoardID: w.boardID, Squares: squares})
}

func (w *wsLEDSink) Clear(ctx context.Context) error {
	return w.Set(ctx, []string{})
}

type autoLEDSink struct {
	ws     *wsLEDSink
	http   *httpLEDSink
	logger *zap.Logger
}

func (a *autoLEDSink) Set(ctx context.Context, squares []string) error {
	if a.ws != nil && a.ws.ws != nil && a.ws.ws.State() == WSStateConnected {
		if err := a.ws.Set(ctx, squares); err == nil {
			return nil
		}
		a.logger.Warn("led_sink_fallback", zap.Strings("squares", squares))
	}
	return a.http.Set(ctx, squares)
}

func (a *autoLEDSink) Clear(ctx context.Context) error {
	return a.Set(ctx, []string{})
}
