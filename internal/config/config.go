package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	BridgeBaseURL string
	BridgeWSURL   string

	BoardID string

	RedisURL    string
	DatabaseURL string

	LEDTransport string // http | ws | auto

	SessionTTLSec    int
	HistoryLimit     int
	ResetDiffLimit   int
	SnapshotDebounce time.Duration

	NoticeTemplateDir string
	NoticesEnabled    bool
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		BoardID:          "board-1",
		LEDTransport:     "auto",
		SessionTTLSec:    3600,
		HistoryLimit:     10,
		ResetDiffLimit:   10,
		SnapshotDebounce: 50 * time.Millisecond,
		NoticesEnabled:   true,
	}

	cfg.BridgeBaseURL = strings.TrimSpace(os.Getenv("BRIDGE_BASE_URL"))
	cfg.BridgeWSURL = strings.TrimSpace(os.Getenv("BRIDGE_WS_URL"))

	if v := strings.TrimSpace(os.Getenv("BOARD_ID")); v != "" {
		cfg.BoardID = v
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("LED_TRANSPORT"))); v != "" {
		switch v {
		case "http", "ws", "auto":
			cfg.LEDTransport = v
		}
	}

	if v := strings.TrimSpace(os.Getenv("SESSION_TTL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("HISTORY_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("RESET_DIFF_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ResetDiffLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SNAPSHOT_DEBOUNCE_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.SnapshotDebounce = time.Duration(n) * time.Millisecond
		}
	}

	cfg.NoticeTemplateDir = strings.TrimSpace(os.Getenv("NOTICE_TEMPLATE_DIR"))
	if v := strings.TrimSpace(os.Getenv("NOTICES_ENABLED")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.NoticesEnabled = b
		}
	}

	if cfg.BridgeBaseURL == "" {
		return nil, errors.New("BRIDGE_BASE_URL is required")
	}
	if cfg.BridgeWSURL == "" {
		return nil, errors.New("BRIDGE_WS_URL is required")
	}

	return cfg, nil
}
