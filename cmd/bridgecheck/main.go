package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/park285/chessnut-link/internal/bridgefast"
)

func main() {
	baseURL := os.Getenv("BRIDGE_BASE_URL")
	wsURL := os.Getenv("BRIDGE_WS_URL")
	boardID := os.Getenv("BOARD_ID")

	if baseURL == "" {
		log.Fatal("BRIDGE_BASE_URL is required")
	}

	client := bridgefast.NewClient(baseURL,
		bridgefast.WithBoardID(boardID),
		bridgefast.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := client.Status(ctx)
	if err != nil {
		log.Printf("/status error: %v", err)
	} else {
		log.Printf("/status ok: model=%s firmware=%s battery=%d connected=%v", st.Model, st.Firmware, st.Battery, st.Connected)
	}

	if wsURL == "" {
		log.Println("BRIDGE_WS_URL not set; skipping WS check")
		return
	}

	ws := bridgefast.NewWebSocket(wsURL, 5, time.Second)
	ws.OnStateChange(func(state bridgefast.WebSocketState) {
		log.Printf("WS state: %s", state)
	})
	ws.OnSnapshot(func(msg *bridgefast.SnapshotMessage) {
		frame, err := msg.FrameBytes()
		if err != nil {
			log.Printf("WS snapshot seq=%d frame decode error: %v", msg.Seq, err)
			return
		}
		fmt.Printf("WS snapshot board=%s seq=%d bytes=%d battery=%d\n", msg.BoardID, msg.Seq, len(frame), msg.Battery)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}

	// Observe for a short window
	t := time.NewTimer(10 * time.Second)
	<-t.C

	_ = ws.Close(context.Background())
}
