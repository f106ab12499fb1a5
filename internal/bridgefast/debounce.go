package bridgefast

import (
	"bytes"
	"sync"
	"time"
)

// Debouncer drops snapshot frames that repeat the previous frame within the
// window. Sensor boards re-broadcast the full occupancy on a timer, so the
// stream is dominated by identical frames; only edges matter downstream.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	last   []byte
	lastAt time.Time
	now    func() time.Time
}

func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window, now: time.Now}
}

// Admit reports whether the frame should be forwarded. A frame identical to
// the previous one is dropped while the window is open; any change in content
// passes immediately.
func (d *Debouncer) Admit(frame []byte) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if d.last != nil && bytes.Equal(frame, d.last) && now.Sub(d.lastAt) < d.window {
		return false
	}
	d.last = append(d.last[:0], frame...)
	d.lastAt = now
	return true
}
