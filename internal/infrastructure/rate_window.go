package infrastructure

import (
	"sync"
	"time"
)

// RateWindow admits at most limit requests within any trailing window.
// Rejections are immediate: callers never wait for a slot.
type RateWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	hits   []time.Time
}

func NewRateWindow(limit int, window time.Duration, now func() time.Time) *RateWindow {
	if now == nil {
		now = time.Now
	}
	return &RateWindow{
		limit:  limit,
		window: window,
		now:    now,
		hits:   make([]time.Time, 0, limit),
	}
}

// Allow prunes stale entries, then records the request if a slot is free
func (w *RateWindow) Allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.prune(now)

	if len(w.hits) >= w.limit {
		return false
	}

	w.hits = append(w.hits, now)
	return true
}

// Remaining reports how many requests would currently be admitted
func (w *RateWindow) Remaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(w.now())
	return w.limit - len(w.hits)
}

func (w *RateWindow) prune(now time.Time) {
	stale := 0
	for stale < len(w.hits) && now.Sub(w.hits[stale]) >= w.window {
		stale++
	}
	if stale > 0 {
		w.hits = append(w.hits[:0], w.hits[stale:]...)
	}
}
