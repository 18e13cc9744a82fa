package crocodile

import (
	"context"
	"sync"
	"time"
)

// HintThrottle decides whether a chat may receive another automatic hint.
// Allow records the emission when it returns true.
type HintThrottle interface {
	Allow(ctx context.Context, chatID int64, now time.Time) (bool, error)
}

// MemoryThrottle is a process-local HintThrottle. Its state is lost on
// restart, which only affects hint cadence.
type MemoryThrottle struct {
	window time.Duration

	mu   sync.Mutex
	last map[int64]time.Time
}

func NewMemoryThrottle(window time.Duration) *MemoryThrottle {
	if window <= 0 {
		window = HintCooldown
	}
	return &MemoryThrottle{window: window, last: make(map[int64]time.Time)}
}

func (t *MemoryThrottle) Allow(_ context.Context, chatID int64, now time.Time) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if last, ok := t.last[chatID]; ok && now.Sub(last) < t.window {
		return false, nil
	}
	t.last[chatID] = now
	return true, nil
}

// Prune drops entries older than before. The sweeper calls it so the map
// does not grow with every chat that ever played.
func (t *MemoryThrottle) Prune(before time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for chatID, last := range t.last {
		if last.Before(before) {
			delete(t.last, chatID)
			n++
		}
	}
	return n
}

func (t *MemoryThrottle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.last)
}
