package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a fixed-window counter held in process memory. Counters
// are lost on restart, which under-enforces briefly; acceptable for a single
// instance, not for a fleet.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	ceiling int
	period  time.Duration
	now     func() time.Time
}

func NewMemoryLimiter(ceiling int, period time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		ceiling: ceiling,
		period:  period,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, identity string) (bool, time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[identity]
	if !ok || now.After(w.resetAt) {
		l.windows[identity] = &window{count: 1, resetAt: now.Add(l.period)}
		return true, time.Time{}, nil
	}
	if w.count >= l.ceiling {
		return false, w.resetAt, nil
	}
	w.count++
	return true, time.Time{}, nil
}

// Sweep drops expired windows. Invoked periodically from main so the map
// does not grow without bound.
func (l *MemoryLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for id, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, id)
		}
	}
}
