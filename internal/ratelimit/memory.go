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

// MemoryLimiter enforces the window in process memory. It is safe for
// concurrent use; each instance holds its own map, so limits are
// per-process in multi-node deployments.
type MemoryLimiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// NewMemoryLimiter builds a limiter with the given window parameters.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

func (l *MemoryLimiter) IsRateLimited(_ context.Context, identifier string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[identifier]
	if !ok || now.After(w.resetAt) {
		l.windows[identifier] = &window{count: 1, resetAt: now.Add(l.cfg.Window)}
		return false, nil
	}

	w.count++
	return w.count > l.cfg.MaxAttempts, nil
}

func (l *MemoryLimiter) RemainingAttempts(_ context.Context, identifier string) (int, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[identifier]
	if !ok || now.After(w.resetAt) {
		return l.cfg.MaxAttempts, nil
	}
	remaining := l.cfg.MaxAttempts - w.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (l *MemoryLimiter) Reset(_ context.Context, identifier string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, identifier)
	return nil
}
