// Package ratelimit bounds the frequency of sensitive actions (logins,
// role changes) per identifier using a fixed-size sliding window.
package ratelimit

import (
	"context"
	"time"
)

// Limiter counts attempts per identifier within a sliding window.
type Limiter interface {
	// IsRateLimited records one attempt and reports whether the identifier
	// has exceeded the configured maximum within the current window.
	IsRateLimited(ctx context.Context, identifier string) (bool, error)

	// RemainingAttempts reports how many attempts are left in the current
	// window, or the full allowance when the window has expired or the
	// identifier is unseen.
	RemainingAttempts(ctx context.Context, identifier string) (int, error)

	// Reset clears all state for the identifier immediately.
	Reset(ctx context.Context, identifier string) error
}

// Config holds the window parameters shared by all backends.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Window <= 0 {
		c.Window = time.Minute
	}
	return c
}
