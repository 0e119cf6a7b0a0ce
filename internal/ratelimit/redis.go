package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Key format: ratelimit:<identifier>
const keyPrefix = "ratelimit:"

// attemptScript increments the counter and starts the window TTL on the
// first attempt, atomically.
var attemptScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter enforces the window in Redis so multiple process instances
// share one counter per identifier.
type RedisLimiter struct {
	cfg    Config
	client *redis.Client
}

// NewRedisLimiter wraps an existing Redis client.
func NewRedisLimiter(client *redis.Client, cfg Config) *RedisLimiter {
	return &RedisLimiter{cfg: cfg.withDefaults(), client: client}
}

func (l *RedisLimiter) IsRateLimited(ctx context.Context, identifier string) (bool, error) {
	count, err := attemptScript.Run(ctx, l.client, []string{l.key(identifier)}, l.cfg.Window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit attempt: %w", err)
	}
	return count > int64(l.cfg.MaxAttempts), nil
}

func (l *RedisLimiter) RemainingAttempts(ctx context.Context, identifier string) (int, error) {
	count, err := l.client.Get(ctx, l.key(identifier)).Int64()
	if err == redis.Nil {
		return l.cfg.MaxAttempts, nil
	}
	if err != nil {
		return 0, fmt.Errorf("rate limit read: %w", err)
	}
	remaining := l.cfg.MaxAttempts - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (l *RedisLimiter) Reset(ctx context.Context, identifier string) error {
	if err := l.client.Del(ctx, l.key(identifier)).Err(); err != nil {
		return fmt.Errorf("rate limit reset: %w", err)
	}
	return nil
}

func (l *RedisLimiter) key(identifier string) string {
	return keyPrefix + identifier
}
