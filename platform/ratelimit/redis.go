package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter backed by a shared Redis counter so
// the quota holds across API instances. INCR is atomic on the server, which
// gives us the single read-modify-write the contract requires.
type RedisLimiter struct {
	client *redis.Client
	cfg    Config
}

// NewRedis builds a Redis-backed limiter.
func NewRedis(client *redis.Client, cfg Config) *RedisLimiter {
	return &RedisLimiter{client: client, cfg: cfg}
}

func (l *RedisLimiter) Allow(ctx context.Context, endpoint, identity string) (Decision, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", endpoint, identity)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("increment rate limit counter: %w", err)
	}

	// First hit in the window owns setting the expiry.
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.cfg.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("set rate limit window: %w", err)
		}
	}

	if int(count) > l.cfg.Limit {
		retryAfter := l.cfg.Window
		if ttl, ttlErr := l.client.PTTL(ctx, key).Result(); ttlErr == nil && ttl > 0 {
			retryAfter = ttl
		}
		return Decision{
			Allowed:    false,
			Limit:      l.cfg.Limit,
			Remaining:  0,
			RetryAfter: retryAfter,
		}, nil
	}

	return Decision{
		Allowed:   true,
		Limit:     l.cfg.Limit,
		Remaining: l.cfg.Limit - int(count),
	}, nil
}
