package ratelimit

import (
	"context"
	"time"
)

// Config describes a fixed window: at most Limit requests per Window for each
// (endpoint, identity) pair.
type Config struct {
	Limit  int
	Window time.Duration
}

// Decision is the outcome of a limiter check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is how long the caller should wait before retrying; only
	// meaningful when Allowed is false.
	RetryAfter time.Duration
}

// Limiter enforces per-endpoint request quotas. Implementations must make the
// check and the increment a single atomic step so concurrent requests from the
// same identity can never all pass a limit only one of them should.
type Limiter interface {
	Allow(ctx context.Context, endpoint, identity string) (Decision, error)
}
