// Package ratelimit implements fixed-window request counters backed by Redis,
// keyed by (scope, identifier, window bucket). Counters are shared across all
// stateless server instances.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result reports the outcome of one quota consumption attempt.
type Result struct {
	OK            bool `json:"ok"`
	Limit         int  `json:"limit"`
	Count         int  `json:"count"`
	RetryAfterSec int  `json:"retryAfterSec"`
}

// Limiter consumes fixed-window quotas.
type Limiter struct {
	rdb *redis.Client
	now func() time.Time
}

// New creates a limiter over the given Redis client.
func New(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb, now: time.Now}
}

// NewWithClock creates a limiter with an injected clock, for tests.
func NewWithClock(rdb *redis.Client, now func() time.Time) *Limiter {
	return &Limiter{rdb: rdb, now: now}
}

// Consume increments the (scope, identifier) counter for the current window
// and compares it to limit. When the quota is exhausted the counter is not
// pushed past the cap, and the remaining window time is reported so clients
// can back off.
func (l *Limiter) Consume(ctx context.Context, scope, identifier string, limit, windowSec int) (Result, error) {
	if limit <= 0 || windowSec <= 0 {
		return Result{OK: true, Limit: limit}, nil
	}

	nowSec := l.now().Unix()
	bucket := nowSec / int64(windowSec)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", scope, identifier, bucket)

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit incr failed: %w", err)
	}
	if count == 1 {
		// First hit in this window owns the expiry. One extra second covers
		// clock drift between instances.
		l.rdb.Expire(ctx, key, time.Duration(windowSec+1)*time.Second)
	}

	if count > int64(limit) {
		// Roll the overshoot back so the stored counter stays at the cap.
		l.rdb.Decr(ctx, key)
		windowEnd := (bucket + 1) * int64(windowSec)
		retryAfter := int(windowEnd - nowSec)
		if retryAfter < 1 {
			retryAfter = 1
		}
		return Result{OK: false, Limit: limit, Count: limit, RetryAfterSec: retryAfter}, nil
	}

	return Result{OK: true, Limit: limit, Count: int(count)}, nil
}
