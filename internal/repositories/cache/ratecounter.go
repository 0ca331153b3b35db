package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateCounter is a fixed-window request counter shared by every running
// instance through Redis.
type RateCounter struct {
	client redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
}

func NewRateCounter(client redis.Cmdable, prefix string, limit int, window time.Duration) *RateCounter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateCounter{client: client, prefix: prefix, limit: int64(limit), window: window}
}

// RateDecision is the outcome of one Allow call.
type RateDecision struct {
	Allowed   bool
	Count     int64
	Remaining int64
	ResetIn   time.Duration
}

// Allow increments the caller's counter for the current window. The key
// expires with the window so no state outlives it.
func (r *RateCounter) Allow(ctx context.Context, subject string) (RateDecision, error) {
	key := fmt.Sprintf("%s:%s", r.prefix, subject)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, r.window)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return RateDecision{}, fmt.Errorf("rate counter: %w", err)
	}

	count := incr.Val()
	remaining := r.limit - count
	if remaining < 0 {
		remaining = 0
	}
	reset := ttl.Val()
	if reset < 0 {
		reset = r.window
	}
	return RateDecision{
		Allowed:   count <= r.limit,
		Count:     count,
		Remaining: remaining,
		ResetIn:   reset,
	}, nil
}

func (r *RateCounter) Limit() int64 {
	return r.limit
}
