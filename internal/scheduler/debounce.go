package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Debouncer collapses bursts of re-score requests for the same lead into
// one. The first caller in a window wins via Redis SET NX; everyone else in
// the window is told the work is already pending.
type Debouncer struct {
	rdb    redis.UniversalClient
	window time.Duration
}

// NewDebouncer creates a debouncer over a Redis client.
func NewDebouncer(rdb redis.UniversalClient, window time.Duration) *Debouncer {
	return &Debouncer{rdb: rdb, window: window}
}

// NewRedisClient creates a go-redis client from a Redis URL.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

// Acquire reports whether the caller owns the debounce window for a lead.
// True means no re-score was requested within the window and the caller
// should enqueue; false means one is already pending.
func (d *Debouncer) Acquire(ctx context.Context, leadID uuid.UUID) (bool, error) {
	if d == nil || d.rdb == nil {
		return true, nil
	}

	key := "rescore:debounce:" + leadID.String()
	ok, err := d.rdb.SetNX(ctx, key, 1, d.window).Result()
	if err != nil {
		return false, fmt.Errorf("acquire rescore debounce: %w", err)
	}
	return ok, nil
}

// Release drops the debounce key early, letting the next request through
// immediately. The worker calls this after a re-score completes.
func (d *Debouncer) Release(ctx context.Context, leadID uuid.UUID) error {
	if d == nil || d.rdb == nil {
		return nil
	}
	return d.rdb.Del(ctx, "rescore:debounce:"+leadID.String()).Err()
}
