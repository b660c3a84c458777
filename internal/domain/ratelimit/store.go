package ratelimit

import (
	"context"
	"time"
)

// CounterStore is a time-expiring integer key-value store shared by all
// limiter calls. Keys are user scoped, so implementations only need per-key
// atomicity.
type CounterStore interface {
	// Incr adds one to key. An absent or expired key starts from zero and gets
	// ttl as its fixed expiry; later increments do not move the expiry.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Get returns the value and absolute expiry of key. ok is false when the
	// key is absent or expired.
	Get(ctx context.Context, key string) (value int64, expiresAt time.Time, ok bool, err error)
	// SetNX stores value with ttl only when key is absent or expired and
	// reports whether it was stored.
	SetNX(ctx context.Context, key string, value int64, ttl time.Duration) (bool, error)
}

// Clock returns the current time.
type Clock func() time.Time
