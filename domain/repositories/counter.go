package repositories

import (
	"context"
	"time"
)

// CounterStore is the shared external key-value store behind rate
// accounting. Increment must be atomic across concurrent callers; the
// key expires ttl after the last write.
type CounterStore interface {
	// Get returns the current count for key, or 0 if the key is absent.
	Get(ctx context.Context, key string) (int64, error)
	// Increment atomically adds one to key, refreshes its ttl, and
	// returns the new count.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
