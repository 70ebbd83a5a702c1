package adapters

import (
	"context"
	"sync"
	"time"
)

// MemoryCounterStore is an in-memory implementation of CounterStore.
// It backs tests and single-instance deployments where no shared store
// is configured; counts are lost on restart.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counts   map[string]int64
	expiries map[string]time.Time
	now      func() time.Time
}

// NewMemoryCounterStore creates a new in-memory counter store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counts:   make(map[string]int64),
		expiries: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Get implements CounterStore. Expired keys read as 0.
func (m *MemoryCounterStore) Get(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.expired(key) {
		return 0, nil
	}
	return m.counts[key], nil
}

// Increment implements CounterStore. The expiry is refreshed on every
// write, matching the external store's TTL semantics.
func (m *MemoryCounterStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.expired(key) {
		delete(m.counts, key)
	}
	m.counts[key]++
	m.expiries[key] = m.now().Add(ttl)
	return m.counts[key], nil
}

func (m *MemoryCounterStore) expired(key string) bool {
	expiry, ok := m.expiries[key]
	return ok && m.now().After(expiry)
}
