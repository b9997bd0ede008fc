package cache

import (
	"context"
	"sync"
	"time"
)

// Memo is a single-slot cache holding one value for a fixed TTL. Concurrent
// callers share one fetch; the value is refetched only after expiry.
type Memo[T any] struct {
	ttl   time.Duration
	fetch func(ctx context.Context) (T, error)

	mu      sync.Mutex
	value   T
	fetched time.Time
	valid   bool
}

// NewMemo returns a memo that fills itself with fetch and keeps the result
// for ttl.
func NewMemo[T any](ttl time.Duration, fetch func(ctx context.Context) (T, error)) *Memo[T] {
	return &Memo[T]{ttl: ttl, fetch: fetch}
}

// Get returns the cached value, fetching a fresh one when the slot is empty
// or expired. A failed fetch leaves any previous value expired rather than
// serving it stale.
func (m *Memo[T]) Get(ctx context.Context) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && time.Since(m.fetched) < m.ttl {
		return m.value, nil
	}

	v, err := m.fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	m.value = v
	m.fetched = time.Now()
	m.valid = true
	return v, nil
}

// Invalidate empties the slot so the next Get refetches.
func (m *Memo[T]) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valid = false
}
