package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a thread-safe in-memory implementation of Store.
//
// Request timestamps are tracked per key in a plain map. Expired timestamps
// are pruned lazily during CheckAndAdd and in bulk by Cleanup, which the
// owning process should run periodically to bound memory for keys that went
// quiet.
type InMemoryStore struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	maxKeys  int
}

// InMemoryStoreConfig holds configuration for InMemoryStore.
type InMemoryStoreConfig struct {
	// MaxKeys caps the number of tracked keys. When the cap is reached,
	// new keys are still admitted but trigger an inline prune of empty
	// entries. Default: 10000.
	MaxKeys int
}

// DefaultInMemoryStoreConfig returns the default configuration.
func DefaultInMemoryStoreConfig() InMemoryStoreConfig {
	return InMemoryStoreConfig{MaxKeys: 10000}
}

// NewInMemoryStore creates a new in-memory rate limit store.
func NewInMemoryStore(config InMemoryStoreConfig) *InMemoryStore {
	if config.MaxKeys <= 0 {
		config.MaxKeys = 10000
	}
	return &InMemoryStore{
		requests: make(map[string][]time.Time),
		maxKeys:  config.MaxKeys,
	}
}

// CheckAndAdd atomically counts requests for key inside the window and
// records the new request when it is within limit.
func (s *InMemoryStore) CheckAndAdd(_ context.Context, key string, now, cutoff time.Time, limit int) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timestamps := pruneBefore(s.requests[key], cutoff)

	if len(timestamps) >= limit {
		s.requests[key] = timestamps
		return false, len(timestamps), nil
	}

	if _, exists := s.requests[key]; !exists && len(s.requests) >= s.maxKeys {
		s.pruneEmptyLocked(cutoff)
	}

	timestamps = append(timestamps, now)
	s.requests[key] = timestamps
	return true, len(timestamps), nil
}

// Cleanup removes request records older than cutoff and drops keys that
// become empty.
func (s *InMemoryStore) Cleanup(_ context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneEmptyLocked(cutoff)
	return nil
}

// KeyCount returns the number of keys currently tracked.
func (s *InMemoryStore) KeyCount(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests), nil
}

func (s *InMemoryStore) pruneEmptyLocked(cutoff time.Time) {
	for key, timestamps := range s.requests {
		kept := pruneBefore(timestamps, cutoff)
		if len(kept) == 0 {
			delete(s.requests, key)
			continue
		}
		s.requests[key] = kept
	}
}

// pruneBefore drops timestamps at or before cutoff. Timestamps are appended
// in arrival order, so the slice is sorted and a single scan suffices.
func pruneBefore(timestamps []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(timestamps) && !timestamps[idx].After(cutoff) {
		idx++
	}
	if idx == 0 {
		return timestamps
	}
	return append([]time.Time(nil), timestamps[idx:]...)
}
