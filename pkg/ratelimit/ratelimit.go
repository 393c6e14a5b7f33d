// Package ratelimit provides framework-agnostic sliding-window rate limiting.
//
// A Limiter counts requests per key inside a moving time window using a
// pluggable store. The summarization API runs two independent limiters over
// the same key space: a short-window burst limiter and a long-window daily
// limiter.
package ratelimit

import (
	"context"
	"time"
)

// Clock provides an abstraction for time operations to enable testing.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// SystemClock is a Clock implementation that uses the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time { return time.Now() }

// Store is the storage backend for rate limit state.
//
// Implementations must be safe for concurrent use. The check-and-add
// operation is atomic so that concurrent requests cannot slip past the limit
// between a read and a write.
type Store interface {
	// CheckAndAdd atomically counts the requests for key newer than cutoff
	// and, if the count is below limit, records a request at now.
	//
	// Returns whether the request was admitted and the count of requests in
	// the window after the operation.
	CheckAndAdd(ctx context.Context, key string, now, cutoff time.Time, limit int) (allowed bool, count int, err error)

	// Cleanup removes request records older than cutoff.
	Cleanup(ctx context.Context, cutoff time.Time) error

	// KeyCount returns the number of keys currently tracked.
	KeyCount(ctx context.Context) (int, error)
}
