package ratelimit

import (
	"fmt"
	"time"
)

// Decision is the result of a rate limit check, carrying the verdict and the
// metadata clients need to understand the current limit state.
type Decision struct {
	// Key is the identifier the check was performed for.
	Key string

	// Allowed indicates whether the request should be permitted.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Remaining is the number of requests left in the current window.
	Remaining int

	// ResetAt is when the window resets; clients should wait until then.
	ResetAt time.Time

	// RetryAfter is ResetAt expressed as a wait duration from now.
	RetryAfter time.Duration

	// LimiterName identifies which limiter produced this decision,
	// e.g. "burst" or "daily".
	LimiterName string
}

// String returns a human-readable representation of the decision.
func (d *Decision) String() string {
	if d.Allowed {
		return fmt.Sprintf("Decision{Allowed: true, Key: %s, Limiter: %s, Remaining: %d/%d}",
			d.Key, d.LimiterName, d.Remaining, d.Limit)
	}
	return fmt.Sprintf("Decision{Allowed: false, Key: %s, Limiter: %s, Limit: %d, RetryAfter: %s}",
		d.Key, d.LimiterName, d.Limit, d.RetryAfter)
}

// ResetAtUnix returns the reset time as a Unix timestamp in seconds,
// suitable for X-RateLimit-Reset headers.
func (d *Decision) ResetAtUnix() int64 {
	return d.ResetAt.Unix()
}

// RetryAfterSeconds returns the retry delay in whole seconds, never negative,
// suitable for Retry-After headers.
func (d *Decision) RetryAfterSeconds() int64 {
	seconds := int64(d.RetryAfter.Seconds())
	if seconds < 0 {
		return 0
	}
	return seconds
}

func newAllowedDecision(key, limiterName string, limit, remaining int, resetAt time.Time, now time.Time) *Decision {
	return &Decision{
		Key:         key,
		Allowed:     true,
		Limit:       limit,
		Remaining:   remaining,
		ResetAt:     resetAt,
		RetryAfter:  maxDuration(resetAt.Sub(now), 0),
		LimiterName: limiterName,
	}
}

func newDeniedDecision(key, limiterName string, limit int, resetAt time.Time, now time.Time) *Decision {
	return &Decision{
		Key:         key,
		Allowed:     false,
		Limit:       limit,
		Remaining:   0,
		ResetAt:     resetAt,
		RetryAfter:  maxDuration(resetAt.Sub(now), 0),
		LimiterName: limiterName,
	}
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
