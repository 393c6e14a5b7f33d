package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"pdfdigest/internal/handler/http/respond"
	"pdfdigest/internal/service/token"
	"pdfdigest/pkg/ratelimit"
)

// Checker is the limiter surface the middleware depends on.
type Checker interface {
	Check(ctx context.Context, key string) (*ratelimit.Decision, error)
}

const (
	burstDeniedMsg = "Too many requests. Please slow down and try again."
	dailyDeniedMsg = "Daily rate limit exceeded. Please try again tomorrow."
)

// RateLimit applies the burst and daily limiters to each request, keyed by
// the normalized client address. The burst limiter runs first; a burst
// denial short-circuits without consuming daily quota.
//
// A nil limiter is skipped, and a limiter error fails open with a log line.
// Refusing service because the limiter broke would be worse than briefly
// losing the limit.
func RateLimit(burst, daily Checker, trustHeaders bool, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := token.NormalizeIdentifier(ClientIP(r, trustHeaders))

			if denied := check(r.Context(), burst, key, w, burstDeniedMsg, logger); denied {
				return
			}
			if denied := check(r.Context(), daily, key, w, dailyDeniedMsg, logger); denied {
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// check runs one limiter and writes the denial response when it denies.
// Returns true when the request must not proceed.
func check(ctx context.Context, limiter Checker, key string, w http.ResponseWriter, deniedMsg string, logger *slog.Logger) bool {
	if limiter == nil {
		return false
	}

	decision, err := limiter.Check(ctx, key)
	if err != nil {
		logger.Error("rate limit check failed, allowing request",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return false
	}

	writeLimitHeaders(w, decision)
	if decision.Allowed {
		return false
	}

	logger.Warn("rate limit exceeded",
		slog.String("limiter", decision.LimiterName),
		slog.String("key", key),
		slog.Int("limit", decision.Limit))

	w.Header().Set("Retry-After", strconv.FormatInt(decision.RetryAfterSeconds(), 10))
	respond.Message(w, http.StatusTooManyRequests, deniedMsg)
	return true
}

// writeLimitHeaders exposes the limiter state to clients. The most recently
// consulted limiter wins, so after a pass through both, the headers describe
// the daily quota.
func writeLimitHeaders(w http.ResponseWriter, d *ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAtUnix(), 10))
}
