package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Config holds the configuration for a single sliding-window limiter.
type Config struct {
	// Name identifies the limiter in decisions, logs and metrics,
	// e.g. "burst" or "daily".
	Name string

	// Limit is the maximum number of requests per key within Window.
	Limit int

	// Window is the sliding time window.
	Window time.Duration

	// Clock provides time operations. Default: SystemClock.
	Clock Clock

	// Metrics records limiter observations. Default: NoopMetrics.
	Metrics MetricsRecorder
}

// BurstConfig returns the default short-window limiter configuration:
// 30 requests per minute per client.
func BurstConfig() Config {
	return Config{Name: "burst", Limit: 30, Window: time.Minute}
}

// DailyConfig returns the default long-window limiter configuration:
// 200 requests per 24 hours per client.
func DailyConfig() Config {
	return Config{Name: "daily", Limit: 200, Window: 24 * time.Hour}
}

// Limiter is a sliding-window rate limiter over a pluggable store.
type Limiter struct {
	config  Config
	store   Store
	clock   Clock
	metrics MetricsRecorder
}

// New creates a limiter with the given configuration and store.
func New(config Config, store Store) (*Limiter, error) {
	if config.Limit <= 0 {
		return nil, fmt.Errorf("limiter %q: limit must be positive, got %d", config.Name, config.Limit)
	}
	if config.Window <= 0 {
		return nil, fmt.Errorf("limiter %q: window must be positive, got %v", config.Name, config.Window)
	}
	if store == nil {
		return nil, fmt.Errorf("limiter %q: store is required", config.Name)
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}
	if config.Metrics == nil {
		config.Metrics = NoopMetrics{}
	}

	return &Limiter{
		config:  config,
		store:   store,
		clock:   config.Clock,
		metrics: config.Metrics,
	}, nil
}

// Name returns the limiter's configured name.
func (l *Limiter) Name() string { return l.config.Name }

// Check determines whether a request for key is within the limit, recording
// the request when it is. The returned decision carries limit, remaining and
// reset metadata regardless of the verdict.
func (l *Limiter) Check(ctx context.Context, key string) (*Decision, error) {
	start := l.clock.Now()
	cutoff := start.Add(-l.config.Window)
	resetAt := start.Add(l.config.Window)

	allowed, count, err := l.store.CheckAndAdd(ctx, key, start, cutoff, l.config.Limit)
	if err != nil {
		return nil, fmt.Errorf("rate limit check for %q: %w", key, err)
	}

	l.metrics.RecordCheckDuration(l.config.Name, l.clock.Now().Sub(start))

	if !allowed {
		l.metrics.RecordDenied(l.config.Name)
		return newDeniedDecision(key, l.config.Name, l.config.Limit, resetAt, start), nil
	}

	l.metrics.RecordAllowed(l.config.Name)
	return newAllowedDecision(key, l.config.Name, l.config.Limit, l.config.Limit-count, resetAt, start), nil
}

// StartCleanup launches a background goroutine that periodically prunes
// expired request records from the store. It stops when ctx is cancelled.
func (l *Limiter) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = l.config.Window
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := l.clock.Now().Add(-l.config.Window)
				if err := l.store.Cleanup(ctx, cutoff); err != nil {
					slog.Warn("rate limit store cleanup failed",
						slog.String("limiter", l.config.Name),
						slog.String("error", err.Error()))
					continue
				}
				if count, err := l.store.KeyCount(ctx); err == nil {
					l.metrics.SetActiveKeys(l.config.Name, count)
				}
			}
		}
	}()
}
