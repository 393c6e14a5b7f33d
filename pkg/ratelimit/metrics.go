package ratelimit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRecorder records rate limiting observations.
//
// The interface keeps the limiter decoupled from the metrics system so tests
// can inject a recorder and other backends can be swapped in.
type MetricsRecorder interface {
	// RecordAllowed records an admitted request for the named limiter.
	RecordAllowed(limiterName string)

	// RecordDenied records a rejected request for the named limiter.
	RecordDenied(limiterName string)

	// RecordCheckDuration records how long a limit check took.
	RecordCheckDuration(limiterName string, duration time.Duration)

	// SetActiveKeys records the number of keys currently tracked.
	SetActiveKeys(limiterName string, count int)
}

// NoopMetrics is a MetricsRecorder that discards all observations.
type NoopMetrics struct{}

func (NoopMetrics) RecordAllowed(string)                      {}
func (NoopMetrics) RecordDenied(string)                       {}
func (NoopMetrics) RecordCheckDuration(string, time.Duration) {}
func (NoopMetrics) SetActiveKeys(string, int)                 {}

var (
	checksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_checks_total",
			Help: "Total number of rate limit checks by limiter and verdict",
		},
		[]string{"limiter", "verdict"},
	)

	checkDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ratelimit_check_duration_seconds",
			Help:    "Duration of rate limit checks in seconds",
			Buckets: []float64{.00005, .0001, .0005, .001, .005, .01},
		},
		[]string{"limiter"},
	)

	activeKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ratelimit_active_keys",
			Help: "Number of keys currently tracked per limiter",
		},
		[]string{"limiter"},
	)
)

// PrometheusMetrics implements MetricsRecorder using Prometheus collectors.
type PrometheusMetrics struct{}

// NewPrometheusMetrics creates a Prometheus-backed metrics recorder.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{}
}

// RecordAllowed increments the check counter with an "allowed" verdict.
func (*PrometheusMetrics) RecordAllowed(limiterName string) {
	checksTotal.WithLabelValues(limiterName, "allowed").Inc()
}

// RecordDenied increments the check counter with a "denied" verdict.
func (*PrometheusMetrics) RecordDenied(limiterName string) {
	checksTotal.WithLabelValues(limiterName, "denied").Inc()
}

// RecordCheckDuration observes the duration of a limit check.
func (*PrometheusMetrics) RecordCheckDuration(limiterName string, duration time.Duration) {
	checkDuration.WithLabelValues(limiterName).Observe(duration.Seconds())
}

// SetActiveKeys records the current number of tracked keys.
func (*PrometheusMetrics) SetActiveKeys(limiterName string, count int) {
	activeKeys.WithLabelValues(limiterName).Set(float64(count))
}
