package summarizer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRecorder records summarization observations.
// The interface abstracts the metrics backend so unit tests can inject a
// mock recorder and other systems can replace Prometheus.
type MetricsRecorder interface {
	// RecordDuration records the time taken by one summarization call.
	RecordDuration(provider string, duration time.Duration)

	// RecordLength records the rune length of a generated summary.
	RecordLength(provider string, length int)

	// RecordFailure increments the failure counter for the provider.
	RecordFailure(provider string)
}

// NoopMetrics is a MetricsRecorder that discards all observations.
type NoopMetrics struct{}

func (NoopMetrics) RecordDuration(string, time.Duration) {}
func (NoopMetrics) RecordLength(string, int)             {}
func (NoopMetrics) RecordFailure(string)                 {}

var (
	callDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "summarizer_call_duration_seconds",
			Help:    "Duration of summarization API calls in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)

	summaryLength = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "summarizer_summary_length_chars",
			Help:    "Length of generated summaries in characters",
			Buckets: prometheus.ExponentialBuckets(100, 2, 8),
		},
		[]string{"provider"},
	)

	callFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarizer_call_failures_total",
			Help: "Total number of failed summarization API calls",
		},
		[]string{"provider"},
	)
)

// PrometheusMetrics implements MetricsRecorder using Prometheus collectors.
type PrometheusMetrics struct{}

// NewPrometheusMetrics creates a Prometheus-backed metrics recorder.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{}
}

// RecordDuration observes the duration of a summarization call.
func (*PrometheusMetrics) RecordDuration(provider string, duration time.Duration) {
	callDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordLength observes the character length of a generated summary.
func (*PrometheusMetrics) RecordLength(provider string, length int) {
	summaryLength.WithLabelValues(provider).Observe(float64(length))
}

// RecordFailure increments the failure counter for the provider.
func (*PrometheusMetrics) RecordFailure(provider string) {
	callFailures.WithLabelValues(provider).Inc()
}
