package http

import (
	"log/slog"
	"net/http"

	"pdfdigest/internal/handler/http/middleware"
	"pdfdigest/internal/handler/http/requestid"
	"pdfdigest/internal/observability/tracing"
)

// RouterConfig holds everything the router needs to assemble the API.
type RouterConfig struct {
	Logger *slog.Logger

	Summarize *SummarizeHandler
	Verify    *VerifyHandler

	Ingress middleware.IngressConfig

	// BurstLimiter and DailyLimiter guard the summarize endpoint only.
	// Nil disables the corresponding limiter.
	BurstLimiter middleware.Checker
	DailyLimiter middleware.Checker

	TrustProxyHeaders bool
}

// NewRouter assembles the HTTP handler tree with the full middleware chain.
//
// Chain, outermost first: request ID, tracing, panic recovery, logging,
// metrics, ingress filter, then the mux. Rate limiting wraps only the
// summarize endpoint; verification and probes stay unthrottled.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limited := middleware.RateLimit(cfg.BurstLimiter, cfg.DailyLimiter, cfg.TrustProxyHeaders, logger)

	mux := http.NewServeMux()
	mux.Handle("POST /api/summarize", limited(cfg.Summarize))
	mux.Handle("POST /api/verify", cfg.Verify)
	mux.Handle("GET /healthz", HealthHandler())
	mux.Handle("GET /metrics", MetricsHandler())

	var handler http.Handler = mux
	handler = middleware.Ingress(cfg.Ingress)(handler)
	handler = MetricsMiddleware(handler)
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	handler = tracing.Middleware(handler)
	handler = requestid.Middleware(handler)

	return handler
}
