// Package main runs the summarization API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdfdigest/internal/config"
	hhttp "pdfdigest/internal/handler/http"
	"pdfdigest/internal/handler/http/middleware"
	"pdfdigest/internal/infra/summarizer"
	"pdfdigest/internal/observability/logging"
	"pdfdigest/internal/observability/tracing"
	"pdfdigest/internal/service/botcheck"
	"pdfdigest/internal/service/token"
	"pdfdigest/internal/usecase/summarize"
	"pdfdigest/pkg/ratelimit"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx)
	if err != nil {
		logger.Error("tracing init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("tracing shutdown failed", slog.Any("error", err))
		}
	}()

	tokens, err := token.New(cfg.TokenSecret)
	if err != nil {
		logger.Error("token service init failed", slog.Any("error", err))
		os.Exit(1)
	}

	verifier, err := botcheck.NewTurnstile(cfg.TurnstileSecret, botcheck.WithEndpoint(cfg.TurnstileEndpoint))
	if err != nil {
		logger.Error("bot check init failed", slog.Any("error", err))
		os.Exit(1)
	}

	gateway, err := buildGateway(cfg)
	if err != nil {
		logger.Error("summarizer init failed", slog.Any("error", err))
		os.Exit(1)
	}

	burst, daily, err := buildLimiters(ctx, cfg)
	if err != nil {
		logger.Error("rate limiter init failed", slog.Any("error", err))
		os.Exit(1)
	}

	service := summarize.NewService(gateway, logger)

	router := hhttp.NewRouter(hhttp.RouterConfig{
		Logger:    logger,
		Summarize: hhttp.NewSummarizeHandler(service, tokens, cfg.TrustProxyHeaders, logger),
		Verify:    hhttp.NewVerifyHandler(verifier, tokens, cfg.TrustProxyHeaders, logger),
		Ingress: middleware.IngressConfig{
			MaxBodyBytes:  cfg.Ingress.MaxBodyBytes,
			BlockedAgents: cfg.Ingress.BlockedAgents,
			SummarizePath: "/api/summarize",
		},
		BurstLimiter:      burst,
		DailyLimiter:      daily,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	runServer(ctx, logger, cfg.ListenAddr, router)
}

// buildGateway constructs the configured LLM backend.
func buildGateway(cfg *config.Config) (summarizer.Summarizer, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		openAICfg, err := summarizer.LoadOpenAIConfig()
		if err != nil {
			return nil, err
		}
		return summarizer.NewOpenAI(cfg.OpenAIAPIKey, *openAICfg), nil
	case config.ProviderClaude:
		claudeCfg, err := summarizer.LoadClaudeConfig()
		if err != nil {
			return nil, err
		}
		return summarizer.NewClaude(cfg.ClaudeAPIKey, *claudeCfg), nil
	default:
		return summarizer.NewNoOp(), nil
	}
}

// buildLimiters constructs the burst and daily limiters with background
// cleanup, or nil limiters when rate limiting is disabled.
func buildLimiters(ctx context.Context, cfg *config.Config) (middleware.Checker, middleware.Checker, error) {
	if !cfg.RateLimit.Enabled {
		slog.Warn("rate limiting disabled by configuration")
		return nil, nil, nil
	}

	metrics := ratelimit.NewPrometheusMetrics()

	burst, err := ratelimit.New(ratelimit.Config{
		Name:    "burst",
		Limit:   cfg.RateLimit.BurstLimit,
		Window:  cfg.RateLimit.BurstWindow,
		Metrics: metrics,
	}, ratelimit.NewInMemoryStore(ratelimit.DefaultInMemoryStoreConfig()))
	if err != nil {
		return nil, nil, err
	}

	daily, err := ratelimit.New(ratelimit.Config{
		Name:    "daily",
		Limit:   cfg.RateLimit.DailyLimit,
		Window:  cfg.RateLimit.DailyWindow,
		Metrics: metrics,
	}, ratelimit.NewInMemoryStore(ratelimit.DefaultInMemoryStoreConfig()))
	if err != nil {
		return nil, nil, err
	}

	burst.StartCleanup(ctx, 10*time.Minute)
	daily.StartCleanup(ctx, time.Hour)

	return burst, daily, nil
}

// runServer starts the HTTP server and blocks until shutdown completes.
func runServer(ctx context.Context, logger *slog.Logger, addr string, handler http.Handler) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if err := srv.Close(); err != nil {
				logger.Error("forced close failed", slog.Any("error", err))
			}
		}
	}

	logger.Info("server stopped")
}
