package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"pdfdigest/internal/resilience/circuitbreaker"
	"pdfdigest/internal/utils/text"
	"pdfdigest/pkg/config"
)

// ClaudeConfig holds configuration parameters for the Claude summarizer.
type ClaudeConfig struct {
	// Model is the Claude API model identifier to use for summarization.
	Model string

	// MaxTokens is the maximum number of tokens for the API response.
	MaxTokens int

	// Timeout is the maximum duration for a single summarization API call.
	Timeout time.Duration

	// RequestsPerSecond paces outbound calls. Zero disables pacing.
	RequestsPerSecond float64
}

// Validate checks the configuration and returns an error if invalid.
func (c *ClaudeConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative, got %f", c.RequestsPerSecond)
	}
	return nil
}

// LoadClaudeConfig loads configuration from environment variables.
//
// Environment variables:
//   - CLAUDE_MODEL: model identifier (default: the SDK's Sonnet constant)
//   - CLAUDE_MAX_TOKENS: response token budget (default: 2048)
//   - CLAUDE_RPS: outbound requests per second, 0 disables pacing (default: 4)
func LoadClaudeConfig() (*ClaudeConfig, error) {
	cfg := &ClaudeConfig{
		Model:             config.GetEnvString("CLAUDE_MODEL", string(anthropic.ModelClaudeSonnet4_5_20250929)),
		MaxTokens:         config.GetEnvInt("CLAUDE_MAX_TOKENS", 2048),
		Timeout:           60 * time.Second,
		RequestsPerSecond: float64(config.GetEnvInt("CLAUDE_RPS", 4)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Claude configuration: %w", err)
	}

	return cfg, nil
}

// Claude implements the Summarizer interface using Anthropic's Claude API.
// Calls run behind a circuit breaker and an outbound pacer, with a fixed
// per-call timeout. There is no retry: a failed call is final.
type Claude struct {
	client  anthropic.Client
	breaker *circuitbreaker.CircuitBreaker
	pacer   *rate.Limiter
	config  ClaudeConfig
	metrics MetricsRecorder
}

// NewClaude creates a new Claude summarizer with the given API key.
func NewClaude(apiKey string, cfg ClaudeConfig) *Claude {
	var pacer *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		pacer = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	slog.Info("initialized Claude summarizer",
		slog.String("model", cfg.Model),
		slog.Float64("requests_per_second", cfg.RequestsPerSecond))

	return &Claude{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		breaker: circuitbreaker.New(circuitbreaker.ClaudeAPIConfig()),
		pacer:   pacer,
		config:  cfg,
		metrics: NewPrometheusMetrics(),
	}
}

// Summarize generates a titled summary of the given text in the target
// language.
func (c *Claude) Summarize(ctx context.Context, inputText, language string) (Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return Summary{}, fmt.Errorf("claude request pacing: %w", err)
		}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doSummarize(ctx, inputText, language)
	})
	if err != nil {
		c.metrics.RecordFailure("claude")
		if errors.Is(err, gobreaker.ErrOpenState) {
			slog.Warn("claude api circuit breaker open, request rejected",
				slog.String("state", c.breaker.State().String()))
			return Summary{}, fmt.Errorf("claude api unavailable: circuit breaker open")
		}
		return Summary{}, err
	}

	return result.(Summary), nil
}

// doSummarize performs the actual API call without the circuit breaker.
func (c *Claude) doSummarize(ctx context.Context, inputText, language string) (Summary, error) {
	requestID := uuid.New().String()

	slog.InfoContext(ctx, "starting summarization",
		slog.String("provider", "claude"),
		slog.String("request_id", requestID),
		slog.Int("input_length", text.CountRunes(inputText)),
		slog.String("language", language))

	start := time.Now()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(buildSystemPrompt(language) + "\n\n" + inputText),
			),
		},
	})

	duration := time.Since(start)
	c.metrics.RecordDuration("claude", duration)

	if err != nil {
		slog.ErrorContext(ctx, "summarization failed",
			slog.String("provider", "claude"),
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return Summary{}, fmt.Errorf("claude api error: %w", err)
	}

	if len(message.Content) == 0 {
		return Summary{}, fmt.Errorf("claude api returned empty response")
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return Summary{}, fmt.Errorf("claude api returned unexpected response type")
	}

	summary, err := parseModelOutput(textBlock.Text)
	if err != nil {
		slog.ErrorContext(ctx, "summarization output rejected",
			slog.String("provider", "claude"),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return Summary{}, err
	}

	c.metrics.RecordLength("claude", text.CountRunes(summary.Summary))

	slog.InfoContext(ctx, "summarization completed",
		slog.String("provider", "claude"),
		slog.String("request_id", requestID),
		slog.Int("summary_length", text.CountRunes(summary.Summary)),
		slog.Duration("duration", duration))

	return summary, nil
}
