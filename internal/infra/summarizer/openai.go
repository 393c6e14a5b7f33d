package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"pdfdigest/internal/resilience/circuitbreaker"
	"pdfdigest/internal/utils/text"
	"pdfdigest/pkg/config"
)

// OpenAIConfig holds configuration parameters for the OpenAI summarizer.
type OpenAIConfig struct {
	// Model is the OpenAI API model identifier to use for summarization.
	Model string

	// MaxTokens is the maximum number of tokens for the API response.
	MaxTokens int

	// Timeout is the maximum duration for a single summarization API call.
	// The caller's context is bounded by this on every request.
	Timeout time.Duration

	// RequestsPerSecond paces outbound calls to the API. The dispatcher
	// launches one call per chunk with no concurrency cap, so the pacer is
	// what keeps a large document from bursting straight into the
	// provider's rate limit. Zero disables pacing.
	RequestsPerSecond float64

	// BaseURL overrides the API endpoint. Used in tests; empty means the
	// public API.
	BaseURL string
}

// Validate checks the configuration and returns an error if invalid.
func (c *OpenAIConfig) Validate() error {
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

// LoadOpenAIConfig loads configuration from environment variables.
//
// Environment variables:
//   - OPENAI_MODEL: model identifier (default: gpt-4o-mini)
//   - OPENAI_MAX_TOKENS: response token budget (default: 2048)
//   - OPENAI_RPS: outbound requests per second, 0 disables pacing (default: 4)
func LoadOpenAIConfig() (*OpenAIConfig, error) {
	cfg := &OpenAIConfig{
		Model:             config.GetEnvString("OPENAI_MODEL", "gpt-4o-mini"),
		MaxTokens:         config.GetEnvInt("OPENAI_MAX_TOKENS", 2048),
		Timeout:           60 * time.Second,
		RequestsPerSecond: float64(config.GetEnvInt("OPENAI_RPS", 4)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid OpenAI configuration: %w", err)
	}

	return cfg, nil
}

// OpenAI implements the Summarizer interface using OpenAI's chat API.
// Calls run behind a circuit breaker and an outbound pacer, with a fixed
// per-call timeout. There is no retry: a failed call is final.
type OpenAI struct {
	client  *openai.Client
	breaker *circuitbreaker.CircuitBreaker
	pacer   *rate.Limiter
	config  OpenAIConfig
	metrics MetricsRecorder
}

// NewOpenAI creates a new OpenAI summarizer with the given API key.
func NewOpenAI(apiKey string, cfg OpenAIConfig) *OpenAI {
	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	var pacer *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		pacer = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	slog.Info("initialized OpenAI summarizer",
		slog.String("model", cfg.Model),
		slog.Float64("requests_per_second", cfg.RequestsPerSecond))

	return &OpenAI{
		client:  openai.NewClientWithConfig(clientConfig),
		breaker: circuitbreaker.New(circuitbreaker.OpenAIAPIConfig()),
		pacer:   pacer,
		config:  cfg,
		metrics: NewPrometheusMetrics(),
	}
}

// Summarize generates a titled summary of the given text in the target
// language.
func (o *OpenAI) Summarize(ctx context.Context, inputText, language string) (Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	if o.pacer != nil {
		if err := o.pacer.Wait(ctx); err != nil {
			return Summary{}, fmt.Errorf("openai request pacing: %w", err)
		}
	}

	result, err := o.breaker.Execute(func() (interface{}, error) {
		return o.doSummarize(ctx, inputText, language)
	})
	if err != nil {
		o.metrics.RecordFailure("openai")
		if errors.Is(err, gobreaker.ErrOpenState) {
			slog.Warn("openai api circuit breaker open, request rejected",
				slog.String("state", o.breaker.State().String()))
			return Summary{}, fmt.Errorf("openai api unavailable: circuit breaker open")
		}
		return Summary{}, err
	}

	return result.(Summary), nil
}

// doSummarize performs the actual API call without the circuit breaker.
func (o *OpenAI) doSummarize(ctx context.Context, inputText, language string) (Summary, error) {
	slog.InfoContext(ctx, "starting summarization",
		slog.String("provider", "openai"),
		slog.Int("input_length", text.CountRunes(inputText)),
		slog.String("language", language))

	start := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.config.Model,
		MaxTokens: o.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(language)},
			{Role: openai.ChatMessageRoleUser, Content: inputText},
		},
	})

	duration := time.Since(start)
	o.metrics.RecordDuration("openai", duration)

	if err != nil {
		slog.ErrorContext(ctx, "summarization failed",
			slog.String("provider", "openai"),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return Summary{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Summary{}, fmt.Errorf("openai api returned empty response")
	}

	summary, err := parseModelOutput(resp.Choices[0].Message.Content)
	if err != nil {
		slog.ErrorContext(ctx, "summarization output rejected",
			slog.String("provider", "openai"),
			slog.String("error", err.Error()))
		return Summary{}, err
	}

	o.metrics.RecordLength("openai", text.CountRunes(summary.Summary))

	slog.InfoContext(ctx, "summarization completed",
		slog.String("provider", "openai"),
		slog.Int("summary_length", text.CountRunes(summary.Summary)),
		slog.Duration("duration", duration))

	return summary, nil
}
