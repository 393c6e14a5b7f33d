// Package config loads and validates the service configuration.
//
// Configuration comes from environment variables, with an optional YAML file
// overlay for the parts operators tune most often (rate limits and the
// ingress blocklist). Secrets only ever come from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pdfdigest/internal/service/botcheck"
	"pdfdigest/pkg/config"
)

// Provider names the LLM backend used for summarization.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderClaude Provider = "claude"
	ProviderNoop   Provider = "noop"
)

// minTokenSecretLength is the minimum byte length accepted for the HMAC
// signing secret. Shorter secrets are trivially brute-forceable.
const minTokenSecretLength = 32

// weakSecrets are placeholder values that must never reach production.
var weakSecrets = map[string]bool{
	"secret":           true,
	"changeme":         true,
	"your-secret-here": true,
	"default-secret-key-change-in-production": true,
}

// RateLimitConfig controls the two request limiters on the summarize
// endpoint. Disabled limiters fail open; that is an explicit operator
// choice, not a fallback.
type RateLimitConfig struct {
	Enabled     bool          `yaml:"enabled"`
	BurstLimit  int           `yaml:"burst_limit"`
	BurstWindow time.Duration `yaml:"burst_window"`
	DailyLimit  int           `yaml:"daily_limit"`
	DailyWindow time.Duration `yaml:"daily_window"`
}

// IngressConfig controls the request filter in front of every endpoint.
type IngressConfig struct {
	MaxBodyBytes  int64    `yaml:"max_body_bytes"`
	BlockedAgents []string `yaml:"blocked_agents"`
}

// Config is the full service configuration.
type Config struct {
	ListenAddr string

	// TokenSecret signs human-verification tokens. The service refuses to
	// start without it.
	TokenSecret string

	TurnstileSecret   string
	TurnstileEndpoint string

	Provider     Provider
	OpenAIAPIKey string
	ClaudeAPIKey string

	// TrustProxyHeaders enables client IP extraction from forwarding
	// headers. Only safe behind a proxy that strips inbound copies.
	TrustProxyHeaders bool

	RateLimit RateLimitConfig
	Ingress   IngressConfig
}

// UnmarshalYAML decodes window fields from duration strings such as "30s"
// or "24h", which yaml.v3 does not handle for time.Duration on its own.
func (r *RateLimitConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Enabled     bool   `yaml:"enabled"`
		BurstLimit  int    `yaml:"burst_limit"`
		BurstWindow string `yaml:"burst_window"`
		DailyLimit  int    `yaml:"daily_limit"`
		DailyWindow string `yaml:"daily_window"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	r.Enabled = raw.Enabled
	r.BurstLimit = raw.BurstLimit
	r.DailyLimit = raw.DailyLimit

	var err error
	if raw.BurstWindow != "" {
		if r.BurstWindow, err = time.ParseDuration(raw.BurstWindow); err != nil {
			return fmt.Errorf("parse burst_window: %w", err)
		}
	}
	if raw.DailyWindow != "" {
		if r.DailyWindow, err = time.ParseDuration(raw.DailyWindow); err != nil {
			return fmt.Errorf("parse daily_window: %w", err)
		}
	}

	return nil
}

// fileOverlay is the YAML-tunable subset of the configuration.
type fileOverlay struct {
	RateLimit *RateLimitConfig `yaml:"rate_limit"`
	Ingress   *IngressConfig   `yaml:"ingress"`
}

// defaultBlockedAgents covers the scripted clients filtered at ingress.
func defaultBlockedAgents() []string {
	return []string{"curl", "wget", "python-requests", "scrapy"}
}

// Load reads the configuration from the environment and, when CONFIG_FILE
// is set, overlays the YAML file on top of the tunable sections.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:        config.GetEnvString("LISTEN_ADDR", ":8080"),
		TokenSecret:       os.Getenv("TOKEN_SECRET"),
		TurnstileSecret:   os.Getenv("TURNSTILE_SECRET_KEY"),
		TurnstileEndpoint: config.GetEnvString("TURNSTILE_ENDPOINT", botcheck.DefaultEndpoint),
		Provider:          Provider(strings.ToLower(config.GetEnvString("LLM_PROVIDER", string(ProviderOpenAI)))),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		ClaudeAPIKey:      os.Getenv("CLAUDE_API_KEY"),
		TrustProxyHeaders: config.GetEnvBool("TRUST_PROXY_HEADERS", true),
		RateLimit: RateLimitConfig{
			Enabled:     config.GetEnvBool("RATE_LIMIT_ENABLED", true),
			BurstLimit:  config.GetEnvInt("RATE_LIMIT_BURST", 30),
			BurstWindow: time.Minute,
			DailyLimit:  config.GetEnvInt("RATE_LIMIT_DAILY", 200),
			DailyWindow: 24 * time.Hour,
		},
		Ingress: IngressConfig{
			MaxBodyBytes:  int64(config.GetEnvInt("MAX_BODY_BYTES", 2*1024*1024)),
			BlockedAgents: defaultBlockedAgents(),
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFile overlays the YAML file at path onto the tunable sections.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if overlay.RateLimit != nil {
		c.RateLimit = *overlay.RateLimit
	}
	if overlay.Ingress != nil {
		if overlay.Ingress.MaxBodyBytes > 0 {
			c.Ingress.MaxBodyBytes = overlay.Ingress.MaxBodyBytes
		}
		if overlay.Ingress.BlockedAgents != nil {
			c.Ingress.BlockedAgents = overlay.Ingress.BlockedAgents
		}
	}

	slog.Info("configuration file applied", slog.String("path", path))
	return nil
}

// Validate checks that the configuration can safely run the service.
// Token signing fails closed: a missing or weak secret aborts startup.
func (c *Config) Validate() error {
	if c.TokenSecret == "" {
		return fmt.Errorf("TOKEN_SECRET is required")
	}
	if weakSecrets[c.TokenSecret] {
		return fmt.Errorf("TOKEN_SECRET is a known placeholder value")
	}
	if len(c.TokenSecret) < minTokenSecretLength {
		return fmt.Errorf("TOKEN_SECRET must be at least %d bytes, got %d", minTokenSecretLength, len(c.TokenSecret))
	}

	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderClaude:
		if c.ClaudeAPIKey == "" {
			return fmt.Errorf("CLAUDE_API_KEY is required for the claude provider")
		}
	case ProviderNoop:
	default:
		return fmt.Errorf("unknown LLM provider %q", c.Provider)
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.BurstLimit <= 0 || c.RateLimit.BurstWindow <= 0 {
			return fmt.Errorf("burst rate limit requires a positive limit and window")
		}
		if c.RateLimit.DailyLimit <= 0 || c.RateLimit.DailyWindow <= 0 {
			return fmt.Errorf("daily rate limit requires a positive limit and window")
		}
	}

	if c.Ingress.MaxBodyBytes <= 0 {
		return fmt.Errorf("ingress max body bytes must be positive")
	}

	return nil
}
