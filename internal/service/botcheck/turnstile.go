// Package botcheck integrates with Cloudflare Turnstile to verify that a
// challenge token was solved by a human before a signed verification token
// is issued.
package botcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is Cloudflare's Turnstile verification endpoint.
const DefaultEndpoint = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Verifier checks an external bot-challenge token.
type Verifier interface {
	// Verify forwards the challenge token and the client's address to the
	// verification service. It returns whether the challenge succeeded.
	// An error means the service could not be reached or answered
	// unexpectedly, not that the challenge failed.
	Verify(ctx context.Context, challengeToken, remoteIP string) (bool, error)
}

// Turnstile is a Verifier backed by Cloudflare's siteverify endpoint.
type Turnstile struct {
	secret   string
	endpoint string
	client   *http.Client
}

// Option configures optional Turnstile behavior.
type Option func(*Turnstile)

// WithEndpoint overrides the verification endpoint. Used in tests.
func WithEndpoint(endpoint string) Option {
	return func(t *Turnstile) { t.endpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Turnstile) { t.client = client }
}

// NewTurnstile creates a Turnstile verifier with the given shared secret.
// Returns an error if the secret is empty; bot verification must not run
// with a missing secret.
func NewTurnstile(secret string, opts ...Option) (*Turnstile, error) {
	if secret == "" {
		return nil, fmt.Errorf("turnstile secret is required")
	}

	t := &Turnstile{
		secret:   secret,
		endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// siteverifyResponse is the subset of the Turnstile response we act on.
type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify forwards the challenge token to the siteverify endpoint.
func (t *Turnstile) Verify(ctx context.Context, challengeToken, remoteIP string) (bool, error) {
	form := url.Values{
		"secret":   {t.secret},
		"response": {challengeToken},
		"remoteip": {remoteIP},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("siteverify request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var outcome siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		return false, fmt.Errorf("decode siteverify response: %w", err)
	}

	return outcome.Success, nil
}
