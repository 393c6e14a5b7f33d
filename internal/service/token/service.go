// Package token issues and verifies short-lived signed bot-verification
// tokens. A token proves that its holder completed an external bot challenge
// within the validity window.
//
// Wire format: "<identifier>:<unixMillis>.<hexMAC>" where the MAC is
// HMAC-SHA-256 over "<identifier>:<unixMillis>" with a server-held secret.
// The identifier is carried for audit only; verification does not compare it
// against the caller's current identifier, because clients behind proxies and
// CDNs routinely change apparent address between issuance and use.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL is the validity window of an issued token.
const DefaultTTL = time.Hour

// Clock provides an abstraction for time operations to enable testing.
type Clock interface {
	Now() time.Time
}

// SystemClock is a Clock implementation that uses the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time { return time.Now() }

// Service signs and verifies verification tokens with a process-wide secret.
// The secret is required configuration: construction fails closed on an empty
// secret rather than falling back to a default that would silently weaken
// every token in production.
type Service struct {
	secret []byte
	ttl    time.Duration
	clock  Clock
}

// Option configures optional Service behavior.
type Option func(*Service)

// WithClock injects a clock, primarily for expiry tests.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithTTL overrides the default one-hour validity window.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// New creates a token service with the given signing secret.
// Returns an error if the secret is empty.
func New(secret string, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("token signing secret is required")
	}

	s := &Service{
		secret: []byte(secret),
		ttl:    DefaultTTL,
		clock:  SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %v", s.ttl)
	}

	return s, nil
}

// TTL returns the validity window of issued tokens.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed token for the given client identifier.
// The identifier is normalized before signing; see NormalizeIdentifier.
func (s *Service) Issue(identifier string) string {
	payload := fmt.Sprintf("%s:%d", NormalizeIdentifier(identifier), s.clock.Now().UnixMilli())
	return payload + "." + hex.EncodeToString(s.sign(payload))
}

// Verify reports whether the token is authentic and unexpired.
// It never returns an error: any malformed input is simply invalid.
//
// A token is rejected when it is empty, lacks the payload/MAC separator,
// has a malformed payload or non-numeric timestamp, is older than the TTL,
// or carries a MAC that does not match the recomputed one. The MAC
// comparison is constant-time.
func (s *Service) Verify(tok string) bool {
	if tok == "" {
		return false
	}

	// The MAC is hex and never contains a dot, while a dotted-quad
	// identifier does, so the separator is the last dot.
	dot := strings.LastIndex(tok, ".")
	if dot <= 0 || dot == len(tok)-1 {
		return false
	}
	payload, sigHex := tok[:dot], tok[dot+1:]

	// IPv6 identifiers contain colons, so the timestamp is everything
	// after the last one.
	sep := strings.LastIndex(payload, ":")
	if sep <= 0 || sep == len(payload)-1 {
		return false
	}

	issuedMillis, err := strconv.ParseInt(payload[sep+1:], 10, 64)
	if err != nil {
		return false
	}

	if s.clock.Now().UnixMilli()-issuedMillis > s.ttl.Milliseconds() {
		return false
	}

	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}

	return hmac.Equal(sig, s.sign(payload))
}

func (s *Service) sign(payload string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}

var ipv4MappedPattern = regexp.MustCompile(`^::ffff:(\d{1,3}(?:\.\d{1,3}){3})$`)

// NormalizeIdentifier canonicalizes a client identifier before signing or
// rate limiting: trims whitespace, lowercases, maps the IPv6 loopback to the
// IPv4 loopback string, and unwraps IPv4-mapped IPv6 addresses to their bare
// IPv4 form. This keeps the same client from appearing under several spellings
// of the same address.
func NormalizeIdentifier(identifier string) string {
	value := strings.ToLower(strings.TrimSpace(identifier))
	if value == "" {
		return ""
	}
	if value == "::1" {
		return "127.0.0.1"
	}
	if m := ipv4MappedPattern.FindStringSubmatch(value); m != nil {
		return m[1]
	}
	return value
}
