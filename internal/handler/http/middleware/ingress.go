package middleware

import (
	"net/http"
	"strings"

	"pdfdigest/internal/handler/http/respond"
)

// IngressConfig controls the request filter applied before routing.
type IngressConfig struct {
	// MaxBodyBytes rejects requests whose declared Content-Length exceeds
	// it, and caps actual body reads at the same size.
	MaxBodyBytes int64

	// BlockedAgents are case-insensitive substrings matched against the
	// User-Agent header. Matching requests are rejected outright.
	BlockedAgents []string

	// SummarizePath is the path restricted to POST requests.
	SummarizePath string
}

// Ingress returns middleware that screens every request before it reaches a
// handler: oversized bodies get 413, scripted clients get 403, and the
// summarize endpoint only accepts POST.
func Ingress(cfg IngressConfig) func(http.Handler) http.Handler {
	blocked := make([]string, len(cfg.BlockedAgents))
	for i, agent := range cfg.BlockedAgents {
		blocked[i] = strings.ToLower(agent)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.MaxBodyBytes > 0 && r.ContentLength > cfg.MaxBodyBytes {
				respond.Message(w, http.StatusRequestEntityTooLarge, "Request too large")
				return
			}

			userAgent := strings.ToLower(r.Header.Get("User-Agent"))
			for _, agent := range blocked {
				if strings.Contains(userAgent, agent) {
					respond.Message(w, http.StatusForbidden, "Forbidden")
					return
				}
			}

			if cfg.SummarizePath != "" && r.URL.Path == cfg.SummarizePath && r.Method != http.MethodPost {
				w.Header().Set("Allow", http.MethodPost)
				respond.Message(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}

			// Content-Length can lie; cap the actual read too.
			if cfg.MaxBodyBytes > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxBodyBytes)
			}

			next.ServeHTTP(w, r)
		})
	}
}
