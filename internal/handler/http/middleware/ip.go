// Package middleware holds the request filters that run in front of the API
// handlers: client address resolution, the ingress filter, and rate limiting.
package middleware

import (
	"net"
	"net/http"
	"strings"
)

// fallbackIP stands in when no client address can be determined. Requests
// without one still get rate limited, just under a shared bucket.
const fallbackIP = "127.0.0.1"

// ClientIP resolves the client address of a request.
//
// With trustHeaders set, forwarding headers win over the socket address:
// CF-Connecting-IP first, then the first entry of X-Forwarded-For, then
// X-Real-IP. Without it, only the socket address counts. Trusting headers
// is only safe behind a proxy that strips inbound copies.
func ClientIP(r *http.Request, trustHeaders bool) string {
	if trustHeaders {
		if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
			return ip
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return fallbackIP
	}
	if host == "" {
		return fallbackIP
	}
	return host
}
