// Package requestid tags every request with an identifier that ties the
// response header and all log lines for that request together.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header is the request and response header carrying the identifier.
const Header = "X-Request-ID"

// maxInboundLength caps accepted client-supplied identifiers. Anything
// longer is replaced, so a hostile client cannot inflate log lines.
const maxInboundLength = 64

type contextKey struct{}

// FromContext returns the request ID stored in ctx, or "" when absent.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

// NewContext returns ctx carrying the given request ID.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// Middleware ensures every request has an identifier: an acceptable inbound
// X-Request-ID is kept so callers can correlate across services, otherwise a
// fresh UUID is minted. The ID is echoed in the response header and stored
// in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" || len(id) > maxInboundLength {
			id = uuid.New().String()
		}

		w.Header().Set(Header, id)

		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id)))
	})
}
