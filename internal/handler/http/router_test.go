package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	handler "pdfdigest/internal/handler/http"
	"pdfdigest/internal/handler/http/middleware"
	"pdfdigest/internal/usecase/summarize"
	"pdfdigest/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// denyAll is a Checker that always denies.
type denyAll struct{}

func (denyAll) Check(_ context.Context, key string) (*ratelimit.Decision, error) {
	return &ratelimit.Decision{
		Key:         key,
		Allowed:     false,
		Limit:       30,
		ResetAt:     time.Now().Add(time.Minute),
		RetryAfter:  time.Minute,
		LimiterName: "burst",
	}, nil
}

func newRouter(burst, daily middleware.Checker) http.Handler {
	svc := summarize.NewService(&echoGateway{}, nil)
	return handler.NewRouter(handler.RouterConfig{
		Summarize: handler.NewSummarizeHandler(svc, staticVerifier{accept: "good-token"}, true, nil),
		Verify:    handler.NewVerifyHandler(&scriptedBotcheck{ok: true}, issuerFunc(func(string) string { return "tok" }), true, nil),
		Ingress: middleware.IngressConfig{
			MaxBodyBytes:  2 * 1024 * 1024,
			BlockedAgents: []string{"curl", "wget", "python-requests", "scrapy"},
			SummarizePath: "/api/summarize",
		},
		BurstLimiter:      burst,
		DailyLimiter:      daily,
		TrustProxyHeaders: true,
	})
}

type issuerFunc func(identifier string) string

func (f issuerFunc) Issue(identifier string) string { return f(identifier) }

func do(router http.Handler, method, path, body, userAgent string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("User-Agent", userAgent)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

const browserUA = "Mozilla/5.0"

func TestRouter_Health(t *testing.T) {
	w := do(newRouter(nil, nil), http.MethodGet, "/healthz", "", browserUA)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, w.Header().Get("X-Trace-Id"))
}

func TestRouter_Metrics(t *testing.T) {
	w := do(newRouter(nil, nil), http.MethodGet, "/metrics", "", browserUA)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_UnknownPath(t *testing.T) {
	w := do(newRouter(nil, nil), http.MethodGet, "/nope", "", browserUA)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_IngressMethodFilter(t *testing.T) {
	w := do(newRouter(nil, nil), http.MethodGet, "/api/summarize", "", browserUA)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "POST", w.Header().Get("Allow"))
}

func TestRouter_IngressAgentFilter(t *testing.T) {
	w := do(newRouter(nil, nil), http.MethodGet, "/healthz", "", "curl/8.4.0")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_RateLimitOnlyGuardsSummarize(t *testing.T) {
	router := newRouter(denyAll{}, nil)

	w := do(router, http.MethodPost, "/api/summarize",
		`{"text": "hi", "language": "English", "human_token": "good-token"}`, browserUA)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	w = do(router, http.MethodPost, "/api/verify", `{"token": "challenge"}`, browserUA)
	assert.Equal(t, http.StatusOK, w.Code, "verification endpoint is never throttled")

	w = do(router, http.MethodGet, "/healthz", "", browserUA)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_SummarizeEndToEnd(t *testing.T) {
	w := do(newRouter(nil, nil), http.MethodPost, "/api/summarize",
		`{"text": "hello", "language": "English", "human_token": "good-token"}`, browserUA)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "The Title")
}
