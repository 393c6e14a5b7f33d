package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	handler "pdfdigest/internal/handler/http"
	"pdfdigest/internal/infra/summarizer"
	"pdfdigest/internal/usecase/summarize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoGateway returns a fixed summary, or fails every call. The dispatcher
// calls it from one goroutine per chunk, so the counter is guarded.
type echoGateway struct {
	mu      sync.Mutex
	failAll bool
	calls   int
}

func (g *echoGateway) Summarize(_ context.Context, text, _ string) (summarizer.Summary, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	if g.failAll {
		return summarizer.Summary{}, assert.AnError
	}
	return summarizer.Summary{Title: "The Title", Summary: "<p>" + text + "</p>"}, nil
}

func (g *echoGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// staticVerifier accepts exactly one token value.
type staticVerifier struct {
	accept string
}

func (v staticVerifier) Verify(tok string) bool { return tok != "" && tok == v.accept }

func newSummarizeHandler(gateway summarizer.Summarizer, verifier handler.TokenVerifier) *handler.SummarizeHandler {
	svc := summarize.NewService(gateway, nil)
	return handler.NewSummarizeHandler(svc, verifier, true, nil)
}

func postSummarize(t *testing.T, h http.Handler, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/summarize", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(r)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestSummarize_Success(t *testing.T) {
	gateway := &echoGateway{}
	h := newSummarizeHandler(gateway, staticVerifier{accept: "good-token"})

	w := postSummarize(t, h, `{"text": "hello world", "language": "English"}`, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "human_token", Value: "good-token"})
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
		Chunks  int    `json:"chunks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "The Title", resp.Title)
	assert.NotEmpty(t, resp.Summary)
	assert.Greater(t, resp.Chunks, 0)
}

func TestSummarize_TokenSources(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		mutate func(*http.Request)
		want   int
	}{
		{
			name: "cookie",
			body: `{"text": "hi", "language": "English"}`,
			mutate: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "human_token", Value: "good-token"})
			},
			want: http.StatusOK,
		},
		{
			name: "header",
			body: `{"text": "hi", "language": "English"}`,
			mutate: func(r *http.Request) {
				r.Header.Set("X-Human-Token", "good-token")
			},
			want: http.StatusOK,
		},
		{
			name: "body field",
			body: `{"text": "hi", "language": "English", "human_token": "good-token"}`,
			want: http.StatusOK,
		},
		{
			name: "cookie wins over bad body token",
			body: `{"text": "hi", "language": "English", "human_token": "wrong"}`,
			mutate: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "human_token", Value: "good-token"})
			},
			want: http.StatusOK,
		},
		{
			name: "no token",
			body: `{"text": "hi", "language": "English"}`,
			want: http.StatusForbidden,
		},
		{
			name: "wrong token",
			body: `{"text": "hi", "language": "English", "human_token": "wrong"}`,
			want: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newSummarizeHandler(&echoGateway{}, staticVerifier{accept: "good-token"})
			w := postSummarize(t, h, tt.body, tt.mutate)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), "Bot check required")
			}
		})
	}
}

func TestSummarize_Validation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantBody string
	}{
		{
			name:     "malformed json",
			body:     "{not json",
			wantBody: "Invalid request",
		},
		{
			name:     "empty text",
			body:     `{"text": "", "language": "English", "human_token": "good-token"}`,
			wantBody: "text is required",
		},
		{
			name:     "text too long",
			body:     `{"text": "` + strings.Repeat("a", 100_001) + `", "language": "English", "human_token": "good-token"}`,
			wantBody: "at most 100000 characters",
		},
		{
			name:     "empty language",
			body:     `{"text": "hi", "language": "", "human_token": "good-token"}`,
			wantBody: "language is required",
		},
		{
			name:     "language too long",
			body:     `{"text": "hi", "language": "` + strings.Repeat("x", 51) + `", "human_token": "good-token"}`,
			wantBody: "at most 50 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &echoGateway{}
			h := newSummarizeHandler(gateway, staticVerifier{accept: "good-token"})
			w := postSummarize(t, h, tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.Equal(t, 0, gateway.callCount(), "validation failures must not reach the gateway")
		})
	}
}

func TestSummarize_TextLengthBoundary(t *testing.T) {
	h := newSummarizeHandler(&echoGateway{}, staticVerifier{accept: "good-token"})

	body := `{"text": "` + strings.Repeat("a", 100_000) + `", "language": "English", "human_token": "good-token"}`
	w := postSummarize(t, h, body, nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSummarize_AllCallsFailReturnsFallback(t *testing.T) {
	h := newSummarizeHandler(&echoGateway{failAll: true}, staticVerifier{accept: "good-token"})

	w := postSummarize(t, h, `{"text": "hi", "language": "English", "human_token": "good-token"}`, nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, summarize.Fallback().Title, resp.Title)
	assert.Equal(t, summarize.Fallback().Summary, resp.Summary)
}
