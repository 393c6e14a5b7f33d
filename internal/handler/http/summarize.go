// Package http wires the API surface: request validation, bot verification,
// summarization dispatch, and the middleware chain around them.
package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"pdfdigest/internal/chunk"
	"pdfdigest/internal/handler/http/middleware"
	"pdfdigest/internal/handler/http/respond"
	"pdfdigest/internal/usecase/summarize"
	"pdfdigest/internal/utils/text"
)

const (
	// maxTextRunes caps the text accepted for summarization.
	maxTextRunes = 100_000

	// maxLanguageRunes caps the requested output language name.
	maxLanguageRunes = 50
)

// humanTokenCookie is the cookie carrying the human-verification token.
const humanTokenCookie = "human_token"

// humanTokenHeader is the header alternative for clients without cookies.
const humanTokenHeader = "X-Human-Token"

// TokenVerifier checks a previously issued human-verification token.
type TokenVerifier interface {
	Verify(token string) bool
}

// summarizeRequest is the POST /api/summarize payload.
type summarizeRequest struct {
	Text       string `json:"text"`
	Language   string `json:"language"`
	HumanToken string `json:"human_token"`
}

// summarizeResponse is the success payload: the whole-document summary.
type summarizeResponse struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Chunks  int    `json:"chunks"`
}

// SummarizeHandler serves POST /api/summarize.
type SummarizeHandler struct {
	service      *summarize.Service
	tokens       TokenVerifier
	trustHeaders bool
	logger       *slog.Logger
}

// NewSummarizeHandler creates the summarize endpoint handler.
func NewSummarizeHandler(service *summarize.Service, tokens TokenVerifier, trustHeaders bool, logger *slog.Logger) *SummarizeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummarizeHandler{
		service:      service,
		tokens:       tokens,
		trustHeaders: trustHeaders,
		logger:       logger,
	}
}

// humanToken resolves the verification token for a request. The cookie wins,
// then the header, then the request body field.
func humanToken(r *http.Request, body *summarizeRequest) string {
	if c, err := r.Cookie(humanTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get(humanTokenHeader); h != "" {
		return h
	}
	return body.HumanToken
}

// validate checks the request payload bounds.
func (req *summarizeRequest) validate() error {
	textLen := text.CountRunes(req.Text)
	if textLen == 0 {
		return fmt.Errorf("text is required")
	}
	if textLen > maxTextRunes {
		return fmt.Errorf("text must be at most %d characters", maxTextRunes)
	}

	langLen := text.CountRunes(req.Language)
	if langLen == 0 {
		return fmt.Errorf("language is required")
	}
	if langLen > maxLanguageRunes {
		return fmt.Errorf("language must be at most %d characters", maxLanguageRunes)
	}

	return nil
}

// ServeHTTP handles a summarization request.
func (h *SummarizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if err := req.validate(); err != nil {
		respond.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.tokens.Verify(humanToken(r, &req)) {
		respond.Message(w, http.StatusForbidden, "Bot check required. Please complete verification.")
		return
	}

	chunks := chunk.Split(req.Text)
	chunks, final := h.service.Run(r.Context(), chunks, req.Language)

	status := http.StatusOK
	if final == summarize.Fallback() {
		// Nothing usable came back from the model; the body still carries
		// the renderable fallback.
		status = http.StatusInternalServerError
		h.logger.Error("summarization produced no result",
			slog.Int("chunks", len(chunks)),
			slog.String("client_ip", middleware.ClientIP(r, h.trustHeaders)))
	}

	respond.JSON(w, status, summarizeResponse{
		Title:   final.Title,
		Summary: final.Summary,
		Chunks:  len(chunks),
	})
}
