package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"pdfdigest/internal/handler/http/middleware"
	"pdfdigest/internal/handler/http/respond"
	"pdfdigest/internal/service/botcheck"
)

// cookieMaxAgeSeconds matches the verification token lifetime.
const cookieMaxAgeSeconds = 3600

// TokenIssuer mints a signed human-verification token for an identifier.
type TokenIssuer interface {
	Issue(identifier string) string
}

// verifyRequest is the POST /api/verify payload: the solved challenge
// token from the browser widget.
type verifyRequest struct {
	Token string `json:"token"`
}

// verifyResponse carries the minted verification token. The token also
// travels in a cookie; the body copy serves clients that cannot use one.
type verifyResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// VerifyHandler serves POST /api/verify.
type VerifyHandler struct {
	verifier     botcheck.Verifier
	issuer       TokenIssuer
	trustHeaders bool
	logger       *slog.Logger
}

// NewVerifyHandler creates the human-verification endpoint handler.
func NewVerifyHandler(verifier botcheck.Verifier, issuer TokenIssuer, trustHeaders bool, logger *slog.Logger) *VerifyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerifyHandler{
		verifier:     verifier,
		issuer:       issuer,
		trustHeaders: trustHeaders,
		logger:       logger,
	}
}

// ServeHTTP exchanges a solved challenge for a signed verification token.
func (h *VerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if req.Token == "" {
		respond.Message(w, http.StatusBadRequest, "Token missing")
		return
	}

	clientIP := middleware.ClientIP(r, h.trustHeaders)

	ok, err := h.verifier.Verify(r.Context(), req.Token, clientIP)
	if err != nil {
		h.logger.Error("bot check service unreachable",
			slog.String("client_ip", clientIP),
			slog.String("error", err.Error()))
		respond.Message(w, http.StatusBadGateway, "Verification service unavailable")
		return
	}
	if !ok {
		h.logger.Warn("bot check failed", slog.String("client_ip", clientIP))
		respond.Message(w, http.StatusForbidden, "Verification failed")
		return
	}

	token := h.issuer.Issue(clientIP)

	http.SetCookie(w, &http.Cookie{
		Name:     humanTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   cookieMaxAgeSeconds,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	respond.JSON(w, http.StatusOK, verifyResponse{Success: true, Token: token})
}
