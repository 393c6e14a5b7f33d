package http

import (
	"net/http"

	"pdfdigest/internal/handler/http/respond"
)

// HealthHandler serves GET /healthz for liveness probes.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
