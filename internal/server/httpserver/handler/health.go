package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/snapwatch-go/internal/core/domain"
	"github.com/yndnr/snapwatch-go/internal/infra/buildinfo"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "healthy",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": buildinfo.Version,
	})
}

// handleReady handles GET /ready. The server is ready once every source
// has completed a poll.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	var pending []string
	for _, p := range h.watcher.Sources() {
		if p.Status().LastPoll.IsZero() {
			pending = append(pending, p.Name())
		}
	}

	if len(pending) > 0 {
		WriteError(w, r, http.StatusServiceUnavailable, domain.ErrNotReady.Code, domain.ErrNotReady.Message, map[string]any{
			"pending": pending,
		})
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
