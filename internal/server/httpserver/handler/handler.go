package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yndnr/snapwatch-go/internal/core/domain"
	"github.com/yndnr/snapwatch-go/internal/core/service"
	"github.com/yndnr/snapwatch-go/internal/source"
	"github.com/yndnr/snapwatch-go/internal/telemetry/logger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 4 << 20

// Watcher is the view of the polling engine the API needs.
// service.Manager implements it.
type Watcher interface {
	Lookup(name string) (*service.Poller, error)
	Live(name string) (*source.Live, error)
	Sources() []*service.Poller
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	watcher Watcher
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New creates a new Handler.
func New(w Watcher, l *slog.Logger) *Handler {
	if l == nil {
		l = slog.Default()
	}
	h := &Handler{
		watcher: w,
		logger:  l,
		mux:     http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("GET /v1/sources", h.handleListSources)
	h.mux.HandleFunc("GET /v1/sources/{name}", h.handleGetSource)
	h.mux.HandleFunc("GET /v1/sources/{name}/snapshot", h.handleSnapshot)
	h.mux.HandleFunc("GET /v1/sources/{name}/changes", h.handleChanges)
	h.mux.HandleFunc("POST /v1/sources/{name}/poll", h.handlePoll)
	h.mux.HandleFunc("POST /v1/sources/{name}/compare", h.handleCompare)
	h.mux.HandleFunc("POST /v1/sources/{name}/reset", h.handleReset)

	h.mux.HandleFunc("GET /v1/live/{name}/{key...}", h.handleLiveGet)
	h.mux.HandleFunc("PUT /v1/live/{name}/{key...}", h.handleLivePut)
	h.mux.HandleFunc("DELETE /v1/live/{name}/{key...}", h.handleLiveDelete)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewResponse(requestID, data)); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes an error response with standard envelope format.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(NewErrorResponse(getRequestID(r), code, message, details))
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		status := de.HTTPStatus()
		if status >= http.StatusInternalServerError {
			logger.L(r.Context()).Error("request failed", "error", err)
		}
		WriteError(w, r, status, de.Code, de.Message, de.Details)
		return
	}

	logger.L(r.Context()).Error("internal error", "error", err)
	WriteError(w, r, http.StatusInternalServerError, domain.ErrInternal.Code, "internal server error", nil)
}

// decodeBody decodes a size-limited JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrInvalidArgument.WithDetailsf("invalid request body: %v", err)
	}
	return nil
}

// getRequestID returns the request ID set by the RequestID middleware.
func getRequestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}
