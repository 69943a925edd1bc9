package handler

import (
	"net/http"
	"strconv"

	"github.com/yndnr/snapwatch-go/internal/core/domain"
	"github.com/yndnr/snapwatch-go/internal/core/service"
	"github.com/yndnr/snapwatch-go/internal/telemetry/logger"
)

// defaultChangesLimit is used when ?limit is absent.
const defaultChangesLimit = 20

// handleListSources handles GET /v1/sources.
func (h *Handler) handleListSources(w http.ResponseWriter, r *http.Request) {
	pollers := h.watcher.Sources()
	resp := ListSourcesResponse{Sources: make([]service.PollerStatus, 0, len(pollers))}
	for _, p := range pollers {
		resp.Sources = append(resp.Sources, p.Status())
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// handleGetSource handles GET /v1/sources/{name}.
func (h *Handler) handleGetSource(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, r, http.StatusOK, p.Status())
}

// handleSnapshot handles GET /v1/sources/{name}/snapshot.
// ?redact=true masks values that look like credentials.
func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}

	snap, err := p.Snapshot()
	if err != nil {
		h.handleServiceError(w, r, domain.ErrComparerPoisoned.WithCause(err))
		return
	}

	redact := r.URL.Query().Get("redact") == "true"
	if redact {
		snap = logger.RedactEntries(snap)
	}

	h.writeJSON(w, r, http.StatusOK, SnapshotResponse{
		Source:   p.Name(),
		Entries:  len(snap),
		Redacted: redact,
		Snapshot: snap,
	})
}

// handleChanges handles GET /v1/sources/{name}/changes?limit=N.
func (h *Handler) handleChanges(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}

	limit := defaultChangesLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.handleServiceError(w, r, domain.ErrInvalidArgument.WithDetails("limit must be a positive integer"))
			return
		}
		limit = n
	}

	h.writeJSON(w, r, http.StatusOK, ChangesResponse{
		Source: p.Name(),
		Items:  p.History().Recent(limit),
	})
}

// handlePoll handles POST /v1/sources/{name}/poll.
// With ?async=true the poll is queued through the trigger limiter.
func (h *Handler) handlePoll(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("async") == "true" {
		if !p.Trigger() {
			h.handleServiceError(w, r, domain.ErrRateLimited.WithDetails("poll trigger limit reached"))
			return
		}
		h.writeJSON(w, r, http.StatusAccepted, PollResponse{Source: p.Name(), Queued: true})
		return
	}

	cs, err := p.PollOnce(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, PollResponse{
		Source:    p.Name(),
		Changed:   cs != nil,
		ChangeSet: cs,
	})
}

// handleCompare handles POST /v1/sources/{name}/compare. The posted
// object is compared with the last snapshot without replacing it.
func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var candidate map[string]string
	if err := decodeBody(w, r, &candidate); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if candidate == nil {
		candidate = map[string]string{}
	}

	same, err := p.IsCurrent(candidate)
	if err != nil {
		h.handleServiceError(w, r, domain.ErrComparerPoisoned.WithCause(err))
		return
	}
	changes, err := p.Preview(candidate)
	if err != nil {
		h.handleServiceError(w, r, domain.ErrComparerPoisoned.WithCause(err))
		return
	}

	h.writeJSON(w, r, http.StatusOK, CompareResponse{
		Source:  p.Name(),
		Same:    same,
		Changes: changes,
	})
}

// handleReset handles POST /v1/sources/{name}/reset.
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	p.Reset()
	logger.L(r.Context()).Info("source state reset", "source", p.Name())
	h.writeJSON(w, r, http.StatusOK, p.Status())
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*service.Poller, bool) {
	p, err := h.watcher.Lookup(r.PathValue("name"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return nil, false
	}
	return p, true
}
