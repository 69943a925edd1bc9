package handler

import (
	"net/http"

	"github.com/yndnr/snapwatch-go/internal/source"
)

// handleLiveGet handles GET /v1/live/{name}/{key}.
func (h *Handler) handleLiveGet(w http.ResponseWriter, r *http.Request) {
	live, key, ok := h.liveTarget(w, r)
	if !ok {
		return
	}

	value, err := live.Get(key)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, LiveEntry{Key: key, Value: value})
}

// handleLivePut handles PUT /v1/live/{name}/{key}. The change is picked up
// by the next poll of the source.
func (h *Handler) handleLivePut(w http.ResponseWriter, r *http.Request) {
	live, key, ok := h.liveTarget(w, r)
	if !ok {
		return
	}

	var req PutLiveRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if err := live.Set(r.Context(), key, req.Value); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, LiveEntry{Key: key, Value: req.Value})
}

// handleLiveDelete handles DELETE /v1/live/{name}/{key}.
func (h *Handler) handleLiveDelete(w http.ResponseWriter, r *http.Request) {
	live, key, ok := h.liveTarget(w, r)
	if !ok {
		return
	}

	if err := live.Delete(r.Context(), key); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) liveTarget(w http.ResponseWriter, r *http.Request) (*source.Live, string, bool) {
	live, err := h.watcher.Live(r.PathValue("name"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return nil, "", false
	}
	return live, r.PathValue("key"), true
}
