package service

import (
	"sync"

	"github.com/yndnr/snapwatch-go/internal/core/domain"
)

// History keeps the most recent change sets of one source.
type History struct {
	mu   sync.RWMutex
	buf  []*domain.ChangeSet
	next int
	size int
}

// NewHistory creates a history holding up to capacity change sets.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]*domain.ChangeSet, capacity)}
}

// Add appends cs, evicting the oldest entry when full.
func (h *History) Add(cs *domain.ChangeSet) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf[h.next] = cs
	h.next = (h.next + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
}

// Recent returns up to limit change sets, newest first. limit <= 0
// returns everything held.
func (h *History) Recent(limit int) []*domain.ChangeSet {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > h.size {
		limit = h.size
	}
	out := make([]*domain.ChangeSet, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (h.next - i + len(h.buf)) % len(h.buf)
		out = append(out, h.buf[idx])
	}
	return out
}

// Find returns the held change set with the given ID.
func (h *History) Find(id string) (*domain.ChangeSet, bool) {
	for _, cs := range h.Recent(0) {
		if cs.ID == id {
			return cs, true
		}
	}
	return nil, false
}

// Len returns the number of held change sets.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

// Cap returns the capacity.
func (h *History) Cap() int {
	return len(h.buf)
}
