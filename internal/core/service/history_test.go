package service

import (
	"testing"
	"time"

	"github.com/yndnr/snapwatch-go/internal/core/domain"
)

func mustChangeSet(t *testing.T, seq uint64) *domain.ChangeSet {
	t.Helper()
	cs, err := domain.NewChangeSet("app", seq, time.Now(), false, map[string]string{"k": "v"})
	if err != nil {
		t.Fatal(err)
	}
	return cs
}

func TestHistory_Recent(t *testing.T) {
	h := NewHistory(3)
	if got := h.Recent(0); len(got) != 0 {
		t.Errorf("Recent() on empty history = %d entries", len(got))
	}

	for i := uint64(1); i <= 5; i++ {
		h.Add(mustChangeSet(t, i))
	}

	if h.Len() != 3 || h.Cap() != 3 {
		t.Errorf("Len/Cap = %d/%d, want 3/3", h.Len(), h.Cap())
	}

	got := h.Recent(0)
	want := []uint64{5, 4, 3}
	if len(got) != len(want) {
		t.Fatalf("len(Recent) = %d, want %d", len(got), len(want))
	}
	for i, seq := range want {
		if got[i].Sequence != seq {
			t.Errorf("Recent()[%d].Sequence = %d, want %d", i, got[i].Sequence, seq)
		}
	}

	if got := h.Recent(2); len(got) != 2 || got[0].Sequence != 5 {
		t.Errorf("Recent(2) = %v", got)
	}
	if got := h.Recent(10); len(got) != 3 {
		t.Errorf("len(Recent(10)) = %d, want 3", len(got))
	}
}

func TestHistory_Find(t *testing.T) {
	h := NewHistory(2)
	first := mustChangeSet(t, 1)
	h.Add(first)
	h.Add(mustChangeSet(t, 2))

	if got, ok := h.Find(first.ID); !ok || got != first {
		t.Error("Find() should return a held change set")
	}

	h.Add(mustChangeSet(t, 3))
	if _, ok := h.Find(first.ID); ok {
		t.Error("Find() should not return an evicted change set")
	}
}

func TestHistory_MinimumCapacity(t *testing.T) {
	h := NewHistory(0)
	h.Add(mustChangeSet(t, 1))
	h.Add(mustChangeSet(t, 2))
	if got := h.Recent(0); len(got) != 1 || got[0].Sequence != 2 {
		t.Errorf("Recent() = %v, want only the latest", got)
	}
}
