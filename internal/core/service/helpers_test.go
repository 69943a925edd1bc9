package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/yndnr/snapwatch-go/internal/core/domain"
	"github.com/yndnr/snapwatch-go/internal/telemetry/metric"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubSource serves whatever snapshot or error it was last given.
type stubSource struct {
	mu    sync.Mutex
	name  string
	snap  map[string]string
	err   error
	calls int
}

func newStub(name string, snap map[string]string) *stubSource {
	return &stubSource{name: name, snap: snap}
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) Kind() string { return "stub" }

func (s *stubSource) Snapshot(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]string, len(s.snap))
	for k, v := range s.snap {
		out[k] = v
	}
	return out, nil
}

func (s *stubSource) set(snap map[string]string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.err = err
}

// collectSink records delivered change sets.
type collectSink struct {
	mu   sync.Mutex
	sets []*domain.ChangeSet
	ch   chan *domain.ChangeSet
}

func newCollectSink() *collectSink {
	return &collectSink{ch: make(chan *domain.ChangeSet, 64)}
}

func (c *collectSink) Deliver(_ context.Context, cs *domain.ChangeSet) error {
	c.mu.Lock()
	c.sets = append(c.sets, cs)
	c.mu.Unlock()
	c.ch <- cs
	return nil
}

func scrape(t *testing.T, r *metric.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func assertContains(t *testing.T, body string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s", want)
		}
	}
}
