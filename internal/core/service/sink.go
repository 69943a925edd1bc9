package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/yndnr/snapwatch-go/internal/core/domain"
	"github.com/yndnr/snapwatch-go/internal/telemetry/logger"
)

// Sink receives change sets produced by pollers. Deliver is called from
// the poller goroutine; a slow sink delays the next poll of that source.
type Sink interface {
	Deliver(ctx context.Context, cs *domain.ChangeSet) error
}

// FuncSink adapts a function to Sink.
type FuncSink func(ctx context.Context, cs *domain.ChangeSet) error

// Deliver implements Sink.
func (f FuncSink) Deliver(ctx context.Context, cs *domain.ChangeSet) error {
	return f(ctx, cs)
}

// LogSink logs change sets. Entries are logged at debug level with
// sensitive values masked.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(l *slog.Logger) *LogSink {
	if l == nil {
		l = slog.Default()
	}
	return &LogSink{logger: l}
}

// Deliver implements Sink.
func (s *LogSink) Deliver(ctx context.Context, cs *domain.ChangeSet) error {
	s.logger.InfoContext(ctx, "change set",
		"id", cs.ID,
		"source", cs.Source,
		"sequence", cs.Sequence,
		"initial", cs.Initial,
		"changes", cs.Len(),
	)
	if s.logger.Enabled(ctx, slog.LevelDebug) {
		s.logger.DebugContext(ctx, "change set entries",
			"id", cs.ID,
			"entries", logger.RedactEntries(cs.Changes),
		)
	}
	return nil
}

// Formatter renders a value to a writer. cli/output formatters satisfy it.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// WriterSink writes each change set to w through a Formatter.
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	format Formatter
}

// NewWriterSink creates a WriterSink.
func NewWriterSink(w io.Writer, f Formatter) *WriterSink {
	return &WriterSink{w: w, format: f}
}

// Deliver implements Sink.
func (s *WriterSink) Deliver(_ context.Context, cs *domain.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format.Format(s.w, cs)
}
