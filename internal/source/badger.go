package source

import (
	"context"
	"log/slog"

	"github.com/yndnr/snapwatch-go/internal/server/config"
	"github.com/yndnr/snapwatch-go/internal/storage"
)

// Badger snapshots every key under a prefix of a Badger database. The
// database is opened read-only for each snapshot, so the writer can be a
// different process. The prefix is stripped from returned keys.
type Badger struct {
	name   string
	dir    string
	prefix string
	logger *slog.Logger
}

// NewBadger creates a badger source.
func NewBadger(name, dir, prefix string, logger *slog.Logger) *Badger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Badger{name: name, dir: dir, prefix: prefix, logger: logger}
}

// Name implements Source.
func (s *Badger) Name() string { return s.name }

// Kind implements Source.
func (s *Badger) Kind() string { return config.KindBadger }

// Snapshot opens the database, loads the prefix and closes it again.
func (s *Badger) Snapshot(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store, err := storage.Open(storage.Options{Dir: s.dir, ReadOnly: true}, s.logger)
	if err != nil {
		return nil, fetchError(s.name, err)
	}
	defer store.Close()

	entries, err := store.Load(ctx, s.prefix)
	if err != nil {
		return nil, fetchError(s.name, err)
	}
	return entries, nil
}
