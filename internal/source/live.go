package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/yndnr/snapwatch-go/internal/core/domain"
	"github.com/yndnr/snapwatch-go/internal/server/config"
	"github.com/yndnr/snapwatch-go/internal/storage"
	"github.com/yndnr/snapwatch-go/pkg/cmap"
)

// Live is an in-process key-value set written through the API.
//
// With a store attached, writes go to the store before the map, and the
// map is restored from the store on creation. Writes are serialized so the
// store and the map agree on the last value of every key.
type Live struct {
	name  string
	m     *cmap.Map[string, string]
	store *storage.BadgerStore

	writeMu sync.Mutex
}

// NewLive creates a memory-only live source.
func NewLive(name string) *Live {
	return &Live{name: name, m: cmap.New[string, string]()}
}

// NewPersistentLive creates a live source backed by store and loads the
// entries already in it. The source owns store and closes it on Close.
func NewPersistentLive(ctx context.Context, name string, store *storage.BadgerStore) (*Live, error) {
	l := NewLive(name)
	l.store = store

	entries, err := store.Load(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("restore live source %s: %w", name, err)
	}
	l.m.SetAll(entries)
	return l, nil
}

// Name implements Source.
func (l *Live) Name() string { return l.name }

// Kind implements Source.
func (l *Live) Kind() string { return config.KindLive }

// Map implements LiveSource.
func (l *Live) Map() *cmap.Map[string, string] { return l.m }

// Snapshot returns a copy of the current entries.
func (l *Live) Snapshot(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.m.Snapshot(), nil
}

// Get returns the value stored under key.
func (l *Live) Get(key string) (string, error) {
	v, ok := l.m.Get(key)
	if !ok {
		return "", domain.ErrLiveKeyNotFound.WithDetails(key)
	}
	return v, nil
}

// Set stores value under key.
func (l *Live) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return domain.ErrInvalidArgument.WithDetails("key is required")
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if l.store != nil {
		if err := l.store.Set(ctx, key, value); err != nil {
			return domain.ErrInternal.WithCause(err)
		}
	}
	l.m.Set(key, value)
	return nil
}

// Delete removes key. Removing a missing key reports ErrLiveKeyNotFound.
func (l *Live) Delete(ctx context.Context, key string) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if !l.m.Has(key) {
		return domain.ErrLiveKeyNotFound.WithDetails(key)
	}
	if l.store != nil {
		if err := l.store.Delete(ctx, key); err != nil {
			return domain.ErrInternal.WithCause(err)
		}
	}
	l.m.Delete(key)
	return nil
}

// Persistent reports whether writes reach a Badger store.
func (l *Live) Persistent() bool { return l.store != nil }

// Close closes the backing store, if any.
func (l *Live) Close() error {
	if l.store == nil {
		return nil
	}
	return l.store.Close()
}
