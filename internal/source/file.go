package source

import (
	"context"

	"github.com/yndnr/snapwatch-go/internal/infra/confloader"
	"github.com/yndnr/snapwatch-go/internal/server/config"
)

// File snapshots a YAML or JSON document.
type File struct {
	name string
	path string
}

// NewFile creates a file source reading path on every snapshot.
func NewFile(name, path string) *File {
	return &File{name: name, path: path}
}

// Name implements Source.
func (s *File) Name() string { return s.name }

// Kind implements Source.
func (s *File) Kind() string { return config.KindFile }

// Path returns the watched document path.
func (s *File) Path() string { return s.path }

// Snapshot loads and flattens the document.
func (s *File) Snapshot(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := confloader.NewLoader()
	if err := l.LoadFile(s.path); err != nil {
		return nil, fetchError(s.name, err)
	}
	return l.Strings(), nil
}
