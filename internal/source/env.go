package source

import (
	"context"

	"github.com/yndnr/snapwatch-go/internal/infra/confloader"
	"github.com/yndnr/snapwatch-go/internal/server/config"
)

// Env snapshots environment variables that start with a prefix.
// APP_DB_HOST under prefix APP_ becomes db.host.
type Env struct {
	name   string
	prefix string
}

// NewEnv creates an env source.
func NewEnv(name, prefix string) *Env {
	return &Env{name: name, prefix: prefix}
}

// Name implements Source.
func (s *Env) Name() string { return s.name }

// Kind implements Source.
func (s *Env) Kind() string { return config.KindEnv }

// Snapshot reads the current environment.
func (s *Env) Snapshot(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := confloader.NewLoader(
		confloader.WithEnvPrefix(s.prefix),
		confloader.WithEnvSeparator("_"),
	)
	if err := l.LoadEnv(); err != nil {
		return nil, fetchError(s.name, err)
	}
	return l.Strings(), nil
}
