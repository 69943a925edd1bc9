package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/snapwatch-go/internal/core/domain"
	"github.com/yndnr/snapwatch-go/internal/infra/tlsroots"
	"github.com/yndnr/snapwatch-go/internal/server/config"
	"github.com/yndnr/snapwatch-go/internal/storage"
	"github.com/yndnr/snapwatch-go/pkg/cmap"
)

// Source produces full snapshots of a key-value data set.
type Source interface {
	Name() string
	Kind() string
	Snapshot(ctx context.Context) (map[string]string, error)
}

// LiveSource is a Source backed by a concurrent map that callers diff
// in place instead of materializing a snapshot.
type LiveSource interface {
	Source
	Map() *cmap.Map[string, string]
}

// Deps carries shared dependencies for sources built by New.
type Deps struct {
	Logger *slog.Logger

	// HTTPClient is used by http sources without a CA file. Nil builds a
	// client per source whose timeout is the source's effective timeout.
	HTTPClient *http.Client

	// Registerer receives Badger metrics of persisted live sources.
	// Nil skips registration.
	Registerer prometheus.Registerer
}

// New builds the source described by cfg.
func New(cfg config.SourceConfig, poll config.PollSection, deps Deps) (Source, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("source", cfg.Name)

	switch cfg.Kind {
	case config.KindFile:
		return NewFile(cfg.Name, cfg.Path), nil

	case config.KindEnv:
		return NewEnv(cfg.Name, cfg.Prefix), nil

	case config.KindHTTP:
		client := deps.HTTPClient
		if client == nil || cfg.CAFile != "" {
			var err error
			if client, err = newHTTPClient(cfg, poll); err != nil {
				return nil, err
			}
		}
		return NewHTTP(cfg.Name, cfg.URL, cfg.Headers, client), nil

	case config.KindBadger:
		return NewBadger(cfg.Name, cfg.Path, cfg.Prefix, logger), nil

	case config.KindLive:
		if cfg.Path == "" {
			return NewLive(cfg.Name), nil
		}
		store, err := storage.Open(storage.DefaultOptions(cfg.Path), logger)
		if err != nil {
			return nil, domain.ErrSourceConfig.WithCause(err).WithDetailsf("%s: open live store", cfg.Name)
		}
		if deps.Registerer != nil {
			if err := store.RegisterMetrics(deps.Registerer, cfg.Name); err != nil {
				store.Close()
				return nil, err
			}
		}
		live, err := NewPersistentLive(context.Background(), cfg.Name, store)
		if err != nil {
			store.Close()
			return nil, err
		}
		return live, nil

	default:
		return nil, domain.ErrSourceConfig.WithDetailsf("%s: unknown kind %q", cfg.Name, cfg.Kind)
	}
}

// newHTTPClient builds the client of one http source, trusting cfg.CAFile
// on top of the system roots.
func newHTTPClient(cfg config.SourceConfig, poll config.PollSection) (*http.Client, error) {
	client := &http.Client{Timeout: cfg.EffectiveTimeout(poll)}
	if cfg.CAFile == "" {
		return client, nil
	}

	tlsConfig, err := tlsroots.ClientConfigFromFile(cfg.CAFile)
	if err != nil {
		return nil, domain.ErrSourceConfig.WithCause(err).WithDetailsf("%s: %v", cfg.Name, err)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	client.Transport = transport
	return client, nil
}

// fetchError wraps a snapshot failure of the named source.
func fetchError(name string, err error) error {
	return domain.ErrSourceFetch.WithCause(err).WithDetails(fmt.Sprintf("%s: %v", name, err))
}
