package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"

	"golang.org/x/time/rate"

	"github.com/yndnr/snapwatch-go/internal/core/domain"
	"github.com/yndnr/snapwatch-go/internal/infra/confloader"
	"github.com/yndnr/snapwatch-go/internal/server/config"
	"github.com/yndnr/snapwatch-go/internal/source"
	"github.com/yndnr/snapwatch-go/internal/telemetry/metric"
)

// ManagerOptions carries the dependencies of a Manager.
type ManagerOptions struct {
	Logger     *slog.Logger
	Metrics    *metric.Registry
	Sinks      []Sink
	HTTPClient *http.Client
}

// Manager owns one Poller per configured source.
type Manager struct {
	pollers map[string]*Poller
	order   []string
	watched map[string][]*Poller // absolute path -> pollers

	logger  *slog.Logger
	watcher *confloader.Watcher
	closers []io.Closer

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewManager builds sources and pollers for every entry of cfg.Sources.
func NewManager(cfg *config.ServerConfig, opts ManagerOptions) (*Manager, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	m := &Manager{
		pollers: make(map[string]*Poller, len(cfg.Sources)),
		watched: make(map[string][]*Poller),
		logger:  opts.Logger,
	}

	deps := source.Deps{Logger: opts.Logger, HTTPClient: opts.HTTPClient}
	if opts.Metrics != nil {
		deps.Registerer = opts.Metrics.Registerer()
	}

	for _, sc := range cfg.Sources {
		if _, dup := m.pollers[sc.Name]; dup {
			m.closeSources()
			return nil, domain.ErrSourceConfig.WithDetailsf("%s: duplicate name", sc.Name)
		}

		src, err := source.New(sc, cfg.Poll, deps)
		if err != nil {
			m.closeSources()
			return nil, err
		}
		if c, ok := src.(io.Closer); ok {
			m.closers = append(m.closers, c)
		}

		filter, err := CompileFilter(sc.Filter)
		if err != nil {
			m.closeSources()
			return nil, fmt.Errorf("source %s: %w", sc.Name, err)
		}

		pcfg := PollerConfig{
			Interval:     sc.EffectiveInterval(cfg.Poll),
			Jitter:       cfg.Poll.Jitter,
			Timeout:      sc.EffectiveTimeout(cfg.Poll),
			History:      cfg.Poll.History,
			TriggerRate:  rate.Limit(cfg.Poll.TriggerRate),
			TriggerBurst: cfg.Poll.TriggerBurst,
			Filter:       filter,
		}
		p := NewPoller(src, pcfg,
			WithLogger(opts.Logger),
			WithMetrics(opts.Metrics),
			WithSinks(opts.Sinks...),
		)

		m.pollers[sc.Name] = p
		m.order = append(m.order, sc.Name)

		if sc.Watch {
			abs, err := filepath.Abs(sc.Path)
			if err != nil {
				m.closeSources()
				return nil, fmt.Errorf("source %s: %w", sc.Name, err)
			}
			m.watched[abs] = append(m.watched[abs], p)
		}
	}

	if opts.Metrics != nil {
		if err := opts.Metrics.Registerer().Register(metric.NewCollector(m)); err != nil {
			m.closeSources()
			return nil, fmt.Errorf("register snapshot collector: %w", err)
		}
	}

	return m, nil
}

// Start runs every poller in its own goroutine and starts file watching.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return errors.New("manager already started")
	}

	if len(m.watched) > 0 {
		w, err := confloader.NewWatcher(confloader.WithWatcherLogger(m.logger))
		if err != nil {
			return fmt.Errorf("create file watcher: %w", err)
		}
		for path := range m.watched {
			if err := w.Watch(path); err != nil {
				w.Stop()
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		w.OnChange(m.onFileChange)
		w.StartAsync()
		m.watcher = w
	}

	ctx, m.cancel = context.WithCancel(ctx)
	for _, name := range m.order {
		p := m.pollers[name]
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			p.Run(ctx)
		}()
	}

	m.started = true
	m.logger.Info("pollers started", "sources", len(m.order), "watched_files", len(m.watched))
	return nil
}

// Stop stops all pollers, waits for them and closes the sources.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.watcher != nil {
		errs = append(errs, m.watcher.Stop())
		m.watcher = nil
	}
	if m.cancel != nil {
		m.cancel()
		m.wg.Wait()
		m.cancel = nil
	}
	errs = append(errs, m.closeSources())
	m.started = false
	return errors.Join(errs...)
}

// Lookup returns the poller of the named source.
func (m *Manager) Lookup(name string) (*Poller, error) {
	p, ok := m.pollers[name]
	if !ok {
		return nil, domain.ErrSourceNotFound.WithDetails(name)
	}
	return p, nil
}

// Live returns the named source as a live source.
func (m *Manager) Live(name string) (*source.Live, error) {
	p, err := m.Lookup(name)
	if err != nil {
		return nil, err
	}
	live, ok := p.Source().(*source.Live)
	if !ok {
		return nil, domain.ErrNotLiveSource.WithDetails(name)
	}
	return live, nil
}

// Sources returns all pollers in configuration order.
func (m *Manager) Sources() []*Poller {
	out := make([]*Poller, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.pollers[name])
	}
	return out
}

// SnapshotSizes implements metric.SnapshotSizer. Poisoned comparers are
// left out.
func (m *Manager) SnapshotSizes() map[string]int {
	sizes := make(map[string]int, len(m.pollers))
	for name, p := range m.pollers {
		if n, err := p.Len(); err == nil {
			sizes[name] = n
		}
	}
	return sizes
}

func (m *Manager) onFileChange(path string) {
	for _, p := range m.watched[path] {
		if !p.Trigger() {
			m.logger.Debug("file change ignored, trigger rate limited", "source", p.Name(), "file", path)
		}
	}
}

func (m *Manager) closeSources() error {
	var errs []error
	for _, c := range m.closers {
		errs = append(errs, c.Close())
	}
	m.closers = nil
	return errors.Join(errs...)
}
