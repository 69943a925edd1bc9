package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// BadgerStore is a string-keyed view over a Badger v3 database.
type BadgerStore struct {
	db     *badger.DB
	opts   Options
	logger *slog.Logger

	lastGCTime atomic.Int64  // Unix milliseconds
	gcRuns     atomic.Uint64 // value-log files rewritten

	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsGCRuns       prometheus.Counter

	closeOnce sync.Once
	closed    atomic.Bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// Open opens (or creates) the database described by opts.
func Open(opts Options, logger *slog.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !opts.InMemory && opts.Dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}

	bopts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = &badgerLogger{logger: logger}
	bopts.SyncWrites = opts.SyncWrites
	bopts.ReadOnly = opts.ReadOnly
	if opts.CacheSize > 0 {
		bopts.BlockCacheSize = opts.CacheSize
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		opts:   opts,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	if opts.GCInterval > 0 && !opts.ReadOnly && !opts.InMemory {
		s.wg.Add(1)
		go s.gcLoop(opts.GCInterval)
	}

	logger.Debug("badger store opened",
		"dir", opts.Dir,
		"in_memory", opts.InMemory,
		"read_only", opts.ReadOnly)

	return s, nil
}

// Get retrieves a value by key.
func (s *BadgerStore) Get(ctx context.Context, key string) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// Set stores a key-value pair.
func (s *BadgerStore) Set(ctx context.Context, key, value string) error {
	if err := s.writable(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

// SetMany writes all entries through a single write batch.
func (s *BadgerStore) SetMany(ctx context.Context, entries map[string]string) error {
	if err := s.writable(); err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for k, v := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := wb.Set([]byte(k), []byte(v)); err != nil {
			return fmt.Errorf("badger: batch set %q: %w", k, err)
		}
	}
	return wb.Flush()
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *BadgerStore) Delete(ctx context.Context, key string) error {
	if err := s.writable(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Scan iterates over keys with a given prefix in key order.
// The callback returns false to stop iteration.
func (s *BadgerStore) Scan(ctx context.Context, prefix string, fn func(key, value string) bool) error {
	if s.closed.Load() {
		return ErrClosed
	}

	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !fn(string(item.Key()), string(value)) {
				break
			}
		}
		return nil
	})
}

// Load returns every entry under prefix, with the prefix stripped from keys.
func (s *BadgerStore) Load(ctx context.Context, prefix string) (map[string]string, error) {
	out := make(map[string]string)
	err := s.Scan(ctx, prefix, func(key, value string) bool {
		out[key[len(prefix):]] = value
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GC runs value-log GC until Badger reports nothing left to rewrite.
func (s *BadgerStore) GC(ctx context.Context) (int, error) {
	if err := s.writable(); err != nil {
		return 0, err
	}
	if s.opts.InMemory {
		return 0, nil
	}

	start := time.Now()
	runs := 0
	for {
		if err := ctx.Err(); err != nil {
			return runs, err
		}
		err := s.db.RunValueLogGC(s.opts.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return runs, fmt.Errorf("gc: %w", err)
		}
		runs++
	}

	s.lastGCTime.Store(time.Now().UnixMilli())
	s.gcRuns.Add(uint64(runs))
	if s.metricsGCRuns != nil {
		s.metricsGCRuns.Add(float64(runs))
	}

	s.logger.Debug("badger gc completed", "rewrites", runs, "elapsed", time.Since(start))
	return runs, nil
}

// Stats returns storage statistics.
func (s *BadgerStore) Stats() Stats {
	lsm, vlog := s.db.Size()
	return Stats{
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		LastGCTime:   s.lastGCTime.Load(),
		GCRuns:       s.gcRuns.Load(),
	}
}

// RegisterMetrics registers size gauges and a GC counter labelled with name.
func (s *BadgerStore) RegisterMetrics(reg prometheus.Registerer, name string) error {
	labels := prometheus.Labels{"store": name}
	s.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "snapwatch",
		Subsystem:   "badger",
		Name:        "lsm_size_bytes",
		Help:        "Badger LSM tree size in bytes",
		ConstLabels: labels,
	})
	s.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "snapwatch",
		Subsystem:   "badger",
		Name:        "value_log_size_bytes",
		Help:        "Badger value log size in bytes",
		ConstLabels: labels,
	})
	s.metricsGCRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "snapwatch",
		Subsystem:   "badger",
		Name:        "gc_rewrites_total",
		Help:        "Value-log files rewritten by Badger garbage collection",
		ConstLabels: labels,
	})

	for _, c := range []prometheus.Collector{s.metricsLSMSize, s.metricsValueLogSize, s.metricsGCRuns} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("badger: register metrics: %w", err)
		}
	}

	s.refreshMetrics()
	s.wg.Add(1)
	go s.metricsLoop(15 * time.Second)
	return nil
}

// Close stops background loops and closes the database.
func (s *BadgerStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stopCh)
		s.wg.Wait()
		if cerr := s.db.Close(); cerr != nil {
			err = fmt.Errorf("close db: %w", cerr)
		}
	})
	return err
}

func (s *BadgerStore) writable() error {
	if s.closed.Load() {
		return ErrClosed
	}
	if s.opts.ReadOnly {
		return ErrReadOnly
	}
	return nil
}

func (s *BadgerStore) refreshMetrics() {
	st := s.Stats()
	s.metricsLSMSize.Set(float64(st.LSMSize))
	s.metricsValueLogSize.Set(float64(st.ValueLogSize))
}

func (s *BadgerStore) metricsLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refreshMetrics()
		case <-s.stopCh:
			return
		}
	}
}

func (s *BadgerStore) gcLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := s.GC(ctx); err != nil {
				s.logger.Error("auto gc failed", "error", err)
			}
			cancel()
		case <-s.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
// Badger's info chatter is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
