package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/snapwatch-go/internal/core/domain"
	"github.com/yndnr/snapwatch-go/internal/source"
	"github.com/yndnr/snapwatch-go/internal/telemetry/logger"
	"github.com/yndnr/snapwatch-go/internal/telemetry/metric"
	"github.com/yndnr/snapwatch-go/pkg/comparer"
)

// PollerConfig configures a Poller.
type PollerConfig struct {
	// Interval between scheduled polls. Zero disables the schedule, so the
	// poller only runs on Trigger.
	Interval time.Duration

	// Jitter spreads each interval by up to ±Jitter×Interval.
	Jitter float64

	// Timeout bounds a single snapshot fetch. Zero means no bound.
	Timeout time.Duration

	// History is the number of change sets kept.
	History int

	// TriggerRate and TriggerBurst limit Trigger calls.
	TriggerRate  rate.Limit
	TriggerBurst int

	Filter *Filter
}

// PollerStatus describes the last polls of a source.
type PollerStatus struct {
	Source       string    `json:"source" yaml:"source"`
	Kind         string    `json:"kind" yaml:"kind"`
	Polls        uint64    `json:"polls" yaml:"polls"`
	ChangeSets   uint64    `json:"change_sets" yaml:"change_sets"`
	Entries      int       `json:"entries" yaml:"entries"`
	LastPoll     time.Time `json:"last_poll,omitzero" yaml:"last_poll,omitempty"`
	LastChange   time.Time `json:"last_change,omitzero" yaml:"last_change,omitempty"`
	LastError    string    `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	Poisonings   uint64    `json:"poisonings" yaml:"poisonings"`
	HistoryDepth int       `json:"history_depth" yaml:"history_depth"`
}

// Poller detects changes in one source.
type Poller struct {
	src     source.Source
	live    source.LiveSource
	cmp     *comparer.Comparer[string, string]
	cfg     PollerConfig
	history *History
	sinks   []Sink
	metrics *metric.Registry
	logger  *slog.Logger

	limiter *rate.Limiter
	trigger chan struct{}

	pollMu sync.Mutex // serializes polls
	primed bool       // comparer holds a snapshot; guarded by pollMu

	seq        atomic.Uint64
	polls      atomic.Uint64
	poisonings atomic.Uint64

	statusMu   sync.RWMutex
	lastPoll   time.Time
	lastChange time.Time
	lastErr    error
}

// PollerOption configures optional Poller dependencies.
type PollerOption func(*Poller)

// WithSinks adds sinks that receive every change set.
func WithSinks(sinks ...Sink) PollerOption {
	return func(p *Poller) {
		p.sinks = append(p.sinks, sinks...)
	}
}

// WithMetrics records poll metrics in reg.
func WithMetrics(reg *metric.Registry) PollerOption {
	return func(p *Poller) {
		p.metrics = reg
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = l
	}
}

// NewPoller creates a poller for src.
func NewPoller(src source.Source, cfg PollerConfig, opts ...PollerOption) *Poller {
	if cfg.TriggerRate <= 0 {
		cfg.TriggerRate = rate.Inf
	}
	if cfg.TriggerBurst < 1 {
		cfg.TriggerBurst = 1
	}

	p := &Poller{
		src:     src,
		cmp:     comparer.New[string, string](),
		cfg:     cfg,
		history: NewHistory(cfg.History),
		logger:  slog.Default(),
		limiter: rate.NewLimiter(cfg.TriggerRate, cfg.TriggerBurst),
		trigger: make(chan struct{}, 1),
	}
	if live, ok := src.(source.LiveSource); ok {
		p.live = live
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("source", src.Name())
	return p
}

// Name returns the source name.
func (p *Poller) Name() string { return p.src.Name() }

// Source returns the polled source.
func (p *Poller) Source() source.Source { return p.src }

// History returns the change set history.
func (p *Poller) History() *History { return p.history }

// Run polls immediately, then on every tick or trigger until ctx is done.
// Panics raised during a poll are logged; the poisoned comparer is reset
// by the next poll.
func (p *Poller) Run(ctx context.Context) {
	p.safePoll(ctx)

	for {
		var tick <-chan time.Time
		var timer *time.Timer
		if d := p.nextDelay(); d > 0 {
			timer = time.NewTimer(d)
			tick = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-tick:
		case <-p.trigger:
			if timer != nil {
				timer.Stop()
			}
		}

		p.safePoll(ctx)
	}
}

// Trigger requests an out-of-band poll. It returns false when the trigger
// rate limit drops the request. Pending triggers coalesce.
func (p *Poller) Trigger() bool {
	if !p.limiter.Allow() {
		p.logger.Debug("poll trigger rate limited")
		return false
	}
	select {
	case p.trigger <- struct{}{}:
	default:
	}
	return true
}

// PollOnce fetches a snapshot and compares it with the previous one.
// It returns nil when nothing changed. A fetch error leaves the previous
// snapshot in place. A poisoned comparer is reset and reported as
// domain.ErrComparerPoisoned; the next poll reports a full snapshot.
func (p *Poller) PollOnce(ctx context.Context) (*domain.ChangeSet, error) {
	p.pollMu.Lock()
	defer p.pollMu.Unlock()

	pollID, err := domain.GeneratePollID()
	if err != nil {
		return nil, err
	}
	ctx = logger.WithPollID(ctx, pollID)
	log := p.logger.With("poll_id", pollID)

	start := time.Now()
	p.polls.Add(1)

	changes, err := p.diff(ctx)
	elapsed := time.Since(start).Seconds()

	if errors.Is(err, comparer.ErrLockPoisoned) {
		p.poisonings.Add(1)
		p.cmp.Reset()
		p.primed = false
		p.recordPoll(metric.ResultPoisoned, elapsed)
		if p.metrics != nil {
			p.metrics.IncComparerPoisoned(p.src.Name())
		}
		log.Error("comparer poisoned, state reset", "error", err)
		err = domain.ErrComparerPoisoned.WithCause(err)
		p.setStatus(start, false, err)
		return nil, err
	}
	if err != nil {
		p.recordPoll(metric.ResultError, elapsed)
		log.Warn("poll failed, keeping previous snapshot", "error", err)
		p.setStatus(start, false, err)
		return nil, err
	}

	initial := !p.primed
	p.primed = true

	kept, ferr := p.cfg.Filter.Apply(p.src.Name(), changes)
	if ferr != nil {
		log.Warn("filter evaluation failed, unmatched entries kept", "error", ferr)
	}

	if len(kept) == 0 && !initial {
		p.recordPoll(metric.ResultUnchanged, elapsed)
		p.setStatus(start, false, nil)
		return nil, nil
	}

	cs, err := domain.NewChangeSet(p.src.Name(), p.seq.Add(1), start, initial, kept)
	if err != nil {
		return nil, err
	}

	p.history.Add(cs)
	p.recordPoll(metric.ResultChanged, elapsed)
	if p.metrics != nil {
		p.metrics.RecordChangeSet(p.src.Name(), cs.Len())
	}
	p.setStatus(start, true, nil)

	log.Debug("change detected", "id", cs.ID, "changes", cs.Len(), "initial", initial)

	for _, sink := range p.sinks {
		if err := sink.Deliver(ctx, cs); err != nil {
			log.Error("sink delivery failed", "id", cs.ID, "error", err)
		}
	}
	return cs, nil
}

func (p *Poller) diff(ctx context.Context) (map[string]string, error) {
	if p.live != nil {
		return p.cmp.UpdateAndCompareSource(p.live.Map())
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}
	snap, err := p.src.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return p.cmp.UpdateAndCompare(snap)
}

// Snapshot returns a copy of the last observed snapshot.
func (p *Poller) Snapshot() (map[string]string, error) {
	return p.cmp.CloneSnapshot()
}

// Len returns the size of the last observed snapshot.
func (p *Poller) Len() (int, error) {
	return p.cmp.Len()
}

// IsCurrent reports whether candidate equals the last observed snapshot.
func (p *Poller) IsCurrent(candidate map[string]string) (bool, error) {
	return p.cmp.IsSame(candidate)
}

// Preview returns the entries of candidate that are new or changed
// relative to the last observed snapshot, without advancing it.
func (p *Poller) Preview(candidate map[string]string) (map[string]string, error) {
	return p.cmp.Compare(candidate)
}

// Reset forgets the last observed snapshot. The next poll is reported as
// initial.
func (p *Poller) Reset() {
	p.pollMu.Lock()
	defer p.pollMu.Unlock()
	p.cmp.Reset()
	p.primed = false
}

// Status returns counters and timestamps of past polls.
func (p *Poller) Status() PollerStatus {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()

	st := PollerStatus{
		Source:       p.src.Name(),
		Kind:         p.src.Kind(),
		Polls:        p.polls.Load(),
		ChangeSets:   p.seq.Load(),
		LastPoll:     p.lastPoll,
		LastChange:   p.lastChange,
		Poisonings:   p.poisonings.Load(),
		HistoryDepth: p.history.Len(),
	}
	if p.lastErr != nil {
		st.LastError = p.lastErr.Error()
	}
	if n, err := p.cmp.Len(); err == nil {
		st.Entries = n
	}
	return st
}

func (p *Poller) safePoll(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("poll panicked", "panic", r)
			p.setStatus(time.Now(), false, errPollPanicked)
		}
	}()
	p.PollOnce(ctx)
}

var errPollPanicked = errors.New("poll panicked")

func (p *Poller) nextDelay() time.Duration {
	d := p.cfg.Interval
	if d <= 0 || p.cfg.Jitter <= 0 {
		return d
	}
	spread := float64(d) * p.cfg.Jitter
	return d + time.Duration(spread*(2*rand.Float64()-1))
}

func (p *Poller) recordPoll(result string, seconds float64) {
	if p.metrics != nil {
		p.metrics.RecordPoll(p.src.Name(), result, seconds)
	}
}

func (p *Poller) setStatus(at time.Time, changed bool, err error) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.lastPoll = at
	p.lastErr = err
	if changed {
		p.lastChange = at
	}
}
