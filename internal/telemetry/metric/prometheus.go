package metric

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "snapwatch"

// Poll results used as the result label of snapwatch_polls_total.
const (
	ResultChanged   = "changed"
	ResultUnchanged = "unchanged"
	ResultError     = "error"
	ResultPoisoned  = "poisoned"
)

// Registry holds all application metrics on its own prometheus.Registry.
type Registry struct {
	registry *prometheus.Registry

	PollsTotal       *prometheus.CounterVec
	PollDuration     *prometheus.HistogramVec
	ChangesTotal     *prometheus.CounterVec
	ChangeSetsTotal  *prometheus.CounterVec
	ComparerPoisoned *prometheus.CounterVec

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with Go and process collectors and all
// SnapWatch metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		PollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Polls performed, by source and result.",
		}, []string{"source", "result"}),
		PollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Time spent fetching and diffing one snapshot.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		ChangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_total",
			Help:      "New or changed entries reported, by source.",
		}, []string{"source"}),
		ChangeSetsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changesets_total",
			Help:      "Change sets produced, by source.",
		}, []string{"source"}),
		ComparerPoisoned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparer_poisoned_total",
			Help:      "Polls that found the comparer poisoned and reset it.",
		}, []string{"source"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP API requests, by method and status.",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP API request latency.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"method"}),
	}

	reg.MustRegister(
		r.PollsTotal,
		r.PollDuration,
		r.ChangesTotal,
		r.ChangeSetsTotal,
		r.ComparerPoisoned,
		r.RequestsTotal,
		r.RequestDuration,
	)
	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler returns the /metrics handler of the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns an HTTP handler exposing this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registerer exposes the underlying registry for components that register
// their own collectors, such as Badger stores.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RecordPoll counts one poll and observes its duration.
func (r *Registry) RecordPoll(source, result string, seconds float64) {
	r.PollsTotal.WithLabelValues(source, result).Inc()
	r.PollDuration.WithLabelValues(source).Observe(seconds)
}

// RecordChangeSet counts a non-empty change set of n entries.
func (r *Registry) RecordChangeSet(source string, n int) {
	r.ChangeSetsTotal.WithLabelValues(source).Inc()
	r.ChangesTotal.WithLabelValues(source).Add(float64(n))
}

// IncComparerPoisoned counts a comparer reset after poisoning.
func (r *Registry) IncComparerPoisoned(source string) {
	r.ComparerPoisoned.WithLabelValues(source).Inc()
}

// RecordRequest counts one HTTP request and observes its latency.
func (r *Registry) RecordRequest(method string, status int, seconds float64) {
	r.RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(seconds)
}
