package config

import "time"

// Source kinds.
const (
	KindFile   = "file"
	KindEnv    = "env"
	KindHTTP   = "http"
	KindBadger = "badger"
	KindLive   = "live"
)

// Kinds lists every supported source kind.
var Kinds = []string{KindFile, KindEnv, KindHTTP, KindBadger, KindLive}

// ServerConfig is the root configuration for snapwatch-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Poll    PollSection    `koanf:"poll"`
	Sources []SourceConfig `koanf:"sources"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP  HTTPConfig  `koanf:"http"`
	Local LocalConfig `koanf:"local"`
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Addr string `koanf:"addr"`

	// RateLimit is the per-client request rate (requests/second).
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// TLSCertFile and TLSKeyFile switch the API to HTTPS. The pair is
	// reloaded when either file changes.
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`
}

// LocalConfig configures the Unix socket listener for the CLI on the
// same host. An empty Socket disables it.
type LocalConfig struct {
	Socket string `koanf:"socket"`
}

// PollSection holds defaults shared by all pollers.
type PollSection struct {
	// Interval is used by sources that do not set their own.
	Interval time.Duration `koanf:"interval"`

	// Jitter spreads ticks by up to this fraction of the interval (0-1).
	Jitter float64 `koanf:"jitter"`

	// History is the number of change sets kept per source.
	History int `koanf:"history"`

	// TriggerRate and TriggerBurst limit out-of-band polls (file events,
	// API requests) per source. TriggerRate is in polls/second.
	TriggerRate  float64 `koanf:"trigger_rate"`
	TriggerBurst int     `koanf:"trigger_burst"`

	// Timeout bounds a single snapshot fetch unless the source sets its own.
	Timeout time.Duration `koanf:"timeout"`
}

// SourceConfig declares one watched source.
type SourceConfig struct {
	Name string `koanf:"name"`
	Kind string `koanf:"kind"`

	// Path is the document for file sources, the database directory for
	// badger sources, and the optional persistence directory for live sources.
	Path string `koanf:"path"`

	// Prefix is the variable prefix for env sources and the key prefix for
	// badger sources.
	Prefix string `koanf:"prefix"`

	// URL and Headers are used by http sources.
	URL     string            `koanf:"url"`
	Headers map[string]string `koanf:"headers"`

	// CAFile adds trusted roots for https URLs.
	CAFile string `koanf:"ca_file"`

	Interval time.Duration `koanf:"interval"`
	Timeout  time.Duration `koanf:"timeout"`

	// Watch triggers a poll whenever the file changes (file sources only).
	Watch bool `koanf:"watch"`

	// Filter is an optional JSON-logic rule applied to each changed entry.
	Filter string `koanf:"filter"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// EffectiveInterval returns the source interval or the poll default.
func (s SourceConfig) EffectiveInterval(poll PollSection) time.Duration {
	if s.Interval > 0 {
		return s.Interval
	}
	return poll.Interval
}

// EffectiveTimeout returns the source timeout or the poll default.
func (s SourceConfig) EffectiveTimeout(poll PollSection) time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return poll.Timeout
}
