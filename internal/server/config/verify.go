package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/diegoholiveira/jsonlogic/v3"

	"github.com/yndnr/snapwatch-go/internal/core/domain"
	"github.com/yndnr/snapwatch-go/internal/telemetry/logger"
)

var sourceNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyPoll(&cfg.Poll); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	return verifySources(cfg.Sources)
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr %q: %w", cfg.HTTP.Addr, err)
	}
	if cfg.HTTP.RateLimit < 0 {
		return errors.New("server.http.rate_limit must not be negative")
	}
	if cfg.HTTP.RateLimit > 0 && cfg.HTTP.RateBurst < 1 {
		return errors.New("server.http.rate_burst must be at least 1 when rate limiting is on")
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and server.http.tls_key_file must be set together")
	}
	if cfg.Local.Socket != "" && !filepath.IsAbs(cfg.Local.Socket) {
		return fmt.Errorf("server.local.socket %q must be an absolute path", cfg.Local.Socket)
	}
	return nil
}

func verifyPoll(cfg *PollSection) error {
	if cfg.Interval <= 0 {
		return errors.New("poll.interval must be positive")
	}
	if cfg.Jitter < 0 || cfg.Jitter >= 1 {
		return errors.New("poll.jitter must be in [0, 1)")
	}
	if cfg.History < 1 {
		return errors.New("poll.history must be at least 1")
	}
	if cfg.TriggerRate <= 0 || cfg.TriggerBurst < 1 {
		return errors.New("poll.trigger_rate must be positive and poll.trigger_burst at least 1")
	}
	if cfg.Timeout <= 0 {
		return errors.New("poll.timeout must be positive")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text", "console":
		return nil
	default:
		return fmt.Errorf("log.format %q: want json or text", cfg.Format)
	}
}

func verifySources(sources []SourceConfig) error {
	seen := make(map[string]struct{}, len(sources))
	for i, src := range sources {
		invalid := func(format string, args ...any) error {
			return domain.ErrSourceConfig.WithDetailsf("sources[%d] %q: %s", i, src.Name, fmt.Sprintf(format, args...))
		}

		if !sourceNamePattern.MatchString(src.Name) {
			return invalid("name must match %s", sourceNamePattern)
		}
		if _, dup := seen[src.Name]; dup {
			return invalid("duplicate name")
		}
		seen[src.Name] = struct{}{}

		if !slices.Contains(Kinds, src.Kind) {
			return invalid("unknown kind %q, want one of %s", src.Kind, strings.Join(Kinds, ", "))
		}
		if src.Interval < 0 || src.Timeout < 0 {
			return invalid("interval and timeout must not be negative")
		}
		if src.Watch && src.Kind != KindFile {
			return invalid("watch is only supported for file sources")
		}
		if src.Filter != "" && !jsonlogic.IsValid(strings.NewReader(src.Filter)) {
			return invalid("filter is not a valid JSON-logic rule")
		}

		switch src.Kind {
		case KindFile:
			if src.Path == "" {
				return invalid("path is required")
			}
		case KindEnv:
			if src.Prefix == "" {
				return invalid("prefix is required")
			}
		case KindHTTP:
			u, err := url.Parse(src.URL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return invalid("url must be an absolute http(s) URL")
			}
			if src.CAFile != "" && u.Scheme != "https" {
				return invalid("ca_file needs an https url")
			}
		case KindBadger:
			if src.Path == "" {
				return invalid("path is required")
			}
		}
	}
	return nil
}
