package config

import (
	"maps"
	"net/url"
	"strings"

	"github.com/yndnr/snapwatch-go/internal/telemetry/logger"
)

// Sanitize returns a copy of the config with credentials masked:
// userinfo in source URLs and sensitive-looking header values.
// The input is not modified.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.Sources = make([]SourceConfig, len(cfg.Sources))

	for i, src := range cfg.Sources {
		if src.URL != "" {
			src.URL = maskURL(src.URL)
		}
		if len(src.Headers) > 0 {
			headers := maps.Clone(src.Headers)
			for k, v := range headers {
				if logger.IsSensitiveKey(k) {
					headers[k] = maskSecret(v)
				}
			}
			src.Headers = headers
		}
		sanitized.Sources[i] = src
	}

	return &sanitized
}

func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
