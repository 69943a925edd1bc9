package logger

import (
	"log/slog"
	"strings"
)

// Well-known credential prefixes that are partially masked wherever they
// appear as string values.
var sensitiveValuePrefixes = []string{
	"ghp_",     // GitHub personal token
	"xoxb-",    // Slack bot token
	"sk_live_", // Stripe secret key
	"AKIA",     // AWS access key ID
}

// Key fragments whose values are fully redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"credential",
	"apikey",
	"api_key",
	"private_key",
	"auth",
	"bearer",
}

const redactedValue = "***REDACTED***"

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		strVal := a.Value.String()
		if masked, ok := maskKnownPrefix(strVal); ok {
			return slog.String(a.Key, masked)
		}
		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

func maskKnownPrefix(value string) (string, bool) {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(value, prefix) {
			return maskValue(value, prefix), true
		}
	}
	return "", false
}

// maskValue keeps the prefix plus the first and last 3 characters of the body.
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) <= 6 {
		return prefix + "***"
	}
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// RedactString masks value if it carries a known credential prefix.
func RedactString(value string) string {
	if masked, ok := maskKnownPrefix(value); ok {
		return masked
	}
	return value
}

// RedactEntries returns a copy of entries with sensitive values masked:
// values under sensitive-looking keys are replaced, values with a known
// credential prefix are partially masked. The input is not modified.
func RedactEntries(entries map[string]string) map[string]string {
	out := make(map[string]string, len(entries))
	for k, v := range entries {
		switch {
		case v != "" && IsSensitiveKey(k):
			out[k] = redactedValue
		default:
			out[k] = RedactString(v)
		}
	}
	return out
}

// IsSensitiveKey checks if a key name suggests sensitive content.
// Dotted snapshot keys are matched on any segment.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue checks if a value carries a known credential prefix.
func IsSensitiveValue(value string) bool {
	_, ok := maskKnownPrefix(value)
	return ok
}
