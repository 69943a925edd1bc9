// Package logger provides structured logging for SnapWatch.
//
// It wraps log/slog:
//
//   - logger.go: handler construction, dynamic level, global default
//   - context.go: request and poll ID propagation through context
//   - redact.go: masking of secrets in attributes and snapshot values
//
// Components that take a *slog.Logger get one from Logger.Slog so that
// redaction and the shared level apply to them too.
package logger
