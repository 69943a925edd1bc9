package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// DomainError is an error carrying a stable code of the form
// SW-<AREA>-<NNNN>. The first three digits of a 4xxx/5xxx number are the
// HTTP status the error maps to.
type DomainError struct {
	Code    string // e.g. "SW-SRC-4040"
	Message string
	Details string
	Cause   error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches on Code only, so a decorated copy still matches its sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithDetailsf is WithDetails with a format string.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	cp := *e
	cp.Cause = cause
	return &cp
}

// HTTPStatus maps the numeric part of the code to an HTTP status.
// Argument errors (1xxx) map to 400, anything unparsable to 500.
func (e *DomainError) HTTPStatus() int {
	idx := strings.LastIndexByte(e.Code, '-')
	if idx < 0 || len(e.Code)-idx-1 != 4 {
		return http.StatusInternalServerError
	}
	n, err := strconv.Atoi(e.Code[idx+1:])
	if err != nil {
		return http.StatusInternalServerError
	}
	switch {
	case n >= 1000 && n < 2000:
		return http.StatusBadRequest
	case n >= 4000 && n < 6000:
		return n / 10
	default:
		return http.StatusInternalServerError
	}
}

// IsDomainError checks if err is a DomainError with the given code.
// An empty code matches any DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return code == "" || de.Code == code
	}
	return false
}

// GetErrorCode extracts the code from err, or "" if it is not a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Source errors (SRC).
var (
	ErrSourceNotFound = NewDomainError("SW-SRC-4040", "source not found")

	// ErrSourceFetch wraps a failure to produce a snapshot. The previous
	// snapshot stays in place when this is returned from a poll.
	ErrSourceFetch = NewDomainError("SW-SRC-5020", "source fetch failed")

	ErrSourceConfig = NewDomainError("SW-SRC-4001", "invalid source configuration")
)

// Comparer errors (CMP).
var (
	// ErrComparerPoisoned is reported when a poll hit a poisoned comparer.
	// The poller resets the comparer, so the next poll reports a full snapshot.
	ErrComparerPoisoned = NewDomainError("SW-CMP-5000", "comparer state poisoned")
)

// Live source errors (LIVE).
var (
	ErrLiveKeyNotFound = NewDomainError("SW-LIVE-4040", "live key not found")
	ErrNotLiveSource   = NewDomainError("SW-LIVE-4001", "source is not a live source")
)

// System and argument errors.
var (
	ErrInvalidArgument = NewDomainError("SW-ARG-1001", "invalid argument")
	ErrInternal        = NewDomainError("SW-SYS-5000", "internal error")
	ErrRateLimited     = NewDomainError("SW-SYS-4290", "too many requests")
	ErrNotReady        = NewDomainError("SW-SYS-5030", "sources not yet polled")
)
