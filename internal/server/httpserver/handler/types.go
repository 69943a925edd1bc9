package handler

import (
	"time"

	"github.com/yndnr/snapwatch-go/internal/core/domain"
	"github.com/yndnr/snapwatch-go/internal/core/service"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// ListSourcesResponse is the response body for GET /v1/sources.
type ListSourcesResponse struct {
	Sources []service.PollerStatus `json:"sources"`
}

// SnapshotResponse is the response body for GET /v1/sources/{name}/snapshot.
type SnapshotResponse struct {
	Source   string            `json:"source"`
	Entries  int               `json:"entries"`
	Redacted bool              `json:"redacted,omitempty"`
	Snapshot map[string]string `json:"snapshot"`
}

// ChangesResponse is the response body for GET /v1/sources/{name}/changes.
type ChangesResponse struct {
	Source string              `json:"source"`
	Items  []*domain.ChangeSet `json:"items"`
}

// PollResponse is the response body for POST /v1/sources/{name}/poll.
type PollResponse struct {
	Source    string            `json:"source"`
	Changed   bool              `json:"changed"`
	Queued    bool              `json:"queued,omitempty"`
	ChangeSet *domain.ChangeSet `json:"change_set,omitempty"`
}

// CompareResponse is the response body for POST /v1/sources/{name}/compare.
// The request body is a flat JSON object of string values.
type CompareResponse struct {
	Source  string            `json:"source"`
	Same    bool              `json:"same"`
	Changes map[string]string `json:"changes"`
}

// LiveEntry is a single key of a live source.
type LiveEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// PutLiveRequest is the request body for PUT /v1/live/{name}/{key}.
type PutLiveRequest struct {
	Value string `json:"value"`
}
