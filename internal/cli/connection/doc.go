// Package connection is the HTTP client snapwatch-cli uses to talk to a
// snapwatch-server. Responses are unwrapped from the server's
// {code, message, request_id, data} envelope; error envelopes become
// *APIError values.
package connection
