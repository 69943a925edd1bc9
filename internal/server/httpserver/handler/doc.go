// Package handler implements the SnapWatch HTTP API.
//
//   - GET  /health, /ready
//   - GET  /v1/sources
//   - GET  /v1/sources/{name}
//   - GET  /v1/sources/{name}/snapshot
//   - GET  /v1/sources/{name}/changes?limit=N
//   - POST /v1/sources/{name}/poll[?async=true]
//   - POST /v1/sources/{name}/compare
//   - POST /v1/sources/{name}/reset
//   - GET|PUT|DELETE /v1/live/{name}/{key...}
//
// Every JSON response uses the Response envelope.
package handler
