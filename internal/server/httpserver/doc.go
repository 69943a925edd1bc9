// Package httpserver serves the SnapWatch HTTP API on net/http.
//
//   - Health endpoints: /health, /ready, /metrics
//   - Source endpoints: /v1/sources/*
//   - Live source endpoints: /v1/live/*
//
// Middleware chain: Recover, RequestID, AccessLog, RateLimit (API routes only).
package httpserver
