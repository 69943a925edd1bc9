// Package localserver exposes the HTTP API on a Unix domain socket so the
// CLI on the same host can reach the daemon without a TCP port. Access is
// limited by the socket's file mode.
package localserver
