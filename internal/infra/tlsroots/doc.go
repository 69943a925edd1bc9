// Package tlsroots loads TLS material for snapwatch.
//
// Pool builds client trust from the system roots plus extra CA files, used
// by http sources and the CLI. KeyPair serves the daemon certificate and
// swaps it in place when the files on disk change.
package tlsroots
