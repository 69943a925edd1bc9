// Package service runs the SnapWatch polling engine.
//
// Each configured source gets a Poller that owns a comparer, polls on a
// jittered interval or on demand, and turns the comparer's diff into a
// domain.ChangeSet. The Manager builds pollers from configuration and
// drives their lifecycle.
//
//   - Poller: scheduling, change detection and poison recovery for one source
//   - Manager: poller registry, fsnotify triggers, snapshot size metrics
//   - Filter: JSON-logic rule applied to changed entries
//   - History: bounded ring of recent change sets
//   - Sink: change set delivery (log, writer, func)
//   - LimiterRegistry: bounded set of token-bucket limiters keyed by client
//
// Pollers are safe for concurrent use. A panic inside the comparer poisons
// it; the poller resets it on the next poll so the following change set
// carries the full snapshot again.
package service
