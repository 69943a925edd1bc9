// Package source produces the snapshots SnapWatch compares.
//
// A Source returns its full current content as a flat string map on each
// call to Snapshot. Nested documents are flattened to dotted keys.
//
//   - file: YAML or JSON document on disk
//   - env: environment variables under a prefix
//   - http: JSON document fetched with GET
//   - badger: key prefix of a Badger database, opened read-only per poll
//   - live: in-process map written through the HTTP API, optionally
//     persisted to its own Badger database
//
// Fetch failures are reported as domain.ErrSourceFetch so pollers can keep
// the previous snapshot.
package source
