// Package storage provides the Badger-backed key-value store for SnapWatch.
//
// A BadgerStore is used in three places:
//
//   - badger sources open a directory read-only and Load a key prefix on each poll
//   - live sources with a path persist their entries so they survive restarts
//   - the seed command writes a flattened document into a directory
//
// Writable on-disk stores run a background value-log GC loop. Stores can
// export size gauges and a GC counter to a Prometheus registry.
package storage
