// Package cmap provides a concurrent map implementation for SnapWatch.
//
// This package implements a sharded concurrent map used as the backing store
// of live sources, with the following features:
//
//   - Sharding: Configurable shard count for parallelism
//   - Fine-grained Locking: Per-shard RWMutex for minimal contention
//   - Stable Hashing: murmur3 over the key selects the shard
//   - Iteration: Safe iteration while holding read locks
//
// Usage:
//
//	m := cmap.New[string, string]()
//	m.Set("db.host", "10.0.0.5")
//	changed, err := cmp.UpdateAndCompareSource(m)
//
// Thread Safety:
//
// All operations are thread-safe. Read operations (Get, Has, Range) use RLock,
// write operations (Set, Delete, SetAll) use Lock. *Map satisfies
// comparer.Source, so a comparer can diff it without copying it first.
package cmap
