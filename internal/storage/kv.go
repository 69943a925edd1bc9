package storage

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("badger store closed")
	ErrReadOnly    = errors.New("badger store opened read-only")
)

// Options configures a BadgerStore.
type Options struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps everything in RAM. Used by tests and throwaway stores.
	InMemory bool

	// ReadOnly opens an existing database without taking the write lock,
	// so several processes may read the same directory. Disables GC.
	ReadOnly bool

	// GCInterval is the interval between automatic value-log GC runs.
	// Zero disables the GC loop.
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to RunValueLogGC (0.0-1.0).
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	CacheSize int64

	// SyncWrites fsyncs after each write.
	SyncWrites bool
}

// DefaultOptions returns options for a writable on-disk store at dir.
func DefaultOptions(dir string) Options {
	return Options{
		Dir:         dir,
		GCInterval:  10 * time.Minute,
		GCThreshold: 0.5,
		CacheSize:   16 << 20, // 16MB
	}
}

// Stats contains storage statistics.
type Stats struct {
	// LSMSize is the LSM tree size in bytes.
	LSMSize uint64 `json:"lsm_size"`

	// ValueLogSize is the value log size in bytes.
	ValueLogSize uint64 `json:"value_log_size"`

	// LastGCTime is the last GC run timestamp (Unix milliseconds), 0 if never.
	LastGCTime int64 `json:"last_gc_time"`

	// GCRuns counts value-log files rewritten by GC.
	GCRuns uint64 `json:"gc_runs"`
}

// TotalSize returns LSMSize + ValueLogSize.
func (s Stats) TotalSize() uint64 {
	return s.LSMSize + s.ValueLogSize
}
