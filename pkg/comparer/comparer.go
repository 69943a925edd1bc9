package comparer

import (
	"errors"
	"iter"
	"maps"
	"sync"
)

// ErrLockPoisoned is returned by every operation after a previous operation
// panicked while holding the comparer's lock. The snapshot may be torn at
// that point; call Reset to start over from an empty snapshot.
var ErrLockPoisoned = errors.New("comparer: lock poisoned by a panicking operation")

// Comparer holds the last observed snapshot behind a mutex.
type Comparer[K, V comparable] struct {
	mu       sync.Mutex
	last     map[K]V
	poisoned bool
}

// New creates a comparer with an empty snapshot.
func New[K, V comparable]() *Comparer[K, V] {
	return &Comparer[K, V]{
		last: make(map[K]V),
	}
}

// withLock runs fn with the lock held.
// If fn does not return normally the comparer is marked poisoned before the
// lock is released, and the panic keeps unwinding in the caller.
func (c *Comparer[K, V]) withLock(fn func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.poisoned {
		return ErrLockPoisoned
	}

	completed := false
	defer func() {
		if !completed {
			c.poisoned = true
		}
	}()

	fn()
	completed = true
	return nil
}

// CloneSnapshot returns a copy of the current snapshot.
func (c *Comparer[K, V]) CloneSnapshot() (map[K]V, error) {
	var out map[K]V
	err := c.withLock(func() {
		out = maps.Clone(c.last)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Len returns the number of entries in the current snapshot.
func (c *Comparer[K, V]) Len() (int, error) {
	var n int
	err := c.withLock(func() {
		n = len(c.last)
	})
	return n, err
}

// IsSame reports whether the snapshot holds exactly the same keys and
// values as candidate. The snapshot is not modified.
func (c *Comparer[K, V]) IsSame(candidate map[K]V) (bool, error) {
	var same bool
	err := c.withLock(func() {
		same = c.sameLocked(len(candidate), lookupMap(candidate))
	})
	return same, err
}

// Update replaces the snapshot with a copy of next.
func (c *Comparer[K, V]) Update(next map[K]V) error {
	return c.withLock(func() {
		c.replaceLocked(maps.All(next), len(next))
	})
}

// IsSameUpdate reports whether next equals the snapshot, then replaces the
// snapshot with next. The replacement happens whatever the result is.
func (c *Comparer[K, V]) IsSameUpdate(next map[K]V) (bool, error) {
	var same bool
	err := c.withLock(func() {
		same = c.sameLocked(len(next), lookupMap(next))
		c.replaceLocked(maps.All(next), len(next))
	})
	return same, err
}

// Compare returns the entries of next that are new or changed relative to
// the snapshot. When the snapshot is empty every entry of next is returned.
// The snapshot is not modified.
func (c *Comparer[K, V]) Compare(next map[K]V) (map[K]V, error) {
	var changed map[K]V
	err := c.withLock(func() {
		changed = c.diffLocked(maps.All(next), len(next))
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

// UpdateAndCompare computes the same diff as Compare and replaces the
// snapshot with next, without releasing the lock in between.
func (c *Comparer[K, V]) UpdateAndCompare(next map[K]V) (map[K]V, error) {
	var changed map[K]V
	err := c.withLock(func() {
		changed = c.advanceLocked(maps.All(next), len(next))
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

// Reset empties the snapshot and clears the poisoned state.
func (c *Comparer[K, V]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = make(map[K]V)
	c.poisoned = false
}

// Poisoned reports whether a previous operation panicked while holding the lock.
func (c *Comparer[K, V]) Poisoned() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.poisoned
}

// sameLocked compares the snapshot against a candidate of the given size
// that can be probed with get.
func (c *Comparer[K, V]) sameLocked(count int, get func(K) (V, bool)) bool {
	if len(c.last) != count {
		return false
	}
	for k, v := range c.last {
		other, ok := get(k)
		if !ok || other != v {
			return false
		}
	}
	return true
}

// diffLocked returns the new or changed entries without touching the snapshot.
func (c *Comparer[K, V]) diffLocked(entries iter.Seq2[K, V], sizeHint int) map[K]V {
	if len(c.last) == 0 {
		changed := make(map[K]V, sizeHint)
		for k, v := range entries {
			changed[k] = v
		}
		return changed
	}

	changed := make(map[K]V)
	for k, v := range entries {
		if old, ok := c.last[k]; !ok || old != v {
			changed[k] = v
		}
	}
	return changed
}

// advanceLocked diffs and copies entries in a single pass, then installs
// the copy as the new snapshot.
func (c *Comparer[K, V]) advanceLocked(entries iter.Seq2[K, V], sizeHint int) map[K]V {
	first := len(c.last) == 0
	next := make(map[K]V, sizeHint)
	changed := make(map[K]V)

	for k, v := range entries {
		next[k] = v
		if first {
			changed[k] = v
			continue
		}
		if old, ok := c.last[k]; !ok || old != v {
			changed[k] = v
		}
	}

	c.last = next
	return changed
}

func (c *Comparer[K, V]) replaceLocked(entries iter.Seq2[K, V], sizeHint int) {
	next := make(map[K]V, sizeHint)
	for k, v := range entries {
		next[k] = v
	}
	c.last = next
}

func lookupMap[K comparable, V any](m map[K]V) func(K) (V, bool) {
	return func(k K) (V, bool) {
		v, ok := m[k]
		return v, ok
	}
}
