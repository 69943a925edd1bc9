package comparer

// Source is a key-value store that synchronizes its own entries, so it can
// be ranged over and probed without an outer lock. cmap.Map satisfies it.
type Source[K comparable, V any] interface {
	// Range calls fn for each entry until fn returns false.
	Range(fn func(key K, value V) bool)
	// Get returns the value stored under key.
	Get(key K) (V, bool)
	// Count returns the number of entries.
	Count() int
}

// MapSource adapts a plain map to Source. It does no locking of its own.
type MapSource[K comparable, V any] map[K]V

// Range implements Source.
func (m MapSource[K, V]) Range(fn func(key K, value V) bool) {
	for k, v := range m {
		if !fn(k, v) {
			return
		}
	}
}

// Get implements Source.
func (m MapSource[K, V]) Get(key K) (V, bool) {
	v, ok := m[key]
	return v, ok
}

// Count implements Source.
func (m MapSource[K, V]) Count() int {
	return len(m)
}

// IsSameSource is IsSame for a concurrent source.
func (c *Comparer[K, V]) IsSameSource(src Source[K, V]) (bool, error) {
	var same bool
	err := c.withLock(func() {
		same = c.sameLocked(src.Count(), src.Get)
	})
	return same, err
}

// UpdateSource is Update for a concurrent source.
func (c *Comparer[K, V]) UpdateSource(src Source[K, V]) error {
	return c.withLock(func() {
		c.replaceLocked(src.Range, src.Count())
	})
}

// IsSameUpdateSource is IsSameUpdate for a concurrent source.
func (c *Comparer[K, V]) IsSameUpdateSource(src Source[K, V]) (bool, error) {
	var same bool
	err := c.withLock(func() {
		same = c.sameLocked(src.Count(), src.Get)
		c.replaceLocked(src.Range, src.Count())
	})
	return same, err
}

// CompareSource is Compare for a concurrent source.
func (c *Comparer[K, V]) CompareSource(src Source[K, V]) (map[K]V, error) {
	var changed map[K]V
	err := c.withLock(func() {
		changed = c.diffLocked(src.Range, src.Count())
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

// UpdateAndCompareSource is UpdateAndCompare for a concurrent source.
func (c *Comparer[K, V]) UpdateAndCompareSource(src Source[K, V]) (map[K]V, error) {
	var changed map[K]V
	err := c.withLock(func() {
		changed = c.advanceLocked(src.Range, src.Count())
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}
