// Package comparer remembers the last observed snapshot of a keyed dataset
// and reports what changed on each new observation.
//
// A Comparer is meant to sit inside a polling loop: the caller produces a
// full snapshot of current state, hands it to the comparer, and gets back
// the entries that were added or whose value changed since the previous
// snapshot. Keys that disappeared are not reported.
//
// Usage:
//
//	c := comparer.New[string, string]()
//	changed, err := c.UpdateAndCompare(current)
//	if errors.Is(err, comparer.ErrLockPoisoned) {
//		c.Reset()
//	}
//
// Operations come in two families. The plain family takes a map[K]V.
// The Source family takes anything that can be ranged over and queried
// entry by entry without an outer lock, such as cmap.Map.
//
// Thread Safety:
//
// All operations take the same mutex for their full duration, so they are
// serialized against each other. A Comparer is shared by pointer and must
// not be copied after first use.
package comparer
