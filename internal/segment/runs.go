// Package segment groups time-ordered telemetry into contiguous intervals
// that share a key, such as stopped versus moving or the current station.
package segment

// Run is a maximal block of consecutive items with an equal key. First and
// Last are inclusive indices into the input slice.
type Run[K comparable] struct {
	Key   K
	First int
	Last  int
}

// Len returns the number of items in the run.
func (r Run[K]) Len() int {
	return r.Last - r.First + 1
}

// Runs run-length encodes items by key. A new run starts whenever an item's
// key differs from its immediate predecessor, so equal keys separated by a
// different key form separate runs. Every item belongs to exactly one run.
func Runs[T any, K comparable](items []T, key func(T) K) []Run[K] {
	if len(items) == 0 {
		return nil
	}
	runs := make([]Run[K], 0, 8)
	cur := Run[K]{Key: key(items[0])}
	for i := 1; i < len(items); i++ {
		k := key(items[i])
		if k != cur.Key {
			cur.Last = i - 1
			runs = append(runs, cur)
			cur = Run[K]{Key: k, First: i}
		}
	}
	cur.Last = len(items) - 1
	return append(runs, cur)
}
