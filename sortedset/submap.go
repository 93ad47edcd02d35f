package sortedset

import (
	"github.com/nbtaylor/qcore/handle"
)

// SubMap is a live bounded view over a Map, bounded by key using the
// same inclusive/exclusive semantics as SubSet.
type SubMap[K any, V any] struct {
	backing *Map[K, V]
	bounds  *SubSet[mapEntry[K, V]]
}

// SubMap returns a view of m bounded below by lowerKey and above by
// upperKey. A nil bound is unbounded on that side.
func (m *Map[K, V]) SubMap(lowerKey *K, lowerInclusive bool, upperKey *K, upperInclusive bool) *SubMap[K, V] {
	var lower, upper *mapEntry[K, V]
	if lowerKey != nil {
		lower = &mapEntry[K, V]{key: *lowerKey}
	}
	if upperKey != nil {
		upper = &mapEntry[K, V]{key: *upperKey}
	}
	return &SubMap[K, V]{backing: m, bounds: m.set.SubSet(lower, lowerInclusive, upper, upperInclusive)}
}

func (v *SubMap[K, V]) Size() int    { return v.bounds.Size() }
func (v *SubMap[K, V]) IsEmpty() bool { return v.bounds.IsEmpty() }

// Get returns the entry for key if key falls within the view's bound.
func (v *SubMap[K, V]) Get(key K) (MapEntry[K, V], bool) {
	if !v.bounds.inRange(mapEntry[K, V]{key: key}) {
		return MapEntry[K, V]{}, false
	}
	return v.backing.Get(key)
}

// GetOrPutEntry inserts key/value only if key falls within the view's
// bound; out-of-bound keys are refused with ReasonIllegalElement.
func (v *SubMap[K, V]) GetOrPutEntry(key K, valueFactory func() V, after, before handle.ID, first bool, onAdded func(MapEntry[K, V])) (MapEntry[K, V], bool, error) {
	if !v.bounds.inRange(mapEntry[K, V]{key: key}) {
		return MapEntry[K, V]{}, false, &handle.RefusalError{Reason: handle.ReasonIllegalElement}
	}
	return v.backing.GetOrPutEntry(key, valueFactory, after, before, first, onAdded)
}

// Remove deletes the entry identified by id, refusing if its key lies
// outside the view's bound.
func (v *SubMap[K, V]) Remove(id handle.ID) error { return v.bounds.Remove(id) }

// Clear removes every entry within the view's bound.
func (v *SubMap[K, V]) Clear() { v.bounds.Clear() }

// GetStamp delegates to the backing Map.
func (v *SubMap[K, V]) GetStamp(structural bool) int64 { return v.backing.GetStamp(structural) }
