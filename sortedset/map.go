package sortedset

import (
	"github.com/rs/zerolog"

	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/lock"
	"github.com/nbtaylor/qcore/qerr"
	"github.com/nbtaylor/qcore/rbtree"
)

// mapEntry is the value actually stored in a Map's backing Set: the
// map's comparator is lifted to operate on the key half only, so two
// entries with the same key always collide regardless of value.
type mapEntry[K any, V any] struct {
	key   K
	value V
}

// Map is a sorted map: a Set of key/value entries ordered by a
// comparator over K, exposing entry handles that carry both the key
// and the value.
type Map[K any, V any] struct {
	set *Set[mapEntry[K, V]]
}

// NewMap returns an empty Map ordered by cmp over keys.
func NewMap[K any, V any](cmp Comparator[K], strategy lock.Strategy, description string, log zerolog.Logger) *Map[K, V] {
	entryCmp := func(a, b mapEntry[K, V]) int { return cmp(a.key, b.key) }
	return &Map[K, V]{set: New[mapEntry[K, V]](entryCmp, strategy, description, log)}
}

// MapEntry is a handle to one key/value slot of a Map.
type MapEntry[K any, V any] struct {
	el handle.Element[mapEntry[K, V]]
}

func (e MapEntry[K, V]) ID() handle.ID { return e.el.ID() }
func (e MapEntry[K, V]) Key() K        { return e.el.Value().key }
func (e MapEntry[K, V]) Value() V      { return e.el.Value().value }

// MutableMapEntry additionally allows replacing the value in place
// (an update write; the key, which determines position, never changes).
type MutableMapEntry[K any, V any] struct {
	m  *Map[K, V]
	id *ID[mapEntry[K, V]]
}

func (e MutableMapEntry[K, V]) ID() handle.ID { return e.id }
func (e MutableMapEntry[K, V]) Key() K        { return e.id.node.Value.key }
func (e MutableMapEntry[K, V]) Value() V      { return e.id.node.Value.value }

// SetValue replaces the value at this entry's key. Unlike Set on a
// plain sortedset element (refused outright, see elementView.Set),
// this is legal because the key - the only field that determines tree
// position - is left untouched, so no repair is ever needed.
func (e MutableMapEntry[K, V]) SetValue(v V) error {
	txn := e.m.set.strategy.Begin(lock.WriteUpdate, nil)
	defer txn.Close()
	if e.id.node.Removed() {
		return qerr.ErrNotPresent
	}
	e.id.node.Value.value = v
	return nil
}

func (m *Map[K, V]) Size() int    { return m.set.Size() }
func (m *Map[K, V]) IsEmpty() bool { return m.set.IsEmpty() }

func (m *Map[K, V]) keyCmp(key K) func(mapEntry[K, V]) int {
	return func(cand mapEntry[K, V]) int {
		// reuse the map's own comparator, applied to the key half only
		return m.set.cmp(cand, mapEntry[K, V]{key: key})
	}
}

// Get returns the entry for key, or the zero MapEntry and false if
// absent.
func (m *Map[K, V]) Get(key K) (MapEntry[K, V], bool) {
	el := m.set.Search(m.keyCmp(key), rbtree.FilterOnlyMatch)
	if el == nil {
		return MapEntry[K, V]{}, false
	}
	return MapEntry[K, V]{el: el}, true
}

// GetOrPutEntry finds an entry for key first; if absent, materializes
// one with valueFactory and inserts it. after/before/first are accepted
// for interface parity
// with the hash set's anchor-based get_or_add but have no effect here:
// a sorted container's position is always determined by the
// comparator, never by caller-chosen adjacency.
func (m *Map[K, V]) GetOrPutEntry(key K, valueFactory func() V, after, before handle.ID, first bool, onAdded func(MapEntry[K, V])) (MapEntry[K, V], bool, error) {
	if e, ok := m.Get(key); ok {
		return e, false, nil
	}
	entry := mapEntry[K, V]{key: key, value: valueFactory()}
	el, added, err := m.set.Add(entry)
	if err != nil || !added {
		// Lost a race with another goroutine between Get and Add under
		// the same write-structural lock is impossible (Add itself
		// re-checks for a match), so !added here means a concurrent
		// caller's Add won first; return its entry.
		return MapEntry[K, V]{el: el}, false, err
	}
	result := MapEntry[K, V]{el: el}
	if onAdded != nil {
		onAdded(result)
	}
	return result, true, nil
}

// MutableEntry resolves id to a MutableMapEntry, or the zero value and
// false if the id no longer identifies a present slot.
func (m *Map[K, V]) MutableEntry(id handle.ID) (MutableMapEntry[K, V], bool) {
	eid, ok := id.(*ID[mapEntry[K, V]])
	if !ok || eid.set != m.set || eid.node.Removed() {
		return MutableMapEntry[K, V]{}, false
	}
	return MutableMapEntry[K, V]{m: m, id: eid}, true
}

// Remove deletes the entry identified by id.
func (m *Map[K, V]) Remove(id handle.ID) error { return m.set.Remove(id) }

// Clear removes every entry.
func (m *Map[K, V]) Clear() { m.set.Clear() }

// GetStamp returns the structural or all-modifications monotonic stamp.
func (m *Map[K, V]) GetStamp(structural bool) int64 { return m.set.GetStamp(structural) }
