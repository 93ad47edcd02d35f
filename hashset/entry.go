package hashset

import (
	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/lock"
	"github.com/nbtaylor/qcore/qerr"
)

// entry is one occupied slot: a value, its cached hash, a permanent
// insertion-order stamp (see orderstamp), and the two independent
// orderings it participates in - the bucket tree (by hash) and the
// global doubly-linked list (by stamp).
type entry[T any] struct {
	value   T
	hash    uint64
	stamp   int64
	removed bool
	prev    *entry[T]
	next    *entry[T]
}

// ID identifies one slot of a Set.
type ID[T any] struct {
	set *Set[T]
	e   *entry[T]
}

func (id *ID[T]) IsPresent() bool { return id != nil && !id.e.removed }

func (id *ID[T]) Compare(other handle.ID) int {
	o, ok := other.(*ID[T])
	if !ok || o.set != id.set {
		panic(qerr.ErrForeignElement)
	}
	switch {
	case id.e.stamp < o.e.stamp:
		return -1
	case id.e.stamp > o.e.stamp:
		return 1
	default:
		return 0
	}
}

var _ handle.ID = (*ID[int])(nil)

type elementView[T any] struct {
	set *Set[T]
	e   *entry[T]
}

func (v *elementView[T]) ID() handle.ID { return &ID[T]{set: v.set, e: v.e} }

func (v *elementView[T]) Value() T {
	if v.e.removed {
		panic(qerr.ErrNotPresent)
	}
	return v.e.value
}

func (v *elementView[T]) CanRemove() handle.Reason {
	if v.e.removed {
		return handle.ReasonNotFound
	}
	return ""
}

// CanSet always permits replacing the stored value: set() is an update
// write that may leave the element hash/sort-key inconsistent with its
// bucket placement, to be fixed later by repair.
func (v *elementView[T]) CanSet(T) handle.Reason {
	if v.e.removed {
		return handle.ReasonNotFound
	}
	return ""
}

// CanAdd is unsupported directly on a hash-set element: new values are
// added through the set's GetOrAdd, not positionally relative to an
// existing element (hash sets have no meaningful "insert before me").
func (v *elementView[T]) CanAdd(T, bool) handle.Reason {
	return handle.ReasonUnsupported
}

func (v *elementView[T]) Set(val T) error {
	if r := v.CanSet(val); r != "" {
		panic(&handle.RefusalError{Reason: r})
	}
	txn := v.set.strategy.Begin(lock.WriteUpdate, nil)
	defer txn.Close()
	v.e.value = val
	return nil
}

func (v *elementView[T]) Remove() error {
	if r := v.CanRemove(); r != "" {
		panic(&handle.RefusalError{Reason: r})
	}
	return v.set.Remove(v.ID())
}

func (v *elementView[T]) Add(T, bool) (handle.Element[T], error) {
	panic(&handle.RefusalError{Reason: handle.ReasonUnsupported})
}

var _ handle.Element[int] = (*elementView[int])(nil)
var _ handle.MutableElement[int] = (*elementView[int])(nil)
