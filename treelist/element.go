package treelist

import (
	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/lock"
	"github.com/nbtaylor/qcore/qerr"
)

// elementView is the handle.Element / handle.MutableElement facet bound
// to a treelist ID. It never caches the underlying node pointer beyond
// what the ID already holds; every call re-resolves presence through the
// ID so a view obtained before a rotation or repair still observes the
// current state.
type elementView[T any] struct {
	id *ID[T]
}

var _ handle.ID = (*ID[int])(nil)
var _ handle.Element[int] = (*elementView[int])(nil)
var _ handle.MutableElement[int] = (*elementView[int])(nil)

func (e *elementView[T]) ID() handle.ID { return e.id }

func (e *elementView[T]) Value() T {
	if e.id.node.Removed() {
		panic(qerr.ErrNotPresent)
	}
	return e.id.node.Value.value
}

func (e *elementView[T]) CanRemove() handle.Reason {
	if e.id.node.Removed() {
		return handle.ReasonNotFound
	}
	return ""
}

func (e *elementView[T]) CanSet(T) handle.Reason {
	if e.id.node.Removed() {
		return handle.ReasonNotFound
	}
	return ""
}

func (e *elementView[T]) CanAdd(T, bool) handle.Reason {
	if e.id.node.Removed() {
		return handle.ReasonNotFound
	}
	return ""
}

func (e *elementView[T]) Set(v T) error {
	if r := e.CanSet(v); r != "" {
		panic(&handle.RefusalError{Reason: r})
	}
	l := e.id.list
	txn := l.strategy.Begin(lock.WriteUpdate, nil)
	defer txn.Close()
	cur := e.id.node.Value
	cur.value = v
	e.id.node.Value = cur
	return nil
}

func (e *elementView[T]) Remove() error {
	if r := e.CanRemove(); r != "" {
		panic(&handle.RefusalError{Reason: r})
	}
	return e.id.list.Remove(e.id)
}

func (e *elementView[T]) Add(v T, beforeThis bool) (handle.Element[T], error) {
	if r := e.CanAdd(v, beforeThis); r != "" {
		panic(&handle.RefusalError{Reason: r})
	}
	l := e.id.list
	if beforeThis {
		return l.Add(v, nil, e.id, false)
	}
	return l.Add(v, e.id, nil, false)
}
