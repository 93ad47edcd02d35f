package sortedset

import (
	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/qerr"
)

// elementView is the handle.Element / handle.MutableElement facet of a
// sortedset ID. Set is refused outright: replacing a sorted element's
// value in place would silently desynchronize it from its tree
// position, which is exactly the inconsistency the consistency package
// exists to detect and fix explicitly via Repair, not implicitly via a
// bare Set call.
type elementView[T any] struct {
	id *ID[T]
}

func (e *elementView[T]) ID() handle.ID { return e.id }

func (e *elementView[T]) Value() T {
	if e.id.node.Removed() {
		panic(qerr.ErrNotPresent)
	}
	return e.id.node.Value
}

func (e *elementView[T]) CanRemove() handle.Reason {
	if e.id.node.Removed() {
		return handle.ReasonNotFound
	}
	return ""
}

func (e *elementView[T]) CanSet(T) handle.Reason {
	return handle.ReasonUnsupported
}

func (e *elementView[T]) CanAdd(T, bool) handle.Reason {
	return handle.ReasonUnsupported
}

func (e *elementView[T]) Set(T) error {
	panic(&handle.RefusalError{Reason: handle.ReasonUnsupported})
}

func (e *elementView[T]) Remove() error {
	if r := e.CanRemove(); r != "" {
		panic(&handle.RefusalError{Reason: r})
	}
	return e.id.set.Remove(e.id)
}

func (e *elementView[T]) Add(T, bool) (handle.Element[T], error) {
	panic(&handle.RefusalError{Reason: handle.ReasonUnsupported})
}

var _ handle.Element[int] = (*elementView[int])(nil)
var _ handle.MutableElement[int] = (*elementView[int])(nil)
