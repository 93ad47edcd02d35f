// Package spliterator implements a bi-directional, optionally splittable
// cursor: a cursor anchored at one element, robust to concurrent
// modification of every element except its own anchor, which it detects
// and reports as a fatal error on the next step.
package spliterator

import (
	"reflect"

	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/qerr"
)

// Cursor is the minimal navigation surface a container's node type must
// provide for a Spliterator to walk it. treelist, sortedset and hashset
// each satisfy it with a small cursor type wrapping their tree node or
// linked-list entry.
type Cursor[T any] interface {
	Value() T
	Removed() bool
	Next() Cursor[T]
	Prev() Cursor[T]
}

// MutableCursor is implemented by cursors that can produce the backing
// container's own mutable-element handle for their slot. AnchorElement
// uses it to expose a handle whose Remove() coordinates with the
// spliterator's anchor instead of just unlinking the node blindly.
type MutableCursor[T any] interface {
	Cursor[T]
	Element() handle.MutableElement[T]
}

// Splitter is implemented by tree-backed cursors (treelist, sortedset)
// that can locate a well-spaced midpoint between two bounds, enabling
// TrySplit. Hash-set entries, which only form a linked list, do not
// implement it, so splitting a hash-set spliterator always fails.
type Splitter[T any] interface {
	Cursor[T]
	// Midpoint returns a cursor roughly halfway to bound in the
	// underlying tree's rank order, or nil if no such node exists
	// (e.g. bound is adjacent to the receiver).
	Midpoint(bound Cursor[T]) Cursor[T]
}

// Spliterator walks a container segment starting at an anchor, honoring
// a cursorIsNext bit: true means the anchor is the next element to
// yield, false means the anchor was the most recently yielded element.
type Spliterator[T any] struct {
	anchor       Cursor[T]
	cursorIsNext bool
	lowerBound   Cursor[T] // exclusive; nil means unbounded
	upperBound   Cursor[T] // exclusive; nil means unbounded
}

// New returns a Spliterator anchored at anchor. If cursorIsNext is true,
// anchor itself is the first element ForEach yields going forward;
// otherwise anchor is treated as already-yielded and iteration starts at
// its successor.
func New[T any](anchor Cursor[T], cursorIsNext bool, lowerBound, upperBound Cursor[T]) *Spliterator[T] {
	return &Spliterator[T]{anchor: anchor, cursorIsNext: cursorIsNext, lowerBound: lowerBound, upperBound: upperBound}
}

// ForEach walks the segment, calling action(value) for every element from
// the cursor position to the relevant bound, in the direction given by
// forward. It panics with qerr.ErrConcurrentModification the moment the
// anchor element is found to have been removed by another goroutine
// (removal of any other element is tolerated transparently).
func (s *Spliterator[T]) ForEach(action func(T), forward bool) {
	if s.anchor != nil && s.anchor.Removed() {
		panic(qerr.ErrConcurrentModification)
	}

	var cur Cursor[T]
	if forward {
		if s.cursorIsNext {
			cur = s.anchor
		} else if s.anchor != nil {
			cur = s.anchor.Next()
		}
	} else {
		if !s.cursorIsNext {
			cur = s.anchor
		} else if s.anchor != nil {
			cur = s.anchor.Prev()
		}
	}

	for cur != nil {
		bound := s.upperBound
		if !forward {
			bound = s.lowerBound
		}
		if bound != nil && sameSlot(cur, bound) {
			break
		}
		if cur.Removed() {
			// The anchor's own removal is caught above; removal of a
			// node we are mid-walk over (discovered lazily, e.g. after
			// a yield re-enters the container) is tolerated by simply
			// skipping it and continuing from its still-valid link.
			if forward {
				cur = cur.Next()
			} else {
				cur = cur.Prev()
			}
			continue
		}
		action(cur.Value())
		var next Cursor[T]
		if forward {
			next = cur.Next()
		} else {
			next = cur.Prev()
		}
		cur = next
	}
}

// Advance consumes the cursor's anchor and moves it to the next (or
// previous) element without invoking a callback, returning whether an
// element was present. Used by containers that expose explicit
// step-based iterators on top of the spliterator primitive.
func (s *Spliterator[T]) Advance(forward bool) (T, bool) {
	var zero T
	if s.anchor != nil && s.anchor.Removed() {
		panic(qerr.ErrConcurrentModification)
	}
	var cur Cursor[T]
	if forward {
		if s.cursorIsNext {
			cur = s.anchor
		} else if s.anchor != nil {
			cur = s.anchor.Next()
		}
	} else {
		if !s.cursorIsNext {
			cur = s.anchor
		} else if s.anchor != nil {
			cur = s.anchor.Prev()
		}
	}
	if cur == nil {
		return zero, false
	}
	s.anchor = cur
	s.cursorIsNext = false
	return cur.Value(), true
}

// AnchorElement returns a mutable-element handle bound to the
// spliterator's current anchor, or nil if the spliterator is exhausted
// or the anchor's cursor does not implement MutableCursor. Removing
// through the returned handle advances the spliterator's anchor to the
// anchor's successor before performing the underlying removal, so a
// caller that removes the anchor this way never trips the
// concurrent-modification check on the next step; removing the same
// element through any other handle is still caught as usual.
func (s *Spliterator[T]) AnchorElement() handle.MutableElement[T] {
	if s.anchor == nil {
		return nil
	}
	mc, ok := s.anchor.(MutableCursor[T])
	if !ok {
		return nil
	}
	return &anchorElement[T]{s: s, anchor: s.anchor, inner: mc.Element()}
}

// anchorElement wraps a container's native mutable-element handle,
// intercepting Remove to keep the owning spliterator's anchor coherent.
type anchorElement[T any] struct {
	s      *Spliterator[T]
	anchor Cursor[T]
	inner  handle.MutableElement[T]
}

func (e *anchorElement[T]) ID() handle.ID            { return e.inner.ID() }
func (e *anchorElement[T]) Value() T                 { return e.inner.Value() }
func (e *anchorElement[T]) CanRemove() handle.Reason { return e.inner.CanRemove() }
func (e *anchorElement[T]) CanSet(v T) handle.Reason { return e.inner.CanSet(v) }
func (e *anchorElement[T]) Set(v T) error             { return e.inner.Set(v) }

func (e *anchorElement[T]) CanAdd(v T, before bool) handle.Reason {
	return e.inner.CanAdd(v, before)
}

func (e *anchorElement[T]) Add(v T, beforeThis bool) (handle.Element[T], error) {
	return e.inner.Add(v, beforeThis)
}

func (e *anchorElement[T]) Remove() error {
	if r := e.CanRemove(); r != "" {
		panic(&handle.RefusalError{Reason: r})
	}
	// Resolve the successor before the underlying removal touches the
	// tree/list links the anchor cursor depends on, then move the
	// spliterator onto it - matching the anchor being consumed rather
	// than skipped, the same bookkeeping Advance does.
	next := e.anchor.Next()
	if e.s.anchor == e.anchor {
		e.s.anchor = next
		e.s.cursorIsNext = true
	}
	return e.inner.Remove()
}

var _ handle.MutableElement[int] = (*anchorElement[int])(nil)

// TrySplit attempts to split this spliterator into two disjoint-range
// spliterators sharing the same container. It only succeeds when the
// anchor implements Splitter and a well-spaced midpoint exists between
// the cursor and its upper bound.
func (s *Spliterator[T]) TrySplit() *Spliterator[T] {
	sp, ok := s.anchor.(Splitter[T])
	if !ok {
		return nil
	}
	mid := sp.Midpoint(s.upperBound)
	if mid == nil {
		return nil
	}
	right := &Spliterator[T]{anchor: mid, cursorIsNext: true, lowerBound: s.anchor, upperBound: s.upperBound}
	s.upperBound = mid
	return right
}

// sameSlot reports whether two cursors sit on the same slot. Containers
// allocate a fresh pointer-backed cursor on every Next/Prev, so two
// cursors for one slot are usually distinct pointers; they are compared
// by the struct they point to (container plus node or entry pointer).
func sameSlot[T any](a, b Cursor[T]) bool {
	if a == b {
		return true
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != reflect.Pointer || va.Type() != vb.Type() || va.IsNil() || vb.IsNil() {
		return false
	}
	return va.Elem().Interface() == vb.Elem().Interface()
}
