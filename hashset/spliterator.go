package hashset

import (
	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/lock"
	"github.com/nbtaylor/qcore/spliterator"
)

// cursor adapts a global-list entry into spliterator.Cursor. It
// deliberately does not implement spliterator.Splitter: a hash set's
// entries only form a linked list, with no order-statistics structure
// to locate a well-spaced midpoint, so TrySplit on a hash-set
// spliterator always fails.
type cursor[T any] struct {
	set *Set[T]
	e   *entry[T]
}

func (c *cursor[T]) Value() T      { return c.e.value }
func (c *cursor[T]) Removed() bool { return c.e.removed }

func (c *cursor[T]) Next() spliterator.Cursor[T] {
	if c.e.next == nil {
		return nil
	}
	return &cursor[T]{set: c.set, e: c.e.next}
}

func (c *cursor[T]) Prev() spliterator.Cursor[T] {
	if c.e.prev == nil {
		return nil
	}
	return &cursor[T]{set: c.set, e: c.e.prev}
}

// Element returns the mutable-element handle for the entry this cursor
// currently sits on, letting a Spliterator's AnchorElement delegate
// removal to the set's own structural-removal path.
func (c *cursor[T]) Element() handle.MutableElement[T] {
	return &elementView[T]{set: c.set, e: c.e}
}

// Spliterator returns a cursor anchored at id (or the first/last
// element, following insertion order, if id is nil).
func (s *Set[T]) Spliterator(anchor handle.ID, forward bool) *spliterator.Spliterator[T] {
	txn := s.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()

	if anchor == nil {
		var e *entry[T]
		if forward {
			e = s.head
		} else {
			e = s.tail
		}
		if e == nil {
			return spliterator.New[T](nil, true, nil, nil)
		}
		return spliterator.New[T](&cursor[T]{set: s, e: e}, true, nil, nil)
	}

	e, err := s.resolve(anchor)
	if err != nil {
		panic(err)
	}
	return spliterator.New[T](&cursor[T]{set: s, e: e}, true, nil, nil)
}

var _ spliterator.Cursor[int] = (*cursor[int])(nil)
var _ spliterator.MutableCursor[int] = (*cursor[int])(nil)
