package sortedset

import (
	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/lock"
	"github.com/nbtaylor/qcore/rbtree"
	"github.com/nbtaylor/qcore/spliterator"
)

type cursor[T any] struct {
	set  *Set[T]
	node *rbtree.Node[T]
}

func (c *cursor[T]) Value() T      { return c.node.Value }
func (c *cursor[T]) Removed() bool { return c.node.Removed() }

func (c *cursor[T]) Next() spliterator.Cursor[T] {
	n := c.node.Successor()
	if n == nil {
		return nil
	}
	return &cursor[T]{set: c.set, node: n}
}

func (c *cursor[T]) Prev() spliterator.Cursor[T] {
	n := c.node.Predecessor()
	if n == nil {
		return nil
	}
	return &cursor[T]{set: c.set, node: n}
}

// Element returns the mutable-element handle for the node this cursor
// currently sits on, letting a Spliterator's AnchorElement delegate
// removal to the set's own structural-removal path.
func (c *cursor[T]) Element() handle.MutableElement[T] {
	return &elementView[T]{id: c.set.wrap(c.node)}
}

func (c *cursor[T]) Midpoint(bound spliterator.Cursor[T]) spliterator.Cursor[T] {
	lo := c.node.Rank()
	hi := c.set.tree.Size() - 1
	if bound != nil {
		if b, ok := bound.(*cursor[T]); ok {
			hi = b.node.Rank()
		}
	}
	if hi-lo <= 1 {
		return nil
	}
	mid := c.set.tree.NodeAt(lo + (hi-lo)/2)
	if mid == nil || mid == c.node {
		return nil
	}
	return &cursor[T]{set: c.set, node: mid}
}

// Spliterator returns a cursor anchored at id (or the least/greatest
// element if id is nil).
func (s *Set[T]) Spliterator(anchor handle.ID, forward bool) *spliterator.Spliterator[T] {
	txn := s.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()

	if anchor == nil {
		root := s.tree.Root()
		if root == nil {
			return spliterator.New[T](nil, true, nil, nil)
		}
		var n *rbtree.Node[T]
		if forward {
			n = root.Min()
		} else {
			n = root.Max()
		}
		return spliterator.New[T](&cursor[T]{set: s, node: n}, true, nil, nil)
	}

	n, err := s.resolve(anchor)
	if err != nil {
		panic(err)
	}
	return spliterator.New[T](&cursor[T]{set: s, node: n}, true, nil, nil)
}

var _ spliterator.Cursor[int] = (*cursor[int])(nil)
var _ spliterator.Splitter[int] = (*cursor[int])(nil)
var _ spliterator.MutableCursor[int] = (*cursor[int])(nil)
