package treelist

import (
	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/lock"
	"github.com/nbtaylor/qcore/rbtree"
	"github.com/nbtaylor/qcore/spliterator"
)

// cursor adapts a tree node into spliterator.Cursor / spliterator.Splitter,
// letting the generic spliterator walk a List without knowing about
// rbtree at all.
type cursor[T any] struct {
	list *List[T]
	node *rbtree.Node[entry[T]]
}

func (c *cursor[T]) Value() T      { return c.node.Value.value }
func (c *cursor[T]) Removed() bool { return c.node.Removed() }

func (c *cursor[T]) Next() spliterator.Cursor[T] {
	n := c.node.Successor()
	if n == nil {
		return nil
	}
	return &cursor[T]{list: c.list, node: n}
}

func (c *cursor[T]) Prev() spliterator.Cursor[T] {
	n := c.node.Predecessor()
	if n == nil {
		return nil
	}
	return &cursor[T]{list: c.list, node: n}
}

// Element returns the mutable-element handle for the node this cursor
// currently sits on, letting a Spliterator's AnchorElement delegate
// removal to the list's own structural-removal path.
func (c *cursor[T]) Element() handle.MutableElement[T] {
	return &elementView[T]{id: c.list.wrap(c.node)}
}

// Midpoint returns the node at the rank halfway between the receiver and
// bound, giving TrySplit a well-spaced division point for parallel walks.
func (c *cursor[T]) Midpoint(bound spliterator.Cursor[T]) spliterator.Cursor[T] {
	lo := c.node.Rank()
	hi := c.list.tree.Size() - 1
	if bound != nil {
		b, ok := bound.(*cursor[T])
		if ok {
			hi = b.node.Rank()
		}
	}
	if hi-lo <= 1 {
		return nil
	}
	mid := c.list.tree.NodeAt(lo + (hi-lo)/2)
	if mid == nil || mid == c.node {
		return nil
	}
	return &cursor[T]{list: c.list, node: mid}
}

// Spliterator returns a cursor anchored at id (or at the first/last
// element if id is nil) ready to walk the list without holding the
// container lock for the duration of the walk; callers wrap ForEach in
// their own read transaction per element as needed.
func (l *List[T]) Spliterator(anchor handle.ID, forward bool) *spliterator.Spliterator[T] {
	txn := l.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()

	if anchor == nil {
		root := l.tree.Root()
		if root == nil {
			return spliterator.New[T](nil, true, nil, nil)
		}
		var n *rbtree.Node[entry[T]]
		if forward {
			n = root.Min()
		} else {
			n = root.Max()
		}
		return spliterator.New[T](&cursor[T]{list: l, node: n}, true, nil, nil)
	}

	n, err := l.resolve(anchor)
	if err != nil {
		panic(err)
	}
	return spliterator.New[T](&cursor[T]{list: l, node: n}, true, nil, nil)
}

var _ spliterator.Cursor[int] = (*cursor[int])(nil)
var _ spliterator.Splitter[int] = (*cursor[int])(nil)
var _ spliterator.MutableCursor[int] = (*cursor[int])(nil)
