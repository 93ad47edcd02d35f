// Package treelist implements an ordered sequence: a list
// built directly on rbtree nodes, giving O(log n) index<->element lookup
// and O(log n) insert/remove anywhere in the sequence while handles stay
// valid (and totally ordered) across unrelated mutations.
package treelist

import (
	"github.com/rs/zerolog"

	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/lock"
	"github.com/nbtaylor/qcore/orderstamp"
	"github.com/nbtaylor/qcore/qerr"
	"github.com/nbtaylor/qcore/rbtree"
)

// entry is the value rbtree.Node[T] actually stores: the caller's value
// plus the permanent ordering stamp described in the orderstamp package.
type entry[T any] struct {
	value T
	stamp int64
}

// List is a red-black-tree-backed ordered sequence of T.
type List[T any] struct {
	tree        rbtree.Tree[entry[T]]
	stamps      *orderstamp.Allocator
	strategy    lock.Strategy
	description string
	log         zerolog.Logger
}

// New returns an empty List using the given locking strategy.
func New[T any](strategy lock.Strategy, description string, log zerolog.Logger) *List[T] {
	if strategy == nil {
		strategy = lock.NewContainer(3)
	}
	return &List[T]{
		strategy:    strategy,
		stamps:      orderstamp.New(),
		description: description,
		log:         log,
	}
}

var _ handle.Container[int] = (*List[int])(nil)

// ID identifies one slot of a List.
type ID[T any] struct {
	list *List[T]
	node *rbtree.Node[entry[T]]
}

func (id *ID[T]) IsPresent() bool {
	return id != nil && id.node != nil && !id.node.Removed()
}

func (id *ID[T]) Compare(other handle.ID) int {
	o, ok := other.(*ID[T])
	if !ok || o.list != id.list {
		panic(qerr.ErrForeignElement)
	}
	switch {
	case id.node.Value.stamp < o.node.Value.stamp:
		return -1
	case id.node.Value.stamp > o.node.Value.stamp:
		return 1
	default:
		return 0
	}
}

func (l *List[T]) wrap(n *rbtree.Node[entry[T]]) *ID[T] {
	if n == nil {
		return nil
	}
	return &ID[T]{list: l, node: n}
}

func (l *List[T]) resolve(id handle.ID) (*rbtree.Node[entry[T]], error) {
	if id == nil {
		return nil, qerr.ErrNotPresent
	}
	tid, ok := id.(*ID[T])
	if !ok || tid.list != l {
		return nil, qerr.ErrForeignElement
	}
	if tid.node.Removed() {
		return nil, qerr.ErrNotPresent
	}
	return tid.node, nil
}

// Size returns the number of present elements.
func (l *List[T]) Size() int {
	var n int
	l.strategy.DoOptimistically(false, 3, func(validate func() bool) bool {
		n = l.tree.Size()
		return validate()
	})
	return n
}

// IsEmpty reports whether the list has no elements.
func (l *List[T]) IsEmpty() bool { return l.Size() == 0 }

// Get returns the element at index, or nil if out of range.
func (l *List[T]) Get(index int) handle.Element[T] {
	txn := l.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()
	n := l.tree.NodeAt(index)
	return l.element(n)
}

// GetElementsBefore returns the number of elements ordered before id.
func (l *List[T]) GetElementsBefore(id handle.ID) int {
	txn := l.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()
	n, err := l.resolve(id)
	if err != nil {
		panic(err)
	}
	return n.Rank()
}

// GetElementsAfter returns the number of elements ordered after id.
func (l *List[T]) GetElementsAfter(id handle.ID) int {
	txn := l.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()
	n, err := l.resolve(id)
	if err != nil {
		panic(err)
	}
	return l.tree.Size() - n.Rank() - 1
}

// GetTerminalElement returns the first or last element, or nil if empty.
func (l *List[T]) GetTerminalElement(first bool) handle.Element[T] {
	txn := l.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()
	root := l.tree.Root()
	if root == nil {
		return nil
	}
	if first {
		return l.element(root.Min())
	}
	return l.element(root.Max())
}

// GetAdjacentElement returns id's successor (next=true) or predecessor.
func (l *List[T]) GetAdjacentElement(id handle.ID, next bool) handle.Element[T] {
	txn := l.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()
	n, err := l.resolve(id)
	if err != nil {
		panic(err)
	}
	if next {
		return l.element(n.Successor())
	}
	return l.element(n.Predecessor())
}

func (l *List[T]) element(n *rbtree.Node[entry[T]]) handle.Element[T] {
	if n == nil {
		return nil
	}
	return &elementView[T]{id: l.wrap(n)}
}

// Add inserts value into the list. If after and before are both nil,
// value is appended (preferFirst false) or prepended (preferFirst true).
// If exactly one of after/before is given, value is inserted adjacent to
// it. If both are given, value is inserted between them.
func (l *List[T]) Add(value T, after, before handle.ID, preferFirst bool) (handle.Element[T], error) {
	txn := l.strategy.Begin(lock.WriteStructural, nil)
	defer txn.Close()

	var afterNode, beforeNode *rbtree.Node[entry[T]]
	var err error
	if after != nil {
		if afterNode, err = l.resolve(after); err != nil {
			return nil, err
		}
	}
	if before != nil {
		if beforeNode, err = l.resolve(before); err != nil {
			return nil, err
		}
	}

	var n *rbtree.Node[entry[T]]
	switch {
	case afterNode != nil:
		stamp := l.stampAfter(afterNode, beforeNode)
		n = l.tree.InsertAfter(afterNode, entry[T]{value: value, stamp: stamp})
	case beforeNode != nil:
		stamp := l.stampBefore(beforeNode)
		n = l.tree.InsertBefore(beforeNode, entry[T]{value: value, stamp: stamp})
	case preferFirst:
		n = l.tree.InsertLeftmost(entry[T]{value: value, stamp: l.stamps.First()})
	default:
		n = l.tree.InsertRightmost(entry[T]{value: value, stamp: l.stamps.Last()})
	}

	l.log.Debug().Str("list", l.description).Msg("treelist: added element")
	return l.element(n), nil
}

func (l *List[T]) stampAfter(afterNode, beforeNode *rbtree.Node[entry[T]]) int64 {
	succ := afterNode.Successor()
	if beforeNode == nil && succ == nil {
		return l.stamps.Last()
	}
	high := succ
	if beforeNode != nil {
		high = beforeNode
	}
	if high == nil {
		return l.stamps.Last()
	}
	if s, ok := orderstamp.Between(afterNode.Value.stamp, high.Value.stamp); ok {
		return s
	}
	l.renumberFrom(high, afterNode.Value.stamp+renumberStride)
	s, _ := orderstamp.Between(afterNode.Value.stamp, high.Value.stamp)
	return s
}

func (l *List[T]) stampBefore(beforeNode *rbtree.Node[entry[T]]) int64 {
	pred := beforeNode.Predecessor()
	if pred == nil {
		return l.stamps.First()
	}
	if s, ok := orderstamp.Between(pred.Value.stamp, beforeNode.Value.stamp); ok {
		return s
	}
	l.renumberFrom(beforeNode, pred.Value.stamp+renumberStride)
	s, _ := orderstamp.Between(pred.Value.stamp, beforeNode.Value.stamp)
	return s
}

const renumberStride = 1 << 16

// renumberFrom re-spaces the stamps of start and every element after it,
// starting at base, when Between finds no free integer between start's
// predecessor and start itself. Reassigning start's own stamp (not just
// its successors') is what actually recreates a usable gap; leaving it
// unchanged would reproduce the exact adjacency that triggered this call.
func (l *List[T]) renumberFrom(start *rbtree.Node[entry[T]], base int64) {
	n := start
	next := base
	for n != nil {
		v := n.Value
		v.stamp = next
		n.Value = v
		next += renumberStride
		n = n.Successor()
	}
}

// Remove deletes the element identified by id.
func (l *List[T]) Remove(id handle.ID) error {
	txn := l.strategy.Begin(lock.WriteStructural, nil)
	defer txn.Close()
	n, err := l.resolve(id)
	if err != nil {
		return err
	}
	l.tree.Remove(n)
	l.log.Debug().Str("list", l.description).Msg("treelist: removed element")
	return nil
}

// Clear removes every element.
func (l *List[T]) Clear() {
	txn := l.strategy.Begin(lock.WriteStructural, nil)
	defer txn.Close()
	l.tree = rbtree.Tree[entry[T]]{}
	l.stamps = orderstamp.New()
}

// GetStamp returns the structural or all-modifications monotonic stamp.
func (l *List[T]) GetStamp(structural bool) int64 {
	return l.strategy.GetStamp(structural)
}

// MutableElement resolves id to a MutableElement, or nil if absent.
func (l *List[T]) MutableElement(id handle.ID) handle.MutableElement[T] {
	tid, ok := id.(*ID[T])
	if !ok || tid.list != l {
		return nil
	}
	if tid.node.Removed() {
		return nil
	}
	return &elementView[T]{id: tid}
}

// GetElement resolves id to an Element, or nil if absent.
func (l *List[T]) GetElement(id handle.ID) handle.Element[T] {
	n, err := l.resolve(id)
	if err != nil {
		return nil
	}
	return l.element(n)
}
