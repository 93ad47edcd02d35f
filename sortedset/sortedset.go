// Package sortedset implements a sorted set: a red-black tree keyed by
// a caller comparator, exposing the search-by-filter and index_of
// operations the bucket-tree idiom of hashset also builds on, plus
// bounded live sub-range views composed by delegation rather than
// inheritance.
package sortedset

import (
	"github.com/rs/zerolog"

	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/lock"
	"github.com/nbtaylor/qcore/qerr"
	"github.com/nbtaylor/qcore/rbtree"
)

// Comparator orders two values: negative if a < b, zero if equal,
// positive if a > b.
type Comparator[T any] func(a, b T) int

// Set is a red-black-tree-backed sorted set.
type Set[T any] struct {
	tree        rbtree.Tree[T]
	cmp         Comparator[T]
	strategy    lock.Strategy
	description string
	log         zerolog.Logger
}

// New returns an empty Set ordered by cmp.
func New[T any](cmp Comparator[T], strategy lock.Strategy, description string, log zerolog.Logger) *Set[T] {
	if strategy == nil {
		strategy = lock.NewContainer(3)
	}
	return &Set[T]{cmp: cmp, strategy: strategy, description: description, log: log}
}

var _ handle.Container[int] = (*Set[int])(nil)

// ID identifies one slot of a Set.
type ID[T any] struct {
	set  *Set[T]
	node *rbtree.Node[T]
}

func (id *ID[T]) IsPresent() bool { return id != nil && !id.node.Removed() }

// Compare orders by the set's comparator applied to each node's stored
// value. This stays well-defined even after one side has been removed:
// rbtree.Tree.Remove never clears Node.Value, only its tree linkage.
func (id *ID[T]) Compare(other handle.ID) int {
	o, ok := other.(*ID[T])
	if !ok || o.set != id.set {
		panic(qerr.ErrForeignElement)
	}
	return id.set.cmp(id.node.Value, o.node.Value)
}

var _ handle.ID = (*ID[int])(nil)

func (s *Set[T]) wrap(n *rbtree.Node[T]) *ID[T] {
	if n == nil {
		return nil
	}
	return &ID[T]{set: s, node: n}
}

func (s *Set[T]) resolve(id handle.ID) (*rbtree.Node[T], error) {
	if id == nil {
		return nil, qerr.ErrNotPresent
	}
	tid, ok := id.(*ID[T])
	if !ok || tid.set != s {
		return nil, qerr.ErrForeignElement
	}
	if tid.node.Removed() {
		return nil, qerr.ErrNotPresent
	}
	return tid.node, nil
}

func (s *Set[T]) element(n *rbtree.Node[T]) handle.Element[T] {
	if n == nil {
		return nil
	}
	return &elementView[T]{id: s.wrap(n)}
}

// Size returns the number of present elements.
func (s *Set[T]) Size() int {
	var n int
	s.strategy.DoOptimistically(true, 3, func(validate func() bool) bool {
		n = s.tree.Size()
		return validate()
	})
	return n
}

func (s *Set[T]) IsEmpty() bool { return s.Size() == 0 }

// GetElement resolves id to an Element, or nil if absent.
func (s *Set[T]) GetElement(id handle.ID) handle.Element[T] {
	n, err := s.resolve(id)
	if err != nil {
		return nil
	}
	return s.element(n)
}

// MutableElement resolves id to a MutableElement, or nil if absent.
func (s *Set[T]) MutableElement(id handle.ID) handle.MutableElement[T] {
	n, err := s.resolve(id)
	if err != nil {
		return nil
	}
	return &elementView[T]{id: s.wrap(n)}
}

// GetTerminalElement returns the least (first == true) or greatest
// element, or nil if empty.
func (s *Set[T]) GetTerminalElement(first bool) handle.Element[T] {
	txn := s.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()
	root := s.tree.Root()
	if root == nil {
		return nil
	}
	if first {
		return s.element(root.Min())
	}
	return s.element(root.Max())
}

// GetAdjacentElement returns id's successor (next=true) or predecessor.
func (s *Set[T]) GetAdjacentElement(id handle.ID, next bool) handle.Element[T] {
	txn := s.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()
	n, err := s.resolve(id)
	if err != nil {
		panic(err)
	}
	if next {
		return s.element(n.Successor())
	}
	return s.element(n.Predecessor())
}

// Clear removes every element.
func (s *Set[T]) Clear() {
	txn := s.strategy.Begin(lock.WriteStructural, nil)
	defer txn.Close()
	s.tree = rbtree.Tree[T]{}
}

// GetStamp returns the structural or all-modifications monotonic stamp.
func (s *Set[T]) GetStamp(structural bool) int64 {
	return s.strategy.GetStamp(structural)
}

// cmpAgainst adapts the set's two-argument Comparator into the
// single-argument form rbtree.Search/InsertByComparator/IndexOf expect.
func (s *Set[T]) cmpAgainst(value T) func(T) int {
	return func(cand T) int { return s.cmp(cand, value) }
}

// Search takes comparable(element) returning negative/zero/positive,
// and filter selects which element to return when no exact match
// exists.
func (s *Set[T]) Search(comparable func(T) int, filter rbtree.Filter) handle.Element[T] {
	var out handle.Element[T]
	s.strategy.DoOptimistically(true, 3, func(validate func() bool) bool {
		n := s.tree.Search(comparable, filter)
		if !validate() {
			return false
		}
		out = s.element(n)
		return true
	})
	return out
}

// IndexOf returns the index of the element comparable matches exactly,
// or -(insertion_index + 1) if none does.
func (s *Set[T]) IndexOf(comparable func(T) int) int {
	var out int
	s.strategy.DoOptimistically(true, 3, func(validate func() bool) bool {
		out = s.tree.IndexOf(comparable)
		return validate()
	})
	return out
}

// Add inserts value if no element compares equal to it under the set's
// comparator, returning (element, true) if it was added, or the
// incumbent and false otherwise.
func (s *Set[T]) Add(value T) (handle.Element[T], bool, error) {
	txn := s.strategy.Begin(lock.WriteStructural, nil)
	defer txn.Close()
	if n := s.tree.Search(s.cmpAgainst(value), rbtree.FilterOnlyMatch); n != nil {
		return s.element(n), false, nil
	}
	n := s.tree.InsertByComparator(s.cmpAgainst(value), value)
	s.log.Debug().Str("set", s.description).Msg("sortedset: added element")
	return s.element(n), true, nil
}

// Remove deletes the element identified by id.
func (s *Set[T]) Remove(id handle.ID) error {
	txn := s.strategy.Begin(lock.WriteStructural, nil)
	defer txn.Close()
	n, err := s.resolve(id)
	if err != nil {
		return err
	}
	s.tree.Remove(n)
	return nil
}
