package sortedset

import (
	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/lock"
	"github.com/nbtaylor/qcore/rbtree"
)

// SubSet is a live bounded view over a Set: every operation delegates to
// the backing Set, checking the view's bound first.
// A value outside the bound is excluded from queries and refused by
// mutators with handle.ReasonIllegalElement rather than being copied into
// a separate structure, so changes made directly to the backing Set are
// immediately visible through the view.
type SubSet[T any] struct {
	backing        *Set[T]
	lower          *T
	lowerInclusive bool
	upper          *T
	upperInclusive bool
}

// SubSet returns a view bounded below by lower and above by upper. A nil
// bound is unbounded on that side; *Inclusive controls whether the bound
// value itself belongs to the view.
func (s *Set[T]) SubSet(lower *T, lowerInclusive bool, upper *T, upperInclusive bool) *SubSet[T] {
	return &SubSet[T]{backing: s, lower: lower, lowerInclusive: lowerInclusive, upper: upper, upperInclusive: upperInclusive}
}

var _ handle.Container[int] = (*SubSet[int])(nil)

func (v *SubSet[T]) inRange(value T) bool {
	if v.lower != nil {
		c := v.backing.cmp(value, *v.lower)
		if v.lowerInclusive {
			if c < 0 {
				return false
			}
		} else if c <= 0 {
			return false
		}
	}
	if v.upper != nil {
		c := v.backing.cmp(value, *v.upper)
		if v.upperInclusive {
			if c > 0 {
				return false
			}
		} else if c >= 0 {
			return false
		}
	}
	return true
}

// lowerBoundNode returns the first node at or past the view's lower bound,
// or the tree's minimum if the view is unbounded below.
func (v *SubSet[T]) lowerBoundNode() *rbtree.Node[T] {
	root := v.backing.tree.Root()
	if root == nil {
		return nil
	}
	if v.lower == nil {
		return root.Min()
	}
	filter := rbtree.FilterPreferGreater
	n := v.backing.tree.Search(v.backing.cmpAgainst(*v.lower), filter)
	if n == nil {
		return nil
	}
	if !v.lowerInclusive && v.backing.cmp(n.Value, *v.lower) == 0 {
		return n.Successor()
	}
	return n
}

// upperBoundNode returns the last node at or before the view's upper bound,
// or the tree's maximum if the view is unbounded above.
func (v *SubSet[T]) upperBoundNode() *rbtree.Node[T] {
	root := v.backing.tree.Root()
	if root == nil {
		return nil
	}
	if v.upper == nil {
		return root.Max()
	}
	n := v.backing.tree.Search(v.backing.cmpAgainst(*v.upper), rbtree.FilterPreferLess)
	if n == nil {
		return nil
	}
	if !v.upperInclusive && v.backing.cmp(n.Value, *v.upper) == 0 {
		return n.Predecessor()
	}
	return n
}

// Size counts present elements within the bound by walking from the lower
// boundary. The backing tree offers no O(log n) way to count a predicate
// over an arbitrary (non-whole-tree) range, so this is O(size of the view).
func (v *SubSet[T]) Size() int {
	txn := v.backing.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()
	n := v.lowerBoundNode()
	upper := v.upperBoundNode()
	if n == nil || upper == nil || !v.inRange(n.Value) {
		return 0
	}
	count := 0
	for cur := n; cur != nil; cur = cur.Successor() {
		count++
		if cur == upper {
			break
		}
	}
	return count
}

func (v *SubSet[T]) IsEmpty() bool { return v.Size() == 0 }

func (v *SubSet[T]) GetElement(id handle.ID) handle.Element[T] {
	n, err := v.backing.resolve(id)
	if err != nil || !v.inRange(n.Value) {
		return nil
	}
	return v.backing.element(n)
}

func (v *SubSet[T]) MutableElement(id handle.ID) handle.MutableElement[T] {
	n, err := v.backing.resolve(id)
	if err != nil || !v.inRange(n.Value) {
		return nil
	}
	return &elementView[T]{id: v.backing.wrap(n)}
}

func (v *SubSet[T]) GetTerminalElement(first bool) handle.Element[T] {
	txn := v.backing.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()
	var n *rbtree.Node[T]
	if first {
		n = v.lowerBoundNode()
	} else {
		n = v.upperBoundNode()
	}
	if n == nil || !v.inRange(n.Value) {
		return nil
	}
	return v.backing.element(n)
}

// GetAdjacentElement returns id's neighbor, or nil if that neighbor falls
// outside the view's bound.
func (v *SubSet[T]) GetAdjacentElement(id handle.ID, next bool) handle.Element[T] {
	txn := v.backing.strategy.Begin(lock.ReadStructural, nil)
	defer txn.Close()
	n, err := v.backing.resolve(id)
	if err != nil {
		panic(err)
	}
	var adj *rbtree.Node[T]
	if next {
		adj = n.Successor()
	} else {
		adj = n.Predecessor()
	}
	if adj == nil || !v.inRange(adj.Value) {
		return nil
	}
	return v.backing.element(adj)
}

// Add inserts value if it falls within the view's bound, delegating to the
// backing Set. Out-of-bound values are refused with ReasonIllegalElement.
func (v *SubSet[T]) Add(value T) (handle.Element[T], bool, error) {
	if !v.inRange(value) {
		return nil, false, &handle.RefusalError{Reason: handle.ReasonIllegalElement}
	}
	return v.backing.Add(value)
}

// Remove deletes the element identified by id, refusing if it lies outside
// the view's bound.
func (v *SubSet[T]) Remove(id handle.ID) error {
	n, err := v.backing.resolve(id)
	if err != nil {
		return err
	}
	if !v.inRange(n.Value) {
		return &handle.RefusalError{Reason: handle.ReasonIllegalElement}
	}
	return v.backing.Remove(id)
}

// Clear removes every element within the view's bound, leaving elements
// outside it untouched.
func (v *SubSet[T]) Clear() {
	txn := v.backing.strategy.Begin(lock.WriteStructural, nil)
	defer txn.Close()
	var toRemove []*rbtree.Node[T]
	for n := v.lowerBoundNode(); n != nil; n = n.Successor() {
		if !v.inRange(n.Value) {
			break
		}
		toRemove = append(toRemove, n)
	}
	for _, n := range toRemove {
		v.backing.tree.Remove(n)
	}
}

// GetStamp delegates to the backing Set: a view has no independent
// modification history.
func (v *SubSet[T]) GetStamp(structural bool) int64 { return v.backing.GetStamp(structural) }

// Search delegates to the backing Set's search, returning nil instead of a
// match that falls outside the view's bound.
func (v *SubSet[T]) Search(comparable func(T) int, filter rbtree.Filter) handle.Element[T] {
	el := v.backing.Search(comparable, filter)
	if el == nil || !v.inRange(el.Value()) {
		return nil
	}
	return el
}
