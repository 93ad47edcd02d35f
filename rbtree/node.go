// Package rbtree implements a red-black tree engine: a node type
// augmented with a cached subtree size for O(log n)
// rank queries, and a generic comparator-driven closest-match search used
// both by the sorted containers and by optimistic, validator-guarded
// traversal.
//
// The node/rotation layout follows the classic CLR red-black tree; the
// size augmentation and the comparator-closest-match search are grounded
// on the order-statistics idiom the pack's B-tree and fork-choice
// doubly-linked-tree examples use for rank and nearest-ancestor queries
// (bobboyms-storage-engine/pkg/btree, prysmaticlabs-prysm's
// forkchoice/doubly-linked-tree), generalized here to rebalance as a true
// red-black tree rather than their unbalanced or append-only structures.
package rbtree

type color bool

const (
	red   color = true
	black color = false
)

// Node is a red-black tree node. For tree-backed containers the node
// itself doubles as the container's element identifier: it is never
// reallocated across rotations, only relinked.
type Node[T any] struct {
	Value T

	color  color
	parent *Node[T]
	left    *Node[T]
	right   *Node[T]
	size    int  // size of the subtree rooted at this node, including itself
	removed bool // true once Tree.Remove has spliced this node out
}

// Removed reports whether this node has been spliced out of its tree by
// Tree.Remove. Once true it stays true forever; the Node pointer itself
// remains valid to hold onto and compare.
func (n *Node[T]) Removed() bool {
	return n != nil && n.removed
}

// Left returns the node's left child, or nil.
func (n *Node[T]) Left() *Node[T] { return n.left }

// Right returns the node's right child, or nil.
func (n *Node[T]) Right() *Node[T] { return n.right }

// Parent returns the node's parent, or nil if n is a tree root.
func (n *Node[T]) Parent() *Node[T] { return n.parent }

// Size returns the number of nodes in the subtree rooted at n.
func (n *Node[T]) Size() int { return size(n) }

func size[T any](n *Node[T]) int {
	if n == nil {
		return 0
	}
	return n.size
}

func isRed[T any](n *Node[T]) bool {
	return n != nil && n.color == red
}

// Rank returns the number of nodes strictly before n in the in-order
// sequence of the tree n belongs to (0 for the minimum node).
func (n *Node[T]) Rank() int {
	if n == nil {
		return -1
	}
	rank := size(n.left)
	cur := n
	for cur.parent != nil {
		if cur.parent.right == cur {
			rank += size(cur.parent.left) + 1
		}
		cur = cur.parent
	}
	return rank
}

// Min returns the minimum node of the subtree rooted at n, or nil if n
// is nil.
func (n *Node[T]) Min() *Node[T] {
	if n == nil {
		return nil
	}
	cur := n
	for cur.left != nil {
		cur = cur.left
	}
	return cur
}

// Max returns the maximum node of the subtree rooted at n, or nil if n
// is nil.
func (n *Node[T]) Max() *Node[T] {
	if n == nil {
		return nil
	}
	cur := n
	for cur.right != nil {
		cur = cur.right
	}
	return cur
}

// Successor returns the node immediately following n in the tree's
// in-order sequence, or nil if n is the maximum.
func (n *Node[T]) Successor() *Node[T] {
	if n == nil {
		return nil
	}
	if n.right != nil {
		return n.right.Min()
	}
	cur, p := n, n.parent
	for p != nil && cur == p.right {
		cur, p = p, p.parent
	}
	return p
}

// Predecessor returns the node immediately preceding n in the tree's
// in-order sequence, or nil if n is the minimum.
func (n *Node[T]) Predecessor() *Node[T] {
	if n == nil {
		return nil
	}
	if n.left != nil {
		return n.left.Max()
	}
	cur, p := n, n.parent
	for p != nil && cur == p.left {
		cur, p = p, p.parent
	}
	return p
}

// FindClosest walks from n applying cmp to reach the closest element
// matching the predicate described by prefer/strict, re-checking
// validator on every step; it returns nil the moment validator reports
// the tree has moved underneath it. This supports optimistic traversal,
// where a caller walking under a stamp-validated read must bail out the
// instant the stamp it is watching changes.
//
// cmp receives each candidate's value and returns negative if the
// candidate is less than the sought position, positive if greater, zero
// on an exact match. preferLesser breaks ties toward the predecessor
// when strict excludes an exact match.
func (n *Node[T]) FindClosest(cmp func(T) int, preferLesser bool, strict bool, validator func() bool) *Node[T] {
	cur := n
	var lastLess, lastGreater *Node[T]
	for cur != nil {
		if validator != nil && !validator() {
			return nil
		}
		c := cmp(cur.Value)
		switch {
		case c == 0:
			if !strict {
				return cur
			}
			if preferLesser {
				return cur.Predecessor()
			}
			return cur.Successor()
		case c < 0:
			lastLess = cur
			cur = cur.right
		default:
			lastGreater = cur
			cur = cur.left
		}
	}
	if preferLesser {
		return lastLess
	}
	return lastGreater
}
