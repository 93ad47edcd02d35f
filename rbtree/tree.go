package rbtree

// Tree is a red-black tree whose nodes carry a cached subtree size,
// supporting O(log n) rank queries and order-statistics selection on top
// of the usual O(log n) insert/remove. Insertion can be driven either by
// position (InsertBefore/InsertAfter/InsertLeftmost/InsertRightmost, used
// by treelist to maintain pure insertion order with no comparator at all)
// or by a comparator (InsertByComparator, used by the sorted containers
// and by each hash-set bucket).
type Tree[T any] struct {
	root *Node[T]
}

// Root returns the tree's root node, or nil if the tree is empty.
func (t *Tree[T]) Root() *Node[T] { return t.root }

// Size returns the total number of nodes in the tree.
func (t *Tree[T]) Size() int { return size(t.root) }

func (t *Tree[T]) rotateLeft(x *Node[T]) {
	y := x.right
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == nil {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
	x.size = size(x.left) + size(x.right) + 1
	y.size = size(y.left) + size(y.right) + 1
}

func (t *Tree[T]) rotateRight(x *Node[T]) {
	y := x.left
	x.left = y.right
	if y.right != nil {
		y.right.parent = x
	}
	y.parent = x.parent
	if x.parent == nil {
		t.root = y
	} else if x == x.parent.right {
		x.parent.right = y
	} else {
		x.parent.left = y
	}
	y.right = x
	x.parent = y
	x.size = size(x.left) + size(x.right) + 1
	y.size = size(y.left) + size(y.right) + 1
}

// attach links a freshly allocated red leaf as the given child of parent
// (or as the root, if parent is nil), bumps every ancestor's size, and
// runs the standard red-black insert fixup.
func (t *Tree[T]) attach(parent *Node[T], asLeft bool, value T) *Node[T] {
	n := &Node[T]{Value: value, color: red, size: 1}
	n.parent = parent
	if parent == nil {
		t.root = n
	} else if asLeft {
		parent.left = n
	} else {
		parent.right = n
	}
	for p := parent; p != nil; p = p.parent {
		p.size++
	}
	t.insertFixup(n)
	return n
}

func (t *Tree[T]) insertFixup(z *Node[T]) {
	for isRed(z.parent) {
		gp := z.parent.parent
		if z.parent == gp.left {
			y := gp.right
			if isRed(y) {
				z.parent.color = black
				y.color = black
				gp.color = red
				z = gp
			} else {
				if z == z.parent.right {
					z = z.parent
					t.rotateLeft(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rotateRight(z.parent.parent)
			}
		} else {
			y := gp.left
			if isRed(y) {
				z.parent.color = black
				y.color = black
				gp.color = red
				z = gp
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rotateRight(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rotateLeft(z.parent.parent)
			}
		}
	}
	t.root.color = black
}

func (t *Tree[T]) transplant(u, v *Node[T]) {
	if u.parent == nil {
		t.root = v
	} else if u == u.parent.left {
		u.parent.left = v
	} else {
		u.parent.right = v
	}
	if v != nil {
		v.parent = u.parent
	}
}

// Remove deletes z from the tree. z must belong to this tree.
func (t *Tree[T]) Remove(z *Node[T]) {
	y := z
	yOriginalColor := y.color
	var x, xParent *Node[T]

	switch {
	case z.left == nil:
		x = z.right
		xParent = z.parent
		t.transplant(z, z.right)
	case z.right == nil:
		x = z.left
		xParent = z.parent
		t.transplant(z, z.left)
	default:
		y = z.right.Min()
		yOriginalColor = y.color
		x = y.right
		if y.parent == z {
			xParent = y
		} else {
			xParent = y.parent
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}

	// Every node's size is derived purely from its current children, so
	// recomputing bottom-up from the deepest touched point self-corrects
	// regardless of which branch above ran.
	for p := xParent; p != nil; p = p.parent {
		p.size = size(p.left) + size(p.right) + 1
	}

	if yOriginalColor == black {
		t.deleteFixup(x, xParent)
	}

	z.parent, z.left, z.right = nil, nil, nil
	z.size = 1
	z.removed = true
}

func (t *Tree[T]) deleteFixup(x, parent *Node[T]) {
	for x != t.root && !isRed(x) {
		if parent.left == x {
			w := parent.right
			if isRed(w) {
				w.color = black
				parent.color = red
				t.rotateLeft(parent)
				w = parent.right
			}
			if !isRed(w.left) && !isRed(w.right) {
				w.color = red
				x = parent
				parent = x.parent
			} else {
				if !isRed(w.right) {
					w.left.color = black
					w.color = red
					t.rotateRight(w)
					w = parent.right
				}
				w.color = parent.color
				parent.color = black
				w.right.color = black
				t.rotateLeft(parent)
				x = t.root
				parent = nil
			}
		} else {
			w := parent.left
			if isRed(w) {
				w.color = black
				parent.color = red
				t.rotateRight(parent)
				w = parent.left
			}
			if !isRed(w.right) && !isRed(w.left) {
				w.color = red
				x = parent
				parent = x.parent
			} else {
				if !isRed(w.left) {
					w.right.color = black
					w.color = red
					t.rotateLeft(w)
					w = parent.left
				}
				w.color = parent.color
				parent.color = black
				w.left.color = black
				t.rotateRight(parent)
				x = t.root
				parent = nil
			}
		}
	}
	if x != nil {
		x.color = black
	}
}

// InsertLeftmost inserts value as the new minimum element.
func (t *Tree[T]) InsertLeftmost(value T) *Node[T] {
	if t.root == nil {
		return t.attach(nil, false, value)
	}
	return t.attach(t.root.Min(), true, value)
}

// InsertRightmost inserts value as the new maximum element.
func (t *Tree[T]) InsertRightmost(value T) *Node[T] {
	if t.root == nil {
		return t.attach(nil, false, value)
	}
	return t.attach(t.root.Max(), false, value)
}

// InsertAfter inserts value as anchor's immediate successor. If anchor is
// nil, value is inserted as the new minimum.
func (t *Tree[T]) InsertAfter(anchor *Node[T], value T) *Node[T] {
	if anchor == nil {
		return t.InsertLeftmost(value)
	}
	if anchor.right == nil {
		return t.attach(anchor, false, value)
	}
	return t.attach(anchor.right.Min(), true, value)
}

// InsertBefore inserts value as anchor's immediate predecessor. If anchor
// is nil, value is inserted as the new maximum.
func (t *Tree[T]) InsertBefore(anchor *Node[T], value T) *Node[T] {
	if anchor == nil {
		return t.InsertRightmost(value)
	}
	if anchor.left == nil {
		return t.attach(anchor, true, value)
	}
	return t.attach(anchor.left.Max(), false, value)
}

// InsertByComparator walks from the root applying cmp (candidate vs. the
// value being inserted: negative if candidate < value, positive if
// greater, zero on a tie, ties broken by descending right) and attaches
// value at the leaf slot reached.
func (t *Tree[T]) InsertByComparator(cmp func(T) int, value T) *Node[T] {
	if t.root == nil {
		return t.attach(nil, false, value)
	}
	cur := t.root
	for {
		c := cmp(cur.Value)
		if c <= 0 {
			if cur.right == nil {
				return t.attach(cur, false, value)
			}
			cur = cur.right
		} else {
			if cur.left == nil {
				return t.attach(cur, true, value)
			}
			cur = cur.left
		}
	}
}

// NodeAt returns the node at the given 0-based in-order index, or nil if
// index is out of range.
func (t *Tree[T]) NodeAt(index int) *Node[T] {
	if index < 0 || index >= size(t.root) {
		return nil
	}
	n := t.root
	for n != nil {
		ls := size(n.left)
		switch {
		case index < ls:
			n = n.left
		case index == ls:
			return n
		default:
			index -= ls + 1
			n = n.right
		}
	}
	return nil
}

// Filter selects which candidate Search returns when no exact match is
// present.
type Filter int

const (
	FilterLess Filter = iota
	FilterGreater
	FilterPreferLess
	FilterPreferGreater
	FilterOnlyMatch
)

// Search performs a comparator-guided descent from the root. cmp(v)
// returns negative/zero/positive as v compares less/equal/greater than
// the sought position. Filter selects the result when no node compares
// equal: Less/Greater exclude an exact match (returning its strict
// neighbor), PreferLess/PreferGreater return the exact match if found and
// otherwise the nearest neighbor, and OnlyMatch requires an exact match.
func (t *Tree[T]) Search(cmp func(T) int, filter Filter) *Node[T] {
	cur := t.root
	var match, lastLess, lastGreater *Node[T]
	for cur != nil {
		c := cmp(cur.Value)
		switch {
		case c == 0:
			match = cur
			cur = nil
		case c < 0:
			lastLess = cur
			cur = cur.right
		default:
			lastGreater = cur
			cur = cur.left
		}
	}
	switch filter {
	case FilterOnlyMatch:
		return match
	case FilterPreferLess:
		if match != nil {
			return match
		}
		return lastLess
	case FilterPreferGreater:
		if match != nil {
			return match
		}
		return lastGreater
	case FilterLess:
		if match != nil {
			return match.Predecessor()
		}
		return lastLess
	case FilterGreater:
		if match != nil {
			return match.Successor()
		}
		return lastGreater
	default:
		return nil
	}
}

// IndexOf returns the 0-based rank of the element cmp matches exactly, or
// -(insertionIndex + 1) if no element matches, mirroring
// sort.Search-style binary-search-return conventions used across the
// corpus (e.g. Java's Collections.binarySearch).
func (t *Tree[T]) IndexOf(cmp func(T) int) int {
	cur := t.root
	rank := 0
	for cur != nil {
		c := cmp(cur.Value)
		switch {
		case c == 0:
			return rank + size(cur.left)
		case c < 0:
			rank += size(cur.left) + 1
			cur = cur.right
		default:
			cur = cur.left
		}
	}
	return -(rank + 1)
}
