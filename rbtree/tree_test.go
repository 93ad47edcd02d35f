package rbtree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inorder(t *Tree[int]) []int {
	var out []int
	var walk func(n *Node[int])
	walk = func(n *Node[int]) {
		if n == nil {
			return
		}
		walk(n.left)
		out = append(out, n.Value)
		walk(n.right)
	}
	walk(t.root)
	return out
}

func checkInvariants(t *testing.T, tr *Tree[int]) int {
	t.Helper()
	if tr.root != nil {
		assert.Equal(t, black, tr.root.color, "root must be black")
	}
	var walk func(n *Node[int]) int
	walk = func(n *Node[int]) int {
		if n == nil {
			return 1
		}
		if n.color == red {
			assert.False(t, isRed(n.left), "red node must not have a red child")
			assert.False(t, isRed(n.right), "red node must not have a red child")
		}
		assert.Equal(t, size(n.left)+size(n.right)+1, n.size, "cached size must match children")
		lh := walk(n.left)
		rh := walk(n.right)
		assert.Equal(t, lh, rh, "black height must match on both sides")
		if n.left != nil {
			assert.Equal(t, n, n.left.parent)
		}
		if n.right != nil {
			assert.Equal(t, n, n.right.parent)
		}
		if n.color == black {
			return lh + 1
		}
		return lh
	}
	return walk(tr.root)
}

func TestInsertByComparatorKeepsSortedOrder(t *testing.T) {
	tr := &Tree[int]{}
	values := []int{50, 30, 70, 10, 40, 60, 80, 20, 90, 5}
	for _, v := range values {
		v := v
		tr.InsertByComparator(func(cur int) int { return cur - v }, v)
		checkInvariants(t, tr)
	}
	got := inorder(tr)
	want := append([]int(nil), values...)
	for i := 0; i < len(want); i++ {
		for j := i + 1; j < len(want); j++ {
			if want[j] < want[i] {
				want[i], want[j] = want[j], want[i]
			}
		}
	}
	assert.Equal(t, want, got)
}

func TestRandomInsertRemovePreservesInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tr := &Tree[int]{}
	var nodes []*Node[int]
	for i := 0; i < 500; i++ {
		v := rng.Intn(10000)
		n := tr.InsertByComparator(func(cur int) int { return cur - v }, v)
		nodes = append(nodes, n)
	}
	checkInvariants(t, tr)
	require.Equal(t, 500, tr.Size())

	rng.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })
	for i, n := range nodes {
		tr.Remove(n)
		if i%47 == 0 {
			checkInvariants(t, tr)
		}
	}
	assert.Equal(t, 0, tr.Size())
}

func TestInsertPositionalKeepsInsertionOrder(t *testing.T) {
	tr := &Tree[string]{}
	a := tr.InsertRightmost("a")
	b := tr.InsertAfter(a, "b")
	c := tr.InsertBefore(b, "c")
	_ = tr.InsertLeftmost("z")
	tr.InsertAfter(c, "d")
	checkInvariants(t, tr)

	assert.Equal(t, []string{"z", "a", "c", "d", "b"}, inorderStr(tr))
}

func inorderStr(t *Tree[string]) []string {
	var out []string
	var walk func(n *Node[string])
	walk = func(n *Node[string]) {
		if n == nil {
			return
		}
		walk(n.left)
		out = append(out, n.Value)
		walk(n.right)
	}
	walk(t.root)
	return out
}

func TestNodeAtAndRank(t *testing.T) {
	tr := &Tree[int]{}
	for _, v := range []int{10, 20, 30, 40, 50} {
		tr.InsertRightmost(v)
	}
	for i, want := range []int{10, 20, 30, 40, 50} {
		n := tr.NodeAt(i)
		require.NotNil(t, n)
		assert.Equal(t, want, n.Value)
		assert.Equal(t, i, n.Rank())
	}
	assert.Nil(t, tr.NodeAt(5))
	assert.Nil(t, tr.NodeAt(-1))
}

func TestSearchFilters(t *testing.T) {
	tr := &Tree[int]{}
	for _, v := range []int{10, 20, 30} {
		tr.InsertByComparator(func(cur int) int { return cur - v }, v)
	}
	to := func(target int) func(int) int {
		return func(cur int) int { return cur - target }
	}

	n := tr.Search(to(25), FilterPreferLess)
	require.NotNil(t, n)
	assert.Equal(t, 20, n.Value)

	n = tr.Search(to(25), FilterPreferGreater)
	require.NotNil(t, n)
	assert.Equal(t, 30, n.Value)

	assert.Nil(t, tr.Search(to(25), FilterOnlyMatch))

	n = tr.Search(to(20), FilterOnlyMatch)
	require.NotNil(t, n)
	assert.Equal(t, 20, n.Value)

	n = tr.Search(to(20), FilterLess)
	require.NotNil(t, n)
	assert.Equal(t, 10, n.Value)

	n = tr.Search(to(20), FilterGreater)
	require.NotNil(t, n)
	assert.Equal(t, 30, n.Value)

	assert.Equal(t, -3, tr.IndexOf(to(25)))
	assert.Equal(t, 1, tr.IndexOf(to(20)))
	assert.Equal(t, -1, tr.IndexOf(to(5)))
	assert.Equal(t, -4, tr.IndexOf(to(35)))
}

func TestFindClosestRespectsValidator(t *testing.T) {
	tr := &Tree[int]{}
	for _, v := range []int{1, 2, 3, 4, 5} {
		tr.InsertRightmost(v)
	}
	calls := 0
	got := tr.Root().FindClosest(func(v int) int { return v - 3 }, true, false, func() bool {
		calls++
		return calls < 2
	})
	assert.Nil(t, got, "validator returning false must abort the traversal")
}

func TestPredecessorSuccessor(t *testing.T) {
	tr := &Tree[int]{}
	var nodes []*Node[int]
	for _, v := range []int{1, 2, 3, 4, 5} {
		nodes = append(nodes, tr.InsertRightmost(v))
	}
	assert.Nil(t, nodes[0].Predecessor())
	assert.Equal(t, 1, nodes[1].Predecessor().Value)
	assert.Equal(t, 3, nodes[1].Successor().Value)
	assert.Nil(t, nodes[4].Successor())
}
