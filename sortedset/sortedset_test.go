package sortedset

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbtaylor/qcore/consistency"
	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/lock"
	"github.com/nbtaylor/qcore/qerr"
	"github.com/nbtaylor/qcore/rbtree"
)

func intCmp(a, b int) int { return a - b }

func newTestSet() *Set[int] {
	return New[int](intCmp, lock.NewContainer(3), "test-sortedset", zerolog.Nop())
}

func TestScenarioSortedSetSearchFilters(t *testing.T) {
	s := newTestSet()
	s.Add(10)
	s.Add(20)
	s.Add(30)

	to := func(target int) func(int) int {
		return func(cand int) int { return cand - target }
	}

	lessEl := s.Search(to(25), rbtree.FilterPreferLess)
	require.NotNil(t, lessEl)
	assert.Equal(t, 20, lessEl.Value())

	greaterEl := s.Search(to(25), rbtree.FilterPreferGreater)
	require.NotNil(t, greaterEl)
	assert.Equal(t, 30, greaterEl.Value())

	assert.Nil(t, s.Search(to(25), rbtree.FilterOnlyMatch))
	assert.Equal(t, -3, s.IndexOf(to(25)))
}

func TestAddRejectsDuplicate(t *testing.T) {
	s := newTestSet()
	e1, added, err := s.Add(5)
	require.NoError(t, err)
	require.True(t, added)

	e2, added, err := s.Add(5)
	require.NoError(t, err)
	require.False(t, added)
	assert.Equal(t, e1.ID(), e2.ID())
}

func TestRemoveAndRoundTrip(t *testing.T) {
	s := newTestSet()
	before := s.Size()
	e, _, err := s.Add(7)
	require.NoError(t, err)
	require.NoError(t, s.Remove(e.ID()))
	assert.Equal(t, before, s.Size())
	assert.ErrorIs(t, s.Remove(e.ID()), qerr.ErrNotPresent)
}

func TestGetTerminalAndAdjacent(t *testing.T) {
	s := newTestSet()
	assert.Nil(t, s.GetTerminalElement(true))

	s.Add(3)
	s.Add(1)
	e2, _, _ := s.Add(2)

	assert.Equal(t, 1, s.GetTerminalElement(true).Value())
	assert.Equal(t, 3, s.GetTerminalElement(false).Value())
	assert.Equal(t, 3, s.GetAdjacentElement(e2.ID(), true).Value())
	assert.Equal(t, 1, s.GetAdjacentElement(e2.ID(), false).Value())
}

func TestIDCompareStableAcrossRemoval(t *testing.T) {
	s := newTestSet()
	e1, _, _ := s.Add(1)
	e2, _, _ := s.Add(2)

	require.NoError(t, s.Remove(e1.ID()))
	assert.Equal(t, -1, e1.ID().Compare(e2.ID()))
	assert.False(t, e1.ID().IsPresent())
}

func TestElementSetIsUnsupported(t *testing.T) {
	s := newTestSet()
	e, _, _ := s.Add(1)
	mv := s.MutableElement(e.ID())
	require.NotNil(t, mv)
	assert.Equal(t, handle.ReasonUnsupported, mv.CanSet(2))
}

type recordingListener struct {
	preTransferred, postTransferred, removed, disposed []int
}

func (l *recordingListener) PreTransfer(v int) any    { l.preTransferred = append(l.preTransferred, v); return v }
func (l *recordingListener) PostTransfer(v int, _ any) { l.postTransferred = append(l.postTransferred, v) }
func (l *recordingListener) Removed(v int) any        { l.removed = append(l.removed, v); return v }
func (l *recordingListener) Disposed(v int, _ any)    { l.disposed = append(l.disposed, v) }

var _ consistency.Listener[int] = (*recordingListener)(nil)

// mutableKey lets a test change the field the comparator reads out from
// under the set, to exercise is_consistent / repair.
type mutableKey struct {
	key *int
}

func keyCmp(a, b mutableKey) int { return *a.key - *b.key }

// keyListener adapts a recordingListener to a Set[mutableKey] by
// recording each value's current key.
type keyListener struct{ rec *recordingListener }

func (l keyListener) PreTransfer(v mutableKey) any        { return l.rec.PreTransfer(*v.key) }
func (l keyListener) PostTransfer(v mutableKey, data any) { l.rec.PostTransfer(*v.key, data) }
func (l keyListener) Removed(v mutableKey) any            { return l.rec.Removed(*v.key) }
func (l keyListener) Disposed(v mutableKey, data any)     { l.rec.Disposed(*v.key, data) }

var _ consistency.Listener[mutableKey] = keyListener{}

func TestRepairRelocatesMutatedKey(t *testing.T) {
	s := New[mutableKey](keyCmp, lock.NewContainer(3), "mutable-sortedset", zerolog.Nop())
	k1, k2, k3 := 1, 2, 3
	e1, _, _ := s.Add(mutableKey{key: &k1})
	s.Add(mutableKey{key: &k2})
	s.Add(mutableKey{key: &k3})

	assert.True(t, s.IsConsistent(e1.ID()))
	assert.False(t, s.CheckConsistency())

	k1 = 5 // now out of order: 5, 2, 3
	assert.False(t, s.IsConsistent(e1.ID()))
	assert.True(t, s.CheckConsistency())

	listener := &recordingListener{}
	require.NoError(t, s.Repair(e1.ID(), keyListener{listener}))

	assert.True(t, s.IsConsistent(e1.ID()))
	assert.Equal(t, []int{5}, listener.preTransferred)
	assert.Equal(t, []int{5}, listener.postTransferred)
	assert.Equal(t, 2, *s.GetTerminalElement(true).Value().key)
	assert.Equal(t, 5, *s.GetTerminalElement(false).Value().key)
}

func TestRepairOnConsistentEntryIsNoop(t *testing.T) {
	s := newTestSet()
	e, _, _ := s.Add(1)
	s.Add(2)
	listener := &recordingListener{}
	require.NoError(t, s.Repair(e.ID(), listener))
	assert.Empty(t, listener.preTransferred)
}

func TestSpliteratorForEachAndSplit(t *testing.T) {
	s := newTestSet()
	for i := 0; i < 20; i++ {
		s.Add(i)
	}
	first := s.GetTerminalElement(true)
	sp := s.Spliterator(first.ID(), true)

	right := sp.TrySplit()
	require.NotNil(t, right)

	var left, rightOut []int
	sp.ForEach(func(v int) { left = append(left, v) }, true)
	right.ForEach(func(v int) { rightOut = append(rightOut, v) }, true)

	combined := append(append([]int{}, left...), rightOut...)
	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, combined)
}
