package sortedset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbtaylor/qcore/handle"
	"github.com/nbtaylor/qcore/rbtree"
)

func TestSubSetExcludesOutOfBoundValues(t *testing.T) {
	s := newTestSet()
	for _, v := range []int{5, 10, 15, 20, 25, 30} {
		s.Add(v)
	}
	lo, hi := 10, 25
	view := s.SubSet(&lo, true, &hi, false)

	assert.Equal(t, 3, view.Size()) // 10, 15, 20

	_, added, err := view.Add(10)
	assert.NoError(t, err)
	assert.False(t, added)

	el, added, err := view.Add(12)
	require.NoError(t, err)
	require.True(t, added)
	assert.Equal(t, 12, el.Value())
	assert.Equal(t, 4, view.Size())

	// out of range for the view, even though it'd be legal on the backing set
	_, added, err = view.Add(100)
	assert.Error(t, err)
	assert.False(t, added)
	var refusal *handle.RefusalError
	require.ErrorAs(t, err, &refusal)
	assert.Equal(t, handle.ReasonIllegalElement, refusal.Reason)
}

func TestSubSetUnboundedSide(t *testing.T) {
	s := newTestSet()
	for _, v := range []int{1, 2, 3, 4, 5} {
		s.Add(v)
	}
	hi := 3
	view := s.SubSet(nil, true, &hi, true)
	assert.Equal(t, 3, view.Size())
	assert.Equal(t, 1, view.GetTerminalElement(true).Value())
	assert.Equal(t, 3, view.GetTerminalElement(false).Value())
}

func TestSubSetGetElementExcludesOutOfBound(t *testing.T) {
	s := newTestSet()
	e, _, _ := s.Add(100)
	lo, hi := 0, 10
	view := s.SubSet(&lo, true, &hi, true)
	assert.Nil(t, view.GetElement(e.ID()))
}

func TestSubSetClearOnlyTouchesBound(t *testing.T) {
	s := newTestSet()
	for _, v := range []int{1, 2, 3, 10, 11} {
		s.Add(v)
	}
	hi := 5
	view := s.SubSet(nil, true, &hi, true)
	view.Clear()
	assert.Equal(t, 2, s.Size())
}

func TestSubMapRespectsKeyBound(t *testing.T) {
	m := newTestMap()
	m.GetOrPutEntry("a", func() int { return 1 }, nil, nil, false, nil)
	m.GetOrPutEntry("m", func() int { return 2 }, nil, nil, false, nil)
	m.GetOrPutEntry("z", func() int { return 3 }, nil, nil, false, nil)

	lo, hi := "b", "y"
	view := m.SubMap(&lo, true, &hi, true)
	assert.Equal(t, 1, view.Size())

	_, ok := view.Get("a")
	assert.False(t, ok)
	got, ok := view.Get("m")
	require.True(t, ok)
	assert.Equal(t, 2, got.Value())

	_, _, err := view.GetOrPutEntry("zzz", func() int { return 9 }, nil, nil, false, nil)
	var refusal *handle.RefusalError
	require.ErrorAs(t, err, &refusal)
	assert.Equal(t, handle.ReasonIllegalElement, refusal.Reason)
}

func TestSubSetSearchFiltersOutOfBoundMatch(t *testing.T) {
	s := newTestSet()
	for _, v := range []int{1, 2, 3, 10, 11, 12} {
		s.Add(v)
	}
	hi := 5
	view := s.SubSet(nil, true, &hi, true)

	to := func(target int) func(int) int {
		return func(cand int) int { return cand - target }
	}
	assert.Equal(t, 3, view.Search(to(3), rbtree.FilterOnlyMatch).Value())
	assert.Nil(t, view.Search(to(10), rbtree.FilterOnlyMatch))
}
