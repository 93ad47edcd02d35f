package sortedset

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbtaylor/qcore/lock"
)

func newTestMap() *Map[string, int] {
	cmp := func(a, b string) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	return NewMap[string, int](cmp, lock.NewContainer(3), "test-sortedmap", zerolog.Nop())
}

func TestMapGetAbsentKey(t *testing.T) {
	m := newTestMap()
	_, ok := m.Get("missing")
	assert.False(t, ok)
}

func TestMapGetOrPutEntryInsertsOnce(t *testing.T) {
	m := newTestMap()
	var addedCount int

	e1, added, err := m.GetOrPutEntry("a", func() int { return 1 }, nil, nil, false, func(MapEntry[string, int]) {
		addedCount++
	})
	require.NoError(t, err)
	require.True(t, added)
	assert.Equal(t, "a", e1.Key())
	assert.Equal(t, 1, e1.Value())
	assert.Equal(t, 1, addedCount)

	e2, added, err := m.GetOrPutEntry("a", func() int { return 99 }, nil, nil, false, func(MapEntry[string, int]) {
		addedCount++
	})
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 1, e2.Value())
	assert.Equal(t, 1, addedCount)
}

func TestMapMutableEntrySetValueLeavesPositionUnchanged(t *testing.T) {
	m := newTestMap()
	m.GetOrPutEntry("a", func() int { return 1 }, nil, nil, false, nil)
	entry, added, err := m.GetOrPutEntry("b", func() int { return 2 }, nil, nil, false, nil)
	require.NoError(t, err)
	require.True(t, added)
	m.GetOrPutEntry("c", func() int { return 3 }, nil, nil, false, nil)

	mutable, ok := m.MutableEntry(entry.ID())
	require.True(t, ok)
	require.NoError(t, mutable.SetValue(42))

	got, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, 42, got.Value())
	assert.Equal(t, "b", got.Key())
	assert.Equal(t, 3, m.Size())
}

func TestMapMutableEntryOnRemovedIDFails(t *testing.T) {
	m := newTestMap()
	entry, _, _ := m.GetOrPutEntry("a", func() int { return 1 }, nil, nil, false, nil)
	require.NoError(t, m.Remove(entry.ID()))

	_, ok := m.MutableEntry(entry.ID())
	assert.False(t, ok)
}

func TestMapRemoveAndClear(t *testing.T) {
	m := newTestMap()
	entry, _, _ := m.GetOrPutEntry("a", func() int { return 1 }, nil, nil, false, nil)
	m.GetOrPutEntry("b", func() int { return 2 }, nil, nil, false, nil)
	require.Equal(t, 2, m.Size())

	require.NoError(t, m.Remove(entry.ID()))
	assert.Equal(t, 1, m.Size())

	m.Clear()
	assert.True(t, m.IsEmpty())
}

func TestMapGetStampAdvancesOnMutation(t *testing.T) {
	m := newTestMap()
	before := m.GetStamp(true)
	m.GetOrPutEntry("a", func() int { return 1 }, nil, nil, false, nil)
	after := m.GetStamp(true)
	assert.Greater(t, after, before)
}
