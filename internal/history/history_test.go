package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordBackForward(t *testing.T) {
	m := NewManager(10)
	m.Record("a")
	m.Record("b")
	m.Record("c")
	m.Record("c") // duplicate of current is ignored

	assert.Equal(t, 3, m.Len())

	id, ok := m.Back()
	require.True(t, ok)
	assert.Equal(t, "b", id)

	id, ok = m.Back()
	require.True(t, ok)
	assert.Equal(t, "a", id)

	_, ok = m.Back()
	assert.False(t, ok)

	id, ok = m.Forward()
	require.True(t, ok)
	assert.Equal(t, "b", id)

	// Recording after going back drops the forward entries.
	m.Record("d")
	_, ok = m.Forward()
	assert.False(t, ok)
	assert.Equal(t, 3, m.Len())
	cur, _ := m.Current()
	assert.Equal(t, "d", cur)
}

func TestCapacityTrimsOldest(t *testing.T) {
	m := NewManager(2)
	m.Record("a")
	m.Record("b")
	m.Record("c")
	assert.Equal(t, 2, m.Len())

	id, ok := m.Back()
	require.True(t, ok)
	assert.Equal(t, "b", id)
	_, ok = m.Back()
	assert.False(t, ok)
}

func TestDisabled(t *testing.T) {
	m := NewManager(-1)
	m.Record("a")
	assert.Zero(t, m.Len())
	_, ok := m.Current()
	assert.False(t, ok)
	_, ok = m.Back()
	assert.False(t, ok)
	assert.Zero(t, m.Retain(func(string) bool { return false }))
}

func TestRemoveCurrent(t *testing.T) {
	m := NewManager(10)
	for _, id := range []string{"a", "b", "c", "d"} {
		m.Record(id)
	}
	m.Back() // at c

	m.Remove("c")
	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "b", cur)

	id, ok := m.Forward()
	require.True(t, ok)
	assert.Equal(t, "d", id)
}

func TestRetainBeforeCurrent(t *testing.T) {
	m := NewManager(10)
	for _, id := range []string{"a", "b", "c", "d"} {
		m.Record(id)
	}
	removed := m.Retain(func(id string) bool { return id != "a" && id != "b" })
	assert.Equal(t, 2, removed)
	cur, _ := m.Current()
	assert.Equal(t, "d", cur)

	id, ok := m.Back()
	require.True(t, ok)
	assert.Equal(t, "c", id)
}

func TestRetainEverythingGone(t *testing.T) {
	m := NewManager(10)
	m.Record("a")
	m.Record("b")
	assert.Equal(t, 2, m.Retain(func(string) bool { return false }))
	_, ok := m.Current()
	assert.False(t, ok)

	m.Record("c")
	cur, _ := m.Current()
	assert.Equal(t, "c", cur)
}

func TestRemoveFirstWhileCurrent(t *testing.T) {
	m := NewManager(10)
	m.Record("a")
	m.Record("b")
	m.Back() // at a
	m.Remove("a")
	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "b", cur)
}

func TestClear(t *testing.T) {
	m := NewManager(3)
	m.Record("a")
	m.Clear()
	assert.Zero(t, m.Len())
	_, ok := m.Current()
	assert.False(t, ok)
}

func TestRetainCollapsesNeighbours(t *testing.T) {
	m := NewManager(10)
	for _, id := range []string{"a", "b", "a", "c"} {
		m.Record(id)
	}
	m.Back() // at the second a

	assert.Equal(t, 2, m.Retain(func(id string) bool { return id != "b" }))
	assert.Equal(t, 2, m.Len())
	cur, _ := m.Current()
	assert.Equal(t, "a", cur)

	_, ok := m.Back()
	assert.False(t, ok, "no second a to step back onto")
	id, ok := m.Forward()
	require.True(t, ok)
	assert.Equal(t, "c", id)
}
