package gallery

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("item-%02d", i)
	}
	return ids
}

func TestRowSpan(t *testing.T) {
	tests := []struct {
		name            string
		scroll, vh, rh  float64
		total, overscan int
		start, end      int
	}{
		{"top without overscan", 0, 400, 100, 50, 0, 0, 5},
		{"top with overscan", 0, 400, 100, 50, 2, 0, 7},
		{"middle with overscan", 1000, 400, 100, 50, 2, 8, 17},
		{"bottom clamps", 4800, 400, 100, 50, 2, 46, 50},
		{"empty list", 0, 400, 100, 0, 2, 0, 0},
		{"zero row height", 0, 400, 0, 10, 2, 0, 0},
		{"negative scroll", -300, 400, 100, 10, 0, 0, 5},
		{"past the end", 10000, 400, 100, 10, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := RowSpan(tt.scroll, tt.vh, tt.rh, tt.total, tt.overscan)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestRowSpanNaN(t *testing.T) {
	start, end := RowSpan(math.NaN(), 400, 100, 10, 1)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}

func TestVisibleRowsOffsets(t *testing.T) {
	rows := VisibleRows(250, 100, 100, 10, 0)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].RowIndex)
	assert.Equal(t, 200.0, rows[0].TopOffset)
	assert.Equal(t, 100.0, rows[0].Height)
	assert.Equal(t, 3, rows[1].RowIndex)
	assert.Empty(t, rows[0].ItemIDs)
}

func TestRowVirtualizerThirtySevenItems(t *testing.T) {
	l := DefaultConfig().Layout(1200, TierMedium)
	require.Equal(t, 6, l.ColumnCount)

	ids := makeIDs(37)
	var v RowVirtualizer
	assert.True(t, v.Measure(l.ColumnCount, float64(l.RowHeight), len(ids)))
	assert.Equal(t, 7, v.TotalRows())
	assert.Equal(t, 7.0*float64(l.RowHeight), v.ContentHeight())

	rows := v.Rows(0, 10000, 0, ids)
	require.Len(t, rows, 7)
	for _, r := range rows[:6] {
		assert.Len(t, r.ItemIDs, 6)
	}
	assert.Equal(t, []string{"item-36"}, rows[6].ItemIDs)
}

func TestRowVirtualizerRemeasure(t *testing.T) {
	ids := makeIDs(37)
	var v RowVirtualizer

	assert.True(t, v.Measure(6, 197, 37))
	assert.False(t, v.Measure(6, 197, 37), "same inputs must not remeasure")

	assert.True(t, v.Measure(4, 197, 37), "column change must remeasure")
	assert.Equal(t, 10, v.TotalRows())
	rows := v.Rows(0, 10000, 0, ids)
	require.Len(t, rows, 10)
	assert.Equal(t, []string{"item-36"}, rows[9].ItemIDs)
	assert.Equal(t, 9*197.0, rows[9].TopOffset)

	assert.True(t, v.Measure(4, 296, 37), "row height change must remeasure")
	assert.Equal(t, 10*296.0, v.ContentHeight())

	assert.True(t, v.Measure(4, 296, 40), "item count change must remeasure")
	assert.Equal(t, 10, v.TotalRows())
	assert.Equal(t, 4, v.Columns())
}

func TestRowVirtualizerRowsCopyIDs(t *testing.T) {
	ids := makeIDs(4)
	var v RowVirtualizer
	v.Measure(2, 100, len(ids))
	rows := v.Rows(0, 100, 0, ids)
	require.NotEmpty(t, rows)
	rows[0].ItemIDs[0] = "changed"
	assert.Equal(t, "item-00", ids[0])
}

func TestRowVirtualizerUnmeasured(t *testing.T) {
	var v RowVirtualizer
	assert.Nil(t, v.Rows(0, 100, 1, nil))
	assert.Zero(t, v.ContentHeight())
}
