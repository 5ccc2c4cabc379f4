package gallery

import "math"

// VirtualRow is one rendered row for a single render pass.
type VirtualRow struct {
	RowIndex  int
	TopOffset float64
	Height    float64
	ItemIDs   []string
}

// RowSpan returns the half-open range [start, end) of rows intersecting
// [scrollOffset - overscan*rowHeight, scrollOffset + viewportHeight + overscan*rowHeight].
func RowSpan(scrollOffset, viewportHeight, rowHeight float64, totalRows, overscan int) (start, end int) {
	if totalRows <= 0 || rowHeight <= 0 || math.IsNaN(scrollOffset) || math.IsNaN(viewportHeight) {
		return 0, 0
	}
	if scrollOffset < 0 {
		scrollOffset = 0
	}
	if viewportHeight < 0 {
		viewportHeight = 0
	}
	if overscan < 0 {
		overscan = 0
	}
	extra := float64(overscan) * rowHeight
	lo := scrollOffset - extra
	hi := scrollOffset + viewportHeight + extra

	first := int(math.Floor(lo / rowHeight))
	last := int(math.Floor(hi / rowHeight))
	if first < 0 {
		first = 0
	}
	if last > totalRows-1 {
		last = totalRows - 1
	}
	if first > last {
		return 0, 0
	}
	return first, last + 1
}

// VisibleRows returns the rows within the scroll window plus overscan.
// ItemIDs are left empty; RowVirtualizer.Rows fills them.
func VisibleRows(scrollOffset, viewportHeight, rowHeight float64, totalRows, overscan int) []VirtualRow {
	start, end := RowSpan(scrollOffset, viewportHeight, rowHeight, totalRows, overscan)
	rows := make([]VirtualRow, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, VirtualRow{
			RowIndex:  i,
			TopOffset: float64(i) * rowHeight,
			Height:    rowHeight,
		})
	}
	return rows
}

// RowVirtualizer keeps the row boundary table for the current column count
// and slices the live id list into rows.
type RowVirtualizer struct {
	columns   int
	rowHeight float64
	itemCount int
	totalRows int
	offsets   []float64
	measured  bool
}

// Measure sets the geometry. The boundary table is rebuilt from scratch
// whenever any input differs from the previous measurement; it reports
// whether that happened.
func (v *RowVirtualizer) Measure(columns int, rowHeight float64, itemCount int) bool {
	if columns < 1 {
		columns = 1
	}
	if itemCount < 0 {
		itemCount = 0
	}
	if v.measured && columns == v.columns && rowHeight == v.rowHeight && itemCount == v.itemCount {
		return false
	}
	v.columns = columns
	v.rowHeight = rowHeight
	v.itemCount = itemCount
	v.totalRows = (itemCount + columns - 1) / columns
	v.offsets = make([]float64, v.totalRows+1)
	for i := range v.offsets {
		v.offsets[i] = float64(i) * rowHeight
	}
	v.measured = true
	return true
}

// TotalRows is the row count of the last measurement.
func (v *RowVirtualizer) TotalRows() int { return v.totalRows }

// Columns is the column count of the last measurement.
func (v *RowVirtualizer) Columns() int { return v.columns }

// ContentHeight is the full scrollable height of all rows.
func (v *RowVirtualizer) ContentHeight() float64 {
	if len(v.offsets) == 0 {
		return 0
	}
	return v.offsets[len(v.offsets)-1]
}

// Rows returns the visible rows with their slice of ids. ids must be the
// list the last Measure was given a count for.
func (v *RowVirtualizer) Rows(scrollOffset, viewportHeight float64, overscan int, ids []string) []VirtualRow {
	if !v.measured {
		return nil
	}
	start, end := RowSpan(scrollOffset, viewportHeight, v.rowHeight, v.totalRows, overscan)
	rows := make([]VirtualRow, 0, end-start)
	for i := start; i < end; i++ {
		lo := i * v.columns
		hi := lo + v.columns
		if hi > len(ids) {
			hi = len(ids)
		}
		if lo >= hi {
			break
		}
		rowIDs := make([]string, hi-lo)
		copy(rowIDs, ids[lo:hi])
		rows = append(rows, VirtualRow{
			RowIndex:  i,
			TopOffset: v.offsets[i],
			Height:    v.offsets[i+1] - v.offsets[i],
			ItemIDs:   rowIDs,
		})
	}
	return rows
}
