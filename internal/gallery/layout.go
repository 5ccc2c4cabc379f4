package gallery

// LayoutBounds are the column limits and the snap window used by Compute.
type LayoutBounds struct {
	MinColumns int
	MaxColumns int
	// SnapWindow is how close (in px) a fill width must be to the minimum
	// item size before it is snapped back to it.
	SnapWindow int
}

// DefaultBounds keeps the grid between 2 and 10 columns with a 20px snap.
var DefaultBounds = LayoutBounds{MinColumns: 2, MaxColumns: 10, SnapWindow: 20}

// Layout is a computed grid geometry. It is a value: recompute, never mutate.
type Layout struct {
	ContainerWidth int
	MinItemSize    int
	Gap            int
	Padding        int
	ColumnCount    int
	ItemSize       int
	RowHeight      int
}

// Compute returns the layout for the given inputs using DefaultBounds.
func Compute(containerWidth, minItemSize, gap, padding int) Layout {
	return DefaultBounds.Compute(containerWidth, minItemSize, gap, padding)
}

// Compute returns the layout for the given inputs. Zero or negative widths
// (before the first measurement) degrade to the minimum column count.
func (b LayoutBounds) Compute(containerWidth, minItemSize, gap, padding int) Layout {
	minCols, maxCols := b.MinColumns, b.MaxColumns
	if minCols < 1 {
		minCols = 1
	}
	if maxCols < minCols {
		maxCols = minCols
	}
	if minItemSize < 1 {
		minItemSize = 1
	}
	if gap < 0 {
		gap = 0
	}
	if padding < 0 {
		padding = 0
	}

	available := containerWidth - 2*padding
	cols := floorDiv(available+gap, minItemSize+gap)
	cols = clamp(cols, minCols, maxCols)

	fill := floorDiv(available-gap*(cols-1), cols)
	itemSize := fill
	if abs(fill-minItemSize) <= b.SnapWindow {
		itemSize = minItemSize
	} else if itemSize < minItemSize {
		itemSize = minItemSize
	}

	return Layout{
		ContainerWidth: containerWidth,
		MinItemSize:    minItemSize,
		Gap:            gap,
		Padding:        padding,
		ColumnCount:    cols,
		ItemSize:       itemSize,
		RowHeight:      itemSize + gap,
	}
}

// RowCount is the number of rows needed for n items.
func (l Layout) RowCount(n int) int {
	if n <= 0 || l.ColumnCount <= 0 {
		return 0
	}
	return (n + l.ColumnCount - 1) / l.ColumnCount
}

// CellOrigin returns the top-left pixel of the cell at index, relative to
// the scroll content.
func (l Layout) CellOrigin(index int) (x, y int) {
	if l.ColumnCount <= 0 || index < 0 {
		return l.Padding, 0
	}
	row, col := index/l.ColumnCount, index%l.ColumnCount
	return l.Padding + col*(l.ItemSize+l.Gap), row * l.RowHeight
}

// ContentWidth is the width the grid occupies, which can exceed the
// container when the minimum column count does not fit.
func (l Layout) ContentWidth() int {
	return 2*l.Padding + l.ColumnCount*l.ItemSize + (l.ColumnCount-1)*l.Gap
}

func floorDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
