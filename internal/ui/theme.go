package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// compactTheme wraps an existing theme and tightens the spacing so more of
// the window goes to the grid.
type compactTheme struct {
	fyne.Theme
}

var _ fyne.Theme = (*compactTheme)(nil)

// compactSizes overrides sizes of the wrapped theme.
var compactSizes = map[fyne.ThemeSizeName]float32{
	theme.SizeNamePadding:      2,
	theme.SizeNameInnerPadding: 4,
	theme.SizeNameScrollBar:    10,
}

// Size returns the compact size for name, else the wrapped theme's.
func (t *compactTheme) Size(name fyne.ThemeSizeName) float32 {
	if v, ok := compactSizes[name]; ok {
		return v
	}
	return t.Theme.Size(name)
}

// NewCompactTheme creates a compact wrapper around baseTheme.
func NewCompactTheme(baseTheme fyne.Theme) fyne.Theme {
	return &compactTheme{Theme: baseTheme}
}
