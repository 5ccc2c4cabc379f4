package ui

import (
	"image"
	"image/color"

	"fygallery/internal/gallery"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// --- Grid cell widget ---

// thumbCell is one pooled grid cell. It draws the engine's render decision
// for whichever item it is bound to and reports clicks with modifiers.
type thumbCell struct {
	widget.BaseWidget

	id      string
	pos     fyne.Position
	side    float32
	onClick func(id string, mods gallery.Modifiers)

	background *canvas.Rectangle
	image      *canvas.Image
	errIcon    *widget.Icon
	busyIcon   *widget.Icon
	caption    *canvas.Text
	outline    *canvas.Rectangle
}

var _ desktop.Mouseable = (*thumbCell)(nil)

func newThumbCell(onClick func(id string, mods gallery.Modifiers)) *thumbCell {
	c := &thumbCell{onClick: onClick}
	c.background = canvas.NewRectangle(theme.Color(theme.ColorNameInputBackground))
	c.background.CornerRadius = 4
	c.image = &canvas.Image{FillMode: canvas.ImageFillContain, ScaleMode: canvas.ImageScaleFastest}
	c.errIcon = widget.NewIcon(theme.BrokenImageIcon())
	c.busyIcon = widget.NewIcon(theme.ViewRefreshIcon())
	c.caption = canvas.NewText("", theme.Color(theme.ColorNameForeground))
	c.caption.TextSize = theme.CaptionTextSize()
	c.caption.Alignment = fyne.TextAlignCenter
	c.outline = canvas.NewRectangle(color.Transparent)
	c.outline.StrokeColor = theme.Color(theme.ColorNamePrimary)
	c.outline.StrokeWidth = 3
	c.outline.CornerRadius = 4
	c.ExtendBaseWidget(c)
	return c
}

// bind shows pc. img is the last decoded image of the item, possibly for an
// older token; it stays on screen while a reload is in flight, but not while
// the backend is rewriting the file.
func (c *thumbCell) bind(pc gallery.PlacedCell, img image.Image, caption string) {
	c.id = pc.ID
	c.pos = fyne.NewPos(float32(pc.X), float32(pc.Y))
	c.side = float32(pc.Size)

	c.image.Image = img
	switch {
	case pc.Mode == gallery.RenderError:
		c.image.Hide()
		c.errIcon.Show()
	case pc.Busy:
		c.image.Hide()
		c.errIcon.Hide()
	case img != nil:
		c.image.Show()
		c.errIcon.Hide()
	default:
		c.image.Hide()
		c.errIcon.Hide()
	}
	if pc.Busy {
		c.busyIcon.Show()
	} else {
		c.busyIcon.Hide()
	}
	if pc.Selected {
		c.outline.Show()
	} else {
		c.outline.Hide()
	}
	c.caption.Text = caption

	c.Move(c.pos)
	c.Resize(fyne.NewSquareSize(c.side))
	c.Show()
	c.Refresh()
}

func (c *thumbCell) unbind() {
	c.id = ""
	c.image.Image = nil
	c.Hide()
}

func (c *thumbCell) CreateRenderer() fyne.WidgetRenderer {
	return &thumbCellRenderer{c: c}
}

// MouseDown selects or opens the bound item.
func (c *thumbCell) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || c.id == "" || c.onClick == nil {
		return
	}
	c.onClick(c.id, modifiersFrom(ev.Modifier))
}

func (c *thumbCell) MouseUp(_ *desktop.MouseEvent) {}

// modifiersFrom maps fyne key modifiers to selection modifiers. Super
// counts as Ctrl so Cmd-click works on macOS.
func modifiersFrom(m fyne.KeyModifier) gallery.Modifiers {
	return gallery.Modifiers{
		Ctrl:  m&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0,
		Shift: m&fyne.KeyModifierShift != 0,
	}
}

type thumbCellRenderer struct{ c *thumbCell }

func (r *thumbCellRenderer) Layout(size fyne.Size) {
	c := r.c
	captionH := float32(0)
	if c.caption.Text != "" {
		captionH = c.caption.MinSize().Height
	}
	c.background.Resize(size)
	c.outline.Resize(size)
	c.image.Move(fyne.NewPos(2, 2))
	c.image.Resize(fyne.NewSize(size.Width-4, size.Height-captionH-4))

	icon := fyne.NewSquareSize(size.Width / 3)
	c.errIcon.Resize(icon)
	c.errIcon.Move(fyne.NewPos((size.Width-icon.Width)/2, (size.Height-icon.Height)/2))
	busy := fyne.NewSquareSize(theme.IconInlineSize())
	c.busyIcon.Resize(busy)
	c.busyIcon.Move(fyne.NewPos(size.Width-busy.Width-4, 4))

	c.caption.Resize(fyne.NewSize(size.Width, captionH))
	c.caption.Move(fyne.NewPos(0, size.Height-captionH))
}

func (r *thumbCellRenderer) MinSize() fyne.Size {
	return fyne.NewSquareSize(r.c.side)
}

func (r *thumbCellRenderer) Refresh() {
	r.Layout(r.c.Size())
	canvas.Refresh(r.c.image)
	canvas.Refresh(r.c.outline)
	r.c.caption.Refresh()
}

func (r *thumbCellRenderer) Objects() []fyne.CanvasObject {
	c := r.c
	return []fyne.CanvasObject{c.background, c.image, c.errIcon, c.caption, c.busyIcon, c.outline}
}

func (r *thumbCellRenderer) Destroy() {}
