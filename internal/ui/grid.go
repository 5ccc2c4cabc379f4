package ui

import (
	"fygallery/internal/gallery"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// gridView is the virtualized thumbnail grid. Cells exist only for the
// engine's visible rows; they are pooled and rebound on every redraw.
type gridView struct {
	engine  *gallery.Engine
	loader  *ImageLoader
	locate  gallery.LocatorFunc
	onClick func(id string, mods gallery.Modifiers)
	caption func(id string) string

	cells   []*thumbCell
	content *fyne.Container
	scroll  *container.Scroll
	root    *fyne.Container
	height  float32
}

func newGridView(engine *gallery.Engine, loader *ImageLoader, locate gallery.LocatorFunc,
	onClick func(string, gallery.Modifiers), caption func(string) string) *gridView {
	g := &gridView{
		engine:  engine,
		loader:  loader,
		locate:  locate,
		onClick: onClick,
		caption: caption,
	}
	g.content = container.New(&cellLayout{g: g})
	g.scroll = container.NewVScroll(g.content)
	g.scroll.OnScrolled = func(p fyne.Position) { g.engine.Scroll(float64(p.Y)) }
	g.root = container.New(&viewportLayout{onResize: g.resized}, g.scroll)
	return g
}

func (g *gridView) resized(size fyne.Size) {
	g.engine.Resize(int(size.Width), float64(size.Height))
}

// sync rebinds the cell pool to the engine's visible cells and issues the
// loads the engine asks for.
func (g *gridView) sync() {
	placed := g.engine.VisibleCells()
	for len(g.cells) < len(placed) {
		c := newThumbCell(g.onClick)
		g.cells = append(g.cells, c)
		g.content.Objects = append(g.content.Objects, c)
	}
	for i, pc := range placed {
		if pc.NeedsFetch {
			g.fetch(pc.ID)
		}
		img, _ := g.loader.Image(pc.ID)
		caption := ""
		if g.caption != nil {
			caption = g.caption(pc.ID)
		}
		g.cells[i].bind(pc, img, caption)
	}
	for _, c := range g.cells[len(placed):] {
		c.unbind()
	}

	if h := float32(g.engine.ContentHeight()); h != g.height {
		g.height = h
		g.scroll.Refresh()
	}
}

func (g *gridView) fetch(id string) {
	token, src, ok := g.engine.BeginLoad(id)
	if !ok {
		return
	}
	g.loader.Load(id, token, src, g.locate(id, token, src), func(ok bool) bool {
		if ok {
			return g.engine.LoadSucceeded(id, token, src)
		}
		return g.engine.LoadFailed(id, token, src)
	})
}

// scrollTo brings the row of index into view.
func (g *gridView) scrollTo(index int) {
	l := g.engine.Layout()
	_, y := l.CellOrigin(index)
	top := float32(y)
	bottom := top + float32(l.RowHeight)
	view := g.scroll.Size().Height
	switch {
	case top < g.scroll.Offset.Y:
		g.scroll.Offset.Y = top
	case bottom > g.scroll.Offset.Y+view:
		g.scroll.Offset.Y = bottom - view
	default:
		return
	}
	if g.scroll.Offset.Y < 0 {
		g.scroll.Offset.Y = 0
	}
	g.scroll.Refresh()
	g.engine.Scroll(float64(g.scroll.Offset.Y))
}

// cellLayout places pooled cells at their bound positions and makes the
// scroll content as tall as the engine's content height.
type cellLayout struct{ g *gridView }

func (l *cellLayout) Layout(objects []fyne.CanvasObject, _ fyne.Size) {
	for _, o := range objects {
		if c, ok := o.(*thumbCell); ok && c.id != "" {
			c.Move(c.pos)
			c.Resize(fyne.NewSquareSize(c.side))
		}
	}
}

func (l *cellLayout) MinSize(_ []fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(0, float32(l.g.engine.ContentHeight()))
}

// viewportLayout fills its only child and reports size changes.
type viewportLayout struct {
	last     fyne.Size
	onResize func(fyne.Size)
}

func (l *viewportLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for _, o := range objects {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(size)
	}
	if size != l.last {
		l.last = size
		if l.onResize != nil {
			l.onResize(size)
		}
	}
}

func (l *viewportLayout) MinSize(_ []fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(240, 240)
}

// scrollBy moves the viewport by dy, clamped to the content.
func (g *gridView) scrollBy(dy float32) {
	maxY := float32(g.engine.ContentHeight()) - g.scroll.Size().Height
	y := g.scroll.Offset.Y + dy
	if y > maxY {
		y = maxY
	}
	if y < 0 {
		y = 0
	}
	g.scroll.Offset.Y = y
	g.scroll.Refresh()
	g.engine.Scroll(float64(y))
}
