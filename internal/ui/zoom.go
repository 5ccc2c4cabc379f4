package ui

import (
	"image"
	"image/draw"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const (
	minZoom  float32 = 0.05
	maxZoom  float32 = 16
	zoomStep float32 = 0.1
)

// zoomView shows one image scaled to fit, with wheel zoom and drag pan.
type zoomView struct {
	widget.BaseWidget

	img    image.Image
	raster *canvas.Raster

	zoom    float32
	pan     fyne.Position
	fitted  bool
	panning bool
	lastPos fyne.Position
}

var (
	_ fyne.Scrollable   = (*zoomView)(nil)
	_ fyne.Draggable    = (*zoomView)(nil)
	_ desktop.Mouseable = (*zoomView)(nil)
)

func newZoomView() *zoomView {
	z := &zoomView{zoom: 1}
	z.raster = canvas.NewRaster(z.draw)
	z.ExtendBaseWidget(z)
	return z
}

// SetImage replaces the image and fits it on the next draw.
func (z *zoomView) SetImage(img image.Image) {
	z.img = img
	z.fitted = false
	z.Refresh()
}

// fit scales the image to the view and centres it.
func (z *zoomView) fit(w, h float32) {
	z.fitted = true
	z.zoom, z.pan = 1, fyne.Position{}
	if z.img == nil || w <= 0 || h <= 0 {
		return
	}
	b := z.img.Bounds()
	iw, ih := float32(b.Dx()), float32(b.Dy())
	z.zoom = w / iw
	if h/ih < z.zoom {
		z.zoom = h / ih
	}
	z.pan = fyne.NewPos((w-iw*z.zoom)/2, (h-ih*z.zoom)/2)
}

// draw samples the source with nearest neighbour at the current zoom.
func (z *zoomView) draw(w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if z.img == nil || w <= 0 || h <= 0 {
		return dst
	}
	scale := z.Size().Width / float32(w)
	if scale <= 0 {
		scale = 1
	}
	if !z.fitted {
		z.fit(z.Size().Width, z.Size().Height)
	}
	src := z.img.Bounds()
	inv := 1 / z.zoom
	for dy := 0; dy < h; dy++ {
		sy := int((float32(dy)*scale-z.pan.Y)*inv) + src.Min.Y
		if sy < src.Min.Y || sy >= src.Max.Y {
			continue
		}
		for dx := 0; dx < w; dx++ {
			sx := int((float32(dx)*scale-z.pan.X)*inv) + src.Min.X
			if sx < src.Min.X || sx >= src.Max.X {
				continue
			}
			dst.Set(dx, dy, z.img.At(sx, sy))
		}
	}
	return dst
}

func (z *zoomView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(z.raster)
}

// Scrolled zooms around the centre of the view.
func (z *zoomView) Scrolled(ev *fyne.ScrollEvent) {
	if z.img == nil {
		return
	}
	cx, cy := z.Size().Width/2, z.Size().Height/2
	ix, iy := (cx-z.pan.X)/z.zoom, (cy-z.pan.Y)/z.zoom
	switch {
	case ev.Scrolled.DY > 0:
		z.zoom *= 1 + zoomStep
	case ev.Scrolled.DY < 0:
		z.zoom /= 1 + zoomStep
	}
	z.zoom = clampZoom(z.zoom)
	z.pan = fyne.NewPos(cx-ix*z.zoom, cy-iy*z.zoom)
	z.Refresh()
}

func clampZoom(v float32) float32 {
	if v < minZoom {
		return minZoom
	}
	if v > maxZoom {
		return maxZoom
	}
	return v
}

func (z *zoomView) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button == desktop.MouseButtonPrimary {
		z.panning = true
		z.lastPos = ev.Position
	}
}

func (z *zoomView) MouseUp(_ *desktop.MouseEvent) { z.panning = false }

func (z *zoomView) Dragged(ev *fyne.DragEvent) {
	if !z.panning {
		return
	}
	z.pan = z.pan.Add(ev.Position.Subtract(z.lastPos))
	z.lastPos = ev.Position
	z.Refresh()
}

func (z *zoomView) DragEnd() { z.panning = false }

// toRGBA copies img into an RGBA image so repeated sampling is cheap.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
