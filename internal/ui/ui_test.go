package ui

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fygallery/internal/gallery"
	"fygallery/internal/service"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	o, err := parseOptions([]string{"--tier", "large", "--overscan", "5", "--workers", "0", "--slideshow-interval", "0.01", "/photos"})
	require.NoError(t, err)
	assert.Equal(t, "large", o.Tier)
	assert.Equal(t, 5, o.Overscan)
	assert.Equal(t, 1, o.Workers)
	assert.Equal(t, 100*time.Millisecond, o.Interval)
	assert.Equal(t, "/photos", o.Dir)

	o, err = parseOptions(nil)
	require.NoError(t, err)
	assert.Empty(t, o.Tier)
	assert.Equal(t, -1, o.Overscan)
	assert.Equal(t, 50, o.HistorySize)

	_, err = parseOptions([]string{"--tier", "huge"})
	assert.Error(t, err)
}

func TestResolveDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	got, err := resolveDir(dir, "")
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	got, err = resolveDir(file, "")
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	got, err = resolveDir("", dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	_, err = resolveDir(filepath.Join(dir, "missing"), "")
	assert.Error(t, err)
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{" , ,", nil},
		{"Beach", []string{"beach"}},
		{"beach, Sun ,beach", []string{"beach", "sun"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTags(tt.in))
		})
	}
}

func TestFilterTagItems(t *testing.T) {
	all := []tagListItem{{"Beach", 3}, {"sunset", 1}, {"cats", 2}}
	assert.Equal(t, all, filterTagItems(all, "  "))
	assert.Equal(t, []tagListItem{{"Beach", 3}}, filterTagItems(all, "BEA"))
	assert.Empty(t, filterTagItems(all, "dog"))
}

func TestModifiersFrom(t *testing.T) {
	assert.Equal(t, gallery.Modifiers{}, modifiersFrom(0))
	assert.Equal(t, gallery.Modifiers{Ctrl: true}, modifiersFrom(fyne.KeyModifierControl))
	assert.Equal(t, gallery.Modifiers{Ctrl: true}, modifiersFrom(fyne.KeyModifierSuper))
	assert.Equal(t, gallery.Modifiers{Ctrl: true, Shift: true}, modifiersFrom(fyne.KeyModifierControl|fyne.KeyModifierShift))
}

func TestDetailMarkdown(t *testing.T) {
	d := &service.Details{
		Item: gallery.Item{ID: "abc", Path: "/photos/beach.png"},
		Info: &service.ImageInfo{
			Format:   "png",
			Width:    640,
			Height:   480,
			Size:     2048,
			ModTime:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			EXIFData: map[string]string{"Model": "X100", "Make": "Fuji"},
		},
		Tags:     []string{"beach", "sun"},
		Favorite: true,
	}
	md := detailMarkdown(d, 0, 1500, "tag beach")
	assert.Contains(t, md, "## beach.png")
	assert.Contains(t, md, "**Num:** 1 of 1,500")
	assert.Contains(t, md, "**Size:** 2.0 kB")
	assert.Contains(t, md, "640 x 480 px")
	assert.Contains(t, md, "**Favourite:** yes")
	assert.Contains(t, md, "beach, sun")
	assert.Contains(t, md, "**Filter Active:** tag beach")
	assert.Less(t, strings.Index(md, "Make"), strings.Index(md, "Model"))

	d.Tags, d.Favorite, d.Info.EXIFData = nil, false, nil
	md = detailMarkdown(d, 2, 3, "")
	assert.Contains(t, md, "(none)")
	assert.Contains(t, md, "(not available)")
	assert.NotContains(t, md, "Filter Active")
}

func TestDecodeScaled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 200, 100))))
	require.NoError(t, f.Close())

	img, err := decodeScaled(path, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 25, img.Bounds().Dy())

	img, err = decodeScaled(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.png"), []byte("nope"), 0600))
	_, err = decodeScaled(filepath.Join(dir, "bad.png"), 50)
	assert.Error(t, err)
	_, err = decodeScaled(filepath.Join(dir, "missing.png"), 50)
	assert.Error(t, err)
}

func TestImageLoaderRetain(t *testing.T) {
	l := NewImageLoader(0, 0, nil)
	l.cache["a"] = loadedImage{img: image.NewGray(image.Rect(0, 0, 1, 1))}
	l.cache["b"] = loadedImage{}
	l.Retain(map[string]bool{"a": true})
	_, ok := l.Image("a")
	assert.True(t, ok)
	_, ok = l.Image("b")
	assert.False(t, ok)
}

func TestImageLoaderReusesSameLocator(t *testing.T) {
	l := NewImageLoader(0, 0, nil)
	img := image.NewGray(image.Rect(0, 0, 1, 1))
	l.cache["a"] = loadedImage{loc: "/cache/a.jpg?t=2", token: 2, img: img}

	test.NewApp()
	reported := make(chan bool, 1)
	l.Load("a", 2, gallery.SourceThumbnail, "/cache/a.jpg?t=2", func(ok bool) bool {
		reported <- ok
		return true
	})
	select {
	case ok := <-reported:
		assert.True(t, ok, "same token is answered from the cache")
	case <-time.After(5 * time.Second):
		t.Fatal("load never reported")
	}
	got, _ := l.Image("a")
	assert.Same(t, img, got)
}

func TestViewportLayoutReportsSizeChanges(t *testing.T) {
	var sizes []fyne.Size
	l := &viewportLayout{onResize: func(s fyne.Size) { sizes = append(sizes, s) }}
	child := canvas.NewRectangle(nil)

	l.Layout([]fyne.CanvasObject{child}, fyne.NewSize(1200, 600))
	l.Layout([]fyne.CanvasObject{child}, fyne.NewSize(1200, 600))
	l.Layout([]fyne.CanvasObject{child}, fyne.NewSize(800, 600))

	assert.Equal(t, []fyne.Size{fyne.NewSize(1200, 600), fyne.NewSize(800, 600)}, sizes)
	assert.Equal(t, fyne.NewSize(800, 600), child.Size())
}

func TestThumbCellHidesStaleImageWhileBusy(t *testing.T) {
	test.NewApp()
	c := newThumbCell(func(string, gallery.Modifiers) {})
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	pc := gallery.PlacedCell{Cell: gallery.Cell{ID: "a", Mode: gallery.RenderImage}, Size: 100}

	c.bind(pc, img, "a")
	assert.True(t, c.image.Visible())
	assert.False(t, c.busyIcon.Visible())

	pc.Mode, pc.Busy = gallery.RenderSkeleton, true
	c.bind(pc, img, "a")
	assert.False(t, c.image.Visible())
	assert.True(t, c.busyIcon.Visible())

	pc.Busy = false
	c.bind(pc, img, "a")
	assert.True(t, c.image.Visible(), "the old image stays up while the reload runs")
}

func TestCompactTheme(t *testing.T) {
	base := theme.DefaultTheme()
	th := NewCompactTheme(base)
	assert.Equal(t, float32(2), th.Size(theme.SizeNamePadding))
	assert.Equal(t, base.Size(theme.SizeNameText), th.Size(theme.SizeNameText))
}

func TestLogUIManager(t *testing.T) {
	test.NewApp()
	label := widget.NewLabel("")
	up := widget.NewButton("", nil)
	down := widget.NewButton("", nil)
	lm := NewLogUIManager(label, up, down, 2)

	lm.UpdateLogDisplay()
	assert.True(t, up.Disabled())

	lm.AddLogMessage("one")
	lm.AddLogMessage("two")
	lm.AddLogMessage("three")
	assert.Equal(t, []string{"two", "three"}, lm.Messages())
	assert.Equal(t, "[2/2] three", label.Text)
	assert.True(t, down.Disabled())
	assert.False(t, up.Disabled())

	up.OnTapped()
	assert.Equal(t, "[1/2] two", label.Text)
	lm.ShowPreviousLogMessage()
	assert.Equal(t, "[1/2] two", label.Text)
	lm.ShowNextLogMessage()
	assert.Equal(t, "[2/2] three", label.Text)

	lm.AddLogMessage("three")
	lm.AddLogMessage("three")
	assert.Equal(t, []string{"two", "three (x3)"}, lm.Messages())
	assert.Equal(t, "[2/2] three (x3)", label.Text)
}

func TestAboutMarkdown(t *testing.T) {
	l := gallery.Compute(1200, 160, 16, 16)
	md := aboutMarkdown("/pics", 1500, l, gallery.TierMedium, gallery.AssetStats{Tracked: 30, Bumps: 2, Discarded: 1})
	assert.Contains(t, md, "**Folder:** /pics")
	assert.Contains(t, md, "**Images:** 1,500")
	assert.Contains(t, md, "6 columns of 181px (medium)")
	assert.Contains(t, md, "30 tracked, 2 refreshed, 1 stale results dropped")

	assert.NotContains(t, aboutMarkdown("", 0, l, gallery.TierSmall, gallery.AssetStats{}), "Folder")
}
