package ui

import (
	"fmt"
	"strings"

	"fygallery/internal/gallery"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"
)

const aboutTitle = "About FyGallery"

// aboutMarkdown describes the running gallery: what is loaded and how the
// grid and asset tracker are doing.
func aboutMarkdown(dir string, items int, l gallery.Layout, tier gallery.Tier, st gallery.AssetStats) string {
	var b strings.Builder
	b.WriteString("## FyGallery\n\n")
	b.WriteString("A virtualized thumbnail gallery with tags and favourites.\n\n")
	if dir != "" {
		fmt.Fprintf(&b, "**Folder:** %s\n\n", dir)
	}
	fmt.Fprintf(&b, "**Images:** %s\n\n", humanize.Comma(int64(items)))
	fmt.Fprintf(&b, "**Grid:** %d columns of %dpx (%s)\n\n", l.ColumnCount, l.ItemSize, tier)
	fmt.Fprintf(&b, "**Thumbnails:** %d tracked, %d refreshed, %d stale results dropped\n",
		st.Tracked, st.Bumps, st.Discarded)
	return b.String()
}

// showAbout opens the about dialog. It goes through the dialog stack so
// Escape closes it.
func (a *App) showAbout() {
	img := canvas.NewImageFromResource(theme.FileImageIcon())
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(fyne.NewSize(96, 96))

	text := widget.NewRichTextFromMarkdown(aboutMarkdown(
		a.Service.Dir(), a.engine.Len(), a.engine.Layout(), a.engine.Tier(), a.engine.AssetStats()))
	text.Wrapping = fyne.TextWrapWord

	content := container.NewBorder(img, nil, nil, nil, text)
	d := dialog.NewCustom(aboutTitle, "OK", content, a.UI.MainWin)
	d.Resize(fyne.NewSize(420, 320))
	a.showDialog("about", d)
}
