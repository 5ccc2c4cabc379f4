package ui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"fygallery/internal/service"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"
)

// detailPanel is the single-item view shown over the grid.
type detailPanel struct {
	zoom     *zoomView
	info     *widget.RichText
	favorite *widget.ToolbarAction
	play     *widget.ToolbarAction
	root     *fyne.Container
	shownID  string
}

func (a *App) buildDetailPanel() *detailPanel {
	p := &detailPanel{
		zoom: newZoomView(),
		info: widget.NewRichTextFromMarkdown("# Info\n---\n"),
	}
	p.info.Wrapping = fyne.TextWrapWord
	p.favorite = widget.NewToolbarAction(theme.ContentAddIcon(), func() { a.engine.RequestFavorite() })
	p.play = widget.NewToolbarAction(theme.MediaPlayIcon(), a.toggleSlideshow)

	bar := widget.NewToolbar(
		widget.NewToolbarAction(theme.CancelIcon(), func() { a.engine.CloseDetail() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.NavigateBackIcon(), func() { a.engine.NavigateDetail(-1) }),
		widget.NewToolbarAction(theme.NavigateNextIcon(), func() { a.engine.NavigateDetail(1) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.MediaSkipPreviousIcon(), func() { a.engine.DetailBack() }),
		widget.NewToolbarAction(theme.MediaSkipNextIcon(), func() { a.engine.DetailForward() }),
		p.play,
		widget.NewToolbarSeparator(),
		p.favorite,
		widget.NewToolbarAction(theme.DocumentCreateIcon(), a.showTagDialog),
		widget.NewToolbarAction(theme.DeleteIcon(), func() { a.engine.RequestDelete() }),
	)

	split := container.NewHSplit(p.zoom, container.NewVScroll(p.info))
	split.SetOffset(0.8)
	p.root = container.NewBorder(bar, nil, nil, nil, split)
	p.root.Hide()
	return p
}

// onDetailChanged shows id in the detail panel, or hides the panel.
func (a *App) onDetailChanged(id string) {
	p := a.detail
	if p == nil {
		return
	}
	p.shownID = id
	if id == "" {
		a.player.Pause(false)
		a.updatePlayIcon()
		p.root.Hide()
		a.grid.root.Show()
		p.zoom.SetImage(nil)
		a.UI.MainWin.SetTitle("FyGallery")
		if idx, ok := a.engine.IndexOf(a.lastDetail); ok {
			a.grid.scrollTo(idx)
		}
		return
	}
	a.lastDetail = id
	a.grid.root.Hide()
	p.root.Show()
	p.zoom.SetImage(nil)
	a.refreshDetailInfo()

	item, ok := a.engine.Item(id)
	if !ok {
		return
	}
	a.UI.MainWin.SetTitle(fmt.Sprintf("FyGallery - %s", filepath.Base(item.Path)))
	go func() {
		img, err := decodeScaled(item.Path, 0)
		fyne.Do(func() {
			if p.shownID != id {
				return
			}
			if err != nil {
				a.addLogMessage(fmt.Sprintf("Error decoding %s: %v", filepath.Base(item.Path), err))
				return
			}
			p.zoom.SetImage(toRGBA(img))
		})
	}()
}

// refreshDetailInfo reloads the metadata of the item in the detail panel.
func (a *App) refreshDetailInfo() {
	p := a.detail
	id := p.shownID
	if id == "" {
		return
	}
	pos, _ := a.engine.IndexOf(id)
	total := a.engine.Len()
	filter := a.Service.Filter()
	go func() {
		d, err := a.Service.Describe(id)
		fyne.Do(func() {
			if p.shownID != id {
				return
			}
			if err != nil {
				p.info.ParseMarkdown("# Info\n---\nImage metadata not available.")
				a.addLogMessage(fmt.Sprintf("Describe %s: %v", shortID(id), err))
				return
			}
			p.info.ParseMarkdown(detailMarkdown(d, pos, total, filter))
			if d.Favorite {
				p.favorite.SetIcon(theme.ConfirmIcon())
			} else {
				p.favorite.SetIcon(theme.ContentAddIcon())
			}
		})
	}()
}

// detailMarkdown renders the info pane of the detail view.
func detailMarkdown(d *service.Details, pos, total int, filter string) string {
	tags := "(none)"
	if len(d.Tags) > 0 {
		tags = strings.Join(d.Tags, ", ")
	}
	fav := "no"
	if d.Favorite {
		fav = "yes"
	}

	exifString := "(not available)"
	if len(d.Info.EXIFData) > 0 {
		keys := make([]string, 0, len(d.Info.EXIFData))
		for k := range d.Info.EXIFData {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&b, "- **%s**: %s\n\n", k, d.Info.EXIFData[k])
		}
		exifString = b.String()
	}

	filterStatus := ""
	if filter != "" {
		filterStatus = fmt.Sprintf("\n**Filter Active:** %s\n", filter)
	}

	return fmt.Sprintf(`## %s
%s
**Num:** %s of %s

**Size:** %s

**Dimensions:** %d x %d px

**Format:** %s

**Last modified:** %s

**Favourite:** %s

---
## Tags
%s

---
## EXIF Data
%s
`,
		filepath.Base(d.Item.Path),
		filterStatus,
		humanize.Comma(int64(pos+1)),
		humanize.Comma(int64(total)),
		humanize.Bytes(uint64(d.Info.Size)),
		d.Info.Width,
		d.Info.Height,
		d.Info.Format,
		d.Info.ModTime.Format("2006-01-02 15:04:05"),
		fav,
		tags,
		exifString,
	)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// toggleSlideshow starts or stops auto-advance in the detail view.
func (a *App) toggleSlideshow() {
	if _, ok := a.engine.Detail(); !ok {
		return
	}
	a.player.Toggle()
	a.updatePlayIcon()
}

// advanceSlideshow shows the next item, stopping at the end of the list.
func (a *App) advanceSlideshow() {
	if _, ok := a.engine.Detail(); !ok || !a.engine.NavigateDetail(1) {
		a.player.Pause(false)
		a.updatePlayIcon()
	}
}

func (a *App) updatePlayIcon() {
	if a.detail == nil {
		return
	}
	if a.player.IsPlaying() {
		a.detail.play.SetIcon(theme.MediaPauseIcon())
	} else {
		a.detail.play.SetIcon(theme.MediaPlayIcon())
	}
}
