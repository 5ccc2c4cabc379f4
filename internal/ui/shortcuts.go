// Package ui  Shortcuts for keyboard actions
package ui

import (
	"fygallery/internal/gallery"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

type shortcutHelp struct {
	keys, description string
}

var shortcutTable = []shortcutHelp{
	{"Ctrl+Q", "Quit Application"},
	{"Ctrl+A", "Select All"},
	{"Esc", "Close Dialog / Detail View / Clear Selection"},
	{"Delete", "Delete Selected"},
	{"Ctrl+T", "Tag Selected"},
	{"Ctrl+D", "Toggle Favourite"},
	{"Ctrl+F", "Filter"},
	{"F5", "Refresh Visible Thumbnails"},
	{"Arrow Left / Right", "Previous / Next Image (detail view)"},
	{"Backspace", "Back in History (detail view)"},
	{"Space", "Play / Pause Slideshow (detail view)"},
	{"Page Up / Page Down", "Scroll One Screen"},
	{"Home / End", "Scroll to Top / Bottom"},
	{"1 / 2 / 3", "Small / Medium / Large Thumbnails"},
}

func (a *App) buildKeyboardShortcuts() {
	c := a.UI.MainWin.Canvas()
	add := func(key fyne.KeyName, fn func()) {
		c.AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: a.UI.mainModKey}, func(_ fyne.Shortcut) { fn() })
	}
	add(fyne.KeyQ, a.app.Quit)
	add(fyne.KeyA, func() { a.engine.KeyPress(gallery.KeySelectAll) })
	add(fyne.KeyT, a.showTagDialog)
	add(fyne.KeyD, func() { a.engine.RequestFavorite() })
	add(fyne.KeyF, a.showFilterDialog)

	c.SetOnTypedKey(func(key *fyne.KeyEvent) {
		_, inDetail := a.engine.Detail()
		switch key.Name {
		case fyne.KeyEscape:
			a.engine.KeyPress(gallery.KeyEscape)
		case fyne.KeyDelete:
			a.engine.KeyPress(gallery.KeyDelete)
		case fyne.KeyF5:
			a.engine.KeyPress(gallery.KeyRefresh)
		case fyne.KeyRight:
			if inDetail {
				a.engine.NavigateDetail(1)
			}
		case fyne.KeyLeft:
			if inDetail {
				a.engine.NavigateDetail(-1)
			}
		case fyne.KeyBackspace:
			if inDetail {
				a.engine.DetailBack()
			}
		case fyne.KeySpace:
			if inDetail {
				a.toggleSlideshow()
			}
		case fyne.KeyPageDown:
			a.grid.scrollBy(a.grid.scroll.Size().Height)
		case fyne.KeyPageUp:
			a.grid.scrollBy(-a.grid.scroll.Size().Height)
		case fyne.KeyHome:
			a.grid.scrollBy(-float32(a.engine.ContentHeight()))
		case fyne.KeyEnd:
			a.grid.scrollBy(float32(a.engine.ContentHeight()))
		case fyne.Key1:
			a.setTier(gallery.TierSmall)
		case fyne.Key2:
			a.setTier(gallery.TierMedium)
		case fyne.Key3:
			a.setTier(gallery.TierLarge)
		}
	})
}

func (a *App) showShortcuts() {
	win := a.app.NewWindow("Keyboard Shortcuts")
	table := widget.NewTable(
		func() (int, int) { return len(shortcutTable) + 1, 2 },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			isHeader := id.Row == 0
			switch {
			case isHeader && id.Col == 0:
				label.SetText("Description")
			case isHeader:
				label.SetText("Shortcut")
			case id.Col == 0:
				label.SetText(shortcutTable[id.Row-1].description)
			default:
				label.SetText(shortcutTable[id.Row-1].keys)
			}
			label.TextStyle.Bold = isHeader
		},
	)
	table.SetColumnWidth(0, 320)
	table.SetColumnWidth(1, 200)
	win.SetContent(table)
	win.Resize(fyne.NewSize(540, 500))
	win.Show()
}
