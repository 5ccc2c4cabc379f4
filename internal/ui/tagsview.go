package ui

import (
	"fmt"
	"sort"
	"strings"

	"fygallery/internal/gallery"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	noTagsFoundMsg       = "No tags found in the database."
	noTagsMatchSearchMsg = "No tags match your search."
	errorLoadingTagsMsg  = "Error loading tags."
)

type tagListItem struct {
	Name  string
	Count int
}

// tagListController drives the tag manager window.
type tagListController struct {
	app      *App
	win      fyne.Window
	allTags  []tagListItem
	filtered []tagListItem
	selected string

	searchEntry  *widget.Entry
	renameButton *widget.Button
	removeButton *widget.Button
	tagList      *widget.List
	messageLabel *widget.Label
}

// filterTagItems keeps the tags whose name contains term, ignoring case.
func filterTagItems(all []tagListItem, term string) []tagListItem {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return all
	}
	var out []tagListItem
	for _, t := range all {
		if strings.Contains(strings.ToLower(t.Name), term) {
			out = append(out, t)
		}
	}
	return out
}

func (c *tagListController) filterAndRefreshList(term string) {
	c.filtered = filterTagItems(c.allTags, term)
	if len(c.filtered) == 0 {
		msg := noTagsFoundMsg
		if strings.TrimSpace(term) != "" {
			msg = noTagsMatchSearchMsg
		}
		c.messageLabel.SetText(msg)
		c.messageLabel.Show()
		c.tagList.Hide()
		return
	}
	c.messageLabel.Hide()
	c.tagList.Show()
	c.tagList.Refresh()
	c.tagList.ScrollToTop()
}

// loadAndFilterTagData reloads the tags, most used first.
func (c *tagListController) loadAndFilterTagData() {
	fetched, err := c.app.Service.ListAllTags()
	if err != nil {
		c.app.addLogMessage(fmt.Sprintf("Error loading tags: %v", err))
		c.allTags = nil
		c.messageLabel.SetText(errorLoadingTagsMsg)
	} else {
		c.allTags = make([]tagListItem, len(fetched))
		for i, t := range fetched {
			c.allTags[i] = tagListItem{Name: t.Name, Count: t.Count}
		}
		sort.Slice(c.allTags, func(i, j int) bool {
			if c.allTags[i].Count != c.allTags[j].Count {
				return c.allTags[i].Count > c.allTags[j].Count
			}
			return c.allTags[i].Name < c.allTags[j].Name
		})
	}
	c.filterAndRefreshList(c.searchEntry.Text)
	c.tagList.UnselectAll()
}

func (c *tagListController) onRemoveTapped() {
	tag := c.selected
	if tag == "" {
		return
	}
	msg := fmt.Sprintf("Remove the tag '%s' from ALL images?\nThis action cannot be undone.", tag)
	dialog.ShowConfirm("Confirm Global Tag Removal", msg, func(ok bool) {
		if !ok {
			return
		}
		n, err := c.app.Service.RemoveTagGlobally(tag)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to remove tag '%s': %w", tag, err), c.win)
		} else {
			c.app.addLogMessage(fmt.Sprintf("Tag '%s' removed from %d image(s).", tag, n))
		}
		c.loadAndFilterTagData()
		c.app.reloadView()
	}, c.win)
}

func (c *tagListController) onRenameTapped() {
	old := c.selected
	if old == "" {
		return
	}
	entry := widget.NewEntry()
	entry.SetText(old)
	dialog.ShowForm("Rename Tag", "Rename", "Cancel", []*widget.FormItem{
		widget.NewFormItem("New name", entry),
	}, func(ok bool) {
		if !ok {
			return
		}
		tags := parseTags(entry.Text)
		if len(tags) != 1 {
			dialog.ShowInformation("Rename Tag", "Enter exactly one tag.", c.win)
			return
		}
		if err := c.app.Service.ReplaceTag(old, tags[0]); err != nil {
			dialog.ShowError(err, c.win)
		}
		c.loadAndFilterTagData()
	}, c.win)
}

func (c *tagListController) onTagSelected(id widget.ListItemID) {
	if id < 0 || id >= len(c.filtered) {
		c.onTagUnselected(id)
		return
	}
	tag := c.filtered[id].Name
	c.selected = tag
	c.removeButton.Enable()
	c.renameButton.Enable()
	c.app.applyFilter("tag "+tag, func() ([]gallery.Item, error) { return c.app.Service.FilterByTag(tag) })
}

func (c *tagListController) onTagUnselected(_ widget.ListItemID) {
	c.selected = ""
	c.removeButton.Disable()
	c.renameButton.Disable()
}

// showTagManager opens the tag manager window.
func (a *App) showTagManager() {
	c := &tagListController{app: a, win: a.app.NewWindow("Tags")}
	c.searchEntry = widget.NewEntry()
	c.searchEntry.SetPlaceHolder("Search Tags...")
	c.searchEntry.OnChanged = c.filterAndRefreshList

	refresh := widget.NewButtonWithIcon("Refresh", theme.ViewRefreshIcon(), c.loadAndFilterTagData)
	c.renameButton = widget.NewButtonWithIcon("Rename", theme.DocumentCreateIcon(), c.onRenameTapped)
	c.removeButton = widget.NewButtonWithIcon("Remove Tag Globally", theme.DeleteIcon(), c.onRemoveTapped)
	c.renameButton.Disable()
	c.removeButton.Disable()

	c.tagList = widget.NewList(
		func() int { return len(c.filtered) },
		func() fyne.CanvasObject { return widget.NewLabel("tag template") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			t := c.filtered[id]
			obj.(*widget.Label).SetText(fmt.Sprintf("%s (%d)", t.Name, t.Count))
		},
	)
	c.tagList.OnSelected = c.onTagSelected
	c.tagList.OnUnselected = c.onTagUnselected

	c.messageLabel = widget.NewLabel(noTagsFoundMsg)
	c.messageLabel.Alignment = fyne.TextAlignCenter
	c.messageLabel.Wrapping = fyne.TextWrapWord

	top := container.NewBorder(nil, nil, nil, refresh, c.searchEntry)
	bottom := container.NewHBox(c.renameButton, c.removeButton)
	c.win.SetContent(container.NewBorder(top, bottom, nil, nil, container.NewStack(c.tagList, c.messageLabel)))
	c.win.Resize(fyne.NewSize(360, 480))
	c.loadAndFilterTagData()
	c.win.Show()
}
