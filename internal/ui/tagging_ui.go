package ui

import (
	"fmt"
	"sort"
	"strings"

	"fygallery/internal/gallery"

	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

const (
	clearFilterOption     = "(Show All / Clear Filter)"
	favoritesFilterOption = "(Favourites)"
)

// parseTags splits comma separated input into trimmed, lower-cased,
// de-duplicated tags.
func parseTags(raw string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag != "" && !seen[tag] {
			tags = append(tags, tag)
			seen[tag] = true
		}
	}
	return tags
}

// showTagDialog asks for tags and raises a batch tag for the targets.
func (a *App) showTagDialog() {
	n := len(a.targets())
	if n == 0 {
		a.addLogMessage("Nothing selected to tag.")
		return
	}
	tagEntry := widget.NewEntry()
	tagEntry.SetPlaceHolder("Enter tag(s) separated by commas...")

	items := []*widget.FormItem{
		widget.NewFormItem("", widget.NewLabel(fmt.Sprintf("Tagging %d image(s)", n))),
		widget.NewFormItem("New Tag(s)", tagEntry),
	}
	d := dialog.NewForm("Add Tags", "Add", "Cancel", items, func(confirm bool) {
		if !confirm {
			return
		}
		tags := parseTags(tagEntry.Text)
		if len(tags) == 0 {
			dialog.ShowInformation("Add Tags", "No valid tags entered.", a.UI.MainWin)
			return
		}
		a.engine.RequestTag(tags)
	}, a.UI.MainWin)
	a.showDialog("tag", d)
	a.UI.MainWin.Canvas().Focus(tagEntry)
}

// showRemoveTagDialog removes one tag from the item in the detail view.
func (a *App) showRemoveTagDialog() {
	item, ok := a.engine.Detail()
	if !ok {
		return
	}
	d, err := a.Service.Describe(item.ID)
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to get current tags: %w", err), a.UI.MainWin)
		return
	}
	if len(d.Tags) == 0 {
		dialog.ShowInformation("Remove Tag", "This image has no tags to remove.", a.UI.MainWin)
		return
	}
	sel := widget.NewSelect(d.Tags, nil)
	sel.SetSelected(d.Tags[0])
	fd := dialog.NewForm("Remove Tag", "Remove", "Cancel", []*widget.FormItem{
		widget.NewFormItem("Tag", sel),
	}, func(confirm bool) {
		if !confirm || sel.Selected == "" {
			return
		}
		tag := sel.Selected
		a.runService(fmt.Sprintf("Removed tag '%s'", tag), func() error {
			return a.Service.RemoveTags(item.ID, []string{tag})
		})
	}, a.UI.MainWin)
	a.showDialog("remove-tag", fd)
}

// showFilterDialog narrows the grid to a tag or to the favourites.
func (a *App) showFilterDialog() {
	all, err := a.Service.ListAllTags()
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to get tags for filtering: %w", err), a.UI.MainWin)
		return
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
	})
	options := []string{clearFilterOption, favoritesFilterOption}
	for _, t := range all {
		options = append(options, fmt.Sprintf("%s (%d)", t.Name, t.Count))
	}
	selector := widget.NewSelect(options, nil)
	selector.SetSelected(options[0])

	d := dialog.NewForm("Filter", "Apply", "Cancel", []*widget.FormItem{
		widget.NewFormItem("Show", selector),
	}, func(confirm bool) {
		if !confirm {
			return
		}
		switch choice := selector.Selected; choice {
		case clearFilterOption:
			a.clearFilter()
		case favoritesFilterOption:
			a.applyFilter("favourites", a.Service.FilterFavorites)
		default:
			tag := strings.SplitN(choice, " (", 2)[0]
			a.applyFilter("tag "+tag, func() ([]gallery.Item, error) { return a.Service.FilterByTag(tag) })
		}
	}, a.UI.MainWin)
	a.showDialog("filter", d)
}
