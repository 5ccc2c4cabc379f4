package service

import "fygallery/internal/gallery"

// ViewManager holds the full item list and the filtered view of it that
// the gallery shows.
type ViewManager struct {
	images           []gallery.Item
	filteredImages   []gallery.Item
	isFiltered       bool
	currentFilterTag string
}

// NewViewManager creates an unfiltered ViewManager.
func NewViewManager() *ViewManager {
	return &ViewManager{}
}

// SetImages replaces the full list. An active filter is reapplied with keep.
func (vm *ViewManager) SetImages(images []gallery.Item, keep map[string]bool) {
	vm.images = images
	if vm.isFiltered {
		vm.filteredImages = filterItems(images, keep)
	}
}

// ApplyFilter shows only the items whose id is in keep. tag describes the
// filter for display.
func (vm *ViewManager) ApplyFilter(keep map[string]bool, tag string) {
	vm.filteredImages = filterItems(vm.images, keep)
	vm.isFiltered = true
	vm.currentFilterTag = tag
}

// ClearFilter shows every item again.
func (vm *ViewManager) ClearFilter() {
	vm.filteredImages = nil
	vm.isFiltered = false
	vm.currentFilterTag = ""
}

func filterItems(images []gallery.Item, keep map[string]bool) []gallery.Item {
	out := make([]gallery.Item, 0, len(keep))
	for _, it := range images {
		if keep[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

// GetCurrentList returns the list the gallery should show.
func (vm *ViewManager) GetCurrentList() []gallery.Item {
	if vm.isFiltered {
		return append([]gallery.Item(nil), vm.filteredImages...)
	}
	return append([]gallery.Item(nil), vm.images...)
}

// All returns the unfiltered list.
func (vm *ViewManager) All() []gallery.Item { return vm.images }

// GetCurrentImageCount is the length of the current list.
func (vm *ViewManager) GetCurrentImageCount() int {
	if vm.isFiltered {
		return len(vm.filteredImages)
	}
	return len(vm.images)
}

// IsFiltered reports whether a filter is active and its description.
func (vm *ViewManager) IsFiltered() (bool, string) {
	return vm.isFiltered, vm.currentFilterTag
}
