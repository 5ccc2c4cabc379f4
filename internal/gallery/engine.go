package gallery

import "fygallery/internal/history"

// Handlers receive the engine's outward notifications. Any may be nil.
type Handlers struct {
	SelectionChanged func(Selection)
	Intent           func(Intent)
	// Redraw is called when the visible rows or a visible cell changed.
	Redraw func()
	// DetailChanged is called with the id shown in the detail view, or "".
	DetailChanged func(id string)
	// DialogClosed is called when Escape closes the named dialog.
	DialogClosed func(name string)
}

// Stats counts how often each subsystem recomputed.
type Stats struct {
	LayoutComputes   int
	Remeasures       int
	RowComputes      int
	AssetUpdates     int
	SelectionUpdates int
	IgnoredEvents    int
}

// PlacedCell is a visible cell with its geometry and selection flag.
type PlacedCell struct {
	Cell
	Index    int
	Row      int
	Column   int
	X        float64
	Y        float64
	Size     float64
	Selected bool
}

// Engine composes layout, virtualization, asset tracking and selection.
// Each subsystem recomputes only when its own inputs change.
type Engine struct {
	cfg      Config
	logger   LoggerFunc
	handlers Handlers

	items []Item
	ids   []string
	index map[string]int

	width       int
	tier        Tier
	layout      Layout
	layoutValid bool

	scroll         float64
	viewportHeight float64
	overscan       int
	virt           RowVirtualizer
	rows           []VirtualRow
	visible        map[string]struct{}
	rowsValid      bool

	assets    *AssetTracker
	selection *SelectionModel

	detail  string
	history *history.Manager
	dialogs []string

	stats Stats
}

// NewEngine creates an engine with an empty item list at TierMedium.
func NewEngine(cfg Config, handlers Handlers, logger LoggerFunc) *Engine {
	e := &Engine{
		cfg:       cfg,
		logger:    logger,
		handlers:  handlers,
		index:     make(map[string]int),
		tier:      TierMedium,
		overscan:  cfg.Overscan,
		visible:   make(map[string]struct{}),
		assets:    NewAssetTracker(cfg, logger),
		selection: NewSelectionModel(),
		history:   history.NewManager(cfg.HistorySize),
	}
	e.refresh()
	return e
}

// --- update cycle ---

func (e *Engine) refresh() {
	if !e.layoutValid {
		e.layout = e.cfg.Layout(e.width, e.tier)
		e.layoutValid = true
		e.stats.LayoutComputes++
	}
	if e.virt.Measure(e.layout.ColumnCount, float64(e.layout.RowHeight), len(e.ids)) {
		e.stats.Remeasures++
		e.rowsValid = false
	}
	if !e.rowsValid {
		e.rows = e.virt.Rows(e.scroll, e.viewportHeight, e.overscan, e.ids)
		e.visible = make(map[string]struct{}, len(e.rows)*e.layout.ColumnCount)
		for _, r := range e.rows {
			for _, id := range r.ItemIDs {
				e.visible[id] = struct{}{}
			}
		}
		e.rowsValid = true
		e.stats.RowComputes++
		e.redraw()
	}
}

func (e *Engine) redraw() {
	if e.handlers.Redraw != nil {
		e.handlers.Redraw()
	}
}

func (e *Engine) emit(in Intent) {
	if e.handlers.Intent != nil {
		e.handlers.Intent(in)
	}
}

func (e *Engine) selectionChanged() {
	e.stats.SelectionUpdates++
	if e.handlers.SelectionChanged != nil {
		e.handlers.SelectionChanged(e.selection.Snapshot())
	}
	e.redraw()
}

// --- inputs ---

// SetItems replaces the item list. Asset state, selection and history are
// pruned against the new ids.
func (e *Engine) SetItems(items []Item) {
	e.items = append([]Item(nil), items...)
	e.ids = make([]string, 0, len(items))
	e.index = make(map[string]int, len(items))
	for _, it := range e.items {
		if _, dup := e.index[it.ID]; dup {
			logTo(e.logger, "gallery: duplicate item id %s (%s) ignored", it.ID, it.Path)
			continue
		}
		e.index[it.ID] = len(e.ids)
		e.ids = append(e.ids, it.ID)
	}
	if len(e.ids) != len(e.items) {
		kept := make([]Item, 0, len(e.ids))
		seen := make(map[string]bool, len(e.ids))
		for _, it := range e.items {
			if !seen[it.ID] {
				seen[it.ID] = true
				kept = append(kept, it)
			}
		}
		e.items = kept
	}

	e.assets.Prune(e.index)
	e.history.Retain(func(id string) bool {
		_, ok := e.index[id]
		return ok
	})
	if e.detail != "" {
		if _, ok := e.index[e.detail]; !ok {
			e.setDetail("")
		}
	}
	if e.selection.SetOrder(e.ids, e.index) {
		e.selectionChanged()
	}
	e.rowsValid = false
	e.refresh()
}

// Resize sets the container width and the viewport height.
func (e *Engine) Resize(width int, viewportHeight float64) {
	if width != e.width {
		e.width = width
		e.layoutValid = false
	}
	if viewportHeight != e.viewportHeight {
		e.viewportHeight = viewportHeight
		e.rowsValid = false
	}
	e.refresh()
}

// SetTier changes the density tier.
func (e *Engine) SetTier(t Tier) {
	if t < TierSmall || t > TierLarge {
		t = TierMedium
	}
	if t == e.tier {
		return
	}
	e.tier = t
	e.layoutValid = false
	e.refresh()
}

// Scroll sets the scroll offset of the hosting surface.
func (e *Engine) Scroll(offset float64) {
	if offset < 0 {
		offset = 0
	}
	if offset == e.scroll {
		return
	}
	e.scroll = offset
	e.rowsValid = false
	e.refresh()
}

// SetOverscan changes the number of extra rows rendered.
func (e *Engine) SetOverscan(rows int) {
	if rows < 0 {
		rows = 0
	}
	if rows == e.overscan {
		return
	}
	e.overscan = rows
	e.rowsValid = false
	e.refresh()
}

// HandleProgress applies a pipeline event. Events without an item id, for
// ids not in the list, or with unknown stages are ignored.
func (e *Engine) HandleProgress(ev ProgressEvent) bool {
	if ev.ItemID == "" {
		e.stats.IgnoredEvents++
		return false
	}
	if _, ok := e.index[ev.ItemID]; !ok {
		e.stats.IgnoredEvents++
		return false
	}
	switch ev.Stage {
	case StageGenerating:
		e.assets.GenerationStarted(ev.ItemID)
	case StageComplete:
		e.assets.Regenerated(ev.ItemID)
	case StageError:
		e.assets.GenerationFailed(ev.ItemID)
	default:
		e.stats.IgnoredEvents++
		return false
	}
	e.stats.AssetUpdates++
	e.redrawIfVisible(ev.ItemID)
	return true
}

func (e *Engine) redrawIfVisible(id string) {
	if _, ok := e.visible[id]; ok {
		e.redraw()
	}
}

// BeginLoad is called by the renderer when it issues a load for id.
func (e *Engine) BeginLoad(id string) (Token, Source, bool) {
	if _, ok := e.index[id]; !ok {
		return 0, SourceThumbnail, false
	}
	return e.assets.BeginLoad(id)
}

// LoadSucceeded reports a finished load. Stale results are discarded.
func (e *Engine) LoadSucceeded(id string, token Token, src Source) bool {
	if !e.assets.LoadSucceeded(id, token, src) {
		return false
	}
	e.stats.AssetUpdates++
	e.redrawIfVisible(id)
	return true
}

// LoadFailed reports a failed load. Stale results are discarded.
func (e *Engine) LoadFailed(id string, token Token, src Source) bool {
	if !e.assets.LoadFailed(id, token, src) {
		return false
	}
	e.stats.AssetUpdates++
	e.redrawIfVisible(id)
	return true
}

// RefreshAll gives every visible item a new cache token.
func (e *Engine) RefreshAll() {
	ids := make([]string, 0, len(e.visible))
	for _, r := range e.rows {
		ids = append(ids, r.ItemIDs...)
	}
	if len(ids) == 0 {
		return
	}
	e.assets.Bump(ids...)
	e.stats.AssetUpdates++
	e.redraw()
}

// Click applies a click on the item at index.
func (e *Engine) Click(index int, mods Modifiers) {
	res := e.selection.Click(index, mods)
	if res.Changed {
		e.selectionChanged()
	}
	if res.Open != "" {
		e.emit(Intent{Kind: IntentOpenItem, IDs: []string{res.Open}})
		e.OpenDetail(res.Open)
	}
}

// ClickID applies a click on the item with id. Unknown ids are ignored.
func (e *Engine) ClickID(id string, mods Modifiers) {
	if i, ok := e.index[id]; ok {
		e.Click(i, mods)
	}
}

// SelectAll selects every item.
func (e *Engine) SelectAll() {
	if e.selection.SelectAll() {
		e.selectionChanged()
	}
	e.emit(Intent{Kind: IntentSelectAll, IDs: e.selection.Selected()})
}

// ClearSelection empties the selection.
func (e *Engine) ClearSelection() {
	if e.selection.Clear() {
		e.selectionChanged()
	}
	e.emit(Intent{Kind: IntentClearSelection})
}

// KeyPress handles a keyboard command and reports whether it was used.
// Escape closes the top dialog, else the detail view, else the selection.
func (e *Engine) KeyPress(k Key) bool {
	switch k {
	case KeyEscape:
		if name, ok := e.PopDialog(); ok {
			if e.handlers.DialogClosed != nil {
				e.handlers.DialogClosed(name)
			}
			return true
		}
		if e.detail != "" {
			e.CloseDetail()
			return true
		}
		if e.selection.Escape() {
			e.selectionChanged()
			return true
		}
		return false
	case KeyDelete:
		return e.RequestDelete()
	case KeySelectAll:
		e.SelectAll()
		return true
	case KeyRefresh:
		e.RefreshAll()
		return true
	}
	return false
}

// targets returns the ids an action applies to: the selection while
// active, otherwise the item in the detail view.
func (e *Engine) targets() []string {
	if e.selection.Mode() == ModeActive {
		return e.selection.Selected()
	}
	if e.detail != "" {
		return []string{e.detail}
	}
	return nil
}

// RequestDelete raises an unconfirmed BatchDelete for the current targets.
// The selection is left alone; the next SetItems prunes it.
func (e *Engine) RequestDelete() bool {
	ids := e.targets()
	if len(ids) == 0 {
		return false
	}
	e.emit(Intent{Kind: IntentBatchDelete, IDs: ids})
	return true
}

// RequestTag raises a BatchTag for the current targets.
func (e *Engine) RequestTag(tags []string) bool {
	ids := e.targets()
	if len(ids) == 0 {
		return false
	}
	e.emit(Intent{Kind: IntentBatchTag, IDs: ids, Tags: append([]string(nil), tags...)})
	return true
}

// RequestFavorite raises a ToggleFavorite for the current targets.
func (e *Engine) RequestFavorite() bool {
	ids := e.targets()
	if len(ids) == 0 {
		return false
	}
	e.emit(Intent{Kind: IntentToggleFavorite, IDs: ids})
	return true
}

// RequestReorder raises a Reorder carrying the full new order. The item
// list itself only changes on the next SetItems.
func (e *Engine) RequestReorder(from, to int) bool {
	if from < 0 || from >= len(e.ids) || to < 0 || to >= len(e.ids) || from == to {
		return false
	}
	e.emit(Intent{Kind: IntentReorder, Order: MoveID(e.ids, from, to)})
	return true
}

// --- detail view and dialogs ---

func (e *Engine) setDetail(id string) {
	if id == e.detail {
		return
	}
	e.detail = id
	if e.handlers.DetailChanged != nil {
		e.handlers.DetailChanged(id)
	}
}

// OpenDetail shows id in the detail view and records it in the history.
func (e *Engine) OpenDetail(id string) bool {
	if _, ok := e.index[id]; !ok {
		return false
	}
	e.history.Record(id)
	e.setDetail(id)
	return true
}

// CloseDetail closes the detail view.
func (e *Engine) CloseDetail() { e.setDetail("") }

// Detail returns the item shown in the detail view.
func (e *Engine) Detail() (Item, bool) {
	if e.detail == "" {
		return Item{}, false
	}
	return e.Item(e.detail)
}

// NavigateDetail moves the detail view step items through the list.
func (e *Engine) NavigateDetail(step int) bool {
	i, ok := e.index[e.detail]
	if !ok {
		return false
	}
	j := i + step
	if j < 0 || j >= len(e.ids) || j == i {
		return false
	}
	return e.OpenDetail(e.ids[j])
}

// DetailBack reopens the previously viewed item.
func (e *Engine) DetailBack() bool {
	id, ok := e.history.Back()
	if !ok {
		return false
	}
	e.setDetail(id)
	return true
}

// DetailForward undoes DetailBack.
func (e *Engine) DetailForward() bool {
	id, ok := e.history.Forward()
	if !ok {
		return false
	}
	e.setDetail(id)
	return true
}

// PushDialog records that a dialog is open.
func (e *Engine) PushDialog(name string) { e.dialogs = append(e.dialogs, name) }

// PopDialog removes the most recently opened dialog.
func (e *Engine) PopDialog() (string, bool) {
	if len(e.dialogs) == 0 {
		return "", false
	}
	name := e.dialogs[len(e.dialogs)-1]
	e.dialogs = e.dialogs[:len(e.dialogs)-1]
	return name, true
}

// DialogOpen reports whether any dialog is open.
func (e *Engine) DialogOpen() bool { return len(e.dialogs) > 0 }

// --- outputs ---

// Layout returns the current layout.
func (e *Engine) Layout() Layout { return e.layout }

// Tier returns the current density tier.
func (e *Engine) Tier() Tier { return e.tier }

// VisibleRows returns the rows of the last render pass.
func (e *Engine) VisibleRows() []VirtualRow { return e.rows }

// TotalRows is the number of rows for the whole list.
func (e *Engine) TotalRows() int { return e.virt.TotalRows() }

// ContentHeight is the height of the scrollable content.
func (e *Engine) ContentHeight() float64 { return e.virt.ContentHeight() }

// VisibleCells returns every visible cell with its geometry.
func (e *Engine) VisibleCells() []PlacedCell {
	var cells []PlacedCell
	size := float64(e.layout.ItemSize)
	for _, r := range e.rows {
		for col, id := range r.ItemIDs {
			idx := r.RowIndex*e.layout.ColumnCount + col
			x, _ := e.layout.CellOrigin(idx)
			cells = append(cells, PlacedCell{
				Cell:     e.assets.Cell(id),
				Index:    idx,
				Row:      r.RowIndex,
				Column:   col,
				X:        float64(x),
				Y:        r.TopOffset,
				Size:     size,
				Selected: e.selection.IsSelected(id),
			})
		}
	}
	return cells
}

// Cell returns the render decision for id.
func (e *Engine) Cell(id string) (Cell, bool) {
	if _, ok := e.index[id]; !ok {
		return Cell{}, false
	}
	return e.assets.Cell(id), true
}

// AssetState returns the tracked asset state for id.
func (e *Engine) AssetState(id string) (AssetState, bool) { return e.assets.State(id) }

// AssetStats returns the tracker counters.
func (e *Engine) AssetStats() AssetStats { return e.assets.Stats() }

// Selection returns a copy of the selection state.
func (e *Engine) Selection() Selection { return e.selection.Snapshot() }

// Items returns a copy of the item list.
func (e *Engine) Items() []Item { return append([]Item(nil), e.items...) }

// Item returns the item with id.
func (e *Engine) Item(id string) (Item, bool) {
	i, ok := e.index[id]
	if !ok {
		return Item{}, false
	}
	return e.items[i], true
}

// IndexOf returns the list index of id.
func (e *Engine) IndexOf(id string) (int, bool) {
	i, ok := e.index[id]
	return i, ok
}

// Len is the number of items.
func (e *Engine) Len() int { return len(e.ids) }

// Stats returns the recompute counters.
func (e *Engine) Stats() Stats { return e.stats }
