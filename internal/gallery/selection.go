package gallery

// Mode is the interaction mode of the selection model.
type Mode int

const (
	// ModeIdle: nothing selected, a plain click opens the item.
	ModeIdle Mode = iota
	// ModeActive: clicks change membership.
	ModeActive
)

func (m Mode) String() string {
	if m == ModeActive {
		return "active"
	}
	return "idle"
}

// Modifiers are the keyboard modifiers held during a click. Ctrl covers
// Cmd on macOS.
type Modifiers struct {
	Ctrl  bool
	Shift bool
}

// ClickResult reports the outcome of a click transition.
type ClickResult struct {
	Changed bool
	// Open is the id to open in the detail view, or "".
	Open string
}

// Selection is a read-only copy of the selection state.
type Selection struct {
	IDs         []string // in current list order
	Mode        Mode
	AnchorIndex int // -1 when unset
}

// SelectionModel is the selection state machine over the ordered item list.
type SelectionModel struct {
	order    []string
	index    map[string]int
	selected map[string]struct{}
	// base is the selection when the anchor was last set. A shift range
	// replaces the previous range but keeps base.
	base     map[string]struct{}
	mode     Mode
	anchorID string
	anchor   int
}

// NewSelectionModel creates an idle model over an empty list.
func NewSelectionModel() *SelectionModel {
	return &SelectionModel{
		index:    make(map[string]int),
		selected: make(map[string]struct{}),
		base:     make(map[string]struct{}),
		anchor:   -1,
	}
}

// SetOrder replaces the item order. Selected ids missing from the new list
// are dropped and the anchor is re-resolved by id. It reports whether the
// visible selection changed.
func (s *SelectionModel) SetOrder(order []string, index map[string]int) bool {
	s.order = order
	s.index = index

	changed := false
	hadMembers := len(s.selected) > 0
	for id := range s.selected {
		if _, ok := index[id]; !ok {
			delete(s.selected, id)
			changed = true
		}
	}
	for id := range s.base {
		if _, ok := index[id]; !ok {
			delete(s.base, id)
		}
	}

	if s.anchorID != "" {
		if i, ok := index[s.anchorID]; ok {
			s.anchor = i
		} else {
			s.anchorID = ""
			s.anchor = -1
		}
	}

	if hadMembers && len(s.selected) == 0 && s.mode == ModeActive {
		s.mode = ModeIdle
		s.anchorID = ""
		s.anchor = -1
		changed = true
	}
	return changed
}

func (s *SelectionModel) setAnchor(i int) {
	s.anchor = i
	s.anchorID = s.order[i]
	s.base = make(map[string]struct{}, len(s.selected))
	for id := range s.selected {
		s.base[id] = struct{}{}
	}
}

func (s *SelectionModel) toggle(i int) {
	id := s.order[i]
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
	} else {
		s.selected[id] = struct{}{}
	}
}

// Click applies a click on the item at index i.
func (s *SelectionModel) Click(i int, mods Modifiers) ClickResult {
	if i < 0 || i >= len(s.order) {
		return ClickResult{}
	}
	id := s.order[i]

	if s.mode == ModeIdle {
		if !mods.Ctrl && !mods.Shift {
			return ClickResult{Open: id}
		}
		s.mode = ModeActive
		s.selected[id] = struct{}{}
		s.setAnchor(i)
		return ClickResult{Changed: true}
	}

	switch {
	case mods.Shift && s.anchor >= 0 && s.anchor < len(s.order):
		lo, hi := s.anchor, i
		if lo > hi {
			lo, hi = hi, lo
		}
		s.selected = make(map[string]struct{}, len(s.base)+hi-lo+1)
		for id := range s.base {
			s.selected[id] = struct{}{}
		}
		for k := lo; k <= hi; k++ {
			s.selected[s.order[k]] = struct{}{}
		}
		return ClickResult{Changed: true}
	case mods.Shift, mods.Ctrl:
		// Shift without a live anchor degrades to a toggle.
		s.toggle(i)
		s.setAnchor(i)
		return ClickResult{Changed: true}
	default:
		s.reset()
		return ClickResult{Changed: true, Open: id}
	}
}

func (s *SelectionModel) reset() {
	s.selected = make(map[string]struct{})
	s.base = make(map[string]struct{})
	s.mode = ModeIdle
	s.anchorID = ""
	s.anchor = -1
}

// SelectAll selects every item and enters ModeActive.
func (s *SelectionModel) SelectAll() bool {
	changed := s.mode != ModeActive || len(s.selected) != len(s.order)
	s.selected = make(map[string]struct{}, len(s.order))
	for _, id := range s.order {
		s.selected[id] = struct{}{}
	}
	s.mode = ModeActive
	if s.anchor >= 0 {
		s.setAnchor(s.anchor)
	}
	return changed
}

// Clear empties the selection and returns to ModeIdle.
func (s *SelectionModel) Clear() bool {
	changed := s.mode != ModeIdle || len(s.selected) > 0
	s.reset()
	return changed
}

// Escape clears an active selection. It reports whether it did anything.
func (s *SelectionModel) Escape() bool {
	if s.mode != ModeActive {
		return false
	}
	s.reset()
	return true
}

// Mode returns the current mode.
func (s *SelectionModel) Mode() Mode { return s.mode }

// Len is the number of selected items.
func (s *SelectionModel) Len() int { return len(s.selected) }

// IsSelected reports whether id is selected.
func (s *SelectionModel) IsSelected(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// Anchor returns the anchor index, if set.
func (s *SelectionModel) Anchor() (int, bool) {
	if s.anchor < 0 {
		return -1, false
	}
	return s.anchor, true
}

// Selected returns the selected ids in current list order.
func (s *SelectionModel) Selected() []string {
	ids := make([]string, 0, len(s.selected))
	for _, id := range s.order {
		if _, ok := s.selected[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Snapshot returns a copy of the selection state.
func (s *SelectionModel) Snapshot() Selection {
	return Selection{IDs: s.Selected(), Mode: s.mode, AnchorIndex: s.anchor}
}
