package gallery

import (
	"fmt"
	"net/url"
)

// AssetStatus is the load state of one item's image.
type AssetStatus int

const (
	StatusPending AssetStatus = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s AssetStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("AssetStatus(%d)", int(s))
}

// RenderMode is what a cell should draw.
type RenderMode int

const (
	RenderSkeleton RenderMode = iota
	RenderImage
	RenderError
)

func (m RenderMode) String() string {
	switch m {
	case RenderSkeleton:
		return "skeleton"
	case RenderImage:
		return "image"
	case RenderError:
		return "error"
	}
	return fmt.Sprintf("RenderMode(%d)", int(m))
}

// Source selects which file a cell loads.
type Source int

const (
	SourceThumbnail Source = iota
	SourceOriginal
)

func (s Source) String() string {
	if s == SourceOriginal {
		return "original"
	}
	return "thumbnail"
}

// Token is a cache-busting value. Zero means no regeneration has been seen.
type Token uint64

// LocatorFunc builds the resource locator for an item's image.
type LocatorFunc func(id string, token Token, src Source) string

// DefaultLocator addresses the app-asset protocol the backend serves.
func DefaultLocator(id string, token Token, src Source) string {
	escaped := url.PathEscape(id)
	if src == SourceOriginal {
		return "app-asset://localhost/originals/" + escaped
	}
	loc := "app-asset://localhost/thumbnails/" + escaped + ".webp"
	if token != 0 {
		loc += fmt.Sprintf("?t=%d", token)
	}
	return loc
}

// AssetState is the tracked state of one item.
type AssetState struct {
	Status AssetStatus
	Token  Token
	Source Source
	// Busy is set while the backend is known to be rewriting the file.
	Busy bool

	fetch bool
}

// Cell is the render decision for one item.
type Cell struct {
	ID         string
	Mode       RenderMode
	Locator    string
	Token      Token
	Source     Source
	Busy       bool
	NeedsFetch bool
}

// AssetStats counts tracker activity.
type AssetStats struct {
	Tracked   int
	Discarded int
	Bumps     int
}

// AssetTracker reconciles image load outcomes with regeneration events.
type AssetTracker struct {
	states    map[string]*AssetState
	last      Token
	fallback  bool
	locator   LocatorFunc
	logger    LoggerFunc
	discarded int
	bumps     int
}

// NewAssetTracker creates an empty tracker.
func NewAssetTracker(cfg Config, logger LoggerFunc) *AssetTracker {
	return &AssetTracker{
		states:   make(map[string]*AssetState),
		fallback: cfg.FallbackToOriginal,
		locator:  cfg.locator(),
		logger:   logger,
	}
}

func (t *AssetTracker) ensure(id string) *AssetState {
	st, ok := t.states[id]
	if !ok {
		st = &AssetState{Status: StatusPending, fetch: true}
		t.states[id] = st
	}
	return st
}

func (t *AssetTracker) nextToken() Token {
	t.last++
	t.bumps++
	return t.last
}

// State returns a copy of the state for id.
func (t *AssetTracker) State(id string) (AssetState, bool) {
	st, ok := t.states[id]
	if !ok {
		return AssetState{}, false
	}
	return *st, true
}

// Cell returns the render decision for id, creating its state on first use.
func (t *AssetTracker) Cell(id string) Cell {
	st := t.ensure(id)
	c := Cell{
		ID:         id,
		Token:      st.Token,
		Source:     st.Source,
		Busy:       st.Busy,
		NeedsFetch: st.fetch,
		Locator:    t.locator(id, st.Token, st.Source),
	}
	switch {
	case st.Busy:
		c.Mode = RenderSkeleton
	case st.Status == StatusReady:
		c.Mode = RenderImage
	case st.Status == StatusError:
		c.Mode = RenderError
	default:
		c.Mode = RenderSkeleton
	}
	return c
}

// BeginLoad marks that the renderer issued a load for the current token.
// It returns false when there is nothing to fetch.
func (t *AssetTracker) BeginLoad(id string) (Token, Source, bool) {
	st, ok := t.states[id]
	if !ok || !st.fetch {
		return 0, SourceThumbnail, false
	}
	st.fetch = false
	st.Status = StatusLoading
	return st.Token, st.Source, true
}

func (t *AssetTracker) current(id string, token Token, src Source, what string) (*AssetState, bool) {
	st, ok := t.states[id]
	if !ok {
		return nil, false
	}
	if st.Token != token || st.Source != src {
		t.discarded++
		logTo(t.logger, "gallery: discarding stale %s for %s (token %d/%s, current %d/%s)",
			what, id, token, src, st.Token, st.Source)
		return nil, false
	}
	if st.Status != StatusLoading {
		return nil, false
	}
	return st, true
}

// LoadSucceeded records a successful load. Results for a superseded token
// or source are discarded and false is returned.
func (t *AssetTracker) LoadSucceeded(id string, token Token, src Source) bool {
	st, ok := t.current(id, token, src, "load success")
	if !ok {
		return false
	}
	st.Status = StatusReady
	return true
}

// LoadFailed records a failed load. A failed thumbnail falls back to the
// original file when enabled; otherwise the item goes to StatusError.
func (t *AssetTracker) LoadFailed(id string, token Token, src Source) bool {
	st, ok := t.current(id, token, src, "load failure")
	if !ok {
		return false
	}
	if t.fallback && src == SourceThumbnail {
		st.Source = SourceOriginal
		st.fetch = true
		return true
	}
	st.Status = StatusError
	return true
}

// Regenerated handles a "complete" event: a new token, back to the
// thumbnail, and a forced fetch. Any earlier error and the busy flag are
// cleared.
func (t *AssetTracker) Regenerated(id string) Token {
	st := t.reload(id)
	st.Busy = false
	return st.Token
}

// reload moves id to a new token on the thumbnail source and schedules a
// fetch. The busy flag is not touched.
func (t *AssetTracker) reload(id string) *AssetState {
	st := t.ensure(id)
	st.Token = t.nextToken()
	st.Source = SourceThumbnail
	st.Status = StatusLoading
	st.fetch = true
	return st
}

// GenerationStarted flags id as being rewritten by the backend.
func (t *AssetTracker) GenerationStarted(id string) {
	t.ensure(id).Busy = true
}

// GenerationFailed clears the busy flag. The load state is left alone.
func (t *AssetTracker) GenerationFailed(id string) {
	if st, ok := t.states[id]; ok {
		st.Busy = false
	}
}

// Bump gives every id a new token unconditionally. Items the backend is
// still rewriting stay busy until their own complete or error event.
func (t *AssetTracker) Bump(ids ...string) {
	for _, id := range ids {
		t.reload(id)
	}
}

// Prune drops every state whose id is not in live and returns how many went.
func (t *AssetTracker) Prune(live map[string]int) int {
	removed := 0
	for id := range t.states {
		if _, ok := live[id]; !ok {
			delete(t.states, id)
			removed++
		}
	}
	return removed
}

// Len is the number of tracked items.
func (t *AssetTracker) Len() int { return len(t.states) }

// Stats returns activity counters.
func (t *AssetTracker) Stats() AssetStats {
	return AssetStats{Tracked: len(t.states), Discarded: t.discarded, Bumps: t.bumps}
}
