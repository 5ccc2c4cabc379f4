package scan

import (
	"math/rand"
	"sort"
	"strings"
	"sync"

	"fygallery/internal/gallery"
)

// SortKey names a built-in item order.
type SortKey string

const (
	SortByPath SortKey = "path"
	SortByName SortKey = "name"
	SortBySize SortKey = "size"
)

// Sort orders items in place by key. Ties fall back to the path.
func Sort(items []gallery.Item, key SortKey) {
	less := func(a, b gallery.Item) bool { return a.Path < b.Path }
	switch key {
	case SortByName:
		less = func(a, b gallery.Item) bool {
			na, nb := strings.ToLower(baseName(a.Path)), strings.ToLower(baseName(b.Path))
			if na != nb {
				return na < nb
			}
			return a.Path < b.Path
		}
	case SortBySize:
		less = func(a, b gallery.Item) bool {
			if a.ByteSize != b.ByteSize {
				return a.ByteSize < b.ByteSize
			}
			return a.Path < b.Path
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}

func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Permutation is an item order keyed by id that survives rescans. Ids seen
// for the first time are appended, optionally shuffled, and ids that
// disappear are dropped, so existing items keep their relative positions.
type Permutation struct {
	mu    sync.RWMutex
	order []string
	pos   map[string]int
	rng   *rand.Rand
}

// NewPermutation creates an empty permutation. The seed drives shuffling.
func NewPermutation(seed int64) *Permutation {
	return &Permutation{
		pos: make(map[string]int),
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (p *Permutation) reindex() {
	p.pos = make(map[string]int, len(p.order))
	for i, id := range p.order {
		p.pos[id] = i
	}
}

// Sync reconciles the order with items. New ids are appended in the order
// given, or in random order when shuffle is set.
func (p *Permutation) Sync(items []gallery.Item, shuffle bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sync(items, shuffle)
}

func (p *Permutation) sync(items []gallery.Item, shuffle bool) {
	live := make(map[string]bool, len(items))
	var fresh []string
	for _, it := range items {
		if live[it.ID] {
			continue
		}
		live[it.ID] = true
		if _, ok := p.pos[it.ID]; !ok {
			fresh = append(fresh, it.ID)
		}
	}

	kept := p.order[:0]
	for _, id := range p.order {
		if live[id] {
			kept = append(kept, id)
		}
	}
	if shuffle {
		p.rng.Shuffle(len(fresh), func(i, j int) {
			fresh[i], fresh[j] = fresh[j], fresh[i]
		})
	}
	p.order = append(kept, fresh...)
	p.reindex()
}

// Set adopts an explicit order. Unknown ids in order are kept so a later
// Sync can place them; ids missing from order go to the end on Apply.
func (p *Permutation) Set(order []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order = p.order[:0]
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		p.order = append(p.order, id)
	}
	p.reindex()
}

// Shuffle randomizes the whole order.
func (p *Permutation) Shuffle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rng.Shuffle(len(p.order), func(i, j int) {
		p.order[i], p.order[j] = p.order[j], p.order[i]
	})
	p.reindex()
}

// Apply syncs with items and returns them in permutation order.
func (p *Permutation) Apply(items []gallery.Item, shuffleNew bool) []gallery.Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sync(items, shuffleNew)

	out := make([]gallery.Item, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if !seen[it.ID] {
			seen[it.ID] = true
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return p.pos[out[i].ID] < p.pos[out[j].ID] })
	return out
}

// Order returns a copy of the current order.
func (p *Permutation) Order() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.order...)
}

// Len is the number of ids in the order.
func (p *Permutation) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}
