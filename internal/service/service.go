// Package service carries out the requests the gallery raises: it loads
// the item list, applies intents against the tag database and the disk,
// and hands back the authoritative list afterwards.
package service

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"fygallery/internal/gallery"
	"fygallery/internal/pipeline"
	"fygallery/internal/scan"
	"fygallery/internal/tagging"
)

var (
	// ErrUnknownItem is returned for ids that are not in the loaded list.
	ErrUnknownItem = errors.New("unknown item")
	// ErrEmptySelection is returned when an intent names no items.
	ErrEmptySelection = errors.New("no items given")
	// ErrUnsupportedIntent is returned for intents the service cannot apply.
	ErrUnsupportedIntent = errors.New("unsupported intent")
	// ErrUnconfirmed is returned for a delete the user has not confirmed.
	ErrUnconfirmed = errors.New("delete not confirmed")
)

// TagStore abstracts the tagging DB for easier testing and decoupling.
type TagStore interface {
	AddTagsToItems(ids []string, tags []string) error
	RemoveTag(id, tag string) error
	GetTags(id string) ([]string, error)
	GetItems(tag string) ([]string, error)
	GetAllTags() ([]tagging.TagWithCount, error)
	RemoveAllTagsForItem(id string) error
	DeleteOrphanedTagKey(tag string) error
	ToggleFavorite(ids []string) (bool, error)
	IsFavorite(id string) (bool, error)
	Favorites() ([]string, error)
	Prune(live map[string]bool) (int, error)
	Close() error
}

// Scanner turns a directory into gallery items.
type Scanner func(dir string, logger scan.LoggerFunc) ([]gallery.Item, error)

// Thumbnailer queues thumbnail work.
type Thumbnailer interface {
	Enqueue(jobs ...pipeline.Job) error
	Regenerate(id, path string) error
	Missing(items []gallery.Item) []pipeline.Job
}

// Details is what the detail view shows about one item.
type Details struct {
	Item     gallery.Item
	Info     *ImageInfo
	Tags     []string
	Favorite bool
}

// Service is the main entry point for business logic.
type Service struct {
	TagDB        TagStore
	Scan         Scanner
	Thumbs       Thumbnailer
	Logger       func(string)
	ImageService *ImageService

	// SortKey orders a freshly scanned directory; Shuffle places new items
	// randomly instead.
	SortKey scan.SortKey
	Shuffle bool

	mu     sync.Mutex
	dir    string
	byID   map[string]gallery.Item
	order  *scan.Permutation
	view   *ViewManager
	filter func() (map[string]bool, error)
}

// NewService constructs a new Service. A nil scanner means scan.Run.
func NewService(tagDB TagStore, scanner Scanner, logger func(string)) *Service {
	if scanner == nil {
		scanner = scan.Run
	}
	if logger == nil {
		logger = func(string) {}
	}
	return &Service{
		TagDB:        tagDB,
		Scan:         scanner,
		Logger:       logger,
		ImageService: NewImageService(),
		SortKey:      scan.SortByPath,
		byID:         make(map[string]gallery.Item),
		order:        scan.NewPermutation(time.Now().UnixNano()),
		view:         NewViewManager(),
	}
}

// Load scans dir and makes it the current list. Missing thumbnails are
// queued when a Thumbnailer is set.
func (s *Service) Load(dir string) ([]gallery.Item, error) {
	items, err := s.Scan(dir, func(msg string) { s.Logger(msg) })
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", dir, err)
	}
	scan.Sort(items, s.SortKey)

	s.mu.Lock()
	if dir != s.dir {
		s.order = scan.NewPermutation(time.Now().UnixNano())
	}
	s.dir = dir
	s.setItemsLocked(s.order.Apply(items, s.Shuffle))
	current := s.view.GetCurrentList()
	s.mu.Unlock()

	s.Logger(fmt.Sprintf("Loaded %d images from %s", len(items), dir))
	if s.Thumbs != nil {
		if jobs := s.Thumbs.Missing(items); len(jobs) > 0 {
			if err := s.Thumbs.Enqueue(jobs...); err != nil {
				s.Logger(fmt.Sprintf("Could not queue thumbnails: %v", err))
			}
		}
	}
	return current, nil
}

// Reload rescans the current directory.
func (s *Service) Reload() ([]gallery.Item, error) {
	s.mu.Lock()
	dir := s.dir
	s.mu.Unlock()
	if dir == "" {
		return nil, errors.New("no directory loaded")
	}
	return s.Load(dir)
}

// Dir is the loaded directory.
func (s *Service) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir
}

func (s *Service) setItemsLocked(items []gallery.Item) {
	s.byID = make(map[string]gallery.Item, len(items))
	for _, it := range items {
		s.byID[it.ID] = it
	}
	var keep map[string]bool
	if s.filter != nil {
		var err error
		if keep, err = s.filter(); err != nil {
			s.Logger(fmt.Sprintf("Filter failed, showing everything: %v", err))
			s.filter = nil
			s.view.ClearFilter()
		}
	}
	s.view.SetImages(items, keep)
}

// Items returns the current, possibly filtered, list.
func (s *Service) Items() []gallery.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.GetCurrentList()
}

// Item returns the loaded item with id.
func (s *Service) Item(id string) (gallery.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	return it, ok
}

// Path returns the file path of id, or "".
func (s *Service) Path(id string) string {
	it, _ := s.Item(id)
	return it.Path
}

func idSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func (s *Service) setFilter(f func() (map[string]bool, error), desc string) ([]gallery.Item, error) {
	keep, err := f()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	s.view.ApplyFilter(keep, desc)
	return s.view.GetCurrentList(), nil
}

// FilterByTag shows only items carrying tag.
func (s *Service) FilterByTag(tag string) ([]gallery.Item, error) {
	if tag == "" {
		return nil, errors.New("tag cannot be empty")
	}
	return s.setFilter(func() (map[string]bool, error) {
		ids, err := s.TagDB.GetItems(tag)
		return idSet(ids), err
	}, "tag:"+tag)
}

// FilterFavorites shows only favourite items.
func (s *Service) FilterFavorites() ([]gallery.Item, error) {
	return s.setFilter(func() (map[string]bool, error) {
		ids, err := s.TagDB.Favorites()
		return idSet(ids), err
	}, "favorites")
}

// ClearFilter shows every item.
func (s *Service) ClearFilter() []gallery.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = nil
	s.view.ClearFilter()
	return s.view.GetCurrentList()
}

// Filter describes the active filter, or "".
func (s *Service) Filter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, desc := s.view.IsFiltered()
	return desc
}

// Apply carries out an intent raised by the gallery and returns the list
// the gallery should show next. The list is returned even when some ids
// failed, together with the joined errors.
func (s *Service) Apply(in gallery.Intent) ([]gallery.Item, error) {
	var err error
	switch in.Kind {
	case gallery.IntentOpenItem, gallery.IntentSelectAll, gallery.IntentClearSelection:
		// View-only intents.
	case gallery.IntentBatchDelete:
		err = s.deleteItems(in)
	case gallery.IntentBatchTag:
		err = s.tagItems(in.IDs, in.Tags)
	case gallery.IntentToggleFavorite:
		err = s.toggleFavorite(in.IDs)
	case gallery.IntentReorder:
		err = s.reorder(in.Order)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedIntent, in.Kind)
	}
	return s.Items(), err
}

func (s *Service) checkIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	known := make([]string, 0, len(ids))
	var errs []error
	for _, id := range ids {
		if _, ok := s.byID[id]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownItem, id))
			continue
		}
		known = append(known, id)
	}
	return known, errors.Join(errs...)
}

func (s *Service) deleteItems(in gallery.Intent) error {
	if !in.Confirmed {
		return ErrUnconfirmed
	}
	ids, err := s.checkIDs(in.IDs)
	errs := []error{err}

	removed := make(map[string]bool, len(ids))
	for _, id := range ids {
		it, _ := s.Item(id)
		if in.DeleteFile {
			if err := os.Remove(it.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Errorf("failed to delete file %s: %w", it.Path, err))
				continue
			}
		}
		if err := s.TagDB.RemoveAllTagsForItem(id); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove tags for %s: %w", id, err))
		}
		removed[id] = true
	}

	s.mu.Lock()
	kept := make([]gallery.Item, 0, len(s.byID))
	for _, it := range s.view.All() {
		if !removed[it.ID] {
			kept = append(kept, it)
		}
	}
	s.setItemsLocked(kept)
	s.mu.Unlock()

	verb := "Removed"
	if in.DeleteFile {
		verb = "Deleted"
	}
	s.Logger(fmt.Sprintf("%s %d of %d images", verb, len(removed), len(in.IDs)))
	return errors.Join(errs...)
}

func (s *Service) tagItems(ids, tags []string) error {
	var clean []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return errors.New("no tags given")
	}
	known, err := s.checkIDs(ids)
	if len(known) == 0 {
		return err
	}
	if tagErr := s.TagDB.AddTagsToItems(known, clean); tagErr != nil {
		return errors.Join(err, tagErr)
	}
	s.Logger(fmt.Sprintf("Applied tag(s) [%s] to %d images", strings.Join(clean, ", "), len(known)))
	return s.refreshFilter(err)
}

func (s *Service) toggleFavorite(ids []string) error {
	known, err := s.checkIDs(ids)
	if len(known) == 0 {
		return err
	}
	on, favErr := s.TagDB.ToggleFavorite(known)
	if favErr != nil {
		return errors.Join(err, favErr)
	}
	state := "Unstarred"
	if on {
		state = "Starred"
	}
	s.Logger(fmt.Sprintf("%s %d images", state, len(known)))
	return s.refreshFilter(err)
}

// refreshFilter reapplies an active filter after tags or favourites changed.
func (s *Service) refreshFilter(prev error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter != nil {
		s.setItemsLocked(s.view.All())
	}
	return prev
}

func (s *Service) reorder(order []string) error {
	if len(order) == 0 {
		return ErrEmptySelection
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order.Set(order)
	s.setItemsLocked(s.order.Apply(s.view.All(), false))
	return nil
}

// Regenerate drops and requeues the thumbnails of ids.
func (s *Service) Regenerate(ids []string) error {
	if s.Thumbs == nil {
		return errors.New("no thumbnail pipeline configured")
	}
	known, err := s.checkIDs(ids)
	errs := []error{err}
	for _, id := range known {
		if rerr := s.Thumbs.Regenerate(id, s.Path(id)); rerr != nil {
			errs = append(errs, rerr)
		}
	}
	return errors.Join(errs...)
}

// Describe gathers the detail view data of id.
func (s *Service) Describe(id string) (*Details, error) {
	it, ok := s.Item(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	info, err := s.ImageService.GetImageInfo(it.Path)
	if err != nil {
		return nil, err
	}
	tags, err := s.TagDB.GetTags(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags of %s: %w", id, err)
	}
	fav, err := s.TagDB.IsFavorite(id)
	if err != nil {
		return nil, fmt.Errorf("failed to read favourite of %s: %w", id, err)
	}
	return &Details{Item: it, Info: info, Tags: tags, Favorite: fav}, nil
}

// RemoveTags removes tags from one item.
func (s *Service) RemoveTags(id string, tags []string) error {
	if id == "" || len(tags) == 0 {
		return errors.New("id and tags required")
	}
	for _, tag := range tags {
		if err := s.TagDB.RemoveTag(id, tag); err != nil {
			return err
		}
	}
	return s.refreshFilter(nil)
}

// ListAllTags returns all tags with their item counts.
func (s *Service) ListAllTags() ([]tagging.TagWithCount, error) {
	return s.TagDB.GetAllTags()
}

// ReplaceTag replaces oldTag with newTag on every item.
func (s *Service) ReplaceTag(oldTag, newTag string) error {
	if oldTag == "" || newTag == "" || oldTag == newTag {
		return errors.New("invalid tags")
	}
	ids, err := s.TagDB.GetItems(oldTag)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		if err := s.TagDB.AddTagsToItems(ids, []string{newTag}); err != nil {
			return fmt.Errorf("adding new tag '%s': %w", newTag, err)
		}
	}
	var firstErr error
	for _, id := range ids {
		if err := s.TagDB.RemoveTag(id, oldTag); err != nil {
			s.Logger(fmt.Sprintf("ReplaceTag: failed to remove old tag '%s' from '%s': %v", oldTag, id, err))
			if firstErr == nil {
				firstErr = fmt.Errorf("removing old tag '%s' from '%s': %w", oldTag, id, err)
			}
		}
	}
	if err := s.TagDB.DeleteOrphanedTagKey(oldTag); err != nil {
		s.Logger(fmt.Sprintf("ReplaceTag: failed to delete old tag key '%s': %v", oldTag, err))
	}
	return firstErr
}

// RemoveTagGlobally removes tag from every item and returns how many items
// lost it. Failures are logged and the first one is returned.
func (s *Service) RemoveTagGlobally(tag string) (int, error) {
	if tag == "" {
		return 0, errors.New("tag cannot be empty")
	}
	ids, err := s.TagDB.GetItems(tag)
	if err != nil {
		return 0, fmt.Errorf("failed to get items for tag '%s': %w", tag, err)
	}
	removed := 0
	var firstErr error
	for _, id := range ids {
		if err := s.TagDB.RemoveTag(id, tag); err != nil {
			s.Logger(fmt.Sprintf("RemoveTagGlobally: failed to remove '%s' from '%s': %v", tag, id, err))
			if firstErr == nil {
				firstErr = fmt.Errorf("removing tag '%s' from '%s': %w", tag, id, err)
			}
			continue
		}
		removed++
	}
	if err := s.TagDB.DeleteOrphanedTagKey(tag); err != nil {
		s.Logger(fmt.Sprintf("RemoveTagGlobally: failed to delete tag key '%s': %v", tag, err))
	}
	return removed, s.refreshFilter(firstErr)
}

// CleanDatabase drops tags and favourites of items that are no longer in
// the loaded directory, then removes tag keys left without items.
func (s *Service) CleanDatabase() (itemsCleaned, tagsCleaned int, err error) {
	s.mu.Lock()
	live := make(map[string]bool, len(s.byID))
	for id := range s.byID {
		live[id] = true
	}
	s.mu.Unlock()

	itemsCleaned, err = s.TagDB.Prune(live)
	if err != nil {
		return 0, 0, err
	}
	allTags, err := s.TagDB.GetAllTags()
	if err != nil {
		return itemsCleaned, 0, fmt.Errorf("failed to get all tags: %w", err)
	}
	for _, tagInfo := range allTags {
		if tagInfo.Count == 0 {
			if err := s.TagDB.DeleteOrphanedTagKey(tagInfo.Name); err != nil {
				s.Logger(fmt.Sprintf("Error removing orphaned tag '%s': %v", tagInfo.Name, err))
			} else {
				tagsCleaned++
			}
		}
	}
	return itemsCleaned, tagsCleaned, nil
}
