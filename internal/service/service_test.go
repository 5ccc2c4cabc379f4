package service

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"fygallery/internal/gallery"
	"fygallery/internal/pipeline"
	"fygallery/internal/scan"
	"fygallery/internal/tagging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeThumbs struct {
	queued      []pipeline.Job
	regenerated []string
}

func (f *fakeThumbs) Enqueue(jobs ...pipeline.Job) error {
	f.queued = append(f.queued, jobs...)
	return nil
}

func (f *fakeThumbs) Regenerate(id, path string) error {
	f.regenerated = append(f.regenerated, id)
	return nil
}

func (f *fakeThumbs) Missing(items []gallery.Item) []pipeline.Job {
	jobs := make([]pipeline.Job, 0, len(items))
	for _, it := range items {
		jobs = append(jobs, pipeline.Job{ID: it.ID, Path: it.Path})
	}
	return jobs
}

// setupService creates a service over a temp directory holding one small
// PNG per name.
func setupService(t *testing.T, names ...string) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		f, err := os.Create(filepath.Join(dir, n+".png"))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 3, 2))))
		require.NoError(t, f.Close())
	}

	tdb, err := tagging.NewTagDB(t.TempDir(), func(string) {})
	require.NoError(t, err)
	t.Cleanup(func() { tdb.Close() })

	// Ids are the file names so tests can address items directly.
	scanner := func(d string, logger scan.LoggerFunc) ([]gallery.Item, error) {
		files, err := scan.Walk(d, logger)
		if err != nil {
			return nil, err
		}
		items := make([]gallery.Item, 0, len(files))
		for _, f := range files {
			base := filepath.Base(f.Path)
			items = append(items, gallery.Item{ID: base[:len(base)-len(".png")], Path: f.Path, ByteSize: f.Size})
		}
		return items, nil
	}
	return NewService(tdb, scanner, func(string) {}), dir
}

func itemIDs(items []gallery.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestLoad(t *testing.T) {
	s, dir := setupService(t, "c", "a", "b")
	thumbs := &fakeThumbs{}
	s.Thumbs = thumbs

	items, err := s.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, itemIDs(items))
	assert.Equal(t, dir, s.Dir())
	assert.Len(t, thumbs.queued, 3)

	_, err = s.Load(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestApplyDeleteRequiresConfirmation(t *testing.T) {
	s, dir := setupService(t, "a", "b")
	_, err := s.Load(dir)
	require.NoError(t, err)

	items, err := s.Apply(gallery.Intent{Kind: gallery.IntentBatchDelete, IDs: []string{"a"}})
	assert.ErrorIs(t, err, ErrUnconfirmed)
	assert.Len(t, items, 2)
}

func TestApplyDeleteKeepsFileUnlessAsked(t *testing.T) {
	s, dir := setupService(t, "a", "b", "c")
	_, err := s.Load(dir)
	require.NoError(t, err)
	require.NoError(t, s.TagDB.AddTagsToItems([]string{"a"}, []string{"x"}))

	in := gallery.Intent{Kind: gallery.IntentBatchDelete, IDs: []string{"a"}}
	items, err := s.Apply(in.Confirm(false))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, itemIDs(items))
	assert.FileExists(t, filepath.Join(dir, "a.png"))
	tags, err := s.TagDB.GetTags("a")
	require.NoError(t, err)
	assert.Empty(t, tags)

	in = gallery.Intent{Kind: gallery.IntentBatchDelete, IDs: []string{"b", "ghost"}}
	items, err = s.Apply(in.Confirm(true))
	assert.ErrorIs(t, err, ErrUnknownItem)
	assert.Equal(t, []string{"c"}, itemIDs(items))
	assert.NoFileExists(t, filepath.Join(dir, "b.png"))
}

func TestApplyTag(t *testing.T) {
	s, dir := setupService(t, "a", "b")
	_, err := s.Load(dir)
	require.NoError(t, err)

	_, err = s.Apply(gallery.Intent{Kind: gallery.IntentBatchTag, IDs: []string{"a", "b"}, Tags: []string{" beach ", ""}})
	require.NoError(t, err)
	ids, err := s.TagDB.GetItems("beach")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	_, err = s.Apply(gallery.Intent{Kind: gallery.IntentBatchTag, IDs: []string{"a"}})
	assert.Error(t, err)

	_, err = s.Apply(gallery.Intent{Kind: gallery.IntentBatchTag, Tags: []string{"x"}})
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestApplyToggleFavoriteAndFilter(t *testing.T) {
	s, dir := setupService(t, "a", "b", "c")
	_, err := s.Load(dir)
	require.NoError(t, err)

	_, err = s.Apply(gallery.Intent{Kind: gallery.IntentToggleFavorite, IDs: []string{"a"}})
	require.NoError(t, err)

	items, err := s.FilterFavorites()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, itemIDs(items))
	assert.Equal(t, "favorites", s.Filter())

	// a is starred but b is not, so both end up starred.
	items, err = s.Apply(gallery.Intent{Kind: gallery.IntentToggleFavorite, IDs: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, itemIDs(items))

	items, err = s.Apply(gallery.Intent{Kind: gallery.IntentToggleFavorite, IDs: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Empty(t, items)

	items = s.ClearFilter()
	assert.Len(t, items, 3)
	assert.Empty(t, s.Filter())
}

func TestFilterByTag(t *testing.T) {
	s, dir := setupService(t, "a", "b", "c")
	_, err := s.Load(dir)
	require.NoError(t, err)
	require.NoError(t, s.TagDB.AddTagsToItems([]string{"c"}, []string{"cats"}))

	items, err := s.FilterByTag("cats")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, itemIDs(items))

	items, err = s.Apply(gallery.Intent{Kind: gallery.IntentBatchTag, IDs: []string{"a"}, Tags: []string{"cats"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, itemIDs(items))

	_, err = s.FilterByTag("")
	assert.Error(t, err)
}

func TestApplyReorderSurvivesReload(t *testing.T) {
	s, dir := setupService(t, "a", "b", "c")
	_, err := s.Load(dir)
	require.NoError(t, err)

	items, err := s.Apply(gallery.Intent{Kind: gallery.IntentReorder, Order: []string{"c", "a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, itemIDs(items))

	items, err = s.Reload()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, itemIDs(items))
}

func TestApplyViewOnlyAndUnsupported(t *testing.T) {
	s, dir := setupService(t, "a")
	_, err := s.Load(dir)
	require.NoError(t, err)

	_, err = s.Apply(gallery.Intent{Kind: gallery.IntentOpenItem, IDs: []string{"a"}})
	assert.NoError(t, err)
	_, err = s.Apply(gallery.Intent{Kind: gallery.IntentKind(99)})
	assert.ErrorIs(t, err, ErrUnsupportedIntent)
}

func TestDescribe(t *testing.T) {
	s, dir := setupService(t, "a")
	_, err := s.Load(dir)
	require.NoError(t, err)
	require.NoError(t, s.TagDB.AddTagsToItems([]string{"a"}, []string{"x"}))

	d, err := s.Describe("a")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Info.Width)
	assert.Equal(t, 2, d.Info.Height)
	assert.Equal(t, "png", d.Info.Format)
	assert.Nil(t, d.Info.EXIFData)
	assert.Equal(t, []string{"x"}, d.Tags)
	assert.False(t, d.Favorite)

	_, err = s.Describe("ghost")
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestRegenerate(t *testing.T) {
	s, dir := setupService(t, "a")
	_, err := s.Load(dir)
	require.NoError(t, err)
	assert.Error(t, s.Regenerate([]string{"a"}))

	thumbs := &fakeThumbs{}
	s.Thumbs = thumbs
	err = s.Regenerate([]string{"a", "ghost"})
	assert.ErrorIs(t, err, ErrUnknownItem)
	assert.Equal(t, []string{"a"}, thumbs.regenerated)
}

func TestCleanDatabase(t *testing.T) {
	s, dir := setupService(t, "a")
	_, err := s.Load(dir)
	require.NoError(t, err)
	require.NoError(t, s.TagDB.AddTagsToItems([]string{"a", "gone"}, []string{"x"}))

	items, tags, err := s.CleanDatabase()
	require.NoError(t, err)
	assert.Equal(t, 1, items)
	assert.Zero(t, tags)

	ids, err := s.TagDB.GetItems("x")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestReplaceTag(t *testing.T) {
	s, _ := setupService(t)
	require.NoError(t, s.TagDB.AddTagsToItems([]string{"a", "b"}, []string{"Old"}))
	require.NoError(t, s.ReplaceTag("Old", "new"))

	all, err := s.ListAllTags()
	require.NoError(t, err)
	assert.Equal(t, []tagging.TagWithCount{{Name: "new", Count: 2}}, all)
	assert.Error(t, s.ReplaceTag("same", "same"))
}

func TestRemoveTagGlobally(t *testing.T) {
	s, dir := setupService(t, "a", "b")
	_, err := s.Load(dir)
	require.NoError(t, err)
	require.NoError(t, s.TagDB.AddTagsToItems([]string{"a", "b"}, []string{"x", "y"}))

	n, err := s.RemoveTagGlobally("x")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := s.ListAllTags()
	require.NoError(t, err)
	assert.Equal(t, []tagging.TagWithCount{{Name: "y", Count: 2}}, all)

	_, err = s.RemoveTagGlobally("")
	assert.Error(t, err)
}

func TestViewManager(t *testing.T) {
	vm := NewViewManager()
	all := []gallery.Item{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	vm.SetImages(all, nil)
	assert.Equal(t, 3, vm.GetCurrentImageCount())

	vm.ApplyFilter(map[string]bool{"b": true}, "tag:x")
	assert.Equal(t, []gallery.Item{{ID: "b"}}, vm.GetCurrentList())
	filtered, desc := vm.IsFiltered()
	assert.True(t, filtered)
	assert.Equal(t, "tag:x", desc)

	vm.SetImages(all[:1], map[string]bool{"a": true})
	assert.Equal(t, 1, vm.GetCurrentImageCount())

	vm.ClearFilter()
	assert.Len(t, vm.GetCurrentList(), 1)
}
