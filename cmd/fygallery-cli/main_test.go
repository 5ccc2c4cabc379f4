package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fygallery/internal/prefs"
	"fygallery/internal/scan"
	"fygallery/internal/tagging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB returns a fresh database directory for one test.
func setupTestDB(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// executeCommandC builds a root command over the production opener and
// runs it with args, capturing its output.
func executeCommandC(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(openStores)
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Pix[0] = byte(len(name))
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return p
}

func TestRootHelp(t *testing.T) {
	stdout, err := executeCommandC(t, "", "--help")
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "fygallery-cli [command]")
	assert.Contains(t, stdout, "replay")
}

func TestLayoutCommand(t *testing.T) {
	stdout, err := executeCommandC(t, "", "layout", "--width", "1200", "--items", "20")
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "columns:    6\n")
	assert.Contains(t, stdout, "item size:  181\n")
	assert.Contains(t, stdout, "row height: 197\n")
	assert.Contains(t, stdout, "rows:       4\n")
	assert.Contains(t, stdout, "last row:   2\n")

	_, err = executeCommandC(t, "", "layout", "--tier", "huge")
	assert.Error(t, err)
}

func TestScanCommand(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 4, 3)
	writePNG(t, dir, "bb.png", 2, 2)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	stdout, err := executeCommandC(t, "", "scan", dir)
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "  4x3  ")
	assert.Contains(t, stdout, "  2x2  ")
	assert.NotContains(t, stdout, "notes.txt")
	assert.Contains(t, stdout, "2 images")
}

func TestTagCommands(t *testing.T) {
	dbPath := setupTestDB(t)

	stdout, err := executeCommandC(t, "", "--dbpath", dbPath, "tags")
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "No tags found.")

	stdout, err = executeCommandC(t, "", "--dbpath", dbPath, "tag", "abc", "beach", " ", "sunset")
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "Tagged abc with beach, sunset")

	_, err = executeCommandC(t, "", "--dbpath", dbPath, "tag", "def", "beach")
	require.NoError(t, err)

	stdout, err = executeCommandC(t, "", "--dbpath", dbPath, "tags", "abc")
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "beach, sunset")

	stdout, err = executeCommandC(t, "", "--dbpath", dbPath, "tags")
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "beach (2)")
	assert.Contains(t, stdout, "sunset (1)")

	_, err = executeCommandC(t, "", "--dbpath", dbPath, "untag", "abc", "sunset")
	require.NoError(t, err)
	stdout, err = executeCommandC(t, "", "--dbpath", dbPath, "tags", "abc")
	require.NoError(t, err, stdout)
	assert.Equal(t, "beach\n", stdout)
}

func TestFavoriteCommands(t *testing.T) {
	dbPath := setupTestDB(t)

	stdout, err := executeCommandC(t, "", "--dbpath", dbPath, "favorite", "abc", "def")
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "Starred 2 items")

	stdout, err = executeCommandC(t, "", "--dbpath", dbPath, "favorites")
	require.NoError(t, err, stdout)
	assert.ElementsMatch(t, []string{"abc", "def"}, strings.Fields(stdout))

	stdout, err = executeCommandC(t, "", "--dbpath", dbPath, "favorite", "abc", "def")
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "Unstarred 2 items")
}

func TestPrefsCommands(t *testing.T) {
	dbPath := setupTestDB(t)

	_, err := executeCommandC(t, "", "--dbpath", dbPath, "prefs", "set", prefs.KeyDensityTier, "large")
	require.NoError(t, err)
	stdout, err := executeCommandC(t, "", "--dbpath", dbPath, "prefs", "get", prefs.KeyDensityTier)
	require.NoError(t, err, stdout)
	assert.Equal(t, "large\n", stdout)

	_, err = executeCommandC(t, "", "--dbpath", dbPath, "prefs", "set", prefs.KeyDensityTier, "huge")
	assert.Error(t, err)

	stdout, err = executeCommandC(t, "", "--dbpath", dbPath, "prefs")
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, prefs.KeyDensityTier+"=large")

	_, err = executeCommandC(t, "", "--dbpath", dbPath, "prefs", "delete", prefs.KeyDensityTier)
	require.NoError(t, err)
	_, err = executeCommandC(t, "", "--dbpath", dbPath, "prefs", "get", prefs.KeyDensityTier)
	assert.ErrorIs(t, err, prefs.ErrNotFound)
}

func TestCleanCommand(t *testing.T) {
	dbPath := setupTestDB(t)
	dir := t.TempDir()
	p := writePNG(t, dir, "a.png", 2, 2)
	item, err := scan.Describe(p)
	require.NoError(t, err)

	tdb, err := tagging.NewTagDB(dbPath, func(string) {})
	require.NoError(t, err)
	require.NoError(t, tdb.AddTagsToItems([]string{item.ID, "gone"}, []string{"x"}))
	require.NoError(t, tdb.Close())

	stdout, err := executeCommandC(t, "", "--dbpath", dbPath, "clean", dir)
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "Cleaned 1 items")

	stdout, err = executeCommandC(t, "", "--dbpath", dbPath, "tags")
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "x (1)")
}

func TestThumbsCommand(t *testing.T) {
	dir := t.TempDir()
	cache := t.TempDir()
	p := writePNG(t, dir, "a.png", 40, 20)
	item, err := scan.Describe(p)
	require.NoError(t, err)

	stdout, err := executeCommandC(t, "", "thumbs", dir, "--cache-dir", cache, "--workers", "2")
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "Processed 1 of 1 images")
	assert.FileExists(t, filepath.Join(cache, item.ID+".jpg"))

	stdout, err = executeCommandC(t, "", "thumbs", dir, "--cache-dir", cache)
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "Processed 0 of 1 images")
}

func TestReplaySelection(t *testing.T) {
	dbPath := setupTestDB(t)
	script := `
# open, close, then select a range
resize 1200 600
click 2
key escape
click 1 ctrl
click 3 shift
show
key delete
intents
`
	stdout, err := executeCommandC(t, script, "--dbpath", dbPath, "replay", "-", "--items", "20", "--overscan", "0")
	require.NoError(t, err, stdout)

	assert.Contains(t, stdout, "intent: open-item [item-002]")
	assert.Contains(t, stdout, "detail: item-002")
	assert.Contains(t, stdout, "detail: closed")
	assert.Contains(t, stdout, "layout: columns=6 item=181 row=197 rows=4")
	assert.Contains(t, stdout, "window: rows 0-3")
	assert.Contains(t, stdout, "selection: mode=active count=3")
	assert.Contains(t, stdout, "intent: batch-delete [item-001 item-002 item-003] deleteFile=false confirmed=false")
	assert.Contains(t, stdout, "  2 batch-delete")
}

func TestReplayAssetEvents(t *testing.T) {
	dbPath := setupTestDB(t)
	script := `
resize 1200 600
load @0 ok
load @0 ok
progress complete ghost
progress generating @1
show cells
`
	stdout, err := executeCommandC(t, script, "--dbpath", dbPath, "replay", "-", "--items", "20")
	require.NoError(t, err, stdout)

	assert.Contains(t, stdout, "load item-000: not pending")
	assert.Contains(t, stdout, "progress complete ghost: ignored")
	assert.Contains(t, stdout, "  item-000 image token=0 src=thumbnail\n")
	assert.Contains(t, stdout, "  item-001 skeleton token=0 src=thumbnail busy\n")
	assert.Contains(t, stdout, "ignored=1")
}

func TestReplayErrors(t *testing.T) {
	dbPath := setupTestDB(t)

	_, err := executeCommandC(t, "jump 3\n", "--dbpath", dbPath, "replay", "-", "--items", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")

	_, err = executeCommandC(t, "resize 100\n", "--dbpath", dbPath, "replay", "-")
	assert.ErrorIs(t, err, errUsage)
}

func TestReplayAppliesIntents(t *testing.T) {
	dbPath := setupTestDB(t)
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 2, 2)
	writePNG(t, dir, "bb.png", 3, 3)
	writePNG(t, dir, "ccc.png", 4, 4)

	script := `
resize 800 600
click 0 ctrl
click 1 ctrl
tag trip
key delete
show
`
	stdout, err := executeCommandC(t, script, "--dbpath", dbPath, "replay", "-", "--dir", dir)
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "intent: batch-tag")
	assert.Contains(t, stdout, "selection: mode=idle count=0")
	assert.FileExists(t, filepath.Join(dir, "a.png"))

	stdout, err = executeCommandC(t, "", "--dbpath", dbPath, "tags")
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "No tags found.")
}
