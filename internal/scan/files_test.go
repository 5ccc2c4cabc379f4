package scan

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImage(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"image.PNG", true},
		{"image.jpg", true},
		{"image.jpeg", true},
		{"image.gif", true},
		{"image.webp", true},
		{"image.BMP", true},
		{"image.txt", false},
		{"image", false},
		{".jpeg", true}, // Test with only extension
	}

	for _, test := range tests {
		result := IsImage(test.name)
		if result != test.expected {
			t.Errorf("IsImage(%s) = %v; want %v", test.name, result, test.expected)
		}
	}
}

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestWalk(t *testing.T) {
	rootDir := t.TempDir()

	subDir1 := filepath.Join(rootDir, "sub1")
	subSubDir := filepath.Join(subDir1, "subsub")
	require.NoError(t, os.MkdirAll(subSubDir, 0755))
	require.NoError(t, os.Mkdir(filepath.Join(rootDir, "sub2"), 0755))

	// path: content size
	filesToCreate := map[string]int{
		filepath.Join(rootDir, "image1.png"):    10,
		filepath.Join(rootDir, "image2.JPG"):    10,
		filepath.Join(rootDir, "document.txt"):  10,
		filepath.Join(rootDir, "empty.gif"):     0, // skipped
		filepath.Join(subDir1, "image3.jpeg"):   10,
		filepath.Join(subDir1, "notes.md"):      10,
		filepath.Join(subSubDir, "image4.PNG"):  10,
		filepath.Join(subSubDir, "image5.webp"): 10,
	}
	for path, size := range filesToCreate {
		content := make([]byte, size)
		if size > 0 {
			content[0] = 'a'
		}
		if err := os.WriteFile(path, content, 0644); err != nil {
			t.Fatalf("Failed to write test file %s: %v", path, err)
		}
	}

	items, err := Walk(rootDir, func(message string) { t.Logf("ScanTestLogger: %s", message) })
	require.NoError(t, err)

	var paths []string
	for _, item := range items {
		paths = append(paths, item.Path)
		assert.Equal(t, int64(10), item.Size, item.Path)
	}
	assert.Equal(t, []string{
		filepath.Join(rootDir, "image1.png"),
		filepath.Join(rootDir, "image2.JPG"),
		filepath.Join(subDir1, "image3.jpeg"),
		filepath.Join(subSubDir, "image4.PNG"),
		filepath.Join(subSubDir, "image5.webp"),
	}, paths)
}

func TestWalkMissingDir(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.png")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = Walk(file, nil)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	rootDir := t.TempDir()
	writePNG(t, filepath.Join(rootDir, "a.png"), 4, 3, color.White)
	writePNG(t, filepath.Join(rootDir, "b.png"), 8, 8, color.Black)
	writePNG(t, filepath.Join(rootDir, "c_copy.png"), 4, 3, color.White) // same bytes as a.png
	require.NoError(t, os.WriteFile(filepath.Join(rootDir, "broken.png"), []byte("not a png"), 0644))

	var logs []string
	items, err := Run(rootDir, func(message string) { logs = append(logs, message) })
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, filepath.Join(rootDir, "a.png"), items[0].Path)
	assert.Equal(t, 4, items[0].Width)
	assert.Equal(t, 3, items[0].Height)
	assert.Len(t, items[0].ID, 64)
	assert.Equal(t, filepath.Join(rootDir, "b.png"), items[1].Path)
	assert.NotEqual(t, items[0].ID, items[1].ID)

	assert.Len(t, logs, 2, "one log for the broken file, one for the duplicate")
}

func TestDescribeStableID(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "x.png")
	writePNG(t, p, 2, 2, color.White)

	a, err := Describe(p)
	require.NoError(t, err)

	moved := filepath.Join(dir, "renamed.png")
	require.NoError(t, os.Rename(p, moved))
	b, err := Describe(moved)
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID, "id follows content, not path")
	assert.Equal(t, moved, b.Path)
}
