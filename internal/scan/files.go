// Package scan walks a directory tree and turns the images it finds into
// gallery items.
package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	iofs "io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"fygallery/internal/gallery"

	"github.com/charlievieth/fastwalk"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// LoggerFunc defines a function signature for logging messages.
type LoggerFunc func(message string)

// FileItem is an image file found by the walk.
type FileItem struct {
	Path string
	Size int64
}

// FileItems is a slice of FileItem
type FileItems []FileItem

// NewFileItem creates a new FileItem
func NewFileItem(p string, size int64) FileItem {
	return FileItem{Path: p, Size: size}
}

func logTo(logger LoggerFunc, format string, args ...interface{}) {
	if logger != nil {
		logger(fmt.Sprintf(format, args...))
		return
	}
	log.Printf(format, args...)
}

// Walk returns every non-empty image file under dir, sorted by path.
func Walk(dir string, logger LoggerFunc) (FileItems, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan %s: not a directory", dir)
	}

	var (
		mu    sync.Mutex
		items FileItems
	)
	conf := &fastwalk.Config{Follow: true}
	err = fastwalk.Walk(conf, dir, func(p string, d iofs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logTo(logger, "scan: skipping %s: %v", p, walkErr)
			return nil
		}
		if d.IsDir() || !IsImage(p) {
			return nil
		}
		fi, err := fastwalk.StatDirEntry(p, d)
		if err != nil {
			logTo(logger, "scan: stat %s: %v", p, err)
			return nil
		}
		if !fi.Mode().IsRegular() || fi.Size() == 0 {
			return nil
		}
		mu.Lock()
		items = append(items, NewFileItem(p, fi.Size()))
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}

// Run scans dir and returns one gallery item per distinct image content.
// Files with identical bytes collapse into the first path in sort order.
// Files that cannot be read or decoded are logged and skipped.
func Run(dir string, logger LoggerFunc) ([]gallery.Item, error) {
	files, err := Walk(dir, logger)
	if err != nil {
		return nil, err
	}

	items := make([]gallery.Item, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, f := range files {
		item, err := Describe(f.Path)
		if err != nil {
			logTo(logger, "scan: %v", err)
			continue
		}
		if first, dup := seen[item.ID]; dup {
			logTo(logger, "scan: %s duplicates %s", f.Path, first)
			continue
		}
		seen[item.ID] = f.Path
		items = append(items, item)
	}
	return items, nil
}

// Describe hashes and measures one image file.
func Describe(path string) (gallery.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return gallery.Item{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return gallery.Item{}, fmt.Errorf("hash %s: %w", path, err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return gallery.Item{}, fmt.Errorf("rewind %s: %w", path, err)
	}
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return gallery.Item{}, fmt.Errorf("decode %s: %w", path, err)
	}

	return gallery.Item{
		ID:       hex.EncodeToString(h.Sum(nil)),
		Width:    cfg.Width,
		Height:   cfg.Height,
		ByteSize: size,
		Path:     path,
	}, nil
}

// IsImage checks if a file is an image
func IsImage(n string) bool {
	switch strings.ToLower(filepath.Ext(n)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp":
		return true
	default:
		return false
	}
}
