package ui

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"fygallery/internal/gallery"
	"fygallery/internal/pipeline"

	"fyne.io/fyne/v2"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultLoaderWorkers bounds concurrent decodes.
	DefaultLoaderWorkers = 8
	// maxCellImage is the largest edge kept in memory for a grid cell.
	maxCellImage = 480
)

type loadedImage struct {
	loc   string
	token gallery.Token
	src   gallery.Source
	img   image.Image
}

// ImageLoader decodes cell images off the UI goroutine. Results are handed
// back on the UI goroutine, where the cache lives.
type ImageLoader struct {
	cache  map[string]loadedImage
	sem    chan struct{}
	maxDim uint
	logger func(string)
}

// NewImageLoader creates a loader running at most workers decodes at once.
func NewImageLoader(workers int, maxDim uint, logger func(string)) *ImageLoader {
	if workers <= 0 {
		workers = DefaultLoaderWorkers
	}
	if maxDim == 0 {
		maxDim = maxCellImage
	}
	return &ImageLoader{
		cache:  make(map[string]loadedImage),
		sem:    make(chan struct{}, workers),
		maxDim: maxDim,
		logger: logger,
	}
}

// Image returns the last image decoded for id.
func (l *ImageLoader) Image(id string) (image.Image, bool) {
	li, ok := l.cache[id]
	return li.img, ok
}

// Retain drops cached images of ids not in live.
func (l *ImageLoader) Retain(live map[string]bool) {
	for id := range l.cache {
		if !live[id] {
			delete(l.cache, id)
		}
	}
}

// Load decodes the file behind loc in the background. report runs on the
// UI goroutine and returns whether the engine accepted the outcome; a
// rejected image is not cached. The locator carries the cache token, so an
// image already decoded for the same locator is reused.
func (l *ImageLoader) Load(id string, token gallery.Token, src gallery.Source, loc string, report func(ok bool) bool) {
	cached, hit := l.cache[id]
	hit = hit && cached.loc == loc
	path := pipeline.FilePath(loc)
	go func() {
		if hit {
			fyne.Do(func() { report(true) })
			return
		}
		l.sem <- struct{}{}
		img, err := decodeScaled(path, l.maxDim)
		<-l.sem
		if err != nil && l.logger != nil {
			l.logger(fmt.Sprintf("Load %s (%s): %v", filepath.Base(path), src, err))
		}
		fyne.Do(func() {
			if err != nil {
				report(false)
				return
			}
			prev, had := l.cache[id]
			l.cache[id] = loadedImage{loc: loc, token: token, src: src, img: img}
			if !report(true) {
				if had {
					l.cache[id] = prev
				} else {
					delete(l.cache, id)
				}
			}
		})
	}()
}

// decodeScaled decodes path and shrinks it to fit a maxDim square.
func decodeScaled(path string, maxDim uint) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("unable to decode image: %w", err)
	}
	b := img.Bounds()
	if maxDim > 0 && (uint(b.Dx()) > maxDim || uint(b.Dy()) > maxDim) {
		img = resize.Thumbnail(maxDim, maxDim, img, resize.Bilinear)
	}
	return img, nil
}
