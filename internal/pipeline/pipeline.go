// Package pipeline generates thumbnails in the background and reports each
// step as a gallery.ProgressEvent.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"fygallery/internal/gallery"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultSize is the bounding box of generated thumbnails, in pixels.
	DefaultSize = 320
	jpegQuality = 85
)

// ErrClosed is returned by Enqueue after Shutdown.
var ErrClosed = errors.New("pipeline: generator is shut down")

// LoggerFunc defines a function signature for logging messages.
type LoggerFunc func(message string)

// Sink receives progress events. It is called from worker goroutines.
type Sink func(gallery.ProgressEvent)

// Job asks for the thumbnail of one item.
type Job struct {
	ID   string
	Path string
}

// Generator writes thumbnails into a cache directory using a worker pool.
type Generator struct {
	cacheDir string
	size     uint
	sink     Sink
	logger   LoggerFunc

	mu      sync.Mutex
	queue   []Job
	queued  map[string]bool
	closing bool
	total   int
	current int

	wake chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates a generator writing into cacheDir, creating it if needed.
// A zero size means DefaultSize.
func New(cacheDir string, size uint, sink Sink, logger LoggerFunc) (*Generator, error) {
	if cacheDir == "" {
		return nil, errors.New("pipeline: cache directory is required")
	}
	if err := os.MkdirAll(cacheDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail cache %s: %w", cacheDir, err)
	}
	if size == 0 {
		size = DefaultSize
	}
	return &Generator{
		cacheDir: cacheDir,
		size:     size,
		sink:     sink,
		logger:   logger,
		queued:   make(map[string]bool),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}, nil
}

func (g *Generator) logMessage(format string, args ...interface{}) {
	if g.logger != nil {
		g.logger(fmt.Sprintf(format, args...))
	} else {
		log.Printf(format, args...)
	}
}

func (g *Generator) emit(ev gallery.ProgressEvent) {
	if g.sink != nil {
		g.sink(ev)
	}
}

// ThumbnailPath is where the thumbnail of id is stored.
func (g *Generator) ThumbnailPath(id string) string {
	return filepath.Join(g.cacheDir, id+".jpg")
}

// Exists reports whether a thumbnail for id is on disk.
func (g *Generator) Exists(id string) bool {
	fi, err := os.Stat(g.ThumbnailPath(id))
	return err == nil && fi.Size() > 0
}

// Missing returns a job for every item without a cached thumbnail.
func (g *Generator) Missing(items []gallery.Item) []Job {
	var jobs []Job
	for _, it := range items {
		if !g.Exists(it.ID) {
			jobs = append(jobs, Job{ID: it.ID, Path: it.Path})
		}
	}
	return jobs
}

// tokenParam separates a thumbnail path from its cache token.
const tokenParam = "?t="

// Locator returns a gallery.LocatorFunc resolving thumbnails to the cache
// and originals through original. Thumbnail locators carry the cache token
// as a "?t=N" suffix once the item has been regenerated; FilePath strips it.
func (g *Generator) Locator(original func(id string) string) gallery.LocatorFunc {
	return func(id string, token gallery.Token, src gallery.Source) string {
		if src == gallery.SourceOriginal {
			return original(id)
		}
		loc := g.ThumbnailPath(id)
		if token != 0 {
			loc += tokenParam + strconv.FormatUint(uint64(token), 10)
		}
		return loc
	}
}

// FilePath returns the file a locator from Locator points at.
func FilePath(loc string) string {
	i := strings.LastIndex(loc, tokenParam)
	if i < 0 {
		return loc
	}
	if _, err := strconv.ParseUint(loc[i+len(tokenParam):], 10, 64); err != nil {
		return loc
	}
	return loc[:i]
}

// Generate builds the thumbnail for job synchronously.
func (g *Generator) Generate(job Job) error {
	g.emit(gallery.ProgressEvent{Stage: gallery.StageGenerating, ItemID: job.ID})

	err := g.write(job)

	g.mu.Lock()
	g.current++
	cur, total := g.current, g.total
	g.mu.Unlock()
	if total < cur {
		total = cur
	}

	if err != nil {
		g.emit(gallery.ProgressEvent{Stage: gallery.StageError, ItemID: job.ID, Message: err.Error(), Current: cur, Total: total})
		return err
	}
	g.emit(gallery.ProgressEvent{Stage: gallery.StageComplete, ItemID: job.ID, Current: cur, Total: total})
	return nil
}

func (g *Generator) write(job Job) error {
	f, err := os.Open(job.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", job.Path, err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", job.Path, err)
	}

	thumb := resize.Thumbnail(g.size, g.size, img, resize.Lanczos3)

	tmp, err := os.CreateTemp(g.cacheDir, job.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create thumbnail for %s: %w", job.ID, err)
	}
	if err := jpeg.Encode(tmp, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode thumbnail for %s: %w", job.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write thumbnail for %s: %w", job.ID, err)
	}
	if err := os.Rename(tmp.Name(), g.ThumbnailPath(job.ID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store thumbnail for %s: %w", job.ID, err)
	}
	return nil
}

// Enqueue adds jobs to the queue. Jobs for ids already queued are skipped.
func (g *Generator) Enqueue(jobs ...Job) error {
	g.mu.Lock()
	if g.closing {
		g.mu.Unlock()
		return ErrClosed
	}
	added := 0
	for _, j := range jobs {
		if j.ID == "" || g.queued[j.ID] {
			continue
		}
		g.queued[j.ID] = true
		g.queue = append(g.queue, j)
		added++
	}
	g.total += added
	g.mu.Unlock()

	if added > 0 {
		g.signal()
	}
	return nil
}

// Regenerate drops the cached thumbnail of id and queues a new one.
func (g *Generator) Regenerate(id, path string) error {
	if err := os.Remove(g.ThumbnailPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove thumbnail for %s: %w", id, err)
	}
	return g.Enqueue(Job{ID: id, Path: path})
}

// Pending is the number of queued jobs not yet picked up by a worker.
func (g *Generator) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}

func (g *Generator) signal() {
	select {
	case g.wake <- struct{}{}:
	default:
	}
}

func (g *Generator) next() (Job, bool, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queue) == 0 {
		return Job{}, false, g.closing
	}
	j := g.queue[0]
	g.queue = g.queue[1:]
	delete(g.queued, j.ID)
	if len(g.queue) > 0 {
		g.signal()
	}
	return j, true, g.closing
}

// Start launches workers that run until ctx is done or Shutdown drains
// the queue.
func (g *Generator) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		g.wg.Add(1)
		go g.worker(ctx)
	}
}

func (g *Generator) worker(ctx context.Context) {
	defer g.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		job, ok, closing := g.next()
		if ok {
			if err := g.Generate(job); err != nil {
				g.logMessage("thumbnail %s: %v", job.ID, err)
			}
			continue
		}
		if closing {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-g.wake:
		case <-g.stop:
		}
	}
}

// Shutdown stops accepting jobs, lets the workers finish the queue and
// waits for them.
func (g *Generator) Shutdown() {
	g.mu.Lock()
	if !g.closing {
		g.closing = true
		close(g.stop)
	}
	g.mu.Unlock()
	g.wg.Wait()
}
