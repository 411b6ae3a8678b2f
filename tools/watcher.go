package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce collapses editor save bursts into one reload
const watchDebounce = 250 * time.Millisecond

// Watcher reloads a Catalog when section files under its directory change
type Watcher struct {
	dir    string
	reload func() error
	fsw    *fsnotify.Watcher
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// debounce state
	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	stopped bool
	delay   time.Duration
}

// NewWatcher creates a watcher that reloads c when files under dir change
func NewWatcher(dir string, c *Catalog) (*Watcher, error) {
	return newWatcher(dir, func() error {
		_, err := c.Reload()
		return err
	})
}

func newWatcher(dir string, reload func() error) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		dir:    dir,
		reload: reload,
		fsw:    fsw,
		delay:  watchDebounce,
	}, nil
}

// Start watches dir and every directory below it
func (w *Watcher) Start(ctx context.Context) error {
	watched := 0
	err := filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		watched++
		return nil
	})
	if err != nil {
		w.fsw.Close()
		return err
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(ctx)

	log.Printf("✓ Watching %s for catalog changes (%d directories)", w.dir, watched)
	return nil
}

// Stop shuts down the watcher, cancels any pending reload and waits for
// a reload already in progress. No reload starts after Stop returns.
func (w *Watcher) Stop() {
	w.mu.Lock()
	w.stopped = true
	w.pending = false
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: Catalog watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}

	// New subdirectory: watch it and reload, it may already hold sections
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				log.Printf("Warning: Cannot watch %s: %v", event.Name, err)
			}
			w.scheduleReload()
			return
		}
	}

	// Removed or renamed paths may be directories; their extension tells nothing
	if !isSectionFile(event.Name) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.scheduleReload()
}

func isSectionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.pending = true

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if !w.pending || w.stopped {
		w.mu.Unlock()
		return
	}
	w.pending = false
	// Registered under mu so Stop's Wait covers it
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	log.Printf("Catalog files changed in %s, reloading...", w.dir)
	err := w.reload()
	switch {
	case err == nil:
	case errors.Is(err, ErrCatalogClosed):
		log.Printf("Catalog closed, skipping reload")
	default:
		log.Printf("Warning: Catalog reload failed, keeping previous catalog: %v", err)
	}
}
