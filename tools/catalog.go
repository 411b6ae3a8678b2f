package tools

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/refcat/mcp-server/internal/catalog"
	"github.com/refcat/mcp-server/internal/facets"
	"github.com/refcat/mcp-server/internal/render"
	"github.com/refcat/mcp-server/internal/search"
)

// ErrCatalogClosed is returned by reads after Close
var ErrCatalogClosed = errors.New("catalog closed")

// snapshot is one immutable generation of the catalog and everything derived from it
type snapshot struct {
	store    *catalog.Store
	index    []search.Entry
	browser  *facets.Browser
	renderer *render.Renderer
	loadedAt time.Time
}

// Catalog manages concurrent access to the loaded catalog
type Catalog struct {
	// current holds the active snapshot (atomic access for lock-free reads)
	current atomic.Pointer[snapshot]

	// refreshMu prevents concurrent reloads
	// NOT used for reads - they are lock-free via atomic pointer
	refreshMu sync.Mutex

	// wg tracks in-flight reads for graceful cleanup of old snapshots
	wg sync.WaitGroup

	provider  DataProvider
	pattern   string
	cacheSize int
	verbose   atomic.Bool
	closed    atomic.Bool
}

// NewCatalog loads the catalog from provider and builds its first snapshot.
// cacheSize bounds each snapshot's rendered HTML cache; 0 uses the default.
func NewCatalog(provider DataProvider, pattern string, cacheSize int) (*Catalog, error) {
	if pattern == "" {
		pattern = catalog.DefaultPattern
	}
	c := &Catalog{
		provider:  provider,
		pattern:   pattern,
		cacheSize: cacheSize,
	}
	if _, err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// SetVerbose toggles per-request debug logging
func (c *Catalog) SetVerbose(v bool) {
	c.verbose.Store(v)
}

func (c *Catalog) debugf(format string, args ...any) {
	if c.verbose.Load() {
		log.Printf("[debug] "+format, args...)
	}
}

// Renderer returns the active snapshot's renderer, or nil after Close
func (c *Catalog) Renderer() *render.Renderer {
	snap := c.current.Load()
	if snap == nil {
		return nil
	}
	return snap.renderer
}

func buildSnapshot(provider DataProvider, pattern string, cacheSize int) (*snapshot, error) {
	fsys, err := provider.FS()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", provider.Describe(), err)
	}

	sections, err := catalog.Load(fsys, pattern)
	if err != nil {
		return nil, err
	}

	renderer, err := render.New(cacheSize)
	if err != nil {
		return nil, err
	}

	browser, err := facets.New(sections)
	if err != nil {
		return nil, err
	}

	return &snapshot{
		store:    catalog.NewStore(sections),
		index:    search.BuildIndex(sections),
		browser:  browser,
		renderer: renderer,
		loadedAt: time.Now(),
	}, nil
}

// Reload rebuilds the catalog from its provider and swaps it in atomically.
// On failure the previous snapshot stays active.
func (c *Catalog) Reload() (catalog.Stats, error) {
	// Serialize reloads (prevent concurrent rebuilds)
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.closed.Load() {
		return catalog.Stats{}, ErrCatalogClosed
	}

	startTime := time.Now()
	log.Printf("Loading catalog from %s...", c.provider.Describe())

	next, err := buildSnapshot(c.provider, c.pattern, c.cacheSize)
	if err != nil {
		return catalog.Stats{}, fmt.Errorf("catalog load failed: %w", err)
	}

	// ATOMIC SWAP: readers see either the old or the new snapshot, never a mix
	old := c.current.Swap(next)

	// Graceful cleanup of old snapshot in background
	if old != nil {
		go func(old *snapshot) {
			// Wait for all in-flight reads on old snapshot to complete
			c.wg.Wait()
			if err := old.browser.Close(); err != nil {
				log.Printf("Warning: Error closing old facet index: %v", err)
			}
		}(old)
	}

	stats := next.store.Stats()
	log.Printf("✓ Catalog loaded (%d sections, %d items, %d examples) in %v",
		stats.Sections, stats.Items, stats.Examples, time.Since(startTime).Round(time.Millisecond))
	return stats, nil
}

// acquire returns the active snapshot and a release func that must be called when done
func (c *Catalog) acquire() (*snapshot, func(), error) {
	// Track in-flight reads (MUST be before Load)
	c.wg.Add(1)
	snap := c.current.Load()
	if snap == nil {
		c.wg.Done()
		return nil, nil, ErrCatalogClosed
	}
	return snap, c.wg.Done, nil
}

// Stats returns the counts of the active snapshot
func (c *Catalog) Stats() (catalog.Stats, error) {
	snap, release, err := c.acquire()
	if err != nil {
		return catalog.Stats{}, err
	}
	defer release()
	return snap.store.Stats(), nil
}

// LoadedAt returns when the active snapshot was built
func (c *Catalog) LoadedAt() time.Time {
	snap := c.current.Load()
	if snap == nil {
		return time.Time{}
	}
	return snap.loadedAt
}

// Close releases the active snapshot after in-flight reads finish
func (c *Catalog) Close() error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.closed.Store(true)
	snap := c.current.Swap(nil)
	if snap == nil {
		return nil
	}

	c.wg.Wait()
	if err := snap.browser.Close(); err != nil {
		return fmt.Errorf("failed to close facet index: %w", err)
	}
	log.Printf("✓ Catalog closed")
	return nil
}
