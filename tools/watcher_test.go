package tools

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startCountingWatcher(t *testing.T, dir string, delay time.Duration) *atomic.Int32 {
	t.Helper()

	var reloads atomic.Int32
	w, err := newWatcher(dir, func() error {
		reloads.Add(1)
		return nil
	})
	require.NoError(t, err)
	w.delay = delay

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	return &reloads
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	reloads := startCountingWatcher(t, dir, 200*time.Millisecond)

	for _, name := range []string{"a.json", "b.yaml", "c.yml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
	}

	assert.Eventually(t, func() bool { return reloads.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), reloads.Load())
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	reloads := startCountingWatcher(t, dir, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0644))

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, reloads.Load())
}

func TestWatcher_WatchesNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	reloads := startCountingWatcher(t, dir, 20*time.Millisecond)

	sub := filepath.Join(dir, "advanced")
	require.NoError(t, os.Mkdir(sub, 0755))
	assert.Eventually(t, func() bool { return reloads.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	// Let the directory reload settle before writing into it
	time.Sleep(50 * time.Millisecond)
	before := reloads.Load()

	require.NoError(t, os.WriteFile(filepath.Join(sub, "04-more.json"), []byte("{}"), 0644))
	assert.Eventually(t, func() bool { return reloads.Load() > before }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_StartMissingDir(t *testing.T) {
	w, err := newWatcher(filepath.Join(t.TempDir(), "missing"), func() error { return nil })
	require.NoError(t, err)

	assert.Error(t, w.Start(context.Background()))
}

func TestWatcher_ReloadsCatalog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01-hooks.json"), []byte(hooksSectionJSON), 0644))

	c, err := NewCatalog(NewDirDataProvider(dir), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	w, err := NewWatcher(dir, c)
	require.NoError(t, err)
	w.delay = 20 * time.Millisecond
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "02-components.yaml"), []byte(componentsSectionYAML), 0644))

	assert.Eventually(t, func() bool {
		stats, err := c.Stats()
		return err == nil && stats.Sections == 2
	}, 2*time.Second, 20*time.Millisecond)

	// Broken file: the previous catalog stays active
	require.NoError(t, os.WriteFile(filepath.Join(dir, "03-broken.json"), []byte(`{"id":`), 0644))
	time.Sleep(150 * time.Millisecond)

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sections)
}

func TestWatcher_NoReloadAfterStop(t *testing.T) {
	var reloads atomic.Int32
	w, err := newWatcher(t.TempDir(), func() error {
		reloads.Add(1)
		return nil
	})
	require.NoError(t, err)
	w.delay = time.Hour
	require.NoError(t, w.Start(context.Background()))

	w.scheduleReload()
	w.Stop()

	// A timer that already fired runs flush after Stop
	w.flush()
	w.scheduleReload()
	w.flush()

	assert.Zero(t, reloads.Load())
}

func TestWatcher_ClosedCatalogIsNotAFailure(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01-hooks.json"), []byte(hooksSectionJSON), 0644))

	c, err := NewCatalog(NewDirDataProvider(dir), "", 0)
	require.NoError(t, err)
	w, err := NewWatcher(dir, c)
	require.NoError(t, err)
	w.delay = time.Hour

	require.NoError(t, c.Close())

	w.scheduleReload()
	w.flush()
	w.Stop()

	assert.NotContains(t, buf.String(), "reload failed")
	assert.Contains(t, buf.String(), "Catalog closed, skipping reload")
}
