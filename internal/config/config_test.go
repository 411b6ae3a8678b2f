package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	catalogDir := filepath.Join(dir, "sections")
	require.NoError(t, os.Mkdir(catalogDir, 0755))

	path := filepath.Join(dir, "refcat.yml")
	content := "catalog_dir: " + catalogDir + "\n" +
		"watch: true\n" +
		"http_addr: \":9000\"\n" +
		"cors_origins:\n  - https://docs.example.com\n" +
		"render_cache_size: 32\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("REFCAT_HTTP_ADDR", "127.0.0.1:8088")
	t.Setenv("REFCAT_VERBOSE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, catalogDir, cfg.CatalogDir)
	assert.True(t, cfg.Watch)
	assert.Equal(t, "127.0.0.1:8088", cfg.HTTPAddr)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, []string{"https://docs.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 32, cfg.RenderCacheSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvListIsCommaSeparated(t *testing.T) {
	t.Setenv("REFCAT_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("watch: [oops"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "reading config")
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	notDir := filepath.Join(dir, "file.json")
	require.NoError(t, os.WriteFile(notDir, []byte("{}"), 0644))

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "watch without dir",
			mutate:  func(c *Config) { c.Watch = true },
			wantErr: "watch requires catalog_dir",
		},
		{
			name:    "missing dir",
			mutate:  func(c *Config) { c.CatalogDir = filepath.Join(dir, "nope") },
			wantErr: "catalog_dir",
		},
		{
			name:    "dir is a file",
			mutate:  func(c *Config) { c.CatalogDir = notDir },
			wantErr: "is not a directory",
		},
		{
			name:    "empty pattern",
			mutate:  func(c *Config) { c.CatalogPattern = "" },
			wantErr: "catalog_pattern is required",
		},
		{
			name:    "negative cache size",
			mutate:  func(c *Config) { c.RenderCacheSize = -1 },
			wantErr: "render_cache_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}
