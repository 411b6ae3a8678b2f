package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/refcat/mcp-server/internal/catalog"
)

// EnvPrefix prefixes every environment override, e.g. REFCAT_HTTP_ADDR
const EnvPrefix = "REFCAT_"

// Config holds the server settings
type Config struct {
	CatalogDir      string   `koanf:"catalog_dir"`     // Empty serves the embedded catalog
	CatalogPattern  string   `koanf:"catalog_pattern"` // Doublestar glob below CatalogDir
	Watch           bool     `koanf:"watch"`           // Reload CatalogDir on changes
	HTTPAddr        string   `koanf:"http_addr"`       // Empty serves MCP over stdio
	CORSOrigins     []string `koanf:"cors_origins"`
	RenderCacheSize int      `koanf:"render_cache_size"`
	Verbose         bool     `koanf:"verbose"`
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() *Config {
	return &Config{
		CatalogPattern:  catalog.DefaultPattern,
		CORSOrigins:     []string{"*"},
		RenderCacheSize: 256,
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (REFCAT_*). A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	// REFCAT_HTTP_ADDR -> http_addr, etc.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	// Comma separated lists from the environment
	if raw, ok := k.Get("cors_origins").(string); ok {
		if err := k.Set("cors_origins", splitList(raw)); err != nil {
			return nil, fmt.Errorf("parsing cors_origins: %w", err)
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration contains valid values
func (c *Config) Validate() error {
	if c.Watch && c.CatalogDir == "" {
		return fmt.Errorf("watch requires catalog_dir")
	}

	if c.CatalogDir != "" {
		info, err := os.Stat(c.CatalogDir)
		if err != nil {
			return fmt.Errorf("catalog_dir %s: %w", c.CatalogDir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("catalog_dir %s is not a directory", c.CatalogDir)
		}
	}

	if c.CatalogPattern == "" {
		return fmt.Errorf("catalog_pattern is required")
	}

	if c.RenderCacheSize < 0 {
		return fmt.Errorf("render_cache_size must be non-negative")
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
