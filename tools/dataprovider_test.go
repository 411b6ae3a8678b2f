package tools

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedDataProvider(t *testing.T) {
	provider := NewEmbeddedDataProvider()

	fsys, err := provider.FS()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// Section files sit at the root of the sub tree
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		t.Fatalf("Failed to read embedded root: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected 3 embedded section files, got: %d", len(entries))
	}

	if _, err := fs.Stat(fsys, "01-react-core-concepts.json"); err != nil {
		t.Errorf("Expected first section file, got: %v", err)
	}

	if provider.Describe() != "embedded catalog" {
		t.Errorf("Unexpected description: %s", provider.Describe())
	}
}

func TestDirDataProvider(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "01-hooks.json"), []byte(hooksSectionJSON), 0644); err != nil {
		t.Fatalf("Failed to write section: %v", err)
	}

	provider := NewDirDataProvider(dir)
	fsys, err := provider.FS()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	content, err := fs.ReadFile(fsys, "01-hooks.json")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(content) != hooksSectionJSON {
		t.Error("Content read through provider differs from file")
	}
	if provider.Describe() != dir {
		t.Errorf("Expected description %s, got: %s", dir, provider.Describe())
	}
}

func TestDirDataProvider_Errors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "section.json")
	if err := os.WriteFile(file, []byte("{}"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	// Missing directory
	_, err := NewDirDataProvider(filepath.Join(dir, "missing")).FS()
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got: %v", err)
	}

	// A file is not a catalog directory
	_, err = NewDirDataProvider(file).FS()
	if !errors.Is(err, fs.ErrInvalid) {
		t.Errorf("Expected fs.ErrInvalid, got: %v", err)
	}
}
