package tools

import (
	"io/fs"
	"os"
)

// DataProvider defines the interface for accessing catalog section files.
// This abstraction allows for dependency injection and makes the code testable
// without requiring actual embedded files to be present.
//
// Implementations:
//   - embeddedDataProvider: Uses embed.FS for production (sections built into the binary)
//   - dirDataProvider: Uses a directory on disk (catalog_dir setting)
type DataProvider interface {
	// FS returns the file tree holding the section files, rooted at the catalog root.
	FS() (fs.FS, error)

	// Describe names the source in log lines.
	Describe() string
}

// dirDataProvider implements DataProvider over a local directory
type dirDataProvider struct {
	dir string
}

// NewDirDataProvider creates a DataProvider reading sections from dir
func NewDirDataProvider(dir string) DataProvider {
	return &dirDataProvider{dir: dir}
}

func (p *dirDataProvider) FS() (fs.FS, error) {
	info, err := os.Stat(p.dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: p.dir, Err: fs.ErrInvalid}
	}
	return os.DirFS(p.dir), nil
}

func (p *dirDataProvider) Describe() string {
	return p.dir
}
