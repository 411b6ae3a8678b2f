package tools

import (
	"embed"
	"io/fs"
)

// Embed the default catalog into the binary so the server works standalone
// without requiring a catalog directory on the filesystem.
//
// Section files are read in lexical order; the numeric prefix fixes the
// section order shown to clients.

//go:embed data/sections/*
var embeddedFS embed.FS

const embeddedRoot = "data/sections"

// embeddedDataProvider implements DataProvider using embed.FS.
// This is the production implementation that uses actual embedded files.
type embeddedDataProvider struct {
	fs embed.FS
}

// NewEmbeddedDataProvider creates a production DataProvider that uses embedded files.
func NewEmbeddedDataProvider() DataProvider {
	return &embeddedDataProvider{fs: embeddedFS}
}

// FS returns the embedded section directory
func (p *embeddedDataProvider) FS() (fs.FS, error) {
	return fs.Sub(p.fs, embeddedRoot)
}

func (p *embeddedDataProvider) Describe() string {
	return "embedded catalog"
}
