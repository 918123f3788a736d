// Package ingest discovers label photos on the local filesystem.
package ingest

import (
	"context"
	"time"
)

// Image is one label photo read from disk.
type Image struct {
	SourcePath string
	FileExt    string
	HashHex    string
	Size       int64
	ModTime    time.Time
	Data       []byte
}

// FileError records a path that matched but could not be loaded.
type FileError struct {
	SourcePath string
	Err        string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Loaded  uint32
	Failed  uint32
}

// Loader is the behavior the batch command depends on.
type Loader interface {
	// LoadPath reads a single image.
	LoadPath(ctx context.Context, path string) (Image, error)
	// LoadDirectory reads every matching image under root, in lexical order.
	LoadDirectory(ctx context.Context, root string, skipHidden bool) ([]Image, []FileError, DirStats, error)
}
