// internal/storage/source/interface.go
package source

import (
	"context"
	"time"
)

// Info describes a stored panel file.
type Info struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Storage defines the read side of a panel file backend
type Storage interface {
	// Name identifies the backend and its root, e.g. "file:///data" or "s3://bucket/prefix"
	Name() string

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// Stat returns size and modification time of the given path
	Stat(ctx context.Context, path string) (Info, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}
