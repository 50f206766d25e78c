// internal/storage/source/localfs.go
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

var _ Storage = (*LocalFS)(nil)

// LocalFS implements Storage for a local data directory
type LocalFS struct {
	basePath string
}

// NewLocalFS creates a LocalFS rooted at an existing directory
func NewLocalFS(basePath string) (*LocalFS, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolving base path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening data dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data dir %s is not a directory", abs)
	}
	return &LocalFS{basePath: abs}, nil
}

func (l *LocalFS) fullPath(path string) string {
	return filepath.Join(l.basePath, path)
}

func (l *LocalFS) Name() string {
	return "file://" + filepath.ToSlash(l.basePath)
}

func (l *LocalFS) Read(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(l.fullPath(path))
}

func (l *LocalFS) Stat(ctx context.Context, path string) (Info, error) {
	fi, err := os.Stat(l.fullPath(path))
	if err != nil {
		return Info{}, err
	}
	return Info{Path: path, Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

func (l *LocalFS) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	searchPath := l.fullPath(prefix)

	err := filepath.Walk(searchPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			relPath, _ := filepath.Rel(l.basePath, path)
			paths = append(paths, filepath.ToSlash(relPath))
		}
		return nil
	})

	if os.IsNotExist(err) {
		return []string{}, nil
	}
	return paths, err
}

func (l *LocalFS) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(l.fullPath(path))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}
