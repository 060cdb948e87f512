package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FilesystemCache keeps one file per tile directly under root, named
// tile_{z}_{x}_{y}.png.
type FilesystemCache struct {
	root string
}

var _ TileCache = (*FilesystemCache)(nil)

func NewFilesystemCache(root string) (*FilesystemCache, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FilesystemCache{root: root}, nil
}

func (c *FilesystemCache) Get(_ context.Context, k TileCacheKey) (TileCacheValue, bool, error) {
	content, err := os.ReadFile(c.TilePath(k))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return content, true, nil
}

// Set writes through a temp file so readers never observe a partial tile.
func (c *FilesystemCache) Set(_ context.Context, k TileCacheKey, v TileCacheValue) error {
	path := c.TilePath(k)
	tmp, err := os.CreateTemp(c.root, ".tile-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(v); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	return nil
}

func (c *FilesystemCache) Delete(_ context.Context, k TileCacheKey) error {
	err := os.Remove(c.TilePath(k))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (c *FilesystemCache) Name() string {
	return "filesystem"
}

func (c *FilesystemCache) TilePath(k TileCacheKey) string {
	return filepath.Join(c.root, c.keyToString(k))
}

func (c *FilesystemCache) keyToString(k TileCacheKey) string {
	return fmt.Sprintf("tile_%d_%d_%d.png", k.Z, k.X, k.Y)
}
