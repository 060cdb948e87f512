package cache

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/jaennil/guide_helper/backend/mapcore/pkg/logger"
)

const (
	smallTileSize  = 1024      // 1KB
	mediumTileSize = 10 * 1024 // 10KB
	largeTileSize  = 50 * 1024 // 50KB
)

func generateTileData(size int) []byte {
	data := make([]byte, size)
	rand.Read(data)
	return data
}

func setupSQLiteCache(b *testing.B) (*SQLiteCache, func()) {
	b.Helper()
	cache, err := NewSQLiteCache(filepath.Join(b.TempDir(), "test.db"), logger.NewNop())
	if err != nil {
		b.Fatalf("Failed to create SQLite cache: %v", err)
	}
	return cache, func() {
		cache.Close()
	}
}

func setupMapCache(b *testing.B) (*MapCache, func()) {
	b.Helper()
	return NewMapCache(), func() {}
}

func setupFilesystemCache(b *testing.B) (*FilesystemCache, func()) {
	b.Helper()
	cache, err := NewFilesystemCache(b.TempDir())
	if err != nil {
		b.Fatalf("Failed to create filesystem cache: %v", err)
	}
	return cache, func() {}
}

func benchmarkSet(b *testing.B, c TileCache, size int) {
	ctx := context.Background()
	data := generateTileData(size)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := TileCacheKey{X: i % 1000, Y: i % 1000, Z: i % 20}
		if err := c.Set(ctx, key, data); err != nil {
			b.Fatalf("Set failed: %v", err)
		}
	}
}

func benchmarkGet(b *testing.B, c TileCache, size int) {
	ctx := context.Background()
	data := generateTileData(size)

	for i := 0; i < 100; i++ {
		key := TileCacheKey{X: i, Y: i, Z: i % 20}
		c.Set(ctx, key, data)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := TileCacheKey{X: i % 100, Y: i % 100, Z: i % 20}
		if _, _, err := c.Get(ctx, key); err != nil {
			b.Fatalf("Get failed: %v", err)
		}
	}
}

// 80% reads, 20% writes
func benchmarkMixed(b *testing.B, c TileCache) {
	ctx := context.Background()
	data := generateTileData(mediumTileSize)

	for i := 0; i < 50; i++ {
		key := TileCacheKey{X: i, Y: i, Z: i % 20}
		c.Set(ctx, key, data)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := TileCacheKey{X: i % 100, Y: i % 100, Z: i % 20}
		if i%5 == 0 {
			c.Set(ctx, key, data)
		} else {
			c.Get(ctx, key)
		}
	}
}

func BenchmarkSet_SQLite_Small(b *testing.B) {
	cache, cleanup := setupSQLiteCache(b)
	defer cleanup()
	benchmarkSet(b, cache, smallTileSize)
}

func BenchmarkSet_Map_Small(b *testing.B) {
	cache, cleanup := setupMapCache(b)
	defer cleanup()
	benchmarkSet(b, cache, smallTileSize)
}

func BenchmarkSet_Filesystem_Small(b *testing.B) {
	cache, cleanup := setupFilesystemCache(b)
	defer cleanup()
	benchmarkSet(b, cache, smallTileSize)
}

func BenchmarkSet_SQLite_Large(b *testing.B) {
	cache, cleanup := setupSQLiteCache(b)
	defer cleanup()
	benchmarkSet(b, cache, largeTileSize)
}

func BenchmarkSet_Filesystem_Large(b *testing.B) {
	cache, cleanup := setupFilesystemCache(b)
	defer cleanup()
	benchmarkSet(b, cache, largeTileSize)
}

func BenchmarkGet_SQLite_Small(b *testing.B) {
	cache, cleanup := setupSQLiteCache(b)
	defer cleanup()
	benchmarkGet(b, cache, smallTileSize)
}

func BenchmarkGet_Map_Small(b *testing.B) {
	cache, cleanup := setupMapCache(b)
	defer cleanup()
	benchmarkGet(b, cache, smallTileSize)
}

func BenchmarkGet_Filesystem_Small(b *testing.B) {
	cache, cleanup := setupFilesystemCache(b)
	defer cleanup()
	benchmarkGet(b, cache, smallTileSize)
}

func BenchmarkMixed_SQLite(b *testing.B) {
	cache, cleanup := setupSQLiteCache(b)
	defer cleanup()
	benchmarkMixed(b, cache)
}

func BenchmarkMixed_Filesystem(b *testing.B) {
	cache, cleanup := setupFilesystemCache(b)
	defer cleanup()
	benchmarkMixed(b, cache)
}
