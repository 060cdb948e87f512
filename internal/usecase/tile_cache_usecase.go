package usecase

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	_ "image/jpeg"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/domain"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/logger"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/metrics"
)

// TileCacheUseCase is the two-tier tile store. The memory tier holds
// decoded tiles and their filtered variants and evicts in insertion order;
// the disk tier holds encoded tiles and is never evicted.
//
// It is owned by the consumer loop and is not safe for concurrent use.
type TileCacheUseCase struct {
	memory   *simplelru.LRU[domain.TileKey, *domain.Tile]
	variants map[domain.TileKey]map[string]*domain.Tile
	disk     cache.TileCache
	capacity int
	logger   logger.Logger
}

type CacheStats struct {
	MemoryEntries  int    `json:"memory_entries"`
	VariantEntries int    `json:"variant_entries"`
	Capacity       int    `json:"capacity"`
	DiskBackend    string `json:"disk_backend"`
}

func NewTileCacheUseCase(capacity int, disk cache.TileCache, l logger.Logger) (*TileCacheUseCase, error) {
	uc := &TileCacheUseCase{
		variants: make(map[domain.TileKey]map[string]*domain.Tile),
		disk:     disk,
		capacity: capacity,
		logger:   l,
	}

	memory, err := simplelru.NewLRU(capacity, uc.onEvict)
	if err != nil {
		return nil, fmt.Errorf("%w: memory capacity %d: %v", domain.ErrInvalidInput, capacity, err)
	}
	uc.memory = memory

	return uc, nil
}

// onEvict runs whenever a base tile leaves the memory tier, so variants
// never outlive their base tile.
func (uc *TileCacheUseCase) onEvict(key domain.TileKey, _ *domain.Tile) {
	delete(uc.variants, key)
}

// Get looks the tile up in memory, then on disk. A disk hit is promoted into
// memory. Disk read failures and undecodable disk entries count as misses.
func (uc *TileCacheUseCase) Get(ctx context.Context, key domain.TileKey) (*domain.Tile, domain.TileSource, bool) {
	// Peek keeps insertion order intact.
	if t, ok := uc.memory.Peek(key); ok {
		metrics.CacheHits.WithLabelValues(string(domain.SourceMemory)).Inc()
		return t, domain.SourceMemory, true
	}

	diskKey := toCacheKey(key)
	data, exists, err := uc.disk.Get(ctx, diskKey)
	if err != nil {
		uc.logger.Warn("disk cache lookup failed", "z", key.Zoom, "x", key.X, "y", key.Y, "backend", uc.disk.Name(), "error", err)
		metrics.DiskErrors.WithLabelValues("get").Inc()
		metrics.CacheMisses.Inc()
		return nil, "", false
	}
	if !exists {
		metrics.CacheMisses.Inc()
		return nil, "", false
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		uc.logger.Warn("dropping undecodable disk tile", "z", key.Zoom, "x", key.X, "y", key.Y, "error", &domain.DecodeError{Key: key, Err: err})
		if err := uc.disk.Delete(ctx, diskKey); err != nil {
			metrics.DiskErrors.WithLabelValues("delete").Inc()
		}
		metrics.CacheMisses.Inc()
		return nil, "", false
	}

	t := &domain.Tile{Key: key, Image: img}
	uc.addMemory(t)
	metrics.CacheHits.WithLabelValues(string(domain.SourceDisk)).Inc()
	uc.logger.Debug("promoted tile from disk", "z", key.Zoom, "x", key.X, "y", key.Y)

	return t, domain.SourceDisk, true
}

// Put stores the tile in memory and writes it through to disk. raw is the
// encoded form to persist; when nil the tile is encoded as PNG. The memory
// tier is updated even if the disk write fails.
func (uc *TileCacheUseCase) Put(ctx context.Context, t *domain.Tile, raw []byte) error {
	uc.addMemory(t)
	metrics.CacheStores.Inc()

	if raw == nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, t.Image); err != nil {
			return fmt.Errorf("failed to encode tile %s: %w", t.Key, err)
		}
		raw = buf.Bytes()
	}

	if err := uc.disk.Set(ctx, toCacheKey(t.Key), raw); err != nil {
		metrics.DiskErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("failed to persist tile %s: %w", t.Key, err)
	}

	uc.logger.Debug("tile cached", "z", t.Key.Zoom, "x", t.Key.X, "y", t.Key.Y, "size", len(raw))
	return nil
}

func (uc *TileCacheUseCase) addMemory(t *domain.Tile) {
	if uc.memory.Add(t.Key, t) {
		metrics.CacheEvictions.Inc()
		uc.logger.Debug("evicted oldest tile from memory")
	}
	uc.EvictIfNeeded()
}

// Remove deletes the tile and its variants from both tiers.
func (uc *TileCacheUseCase) Remove(ctx context.Context, key domain.TileKey) error {
	uc.memory.Remove(key)
	delete(uc.variants, key)

	if err := uc.disk.Delete(ctx, toCacheKey(key)); err != nil {
		metrics.DiskErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("failed to delete tile %s: %w", key, err)
	}
	return nil
}

// ClearMemory drops every base tile and variant held in memory. The disk
// tier is untouched.
func (uc *TileCacheUseCase) ClearMemory() {
	uc.memory.Purge()
	clear(uc.variants)
	uc.logger.Debug("memory tile cache cleared")
}

// EvictIfNeeded removes the oldest entries until the memory tier is within
// capacity.
func (uc *TileCacheUseCase) EvictIfNeeded() {
	for uc.memory.Len() > uc.capacity {
		key, _, ok := uc.memory.RemoveOldest()
		if !ok {
			return
		}
		metrics.CacheEvictions.Inc()
		uc.logger.Debug("evicted tile", "z", key.Zoom, "x", key.X, "y", key.Y)
	}
}

// SetCapacity changes the memory bound, evicting the oldest entries when it
// shrinks.
func (uc *TileCacheUseCase) SetCapacity(capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("%w: memory capacity must be positive", domain.ErrInvalidInput)
	}
	uc.capacity = capacity
	if evicted := uc.memory.Resize(capacity); evicted > 0 {
		metrics.CacheEvictions.Add(float64(evicted))
	}
	uc.EvictIfNeeded()
	return nil
}

// Contains reports whether the base tile is in memory.
func (uc *TileCacheUseCase) Contains(key domain.TileKey) bool {
	return uc.memory.Contains(key)
}

// MemoryKeys returns the memory tier keys from oldest to newest.
func (uc *TileCacheUseCase) MemoryKeys() []domain.TileKey {
	return uc.memory.Keys()
}

func (uc *TileCacheUseCase) Variant(vk domain.VariantKey) (*domain.Tile, bool) {
	t, ok := uc.variants[vk.Tile][vk.Filter]
	if ok {
		metrics.CacheHits.WithLabelValues(string(domain.SourceFiltered)).Inc()
	}
	return t, ok
}

// PutVariant stores a filtered tile. It refuses variants whose base tile is
// no longer in memory.
func (uc *TileCacheUseCase) PutVariant(vk domain.VariantKey, t *domain.Tile) bool {
	if !uc.memory.Contains(vk.Tile) {
		return false
	}
	byFilter, ok := uc.variants[vk.Tile]
	if !ok {
		byFilter = make(map[string]*domain.Tile)
		uc.variants[vk.Tile] = byFilter
	}
	byFilter[vk.Filter] = t
	return true
}

func (uc *TileCacheUseCase) ClearVariants() {
	clear(uc.variants)
}

func (uc *TileCacheUseCase) Stats() CacheStats {
	variants := 0
	for _, byFilter := range uc.variants {
		variants += len(byFilter)
	}
	return CacheStats{
		MemoryEntries:  uc.memory.Len(),
		VariantEntries: variants,
		Capacity:       uc.capacity,
		DiskBackend:    uc.disk.Name(),
	}
}

func toCacheKey(key domain.TileKey) cache.TileCacheKey {
	return cache.TileCacheKey{
		X: key.X,
		Y: key.Y,
		Z: key.Zoom,
	}
}
