package usecase

import (
	"context"
	"fmt"
	"math"

	"github.com/jaennil/guide_helper/backend/mapcore/internal/domain"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/logger"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/mercator"
)

// LayoutEntry places one visible tile on screen. Tile is nil when the
// presentation layer should draw a placeholder.
type LayoutEntry struct {
	Key    domain.TileKey
	Left   float64
	Top    float64
	Tile   *domain.Tile
	Source domain.TileSource
}

// ViewportPlanner holds the pan/zoom state and decides which tiles are
// visible. It drives the cache, fetcher and filter pipeline when tiles are
// requested, and invalidates them whenever tile indices stop being valid.
type ViewportPlanner struct {
	state   domain.ViewportState
	width   int
	height  int
	cache   *TileCacheUseCase
	fetcher *TileFetcher
	filters *FilterPipeline
	logger  logger.Logger
}

func NewViewportPlanner(width, height, zoom int, cache *TileCacheUseCase, fetcher *TileFetcher, filters *FilterPipeline, l logger.Logger) *ViewportPlanner {
	return &ViewportPlanner{
		state:   domain.ViewportState{Zoom: mercator.ClampZoom(zoom)},
		width:   width,
		height:  height,
		cache:   cache,
		fetcher: fetcher,
		filters: filters,
		logger:  l,
	}
}

func (v *ViewportPlanner) State() domain.ViewportState {
	return v.state
}

func (v *ViewportPlanner) Size() (width, height int) {
	return v.width, v.height
}

// VisibleTileRange returns the keys covering the viewport in row-major
// order, clamped to the tile grid. The range extends one tile past the
// right and bottom edges. It is empty when the world lies entirely outside
// the viewport.
func (v *ViewportPlanner) VisibleTileRange() []domain.TileKey {
	zoom := v.state.Zoom
	maxTile := mercator.TileCount(zoom) - 1
	world := mercator.WorldSize(zoom)

	left := -v.state.PanX
	top := -v.state.PanY
	right := left + float64(v.width)
	bottom := top + float64(v.height)
	if right < 0 || bottom < 0 || left >= world || top >= world {
		return nil
	}

	startX, startY := mercator.PixelToTile(left, top, zoom)
	endX, endY := mercator.PixelToTile(right, bottom, zoom)
	endX = min(maxTile, endX+1)
	endY = min(maxTile, endY+1)

	var keys []domain.TileKey
	for y := startY; y <= endY; y++ {
		for x := startX; x <= endX; x++ {
			keys = append(keys, domain.TileKey{Zoom: zoom, X: x, Y: y})
		}
	}
	return keys
}

// GetTile returns the best raster available for key without blocking:
// the active filter's variant, else the base tile (scheduling the filter),
// else nothing (scheduling a fetch).
func (v *ViewportPlanner) GetTile(ctx context.Context, key domain.TileKey) (*domain.Tile, domain.TileSource, bool) {
	active := v.filters.Active()
	vk := domain.VariantKey{Tile: key, Filter: active}
	if t, ok := v.cache.Variant(vk); ok {
		return t, domain.SourceFiltered, true
	}

	if base, src, ok := v.cache.Get(ctx, key); ok {
		v.filters.ApplyFilterAsync(ctx, base, active)
		return base, src, true
	}

	v.fetcher.RequestTile(ctx, key)
	return nil, "", false
}

// Layout resolves every visible tile and its screen offset.
func (v *ViewportPlanner) Layout(ctx context.Context) []LayoutEntry {
	keys := v.VisibleTileRange()
	entries := make([]LayoutEntry, 0, len(keys))
	for _, key := range keys {
		t, src, _ := v.GetTile(ctx, key)
		entries = append(entries, LayoutEntry{
			Key:    key,
			Left:   float64(key.X*mercator.TileSize) + v.state.PanX,
			Top:    float64(key.Y*mercator.TileSize) + v.state.PanY,
			Tile:   t,
			Source: src,
		})
	}
	return entries
}

// ZoomTo changes the zoom level keeping the world point under the screen
// point (cx, cy) fixed. Out-of-range levels are clamped. It reports whether
// the zoom changed.
func (v *ViewportPlanner) ZoomTo(newZoom int, cx, cy float64) bool {
	newZoom = mercator.ClampZoom(newZoom)
	if newZoom == v.state.Zoom {
		return false
	}

	scale := math.Exp2(float64(newZoom - v.state.Zoom))
	worldX := (cx - v.state.PanX) * scale
	worldY := (cy - v.state.PanY) * scale

	v.logger.Debug("zoom", "from", v.state.Zoom, "to", newZoom, "cx", cx, "cy", cy)

	v.state.PanX = cx - worldX
	v.state.PanY = cy - worldY
	v.state.Zoom = newZoom
	v.invalidate()
	return true
}

// ZoomToCenter zooms around the viewport centre.
func (v *ViewportPlanner) ZoomToCenter(newZoom int) bool {
	cx, cy := v.center()
	return v.ZoomTo(newZoom, cx, cy)
}

func (v *ViewportPlanner) ZoomIn() bool {
	return v.ZoomToCenter(v.state.Zoom + 1)
}

func (v *ViewportPlanner) ZoomOut() bool {
	return v.ZoomToCenter(v.state.Zoom - 1)
}

func (v *ViewportPlanner) PanBy(dx, dy float64) {
	v.state.PanX += dx
	v.state.PanY += dy
}

// CenterOn pans so the geographic point sits at the viewport centre.
func (v *ViewportPlanner) CenterOn(lat, lon float64) {
	px, py := mercator.GeoToPixel(lat, lon, v.state.Zoom)
	cx, cy := v.center()
	v.state.PanX = cx - px
	v.state.PanY = cy - py
	v.invalidate()
}

func (v *ViewportPlanner) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: viewport size %dx%d", domain.ErrInvalidInput, width, height)
	}
	v.width = width
	v.height = height
	return nil
}

func (v *ViewportPlanner) center() (float64, float64) {
	return float64(v.width) / 2, float64(v.height) / 2
}

// invalidate drops the memory tier and all pending bookkeeping.
func (v *ViewportPlanner) invalidate() {
	v.cache.ClearMemory()
	v.fetcher.ClearPending()
	v.filters.ClearPending()
}
