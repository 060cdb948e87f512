package domain

import (
	"fmt"
	"image"

	"github.com/jaennil/guide_helper/backend/mapcore/pkg/mercator"
)

// TileKey identifies a tile on the grid of one zoom level.
type TileKey struct {
	Zoom int
	X    int
	Y    int
}

func NewTileKey(zoom, x, y int) (TileKey, error) {
	k := TileKey{Zoom: zoom, X: x, Y: y}
	if !k.Valid() {
		return TileKey{}, fmt.Errorf("%w: tile %s outside grid", ErrInvalidInput, k)
	}
	return k, nil
}

// Valid reports whether the zoom is supported and x,y lie on its grid.
func (k TileKey) Valid() bool {
	if k.Zoom < mercator.MinZoom || k.Zoom > mercator.MaxZoom {
		return false
	}
	n := mercator.TileCount(k.Zoom)
	return k.X >= 0 && k.X < n && k.Y >= 0 && k.Y < n
}

func (k TileKey) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Zoom, k.X, k.Y)
}

// Tile is a decoded raster. It is never mutated after construction.
type Tile struct {
	Key   TileKey
	Image image.Image
}

// VariantKey identifies a filtered copy of a base tile.
type VariantKey struct {
	Tile   TileKey
	Filter string
}

// TileSource names the tier a tile was served from.
type TileSource string

const (
	SourceMemory   TileSource = "memory"
	SourceDisk     TileSource = "disk"
	SourceFiltered TileSource = "filtered"
)
