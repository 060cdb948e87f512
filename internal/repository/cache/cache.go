package cache

import "context"

type TileCacheKey struct {
	X int
	Y int
	Z int
}

// TileCacheValue holds encoded tile bytes.
type TileCacheValue []byte

// TileCache is the persistent tier of the tile cache. A missing key is
// reported as (nil, false, nil); errors are reserved for backend failures.
type TileCache interface {
	Get(context.Context, TileCacheKey) (TileCacheValue, bool, error)
	Set(context.Context, TileCacheKey, TileCacheValue) error
	Delete(context.Context, TileCacheKey) error
	Name() string
}
