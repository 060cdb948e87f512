package cache

import (
	"context"
	"sync"
)

// MapCache is a process-local stand-in for the disk tier.
type MapCache struct {
	m *TypedSyncMap
}

type TypedSyncMap struct {
	m sync.Map
}

func (c *TypedSyncMap) Load(k TileCacheKey) (TileCacheValue, bool) {
	v, exists := c.m.Load(k)
	if !exists {
		return nil, false
	}
	return v.(TileCacheValue), exists
}

func (c *TypedSyncMap) Store(k TileCacheKey, v TileCacheValue) {
	c.m.Store(k, v)
}

func (c *TypedSyncMap) Delete(k TileCacheKey) {
	c.m.Delete(k)
}

func NewMapCache() *MapCache {
	return &MapCache{
		m: &TypedSyncMap{},
	}
}

var _ TileCache = (*MapCache)(nil)

func (c *MapCache) Get(_ context.Context, k TileCacheKey) (TileCacheValue, bool, error) {
	v, exists := c.m.Load(k)
	return v, exists, nil
}

func (c *MapCache) Set(_ context.Context, k TileCacheKey, v TileCacheValue) error {
	c.m.Store(k, v)
	return nil
}

func (c *MapCache) Delete(_ context.Context, k TileCacheKey) error {
	c.m.Delete(k)
	return nil
}

func (c *MapCache) Name() string {
	return "memory"
}
