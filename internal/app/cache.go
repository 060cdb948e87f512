package app

import (
	"fmt"

	"github.com/jaennil/guide_helper/backend/mapcore/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/config"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/logger"
)

// newDiskCache opens the configured disk tier backend and returns it with
// its close function.
func newDiskCache(cfg *config.Config, l logger.Logger) (cache.TileCache, func(), error) {
	noop := func() {}

	switch cfg.Cache.Backend {
	case "filesystem":
		c, err := cache.NewFilesystemCache(cfg.Cache.Dir)
		if err != nil {
			return nil, noop, err
		}
		return c, noop, nil

	case "sqlite":
		c, err := cache.NewSQLiteCache(cfg.Cache.SQLitePath, l)
		if err != nil {
			return nil, noop, err
		}
		return c, closer(c.Close, l), nil

	case "redis":
		c, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			return nil, noop, err
		}
		return c, closer(c.Close, l), nil

	case "memory":
		return cache.NewMapCache(), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func closer(closeFn func() error, l logger.Logger) func() {
	return func() {
		if err := closeFn(); err != nil {
			l.Error("failed to close disk tile cache", "error", err)
		}
	}
}
