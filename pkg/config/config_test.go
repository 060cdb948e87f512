package config

import (
	"os"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("HTTP_SERVER_PORT", "8080")
	t.Setenv("LOGGER_LEVEL", "debug")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if cfg.HTTP.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.HTTP.Server.Port)
	}
	if cfg.Logger.Format != "console" {
		t.Errorf("logger format = %q, want console", cfg.Logger.Format)
	}
	if cfg.Tracks.Dir != "tracks" {
		t.Errorf("tracks dir = %q, want tracks", cfg.Tracks.Dir)
	}
	if cfg.Cache.MemoryCapacity != 1000 {
		t.Errorf("memory capacity = %d, want 1000", cfg.Cache.MemoryCapacity)
	}
	if cfg.Cache.Backend != "filesystem" {
		t.Errorf("cache backend = %q, want filesystem", cfg.Cache.Backend)
	}
	if cfg.Filter.Workers != 4 {
		t.Errorf("filter workers = %d, want 4", cfg.Filter.Workers)
	}
	if cfg.Tiles.Timeout != 30*time.Second {
		t.Errorf("tiles timeout = %v, want 30s", cfg.Tiles.Timeout)
	}
	if len(cfg.Tiles.Subdomains) != 1 || cfg.Tiles.Subdomains[0] != "a" {
		t.Errorf("subdomains = %v, want [a]", cfg.Tiles.Subdomains)
	}
	if cfg.Viewport.Width != 1280 || cfg.Viewport.Height != 720 {
		t.Errorf("viewport = %dx%d, want 1280x720", cfg.Viewport.Width, cfg.Viewport.Height)
	}
	if cfg.Heatmap.Width != 1920 || cfg.Heatmap.Height != 1080 {
		t.Errorf("heatmap = %dx%d, want 1920x1080", cfg.Heatmap.Width, cfg.Heatmap.Height)
	}
}

func TestNewOverrides(t *testing.T) {
	t.Setenv("HTTP_SERVER_PORT", "9000")
	t.Setenv("LOGGER_LEVEL", "info")
	t.Setenv("TILES_SUBDOMAINS", "a,b,c")
	t.Setenv("CACHE_BACKEND", "sqlite")
	t.Setenv("FILTER_WORKERS", "2")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if got := len(cfg.Tiles.Subdomains); got != 3 {
		t.Errorf("subdomains len = %d, want 3", got)
	}
	if cfg.Cache.Backend != "sqlite" {
		t.Errorf("cache backend = %q, want sqlite", cfg.Cache.Backend)
	}
	if cfg.Filter.Workers != 2 {
		t.Errorf("filter workers = %d, want 2", cfg.Filter.Workers)
	}
}

func TestNewMissingRequired(t *testing.T) {
	t.Setenv("HTTP_SERVER_PORT", "")
	t.Setenv("LOGGER_LEVEL", "")
	os.Unsetenv("HTTP_SERVER_PORT")
	os.Unsetenv("LOGGER_LEVEL")

	if _, err := New(); err == nil {
		t.Fatal("expected error for missing required variables")
	}
}
