package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
		Tiles     Tiles     `envPrefix:"TILES_"`
		Cache     Cache     `envPrefix:"CACHE_"`
		Redis     Redis     `envPrefix:"REDIS_"`
		Filter    Filter    `envPrefix:"FILTER_"`
		Viewport  Viewport  `envPrefix:"VIEWPORT_"`
		Selection Selection `envPrefix:"SELECTION_"`
		Heatmap   Heatmap   `envPrefix:"HEATMAP_"`
		Tracks    Tracks    `envPrefix:"TRACKS_"`
	}

	HTTP struct {
		Server  Server        `envPrefix:"SERVER_"`
		Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
	}

	Server struct {
		Port         string        `env:"PORT,required"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level string `env:"LEVEL,required"`
		// Format is "console" for colored development output or "json".
		Format string `env:"FORMAT" envDefault:"console"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"guide-helper-mapcore"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"otel-collector.observability.svc.cluster.local:4317"`
	}

	// Tiles describes the upstream raster tile server. The URL template
	// understands {s}, {style}, {z}, {x}, {y} and {scale}.
	Tiles struct {
		URLTemplate string        `env:"URL_TEMPLATE" envDefault:"https://{s}.basemaps.cartocdn.com/{style}/{z}/{x}/{y}{scale}.png"`
		Style       string        `env:"STYLE" envDefault:"rastertiles/voyager"`
		Subdomains  []string      `env:"SUBDOMAINS" envSeparator:"," envDefault:"a"`
		Scale       string        `env:"SCALE" envDefault:""`
		UserAgent   string        `env:"USER_AGENT" envDefault:"HeatmapApp/1.1 (contact@example.com)"`
		Timeout     time.Duration `env:"TIMEOUT" envDefault:"30s"`
	}

	Cache struct {
		Backend        string `env:"BACKEND" envDefault:"filesystem"`
		Dir            string `env:"DIR" envDefault:"tile_cache"`
		SQLitePath     string `env:"SQLITE_PATH" envDefault:"tile_cache.db"`
		MemoryCapacity int    `env:"MEMORY_CAPACITY" envDefault:"1000"`
	}

	Redis struct {
		Addr     string        `env:"ADDR" envDefault:"localhost:6379"`
		Password string        `env:"PASSWORD" envDefault:""`
		DB       int           `env:"DB" envDefault:"0"`
		TTL      time.Duration `env:"TTL" envDefault:"24h"`
	}

	Filter struct {
		Workers int    `env:"WORKERS" envDefault:"4"`
		Default string `env:"DEFAULT" envDefault:"None"`
	}

	Viewport struct {
		Width     int     `env:"WIDTH" envDefault:"1280"`
		Height    int     `env:"HEIGHT" envDefault:"720"`
		Zoom      int     `env:"ZOOM" envDefault:"12"`
		CenterLat float64 `env:"CENTER_LAT" envDefault:"59.4"`
		CenterLon float64 `env:"CENTER_LON" envDefault:"13.5"`
	}

	Selection struct {
		AspectWidth  int     `env:"ASPECT_WIDTH" envDefault:"16"`
		AspectHeight int     `env:"ASPECT_HEIGHT" envDefault:"9"`
		ZoomFactor   float64 `env:"ZOOM_FACTOR" envDefault:"80"`
	}

	Heatmap struct {
		Width  int `env:"WIDTH" envDefault:"1920"`
		Height int `env:"HEIGHT" envDefault:"1080"`
	}

	// Tracks is the directory track file paths are resolved against.
	Tracks struct {
		Dir string `env:"DIR" envDefault:"tracks"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
