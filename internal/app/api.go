package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	v1 "github.com/jaennil/guide_helper/backend/mapcore/internal/infrastructure/http/v1"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/infrastructure/track"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/spatial"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/usecase"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/config"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/http_server"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/logger"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

func Run(cfg *config.Config) {
	l := logger.NewZapLogger(cfg.Logger)
	defer l.Sync()

	l.Info("app config", "cfg", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logger.WithLogger(ctx, l)

	// Initialize OpenTelemetry if enabled
	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			l.Fatal("failed to initialize telemetry", "error", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
		l.Info("telemetry initialized", "service", cfg.Telemetry.ServiceName)
	}

	// Initialize the disk tier
	disk, closeDisk, err := newDiskCache(cfg, l.Named("disk"))
	if err != nil {
		l.Fatal("failed to initialize disk tile cache", "backend", cfg.Cache.Backend, "error", err)
	}
	defer closeDisk()
	l.Info("disk tile cache ready", "backend", disk.Name())

	// Initialize the use cases
	tileCache, err := usecase.NewTileCacheUseCase(cfg.Cache.MemoryCapacity, disk, l.Named("cache"))
	if err != nil {
		l.Fatal("failed to initialize tile cache", "error", err)
	}
	transport := usecase.NewHTTPTransport(cfg.Tiles, l.Named("transport"))
	fetcher := usecase.NewTileFetcher(transport, usecase.NewURLBuilder(cfg.Tiles), tileCache, l.Named("fetcher"))
	filters := usecase.NewFilterPipeline(cfg.Filter.Workers, cfg.Filter.Default, tileCache, l.Named("filter"))
	planner := usecase.NewViewportPlanner(cfg.Viewport.Width, cfg.Viewport.Height, cfg.Viewport.Zoom, tileCache, fetcher, filters, l.Named("viewport"))
	planner.CenterOn(cfg.Viewport.CenterLat, cfg.Viewport.CenterLon)
	selection := usecase.NewSelection(cfg.Selection)
	index := spatial.NewIndex(l.Named("spatial"))

	mapUseCase := usecase.NewMapUseCase(tileCache, fetcher, filters, planner, selection, index, cfg.Heatmap, l)

	// Initialize the HTTP handler
	validate := validator.New()
	h := handler.NewHandler(validate, mapUseCase, track.NewGeoJSONLoader(cfg.Tracks.Dir))
	router := v1.NewRouter(h, l, cfg.HTTP.Timeout, cfg.Telemetry.Enabled, cfg.Telemetry.ServiceName)

	httpServer := http_server.NewServer(ctx, cfg.HTTP.Server, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return mapUseCase.Run(gctx)
	})

	g.Go(func() error {
		l.Info("starting http server...", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		l.Info("http server stopped", "address", httpServer.Addr)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Info("received shutdown signal")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		l.Info("shutting down http server...", "address", httpServer.Addr)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			l.Error("http server shutdown failed", "error", err)
			return err
		}
		l.Info("http_server shutdown completed")
		return nil
	})

	if err := g.Wait(); err != nil {
		l.Error("application stopped with error", "error", err)
		return
	}

	l.Info("application shutdown completed")
}
