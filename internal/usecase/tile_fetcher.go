package usecase

import (
	"bytes"
	"context"
	"errors"
	"image"
	"time"

	"github.com/jaennil/guide_helper/backend/mapcore/internal/domain"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/logger"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/metrics"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type fetchResult struct {
	key     domain.TileKey
	gen     uint64
	tile    *domain.Tile
	raw     []byte
	err     error
	elapsed time.Duration
}

// TileFetcher retrieves missing tiles in the background and tracks at most
// one pending request per tile. Results are handed back over a channel and
// integrated by HandleResult on the consumer.
type TileFetcher struct {
	transport Transport
	urls      *URLBuilder
	cache     *TileCacheUseCase
	pending   map[domain.TileKey]uint64
	gen       uint64
	results   chan fetchResult
	logger    logger.Logger
}

func NewTileFetcher(transport Transport, urls *URLBuilder, cache *TileCacheUseCase, l logger.Logger) *TileFetcher {
	return &TileFetcher{
		transport: transport,
		urls:      urls,
		cache:     cache,
		pending:   make(map[domain.TileKey]uint64),
		results:   make(chan fetchResult, 64),
		logger:    l,
	}
}

// RequestTile starts a background fetch unless the tile is already pending
// or cached in memory. It reports whether a fetch was started. ctx bounds
// the fetch and the hand-off of its result.
func (f *TileFetcher) RequestTile(ctx context.Context, key domain.TileKey) bool {
	if !key.Valid() {
		return false
	}
	if _, ok := f.pending[key]; ok {
		return false
	}
	if f.cache.Contains(key) {
		return false
	}

	f.gen++
	gen := f.gen
	f.pending[key] = gen
	metrics.PendingFetches.Set(float64(len(f.pending)))
	metrics.FetchRequests.Inc()

	url := f.urls.URL(key)
	f.logger.Debug("requesting tile", "z", key.Zoom, "x", key.X, "y", key.Y, "url", url)

	go func() {
		res := f.fetch(ctx, key, url)
		res.gen = gen
		select {
		case f.results <- res:
		case <-ctx.Done():
		}
	}()

	return true
}

// fetch runs on a producer goroutine and must not touch fetcher state.
func (f *TileFetcher) fetch(ctx context.Context, key domain.TileKey, url string) fetchResult {
	ctx, span := telemetry.Tracer().Start(ctx, "tile.fetch")
	defer span.End()
	span.SetAttributes(
		attribute.Int("tile.z", key.Zoom),
		attribute.Int("tile.x", key.X),
		attribute.Int("tile.y", key.Y),
	)

	start := time.Now()
	raw, err := f.transport.Fetch(ctx, url)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return fetchResult{key: key, err: err, elapsed: elapsed}
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		err = &domain.DecodeError{Key: key, Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return fetchResult{key: key, err: err, elapsed: elapsed}
	}

	return fetchResult{
		key:     key,
		tile:    &domain.Tile{Key: key, Image: img},
		raw:     raw,
		elapsed: elapsed,
	}
}

// HandleResult clears the pending marker of the request that produced res
// and caches a successful result. A result from a request dropped by
// ClearPending leaves a newer request's marker alone but is still cached.
// It reports whether a tile was integrated.
func (f *TileFetcher) HandleResult(ctx context.Context, res fetchResult) bool {
	if gen, ok := f.pending[res.key]; ok && gen == res.gen {
		delete(f.pending, res.key)
	}
	metrics.PendingFetches.Set(float64(len(f.pending)))
	metrics.FetchLatency.Observe(res.elapsed.Seconds())

	k := res.key
	if res.err != nil {
		metrics.FetchFailures.WithLabelValues(failureReason(res.err)).Inc()
		f.logger.Warn("tile fetch failed", "z", k.Zoom, "x", k.X, "y", k.Y, "error", res.err)
		return false
	}

	if err := f.cache.Put(ctx, res.tile, res.raw); err != nil {
		f.logger.Error("failed to write tile through to disk", "z", k.Zoom, "x", k.X, "y", k.Y, "error", err)
	}

	f.logger.Debug("tile fetched", "z", k.Zoom, "x", k.X, "y", k.Y, "size", len(res.raw), "elapsed", res.elapsed)
	return true
}

// ClearPending forgets every tracked request. In-flight transport calls
// keep running; their results are accepted when they arrive.
func (f *TileFetcher) ClearPending() {
	clear(f.pending)
	metrics.PendingFetches.Set(0)
}

func (f *TileFetcher) IsPending(key domain.TileKey) bool {
	_, ok := f.pending[key]
	return ok
}

func (f *TileFetcher) PendingCount() int {
	return len(f.pending)
}

func failureReason(err error) string {
	var te *domain.TransportError
	switch {
	case errors.As(err, &te):
		return te.Reason()
	case errors.Is(err, domain.ErrDecode):
		return "decode"
	default:
		return "unknown"
	}
}
