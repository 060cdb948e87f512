package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jaennil/guide_helper/backend/mapcore/internal/domain"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/filter"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/logger"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/metrics"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"
)

type filterResult struct {
	key  domain.VariantKey
	base *domain.Tile
	tile *domain.Tile
	err  error
}

// FilterPipeline produces filtered variants of base tiles on a bounded pool
// of workers. The active filter is a single global setting; results for any
// other filter are discarded when they arrive.
type FilterPipeline struct {
	sem     *semaphore.Weighted
	active  string
	cache   *TileCacheUseCase
	pending map[domain.VariantKey]struct{}
	results chan filterResult
	logger  logger.Logger
}

func NewFilterPipeline(workers int, active string, cache *TileCacheUseCase, l logger.Logger) *FilterPipeline {
	if workers < 1 {
		workers = 1
	}
	if !filter.Known(active) {
		l.Warn("unknown default filter, using None", "filter", active)
		active = filter.None
	}
	return &FilterPipeline{
		sem:     semaphore.NewWeighted(int64(workers)),
		active:  active,
		cache:   cache,
		pending: make(map[domain.VariantKey]struct{}),
		results: make(chan filterResult, 64),
		logger:  l,
	}
}

func (p *FilterPipeline) Active() string {
	return p.active
}

// SetActive switches the global filter. Cached variants and pending job
// bookkeeping are dropped so jobs for the old filter are never integrated.
func (p *FilterPipeline) SetActive(name string) error {
	if !filter.Known(name) {
		return fmt.Errorf("%w: unknown filter %q", domain.ErrInvalidInput, name)
	}
	if name == p.active {
		return nil
	}

	p.logger.Info("switching filter", "from", p.active, "to", name)
	p.active = name
	p.cache.ClearVariants()
	p.ClearPending()
	return nil
}

// ApplyFilterAsync schedules a job producing the variant of base for name.
// It reports whether a job was scheduled: None needs no job, and a pair that
// is already pending or cached is not resubmitted.
func (p *FilterPipeline) ApplyFilterAsync(ctx context.Context, base *domain.Tile, name string) bool {
	if name == filter.None {
		return false
	}

	vk := domain.VariantKey{Tile: base.Key, Filter: name}
	if _, ok := p.pending[vk]; ok {
		return false
	}
	if _, ok := p.cache.Variant(vk); ok {
		return false
	}

	p.pending[vk] = struct{}{}
	metrics.FilterJobs.WithLabelValues(name).Inc()

	go func() {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return
		}
		res := p.run(ctx, vk, base)
		p.sem.Release(1)

		select {
		case p.results <- res:
		case <-ctx.Done():
		}
	}()

	return true
}

// run executes one transform on a worker. A panicking filter is reported as
// a FilterError.
func (p *FilterPipeline) run(ctx context.Context, vk domain.VariantKey, base *domain.Tile) (res filterResult) {
	_, span := telemetry.Tracer().Start(ctx, "tile.filter")
	defer span.End()
	span.SetAttributes(
		attribute.String("filter", vk.Filter),
		attribute.Int("tile.z", vk.Tile.Zoom),
		attribute.Int("tile.x", vk.Tile.X),
		attribute.Int("tile.y", vk.Tile.Y),
	)

	res = filterResult{key: vk, base: base}
	defer func() {
		if r := recover(); r != nil {
			res.err = &domain.FilterError{Key: vk.Tile, Filter: vk.Filter, Err: fmt.Errorf("panic: %v", r)}
			span.RecordError(res.err)
		}
	}()

	start := time.Now()
	img := filter.Apply(vk.Filter, base.Image)
	metrics.FilterDuration.Observe(time.Since(start).Seconds())

	res.tile = &domain.Tile{Key: vk.Tile, Image: img}
	return res
}

// HandleResult integrates a finished job. A failed job caches the base tile
// as the variant so the pair is not resubmitted on every repaint. It
// reports whether a variant was stored.
func (p *FilterPipeline) HandleResult(res filterResult) bool {
	k := res.key.Tile
	if res.key.Filter != p.active {
		metrics.FilterDiscarded.Inc()
		p.logger.Debug("discarding result for inactive filter", "filter", res.key.Filter, "z", k.Zoom, "x", k.X, "y", k.Y)
		return false
	}
	delete(p.pending, res.key)

	tile := res.tile
	if res.err != nil {
		metrics.FilterFailures.WithLabelValues(res.key.Filter).Inc()
		p.logger.Error("filter failed, using unfiltered tile", "filter", res.key.Filter, "z", k.Zoom, "x", k.X, "y", k.Y, "error", res.err)
		tile = res.base
	}

	if !p.cache.PutVariant(res.key, tile) {
		metrics.FilterDiscarded.Inc()
		p.logger.Debug("discarding variant of evicted tile", "filter", res.key.Filter, "z", k.Zoom, "x", k.X, "y", k.Y)
		return false
	}
	return true
}

func (p *FilterPipeline) ClearPending() {
	clear(p.pending)
}

func (p *FilterPipeline) IsPending(vk domain.VariantKey) bool {
	_, ok := p.pending[vk]
	return ok
}

func (p *FilterPipeline) PendingCount() int {
	return len(p.pending)
}
