package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jaennil/guide_helper/backend/mapcore/internal/domain"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/filter"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/spatial"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/config"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/logger"
)

var ErrStopped = errors.New("map loop stopped")

// TrackLoader reads the points of a track file.
type TrackLoader interface {
	Load(ctx context.Context, path string) ([]domain.GeoPoint, error)
}

type loadResult struct {
	id     string
	path   string
	points []domain.GeoPoint
	err    error
	done   chan<- error
}

// ViewportView is a snapshot of the viewport for presentation.
type ViewportView struct {
	State  domain.ViewportState
	Width  int
	Height int
	Filter string
	Tiles  []LayoutEntry
}

// SelectionView describes the current selection.
type SelectionView struct {
	AspectWidth  int
	AspectHeight int
	ZoomFactor   float64
	Rect         *domain.ScreenRect
	Bounds       *domain.SelectionBounds
}

type MapStats struct {
	Cache          CacheStats    `json:"cache"`
	PendingFetches int           `json:"pending_fetches"`
	PendingFilters int           `json:"pending_filters"`
	ActiveFilter   string        `json:"active_filter"`
	Files          int           `json:"files"`
	Spatial        spatial.Stats `json:"spatial"`
}

// MapUseCase owns all mutable map state and serializes access to it on a
// single consumer goroutine started by Run. Fetches, filter jobs and file
// loads run on producer goroutines and hand their results back to Run.
// Exported methods are safe for concurrent use.
type MapUseCase struct {
	cache     *TileCacheUseCase
	fetcher   *TileFetcher
	filters   *FilterPipeline
	planner   *ViewportPlanner
	selection *Selection
	index     *spatial.Index
	heatmap   config.Heatmap

	cmds    chan func(ctx context.Context)
	loads   chan loadResult
	updates chan domain.TileKey
	stopped chan struct{}
	logger  logger.Logger
}

func NewMapUseCase(
	cache *TileCacheUseCase,
	fetcher *TileFetcher,
	filters *FilterPipeline,
	planner *ViewportPlanner,
	selection *Selection,
	index *spatial.Index,
	heatmap config.Heatmap,
	l logger.Logger,
) *MapUseCase {
	return &MapUseCase{
		cache:     cache,
		fetcher:   fetcher,
		filters:   filters,
		planner:   planner,
		selection: selection,
		index:     index,
		heatmap:   heatmap,
		cmds:      make(chan func(ctx context.Context)),
		loads:     make(chan loadResult, 8),
		updates:   make(chan domain.TileKey, 256),
		stopped:   make(chan struct{}),
		logger:    l,
	}
}

// Run is the consumer loop. It returns when ctx is done.
func (uc *MapUseCase) Run(ctx context.Context) error {
	defer close(uc.stopped)
	uc.logger.Info("map loop started")

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("map loop stopped")
			return nil
		case fn := <-uc.cmds:
			fn(ctx)
		case res := <-uc.fetcher.results:
			if uc.fetcher.HandleResult(ctx, res) {
				uc.notify(res.key)
			}
		case res := <-uc.filters.results:
			if uc.filters.HandleResult(res) {
				uc.notify(res.key.Tile)
			}
		case res := <-uc.loads:
			uc.handleLoad(res)
		}
	}
}

// Updates delivers the key of every tile whose raster changed. Updates are
// dropped when nobody keeps up with the channel.
func (uc *MapUseCase) Updates() <-chan domain.TileKey {
	return uc.updates
}

func (uc *MapUseCase) notify(key domain.TileKey) {
	select {
	case uc.updates <- key:
	default:
	}
}

// exec runs fn on the consumer loop and waits for it. The loop's context
// is passed to fn so background work outlives the caller's request. ctx
// only bounds the wait for a free loop: once fn is queued, exec waits for
// it to finish, because fn writes into the caller's variables.
func (uc *MapUseCase) exec(ctx context.Context, fn func(loopCtx context.Context)) error {
	done := make(chan struct{})
	cmd := func(loopCtx context.Context) {
		defer close(done)
		fn(loopCtx)
	}

	select {
	case uc.cmds <- cmd:
	case <-uc.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	<-done
	return nil
}

func (uc *MapUseCase) GetTile(ctx context.Context, key domain.TileKey) (tile *domain.Tile, src domain.TileSource, ok bool, err error) {
	if !key.Valid() {
		return nil, "", false, fmt.Errorf("%w: tile %s outside grid", domain.ErrInvalidInput, key)
	}
	err = uc.exec(ctx, func(loopCtx context.Context) {
		tile, src, ok = uc.planner.GetTile(loopCtx, key)
	})
	return tile, src, ok, err
}

func (uc *MapUseCase) Viewport(ctx context.Context) (view ViewportView, err error) {
	err = uc.exec(ctx, func(loopCtx context.Context) {
		view = uc.viewport(loopCtx)
	})
	return view, err
}

func (uc *MapUseCase) viewport(loopCtx context.Context) ViewportView {
	w, h := uc.planner.Size()
	return ViewportView{
		State:  uc.planner.State(),
		Width:  w,
		Height: h,
		Filter: uc.filters.Active(),
		Tiles:  uc.planner.Layout(loopCtx),
	}
}

func (uc *MapUseCase) VisibleTiles(ctx context.Context) (keys []domain.TileKey, err error) {
	err = uc.exec(ctx, func(context.Context) {
		keys = uc.planner.VisibleTileRange()
	})
	return keys, err
}

func (uc *MapUseCase) State(ctx context.Context) (state domain.ViewportState, err error) {
	err = uc.exec(ctx, func(context.Context) {
		state = uc.planner.State()
	})
	return state, err
}

func (uc *MapUseCase) PanBy(ctx context.Context, dx, dy float64) (state domain.ViewportState, err error) {
	err = uc.exec(ctx, func(context.Context) {
		uc.planner.PanBy(dx, dy)
		state = uc.planner.State()
	})
	return state, err
}

// ZoomTo zooms around the screen point (cx, cy).
func (uc *MapUseCase) ZoomTo(ctx context.Context, zoom int, cx, cy float64) (state domain.ViewportState, err error) {
	err = uc.exec(ctx, func(context.Context) {
		uc.planner.ZoomTo(zoom, cx, cy)
		state = uc.planner.State()
	})
	return state, err
}

// ZoomToCenter zooms around the viewport centre.
func (uc *MapUseCase) ZoomToCenter(ctx context.Context, zoom int) (state domain.ViewportState, err error) {
	err = uc.exec(ctx, func(context.Context) {
		uc.planner.ZoomToCenter(zoom)
		state = uc.planner.State()
	})
	return state, err
}

// ZoomBy changes the zoom by step levels around the viewport centre.
func (uc *MapUseCase) ZoomBy(ctx context.Context, step int) (state domain.ViewportState, err error) {
	err = uc.exec(ctx, func(context.Context) {
		uc.planner.ZoomToCenter(uc.planner.State().Zoom + step)
		state = uc.planner.State()
	})
	return state, err
}

// ZoomByAt changes the zoom by step levels around the screen point (cx, cy).
func (uc *MapUseCase) ZoomByAt(ctx context.Context, step int, cx, cy float64) (state domain.ViewportState, err error) {
	err = uc.exec(ctx, func(context.Context) {
		uc.planner.ZoomTo(uc.planner.State().Zoom+step, cx, cy)
		state = uc.planner.State()
	})
	return state, err
}

func (uc *MapUseCase) ZoomIn(ctx context.Context) (state domain.ViewportState, err error) {
	err = uc.exec(ctx, func(context.Context) {
		uc.planner.ZoomIn()
		state = uc.planner.State()
	})
	return state, err
}

func (uc *MapUseCase) ZoomOut(ctx context.Context) (state domain.ViewportState, err error) {
	err = uc.exec(ctx, func(context.Context) {
		uc.planner.ZoomOut()
		state = uc.planner.State()
	})
	return state, err
}

func (uc *MapUseCase) CenterOn(ctx context.Context, lat, lon float64) (state domain.ViewportState, err error) {
	err = uc.exec(ctx, func(context.Context) {
		uc.planner.CenterOn(lat, lon)
		state = uc.planner.State()
	})
	return state, err
}

func (uc *MapUseCase) Resize(ctx context.Context, width, height int) error {
	var resizeErr error
	if err := uc.exec(ctx, func(context.Context) {
		resizeErr = uc.planner.Resize(width, height)
	}); err != nil {
		return err
	}
	return resizeErr
}

func (uc *MapUseCase) FilterNames() []string {
	return filter.Names()
}

func (uc *MapUseCase) ActiveFilter(ctx context.Context) (name string, err error) {
	err = uc.exec(ctx, func(context.Context) {
		name = uc.filters.Active()
	})
	return name, err
}

func (uc *MapUseCase) SetFilter(ctx context.Context, name string) error {
	var setErr error
	if err := uc.exec(ctx, func(context.Context) {
		setErr = uc.filters.SetActive(name)
	}); err != nil {
		return err
	}
	return setErr
}

// AddFile indexes points under id.
func (uc *MapUseCase) AddFile(ctx context.Context, id string, points []domain.GeoPoint) error {
	var addErr error
	if err := uc.exec(ctx, func(context.Context) {
		addErr = uc.index.AddFile(id, points)
	}); err != nil {
		return err
	}
	return addErr
}

// LoadFile reads path with loader on a background goroutine and indexes
// the points under id. The returned channel receives the outcome once the
// points are committed, or the failure.
func (uc *MapUseCase) LoadFile(ctx context.Context, id, path string, loader TrackLoader) <-chan error {
	done := make(chan error, 1)
	uc.logger.Info("loading track file", "id", id, "path", path)

	go func() {
		points, err := loader.Load(ctx, path)
		if err != nil {
			err = &domain.ParseError{Path: path, Err: err}
		}
		res := loadResult{id: id, path: path, points: points, err: err, done: done}

		select {
		case uc.loads <- res:
		case <-uc.stopped:
			done <- ErrStopped
		case <-ctx.Done():
			done <- ctx.Err()
		}
	}()

	return done
}

func (uc *MapUseCase) handleLoad(res loadResult) {
	err := res.err
	if err == nil {
		err = uc.index.AddFile(res.id, res.points)
	}
	if err != nil {
		uc.logger.Warn("track file skipped", "id", res.id, "path", res.path, "error", err)
	} else {
		uc.logger.Info("track file loaded", "id", res.id, "points", len(res.points))
	}
	res.done <- err
}

func (uc *MapUseCase) RemoveFile(ctx context.Context, id string) error {
	return uc.exec(ctx, func(context.Context) {
		uc.index.RemoveFile(id)
	})
}

func (uc *MapUseCase) Files(ctx context.Context) (files []spatial.FileInfo, err error) {
	err = uc.exec(ctx, func(context.Context) {
		files = uc.index.Files()
	})
	return files, err
}

func (uc *MapUseCase) SetAspectRatio(ctx context.Context, width, height int) error {
	var setErr error
	if err := uc.exec(ctx, func(context.Context) {
		setErr = uc.selection.SetAspectRatio(width, height)
	}); err != nil {
		return err
	}
	return setErr
}

func (uc *MapUseCase) SetSelectionZoom(ctx context.Context, percent float64) error {
	return uc.exec(ctx, func(context.Context) {
		uc.selection.SetZoom(percent)
	})
}

func (uc *MapUseCase) ShowSelection(ctx context.Context, visible bool) error {
	return uc.exec(ctx, func(context.Context) {
		if visible {
			uc.selection.Show()
		} else {
			uc.selection.Hide()
		}
	})
}

func (uc *MapUseCase) Selection(ctx context.Context) (view SelectionView, err error) {
	err = uc.exec(ctx, func(context.Context) {
		view = uc.selectionView()
	})
	return view, err
}

func (uc *MapUseCase) selectionView() SelectionView {
	aw, ah := uc.selection.AspectRatio()
	view := SelectionView{
		AspectWidth:  aw,
		AspectHeight: ah,
		ZoomFactor:   uc.selection.ZoomFactor(),
	}

	w, h := uc.planner.Size()
	if rect, ok := uc.selection.Rect(w, h); ok {
		view.Rect = &rect
		if bounds, ok := SelectionBounds(&rect, uc.planner.State()); ok {
			view.Bounds = &bounds
		}
	}
	return view
}

// PrepareHeatmap collects the selection bounds and the points inside them.
// Non-positive resolutions fall back to the configured default.
func (uc *MapUseCase) PrepareHeatmap(ctx context.Context, width, height int) (domain.HeatmapInput, error) {
	if width <= 0 || height <= 0 {
		width, height = uc.heatmap.Width, uc.heatmap.Height
	}

	var (
		input domain.HeatmapInput
		found bool
	)
	err := uc.exec(ctx, func(context.Context) {
		view := uc.selectionView()
		if view.Bounds == nil {
			return
		}
		found = true
		input = domain.HeatmapInput{
			Bounds: *view.Bounds,
			Width:  width,
			Height: height,
			Points: uc.index.QueryPointsInBounds(*view.Bounds),
		}
	})
	if err != nil {
		return domain.HeatmapInput{}, err
	}
	if !found {
		return domain.HeatmapInput{}, fmt.Errorf("%w: no selection", domain.ErrNotFound)
	}

	uc.logger.Info("heatmap input prepared", "points", len(input.Points), "width", width, "height", height)
	return input, nil
}

func (uc *MapUseCase) Stats(ctx context.Context) (stats MapStats, err error) {
	err = uc.exec(ctx, func(context.Context) {
		stats = MapStats{
			Cache:          uc.cache.Stats(),
			PendingFetches: uc.fetcher.PendingCount(),
			PendingFilters: uc.filters.PendingCount(),
			ActiveFilter:   uc.filters.Active(),
			Files:          uc.index.Len(),
			Spatial:        uc.index.Stats(),
		}
	})
	return stats, err
}
