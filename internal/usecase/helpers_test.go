package usecase

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaennil/guide_helper/backend/mapcore/internal/domain"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/repository/cache"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/spatial"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/config"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/logger"
)

func solidImage(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func pngBytes(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func testTile(key domain.TileKey) *domain.Tile {
	return &domain.Tile{Key: key, Image: solidImage(color.NRGBA{R: 200, G: 120, B: 40, A: 255})}
}

// fakeTransport serves a fixed body and counts calls. When gate is set,
// every call blocks until gate is closed.
type fakeTransport struct {
	body  []byte
	err   error
	gate  chan struct{}
	calls atomic.Int32

	mu   sync.Mutex
	urls []string
}

func (f *fakeTransport) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.mu.Unlock()

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

func testTilesConfig() config.Tiles {
	return config.Tiles{
		URLTemplate: "https://{s}.example.com/{style}/{z}/{x}/{y}{scale}.png",
		Style:       "light_all",
		Subdomains:  []string{"a", "b", "c"},
		UserAgent:   "mapcore-test",
		Timeout:     time.Second,
	}
}

type harness struct {
	disk      *cache.MapCache
	cache     *TileCacheUseCase
	fetcher   *TileFetcher
	filters   *FilterPipeline
	planner   *ViewportPlanner
	selection *Selection
	index     *spatial.Index
}

func newHarness(t *testing.T, transport Transport, capacity int) *harness {
	t.Helper()
	l := logger.NewNop()

	disk := cache.NewMapCache()
	tc, err := NewTileCacheUseCase(capacity, disk, l)
	if err != nil {
		t.Fatalf("NewTileCacheUseCase: %v", err)
	}
	fetcher := NewTileFetcher(transport, NewURLBuilder(testTilesConfig()), tc, l)
	filters := NewFilterPipeline(2, "None", tc, l)
	planner := NewViewportPlanner(1280, 720, 5, tc, fetcher, filters, l)

	return &harness{
		disk:      disk,
		cache:     tc,
		fetcher:   fetcher,
		filters:   filters,
		planner:   planner,
		selection: NewSelection(config.Selection{AspectWidth: 16, AspectHeight: 9, ZoomFactor: 80}),
		index:     spatial.NewIndex(l),
	}
}

func (h *harness) mapUseCase() *MapUseCase {
	return NewMapUseCase(h.cache, h.fetcher, h.filters, h.planner, h.selection, h.index,
		config.Heatmap{Width: 1920, Height: 1080}, logger.NewNop())
}

// runMap starts the consumer loop and stops it when the test ends.
func runMap(t *testing.T, uc *MapUseCase) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		uc.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
	}
	var zero T
	return zero
}
