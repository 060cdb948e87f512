package usecase

import (
	"bytes"
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaennil/guide_helper/backend/mapcore/internal/domain"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/filter"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/logger"
)

func TestFilterNoneSchedulesNothing(t *testing.T) {
	h := newHarness(t, &fakeTransport{}, 10)
	base := testTile(domain.TileKey{Zoom: 1, X: 0, Y: 0})

	if h.filters.ApplyFilterAsync(context.Background(), base, filter.None) {
		t.Fatal("None must not schedule a job")
	}
}

func TestFilterVariantIsCached(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, &fakeTransport{}, 10)
	key := domain.TileKey{Zoom: 2, X: 1, Y: 3}
	base := testTile(key)
	h.cache.Put(ctx, base, nil)

	if err := h.filters.SetActive("Sepia"); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if !h.filters.ApplyFilterAsync(ctx, base, "Sepia") {
		t.Fatal("expected a job to be scheduled")
	}
	if h.filters.ApplyFilterAsync(ctx, base, "Sepia") {
		t.Fatal("pending job must not be resubmitted")
	}

	if !h.filters.HandleResult(receive(t, h.filters.results)) {
		t.Fatal("result was not integrated")
	}

	vk := domain.VariantKey{Tile: key, Filter: "Sepia"}
	v, ok := h.cache.Variant(vk)
	if !ok {
		t.Fatal("variant not cached")
	}
	want := filter.Apply("Sepia", base.Image)
	if !bytes.Equal(v.Image.(*image.NRGBA).Pix, want.Pix) {
		t.Fatal("variant pixels differ from a direct Sepia application")
	}
	if h.filters.IsPending(vk) {
		t.Fatal("pending marker not cleared")
	}
	if h.filters.ApplyFilterAsync(ctx, base, "Sepia") {
		t.Fatal("cached variant must not be recomputed")
	}
}

func TestFilterSwitchDiscardsResults(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, &fakeTransport{}, 10)
	key := domain.TileKey{Zoom: 2, X: 0, Y: 0}
	base := testTile(key)
	h.cache.Put(ctx, base, nil)

	h.filters.SetActive("Sepia")
	h.filters.ApplyFilterAsync(ctx, base, "Sepia")
	h.filters.SetActive("Muted")

	if h.filters.HandleResult(receive(t, h.filters.results)) {
		t.Fatal("result for the previous filter was integrated")
	}
	if _, ok := h.cache.Variant(domain.VariantKey{Tile: key, Filter: "Sepia"}); ok {
		t.Fatal("stale variant cached")
	}
	if h.filters.PendingCount() != 0 {
		t.Fatalf("pending = %d after switch", h.filters.PendingCount())
	}
}

func TestFilterFailureFallsBackToBase(t *testing.T) {
	ctx := context.Background()
	filter.Register("Broken", func(*image.NRGBA) *image.NRGBA { panic("boom") })

	h := newHarness(t, &fakeTransport{}, 10)
	key := domain.TileKey{Zoom: 3, X: 4, Y: 4}
	base := testTile(key)
	h.cache.Put(ctx, base, nil)
	h.filters.SetActive("Broken")

	h.filters.ApplyFilterAsync(ctx, base, "Broken")
	res := receive(t, h.filters.results)
	if !errors.Is(res.err, domain.ErrFilter) {
		t.Fatalf("result error = %v, want FilterError", res.err)
	}

	if !h.filters.HandleResult(res) {
		t.Fatal("fallback variant was not stored")
	}
	v, _ := h.cache.Variant(domain.VariantKey{Tile: key, Filter: "Broken"})
	if v != base {
		t.Fatal("failed filter should cache the unfiltered base tile")
	}
}

func TestFilterResultForEvictedTileIsDropped(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, &fakeTransport{}, 10)
	key := domain.TileKey{Zoom: 2, X: 2, Y: 2}
	base := testTile(key)
	h.cache.Put(ctx, base, nil)
	h.filters.SetActive("Night Mode")

	h.filters.ApplyFilterAsync(ctx, base, "Night Mode")
	h.cache.ClearMemory()

	if h.filters.HandleResult(receive(t, h.filters.results)) {
		t.Fatal("variant of an evicted tile was integrated")
	}
}

func TestSetActiveRejectsUnknown(t *testing.T) {
	h := newHarness(t, &fakeTransport{}, 10)
	if err := h.filters.SetActive("Vaporwave"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("SetActive error = %v, want ErrInvalidInput", err)
	}
	if h.filters.Active() != filter.None {
		t.Fatalf("active = %q, want None", h.filters.Active())
	}
}

func TestFilterPoolIsBounded(t *testing.T) {
	const (
		workers = 3
		jobs    = 10
	)
	ctx := context.Background()
	h := newHarness(t, &fakeTransport{}, 100)

	var (
		running atomic.Int32
		peak    atomic.Int32
		once    sync.Once
	)
	gate := make(chan struct{})
	release := func() { once.Do(func() { close(gate) }) }
	t.Cleanup(release)

	filter.Register("Gated", func(src *image.NRGBA) *image.NRGBA {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-gate
		running.Add(-1)
		return src
	})

	pipeline := NewFilterPipeline(workers, "Gated", h.cache, logger.NewNop())
	for i := 0; i < jobs; i++ {
		base := testTile(domain.TileKey{Zoom: 4, X: i, Y: 0})
		h.cache.Put(ctx, base, nil)
		if !pipeline.ApplyFilterAsync(ctx, base, "Gated") {
			t.Fatalf("job %d not scheduled", i)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for running.Load() < workers {
		if time.Now().After(deadline) {
			t.Fatalf("only %d jobs started, want %d", running.Load(), workers)
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	if n := running.Load(); n != workers {
		t.Fatalf("%d jobs running with %d workers", n, workers)
	}

	release()
	for i := 0; i < jobs; i++ {
		if !pipeline.HandleResult(receive(t, pipeline.results)) {
			t.Fatalf("result %d not integrated", i)
		}
	}
	if p := peak.Load(); p != workers {
		t.Fatalf("peak concurrency = %d, want %d", p, workers)
	}
	if pipeline.PendingCount() != 0 {
		t.Fatalf("pending = %d after all results", pipeline.PendingCount())
	}
}
