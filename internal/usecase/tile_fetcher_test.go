package usecase

import (
	"context"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jaennil/guide_helper/backend/mapcore/internal/domain"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/config"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/logger"
)

func TestURLBuilder(t *testing.T) {
	b := NewURLBuilder(testTilesConfig())

	got := b.URL(domain.TileKey{Zoom: 12, X: 2200, Y: 1201})
	want := "https://c.example.com/light_all/12/2200/1201.png"
	if got != want {
		t.Fatalf("URL = %q, want %q", got, want)
	}

	cfg := testTilesConfig()
	cfg.Subdomains = nil
	cfg.Scale = "@2x"
	got = NewURLBuilder(cfg).URL(domain.TileKey{Zoom: 1, X: 0, Y: 1})
	want = "https://.example.com/light_all/1/0/1@2x.png"
	if got != want {
		t.Fatalf("URL = %q, want %q", got, want)
	}
}

func TestRequestTileDeduplicates(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{
		body: pngBytes(t, solidImage(color.NRGBA{G: 255, A: 255})),
		gate: make(chan struct{}),
	}
	h := newHarness(t, transport, 10)
	key := domain.TileKey{Zoom: 3, X: 2, Y: 5}

	if !h.fetcher.RequestTile(ctx, key) {
		t.Fatal("first RequestTile should start a fetch")
	}
	if h.fetcher.RequestTile(ctx, key) {
		t.Fatal("second RequestTile must not start another fetch")
	}
	close(transport.gate)

	res := receive(t, h.fetcher.results)
	if !h.fetcher.HandleResult(ctx, res) {
		t.Fatalf("HandleResult rejected a good tile: %v", res.err)
	}

	if n := transport.calls.Load(); n != 1 {
		t.Fatalf("transport calls = %d, want 1", n)
	}
	if h.fetcher.IsPending(key) {
		t.Fatal("pending marker not cleared")
	}
	if !h.cache.Contains(key) {
		t.Fatal("fetched tile not cached")
	}
	if _, ok, _ := h.disk.Get(ctx, toCacheKey(key)); !ok {
		t.Fatal("fetched tile not written through to disk")
	}

	// cached tiles are not fetched again
	if h.fetcher.RequestTile(ctx, key) {
		t.Fatal("RequestTile for a cached tile should be a no-op")
	}
}

func TestRequestTileFailureAllowsRetry(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{err: &domain.TransportError{URL: "u", StatusCode: http.StatusServiceUnavailable}}
	h := newHarness(t, transport, 10)
	key := domain.TileKey{Zoom: 2, X: 1, Y: 1}

	h.fetcher.RequestTile(ctx, key)
	res := receive(t, h.fetcher.results)
	if !errors.Is(res.err, domain.ErrTransport) {
		t.Fatalf("result error = %v, want transport error", res.err)
	}
	if h.fetcher.HandleResult(ctx, res) {
		t.Fatal("failed fetch must not be integrated")
	}
	if h.cache.Contains(key) || h.fetcher.IsPending(key) {
		t.Fatal("failed fetch left state behind")
	}

	if !h.fetcher.RequestTile(ctx, key) {
		t.Fatal("tile should be eligible for retry")
	}
}

func TestRequestTileDecodeFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, &fakeTransport{body: []byte("<html>rate limited</html>")}, 10)
	key := domain.TileKey{Zoom: 1, X: 0, Y: 0}

	h.fetcher.RequestTile(ctx, key)
	res := receive(t, h.fetcher.results)

	var de *domain.DecodeError
	if !errors.As(res.err, &de) || de.Key != key {
		t.Fatalf("result error = %v, want DecodeError for %s", res.err, key)
	}
	h.fetcher.HandleResult(ctx, res)
	if h.cache.Contains(key) {
		t.Fatal("undecodable tile must not be cached")
	}
}

func TestClearPendingAcceptsStaleResults(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{
		body: pngBytes(t, solidImage(color.NRGBA{B: 255, A: 255})),
		gate: make(chan struct{}),
	}
	h := newHarness(t, transport, 10)
	key := domain.TileKey{Zoom: 4, X: 3, Y: 3}

	h.fetcher.RequestTile(ctx, key)
	h.fetcher.ClearPending()

	if !h.fetcher.RequestTile(ctx, key) {
		t.Fatal("cleared key should be requestable again")
	}
	close(transport.gate)

	for i := 0; i < 2; i++ {
		h.fetcher.HandleResult(ctx, receive(t, h.fetcher.results))
	}
	if !h.cache.Contains(key) {
		t.Fatal("stale result should still be cached")
	}
	if h.fetcher.PendingCount() != 0 {
		t.Fatalf("pending = %d, want 0", h.fetcher.PendingCount())
	}
}

func TestStaleResultKeepsNewerPendingMarker(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{gate: make(chan struct{})}
	defer close(transport.gate)
	h := newHarness(t, transport, 10)
	key := domain.TileKey{Zoom: 4, X: 5, Y: 6}

	h.fetcher.RequestTile(ctx, key)
	staleGen := h.fetcher.pending[key]
	h.fetcher.ClearPending()
	h.fetcher.RequestTile(ctx, key)
	currentGen := h.fetcher.pending[key]
	if currentGen == staleGen {
		t.Fatal("a new request must get a new generation")
	}

	h.fetcher.HandleResult(ctx, fetchResult{key: key, gen: staleGen, err: errors.New("late failure")})
	if !h.fetcher.IsPending(key) {
		t.Fatal("stale result cleared the newer request's marker")
	}

	h.fetcher.HandleResult(ctx, fetchResult{key: key, gen: currentGen, err: errors.New("failure")})
	if h.fetcher.IsPending(key) {
		t.Fatal("current result did not clear its marker")
	}
}

func TestRequestTileRejectsInvalidKey(t *testing.T) {
	transport := &fakeTransport{}
	h := newHarness(t, transport, 10)

	if h.fetcher.RequestTile(context.Background(), domain.TileKey{Zoom: 1, X: 2, Y: 0}) {
		t.Fatal("RequestTile accepted a key outside the grid")
	}
	if transport.calls.Load() != 0 {
		t.Fatal("transport called for an invalid key")
	}
}

func TestHTTPTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(config.Tiles{UserAgent: "HeatmapApp/1.1", Timeout: testTilesConfig().Timeout}, logger.NewNop())

	data, err := tr.Fetch(context.Background(), srv.URL+"/ok")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "HeatmapApp/1.1" {
		t.Fatalf("upstream saw User-Agent %q", data)
	}

	_, err = tr.Fetch(context.Background(), srv.URL+"/missing")
	var te *domain.TransportError
	if !errors.As(err, &te) || te.StatusCode != http.StatusNotFound {
		t.Fatalf("error = %v, want TransportError with 404", err)
	}
	if te.Reason() != "http_status" {
		t.Fatalf("Reason = %q", te.Reason())
	}
}

func TestHTTPTransportConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tr := NewHTTPTransport(testTilesConfig(), logger.NewNop())
	_, err := tr.Fetch(context.Background(), url+"/tile.png")
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
}
