package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/jaennil/guide_helper/backend/mapcore/internal/domain"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/config"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/sync/singleflight"
)

// Transport retrieves raw tile bytes for a URL.
type Transport interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPTransport fetches tiles from an upstream tile server. Concurrent
// requests for the same URL share a single upstream call.
type HTTPTransport struct {
	client    *http.Client
	userAgent string
	group     singleflight.Group
	logger    logger.Logger
}

var _ Transport = (*HTTPTransport)(nil)

func NewHTTPTransport(cfg config.Tiles, l logger.Logger) *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
		logger:    l,
	}
}

func (t *HTTPTransport) Fetch(ctx context.Context, url string) ([]byte, error) {
	v, err, shared := t.group.Do(url, func() (any, error) {
		return t.fetch(ctx, url)
	})
	if shared {
		t.logger.Debug("shared in-flight upstream request", "url", url)
	}
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (t *HTTPTransport) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.TransportError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", t.userAgent)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{URL: url, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.TransportError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{URL: url, Timeout: isTimeout(err), Err: fmt.Errorf("failed to read tile data: %w", err)}
	}

	return data, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// URLBuilder expands the tile URL template. Known placeholders are {s},
// {style}, {z}, {x}, {y} and {scale}.
type URLBuilder struct {
	template   string
	style      string
	subdomains []string
	scale      string
}

func NewURLBuilder(cfg config.Tiles) *URLBuilder {
	return &URLBuilder{
		template:   cfg.URLTemplate,
		style:      cfg.Style,
		subdomains: cfg.Subdomains,
		scale:      cfg.Scale,
	}
}

func (b *URLBuilder) URL(key domain.TileKey) string {
	r := strings.NewReplacer(
		"{s}", b.shard(key),
		"{style}", b.style,
		"{z}", strconv.Itoa(key.Zoom),
		"{x}", strconv.Itoa(key.X),
		"{y}", strconv.Itoa(key.Y),
		"{scale}", b.scale,
	)
	return r.Replace(b.template)
}

// shard spreads neighbouring tiles across subdomains deterministically.
func (b *URLBuilder) shard(key domain.TileKey) string {
	if len(b.subdomains) == 0 {
		return ""
	}
	return b.subdomains[(key.X+key.Y)%len(b.subdomains)]
}
