// Package track reads track files into point sequences.
package track

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jaennil/guide_helper/backend/mapcore/internal/domain"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/usecase"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSONLoader reads GeoJSON feature collections or single features from
// a tracks directory and returns every coordinate in document order. Paths
// are relative to the directory and may not leave it.
type GeoJSONLoader struct {
	dir string
}

var _ usecase.TrackLoader = (*GeoJSONLoader)(nil)

func NewGeoJSONLoader(dir string) *GeoJSONLoader {
	return &GeoJSONLoader{dir: dir}
}

func (g *GeoJSONLoader) Load(ctx context.Context, path string) ([]domain.GeoPoint, error) {
	if !filepath.IsLocal(path) {
		return nil, fmt.Errorf("%w: track path %q is outside the tracks directory", domain.ErrInvalidInput, path)
	}

	root, err := os.OpenRoot(g.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracks directory: %w", err)
	}
	defer root.Close()

	f, err := root.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open track file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read track file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse extracts the points of a GeoJSON document.
func Parse(data []byte) ([]domain.GeoPoint, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err == nil && len(fc.Features) > 0 {
		var points []domain.GeoPoint
		for _, f := range fc.Features {
			points = appendGeometry(points, f.Geometry)
		}
		return points, nil
	}

	f, ferr := geojson.UnmarshalFeature(data)
	if ferr != nil {
		if err != nil {
			return nil, fmt.Errorf("failed to decode geojson: %w", err)
		}
		return nil, fmt.Errorf("failed to decode geojson: %w", ferr)
	}
	return appendGeometry(nil, f.Geometry), nil
}

func appendGeometry(points []domain.GeoPoint, g orb.Geometry) []domain.GeoPoint {
	switch g := g.(type) {
	case orb.Point:
		points = append(points, domain.GeoPoint{Lat: g.Lat(), Lon: g.Lon()})
	case orb.MultiPoint:
		for _, p := range g {
			points = appendGeometry(points, p)
		}
	case orb.LineString:
		for _, p := range g {
			points = appendGeometry(points, p)
		}
	case orb.MultiLineString:
		for _, ls := range g {
			points = appendGeometry(points, ls)
		}
	case orb.Ring:
		for _, p := range g {
			points = appendGeometry(points, p)
		}
	case orb.Polygon:
		for _, r := range g {
			points = appendGeometry(points, r)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			points = appendGeometry(points, p)
		}
	case orb.Collection:
		for _, c := range g {
			points = appendGeometry(points, c)
		}
	}
	return points
}
