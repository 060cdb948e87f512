// Package mercator converts between WGS84 coordinates, Web Mercator pixel
// coordinates and tile indices. Every other package goes through GeoToPixel
// and PixelToGeo; nothing else re-derives the projection.
package mercator

import "math"

const (
	// TileSize is the edge length of a raster tile in pixels.
	TileSize = 256

	MinZoom = 0
	MaxZoom = 19

	// MaxLatitude is the latitude where the square Web Mercator world ends.
	MaxLatitude = 85.05112877980659
)

// WorldSize returns the width (and height) of the world in pixels at zoom.
func WorldSize(zoom int) float64 {
	return math.Exp2(float64(zoom)) * TileSize
}

// GeoToPixel projects a WGS84 position onto the global pixel plane at zoom.
// Latitudes outside ±MaxLatitude are clamped so the result stays finite.
func GeoToPixel(lat, lon float64, zoom int) (x, y float64) {
	lat = ClampLatitude(lat)
	size := WorldSize(zoom)
	latRad := lat * math.Pi / 180.0

	x = (lon + 180.0) / 360.0 * size
	y = (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * size
	return x, y
}

// PixelToGeo is the exact inverse of GeoToPixel.
func PixelToGeo(x, y float64, zoom int) (lat, lon float64) {
	size := WorldSize(zoom)

	lon = x/size*360.0 - 180.0
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*y/size)))
	lat = latRad * 180.0 / math.Pi
	return lat, lon
}

// PixelToTile returns the tile index containing a global pixel coordinate,
// clamped to the tile grid at zoom.
func PixelToTile(x, y float64, zoom int) (tx, ty int) {
	maxTile := TileCount(zoom) - 1
	tx = clamp(int(math.Floor(x/TileSize)), 0, maxTile)
	ty = clamp(int(math.Floor(y/TileSize)), 0, maxTile)
	return tx, ty
}

// TileCount returns the number of tiles per axis at zoom.
func TileCount(zoom int) int {
	return 1 << zoom
}

// ClampZoom limits zoom to [MinZoom, MaxZoom].
func ClampZoom(zoom int) int {
	return clamp(zoom, MinZoom, MaxZoom)
}

// ClampLatitude limits lat to the Web Mercator band.
func ClampLatitude(lat float64) float64 {
	return math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
