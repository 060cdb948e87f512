package domain

import "github.com/paulmach/orb"

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Point returns the point in orb's (lon, lat) order.
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

func BoundingBoxFromBound(b orb.Bound) BoundingBox {
	return BoundingBox{
		MinLat: b.Min.Lat(),
		MaxLat: b.Max.Lat(),
		MinLon: b.Min.Lon(),
		MaxLon: b.Max.Lon(),
	}
}

func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// SelectionBounds holds the geographic corners of the on-screen selection.
type SelectionBounds struct {
	NW GeoPoint `json:"nw"`
	NE GeoPoint `json:"ne"`
	SW GeoPoint `json:"sw"`
	SE GeoPoint `json:"se"`
}

// BoundingBox returns the axis-aligned box spanned by the four corners.
func (s SelectionBounds) BoundingBox() BoundingBox {
	b := orb.Bound{Min: s.NW.Point(), Max: s.NW.Point()}
	for _, c := range []GeoPoint{s.NE, s.SW, s.SE} {
		b = b.Extend(c.Point())
	}
	return BoundingBoxFromBound(b)
}
