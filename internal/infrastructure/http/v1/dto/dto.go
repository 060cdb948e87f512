package dto

import (
	"github.com/jaennil/guide_helper/backend/mapcore/internal/domain"
	"github.com/jaennil/guide_helper/backend/mapcore/internal/spatial"
)

type PanRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// ZoomRequest zooms to an absolute level or by a relative step. The centre
// is optional and defaults to the viewport centre. Levels outside the
// supported range are clamped.
type ZoomRequest struct {
	Zoom    *int     `json:"zoom"`
	Step    int      `json:"step" validate:"oneof=-1 0 1"`
	CenterX *float64 `json:"center_x"`
	CenterY *float64 `json:"center_y"`
}

type CenterRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

type ResizeRequest struct {
	Width  int `json:"width" validate:"required,gt=0"`
	Height int `json:"height" validate:"required,gt=0"`
}

type FilterRequest struct {
	Name string `json:"name" validate:"required"`
}

type FiltersResponse struct {
	Active string   `json:"active"`
	Names  []string `json:"names"`
}

type Point struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// AddFileRequest carries either the points of a track or the path of a
// GeoJSON track file readable by the service.
type AddFileRequest struct {
	ID     string  `json:"id" validate:"required"`
	Points []Point `json:"points" validate:"required_without=Path,omitempty,dive"`
	Path   string  `json:"path" validate:"required_without=Points"`
}

func (r AddFileRequest) GeoPoints() []domain.GeoPoint {
	points := make([]domain.GeoPoint, len(r.Points))
	for i, p := range r.Points {
		points[i] = domain.GeoPoint{Lat: p.Lat, Lon: p.Lon}
	}
	return points
}

type FilesResponse struct {
	Files []spatial.FileInfo `json:"files"`
}

type SelectionRequest struct {
	AspectWidth  int      `json:"aspect_width" validate:"required_with=AspectHeight,omitempty,gt=0"`
	AspectHeight int      `json:"aspect_height" validate:"required_with=AspectWidth,omitempty,gt=0"`
	ZoomPercent  *float64 `json:"zoom_percent" validate:"omitempty,gte=0,lte=100"`
	Visible      *bool    `json:"visible"`
}

type SelectionResponse struct {
	AspectWidth  int                     `json:"aspect_width"`
	AspectHeight int                     `json:"aspect_height"`
	ZoomFactor   float64                 `json:"zoom_factor"`
	Rect         *domain.ScreenRect      `json:"rect,omitempty"`
	Bounds       *domain.SelectionBounds `json:"bounds,omitempty"`
}

type HeatmapRequest struct {
	Width  int `json:"width" validate:"gte=0"`
	Height int `json:"height" validate:"gte=0"`
}

type LayoutTile struct {
	Z      int     `json:"z"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Ready  bool    `json:"ready"`
	Source string  `json:"source,omitempty"`
	URL    string  `json:"url"`
}

type ViewportResponse struct {
	State  domain.ViewportState `json:"state"`
	Width  int                  `json:"width"`
	Height int                  `json:"height"`
	Filter string               `json:"filter"`
	Tiles  []LayoutTile         `json:"tiles"`
}
