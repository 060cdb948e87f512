package domain

// HeatmapInput is everything a heatmap generator needs: the selected
// region, the output resolution and the points inside the region.
type HeatmapInput struct {
	Bounds SelectionBounds `json:"bounds"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Points []GeoPoint      `json:"points"`
}
