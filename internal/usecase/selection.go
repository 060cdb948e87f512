package usecase

import (
	"fmt"

	"github.com/jaennil/guide_helper/backend/mapcore/internal/domain"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/config"
	"github.com/jaennil/guide_helper/backend/mapcore/pkg/mercator"
)

const (
	minSelectionZoom = 0.1
	maxSelectionZoom = 0.9
)

// Selection is the fixed-aspect rectangle centred in the viewport.
type Selection struct {
	aspectWidth  int
	aspectHeight int
	zoomFactor   float64
	hidden       bool
}

func NewSelection(cfg config.Selection) *Selection {
	w, h := SimplifyAspect(cfg.AspectWidth, cfg.AspectHeight)
	s := &Selection{
		aspectWidth:  w,
		aspectHeight: h,
	}
	s.SetZoom(cfg.ZoomFactor)
	return s
}

// AspectRatio returns the reduced aspect ratio.
func (s *Selection) AspectRatio() (int, int) {
	return s.aspectWidth, s.aspectHeight
}

// SetAspectRatio accepts either a ratio or a resolution, which is reduced.
func (s *Selection) SetAspectRatio(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: aspect ratio %d:%d", domain.ErrInvalidInput, width, height)
	}
	s.aspectWidth, s.aspectHeight = SimplifyAspect(width, height)
	s.hidden = false
	return nil
}

// SetZoom sets the share of the largest fitting rectangle the selection
// covers, given in percent and clamped to [10, 90].
func (s *Selection) SetZoom(percent float64) {
	s.zoomFactor = max(minSelectionZoom, min(maxSelectionZoom, percent/100))
}

func (s *Selection) ZoomFactor() float64 {
	return s.zoomFactor
}

func (s *Selection) Hide() {
	s.hidden = true
}

func (s *Selection) Show() {
	s.hidden = false
}

// Rect returns the selection rectangle for a viewport of the given size.
// There is no rectangle while the selection is hidden or the viewport is
// empty.
func (s *Selection) Rect(viewWidth, viewHeight int) (domain.ScreenRect, bool) {
	if s.hidden || viewWidth <= 0 || viewHeight <= 0 {
		return domain.ScreenRect{}, false
	}

	var maxWidth, maxHeight int
	if viewWidth*s.aspectHeight <= viewHeight*s.aspectWidth {
		maxWidth = viewWidth
		maxHeight = int(float64(maxWidth) * float64(s.aspectHeight) / float64(s.aspectWidth))
	} else {
		maxHeight = viewHeight
		maxWidth = int(float64(maxHeight) * float64(s.aspectWidth) / float64(s.aspectHeight))
	}

	w := int(float64(maxWidth) * s.zoomFactor)
	h := int(float64(maxHeight) * s.zoomFactor)
	left := (viewWidth - w) / 2
	top := (viewHeight - h) / 2

	rect := domain.ScreenRect{
		Left:   float64(left),
		Top:    float64(top),
		Right:  float64(left + w),
		Bottom: float64(top + h),
	}
	if rect.Empty() {
		return domain.ScreenRect{}, false
	}
	return rect, true
}

// SelectionBounds maps the screen rectangle to geographic corners under the
// given viewport state. A nil rectangle yields no bounds.
func SelectionBounds(rect *domain.ScreenRect, state domain.ViewportState) (domain.SelectionBounds, bool) {
	if rect == nil {
		return domain.SelectionBounds{}, false
	}

	toGeo := func(x, y float64) domain.GeoPoint {
		lat, lon := mercator.PixelToGeo(x-state.PanX, y-state.PanY, state.Zoom)
		return domain.GeoPoint{Lat: lat, Lon: lon}
	}

	return domain.SelectionBounds{
		NW: toGeo(rect.Left, rect.Top),
		NE: toGeo(rect.Right, rect.Top),
		SW: toGeo(rect.Left, rect.Bottom),
		SE: toGeo(rect.Right, rect.Bottom),
	}, true
}

// SimplifyAspect reduces a resolution to its aspect ratio. Non-positive
// input yields 16:9.
func SimplifyAspect(width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		return 16, 9
	}
	d := gcd(width, height)
	return width / d, height / d
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
