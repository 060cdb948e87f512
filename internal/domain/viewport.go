package domain

// ViewportState is the pan/zoom position of the map. Pan offsets are the
// screen position of the world pixel origin.
type ViewportState struct {
	Zoom int     `json:"zoom"`
	PanX float64 `json:"pan_x"`
	PanY float64 `json:"pan_y"`
}

// ScreenRect is a rectangle in viewport pixels.
type ScreenRect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

func (r ScreenRect) Width() float64 {
	return r.Right - r.Left
}

func (r ScreenRect) Height() float64 {
	return r.Bottom - r.Top
}

func (r ScreenRect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}
