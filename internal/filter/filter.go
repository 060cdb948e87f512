// Package filter holds the catalogue of tile colour transforms. Every
// transform is a pure function of its input raster: it allocates a new
// image and keeps the alpha channel of each pixel unchanged.
package filter

import (
	"image"
	"sync"

	"golang.org/x/image/draw"
)

const None = "None"

// Func transforms a raster. Implementations must not modify src.
type Func func(src *image.NRGBA) *image.NRGBA

type entry struct {
	name string
	fn   Func
}

var (
	mu        sync.RWMutex
	catalogue = []entry{
		{None, identity},
		{"Night Mode", perPixel(nightMode)},
		{"Sepia", perPixel(sepia)},
		{"Cool Tone", perPixel(coolTone)},
		{"Warm Tone", perPixel(warmTone)},
		{"High Contrast", perPixel(highContrast)},
		{"Muted", perPixel(muted)},
		{"Inverted Gray", perPixel(invertedGray)},
	}
)

// Names lists the registered filters in catalogue order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(catalogue))
	for _, e := range catalogue {
		names = append(names, e.name)
	}
	return names
}

// Known reports whether name is registered.
func Known(name string) bool {
	_, ok := lookup(name)
	return ok
}

// Register adds a filter or replaces the one with the same name.
func Register(name string, fn Func) {
	mu.Lock()
	defer mu.Unlock()

	for i := range catalogue {
		if catalogue[i].name == name {
			catalogue[i].fn = fn
			return
		}
	}
	catalogue = append(catalogue, entry{name: name, fn: fn})
}

func lookup(name string) (Func, bool) {
	mu.RLock()
	defer mu.RUnlock()

	for _, e := range catalogue {
		if e.name == name {
			return e.fn, true
		}
	}
	return nil, false
}

// Apply runs the named filter over src. Unknown names behave like None.
func Apply(name string, src image.Image) *image.NRGBA {
	fn, ok := lookup(name)
	if !ok {
		fn = identity
	}
	return fn(ToNRGBA(src))
}

// ToNRGBA returns a copy of src as a non-premultiplied RGBA raster whose
// bounds start at the origin.
func ToNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(dst, image.Point{}, src, b, draw.Src, nil)
	return dst
}

func identity(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}

type pixelFunc func(r, g, b uint8) (uint8, uint8, uint8)

func perPixel(pf pixelFunc) Func {
	return func(src *image.NRGBA) *image.NRGBA {
		dst := image.NewNRGBA(src.Rect)
		for i := 0; i+3 < len(src.Pix); i += 4 {
			r, g, b := pf(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
			dst.Pix[i] = r
			dst.Pix[i+1] = g
			dst.Pix[i+2] = b
			dst.Pix[i+3] = src.Pix[i+3]
		}
		return dst
	}
}
