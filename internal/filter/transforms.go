package filter

import "math"

func nightMode(r, g, b uint8) (uint8, uint8, uint8) {
	h, s, v := toHSV(r, g, b)
	return fromHSV(h, s, 1-v)
}

func sepia(r, g, b uint8) (uint8, uint8, uint8) {
	fr, fg, fb := float64(r), float64(g), float64(b)
	return truncated(0.393*fr + 0.769*fg + 0.189*fb),
		truncated(0.349*fr + 0.686*fg + 0.168*fb),
		truncated(0.272*fr + 0.534*fg + 0.131*fb)
}

func coolTone(r, g, b uint8) (uint8, uint8, uint8) {
	h, s, v := toHSV(r, g, b)
	return fromHSV(wrap(h+0.5), s, v)
}

func warmTone(r, g, b uint8) (uint8, uint8, uint8) {
	h, s, v := toHSV(r, g, b)
	return fromHSV(wrap(h-0.1), math.Min(s*1.2, 1), v)
}

func highContrast(r, g, b uint8) (uint8, uint8, uint8) {
	h, s, v := toHSV(r, g, b)
	s = math.Min(s*1.5, 1)
	v = unit(0.5 + (v-0.5)*1.5)
	return fromHSV(h, s, v)
}

func muted(r, g, b uint8) (uint8, uint8, uint8) {
	h, s, v := toHSV(r, g, b)
	return fromHSV(h, s*0.5, v*0.95+0.05)
}

func invertedGray(r, g, b uint8) (uint8, uint8, uint8) {
	gray := 255 - channel(0.2*float64(r)+0.7*float64(g)+0.1*float64(b))
	return gray, gray, gray
}

// toHSV returns hue, saturation and value in [0,1].
func toHSV(r, g, b uint8) (h, s, v float64) {
	fr, fg, fb := float64(r)/255, float64(g)/255, float64(b)/255
	maxc := math.Max(fr, math.Max(fg, fb))
	minc := math.Min(fr, math.Min(fg, fb))
	v = maxc
	if maxc == minc {
		return 0, 0, v
	}
	delta := maxc - minc
	s = delta / maxc

	rc := (maxc - fr) / delta
	gc := (maxc - fg) / delta
	bc := (maxc - fb) / delta
	switch {
	case fr == maxc:
		h = bc - gc
	case fg == maxc:
		h = 2 + rc - bc
	default:
		h = 4 + gc - rc
	}
	return wrap(h / 6), s, v
}

func fromHSV(h, s, v float64) (uint8, uint8, uint8) {
	if s == 0 {
		c := channel(v * 255)
		return c, c, c
	}
	h = wrap(h) * 6
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return channel(r * 255), channel(g * 255), channel(b * 255)
}

func wrap(x float64) float64 {
	x = math.Mod(x, 1)
	if x < 0 {
		x++
	}
	return x
}

func unit(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

// channel rounds and clamps to a byte.
func channel(x float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(x))))
}

// truncated drops the fraction before clamping to a channel.
func truncated(x float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Trunc(x))))
}
