// Package flowviz color-codes dense flow fields for display: direction maps
// to hue and magnitude to saturation on an HSV wheel. It consumes the raw
// norm/angle arrays produced by the solver so presentation layers stay
// decoupled from the numerical core.
package flowviz

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// HSVToRGB converts hue (degrees, [0, 360)), saturation and value (both
// [0, 1]) to 8-bit RGB.
func HSVToRGB(h, s, v float64) (uint8, uint8, uint8) {
	c := v * s
	hh := math.Mod(h, 360) / 60
	x := c * (1 - math.Abs(math.Mod(hh, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case hh < 1:
		r, g, b = c, x, 0
	case hh < 2:
		r, g, b = x, c, 0
	case hh < 3:
		r, g, b = 0, c, x
	case hh < 4:
		r, g, b = 0, x, c
	case hh < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return uint8((r + m) * 255), uint8((g + m) * 255), uint8((b + m) * 255)
}

// Encode renders a flow field given its magnitude and direction arrays
// (row-major, width*height, direction in degrees). Direction selects the
// hue and magnitude, normalized by the field maximum, the saturation; value
// is held at 1 so zero motion renders white.
func Encode(norm, angle []float64, width, height int) (*image.RGBA, error) {
	if len(norm) != width*height || len(angle) != width*height {
		return nil, fmt.Errorf("flowviz: field length %d/%d does not match %dx%d",
			len(norm), len(angle), width, height)
	}

	maxNorm := 0.0
	for _, v := range norm {
		if v > maxNorm {
			maxNorm = v
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			sat := 0.0
			if maxNorm > 0 {
				sat = norm[i] / maxNorm
			}
			r, g, b := HSVToRGB(angle[i], sat, 1)
			out.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return out, nil
}

// Legend renders the color wheel that keys direction to hue and magnitude
// to saturation. It is a pure function: callers that want a cached legend
// hold on to the returned image themselves.
func Legend(size int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, size, size))
	center := float64(size-1) / 2
	radius := center

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) - center
			// Image rows grow downward; flip so angle 90 points up.
			dy := center - float64(y)
			dist := math.Hypot(dx, dy)
			if dist > radius {
				out.SetRGBA(x, y, color.RGBA{A: 0})
				continue
			}
			angle := math.Atan2(dy, dx) * 180 / math.Pi
			if angle < 0 {
				angle += 360
			}
			r, g, b := HSVToRGB(angle, dist/radius, 1)
			out.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return out
}
