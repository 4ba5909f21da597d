package flow

import (
	"fmt"
	"math"

	"opticflow/internal/floatimg"
)

// Level is one resolution step of the coarse-to-fine pyramid. Both images
// of the pair are downsampled with identical dimensions so they stay paired.
type Level struct {
	Image1 *floatimg.Image
	Image2 *floatimg.Image
	Width  int
	Height int
}

// BuildPyramid smooths and downsamples the image pair until the next level
// would drop below minWidth in either dimension. Levels are returned
// coarsest first; the original resolution is always the last entry. An
// input already smaller than minWidth yields a single-level pyramid.
//
// Each downsample pass applies a separable Gaussian with
// sigma = 1/ratio - 1 before bilinear resampling, a standard anti-alias
// choice for a per-level shrink by ratio.
func BuildPyramid(im1, im2 *floatimg.Image, ratio float64, minWidth int) ([]Level, error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, fmt.Errorf("%w: ratio must be in (0,1), got %g", ErrInvalidParameter, ratio)
	}
	if minWidth <= 0 {
		return nil, fmt.Errorf("%w: minWidth must be > 0, got %d", ErrInvalidParameter, minWidth)
	}
	if !floatimg.SameShape(im1, im2) {
		return nil, fmt.Errorf("%w: image pair %dx%dx%d vs %dx%dx%d",
			ErrDimensionMismatch,
			im1.Width, im1.Height, im1.Channels,
			im2.Width, im2.Height, im2.Channels)
	}

	sigma := 1/ratio - 1

	levels := []Level{{im1, im2, im1.Width, im1.Height}}
	for {
		cur := levels[len(levels)-1]
		nw := int(math.Round(float64(cur.Width) * ratio))
		nh := int(math.Round(float64(cur.Height) * ratio))
		if nw < minWidth || nh < minWidth {
			break
		}
		// Rounding can stall at tiny sizes; stop rather than loop.
		if nw >= cur.Width || nh >= cur.Height {
			break
		}
		levels = append(levels, Level{
			Image1: cur.Image1.Smooth(sigma).Resize(nw, nh),
			Image2: cur.Image2.Smooth(sigma).Resize(nw, nh),
			Width:  nw,
			Height: nh,
		})
	}

	// Reverse in place: coarsest first.
	for i, j := 0, len(levels)-1; i < j; i, j = i+1, j-1 {
		levels[i], levels[j] = levels[j], levels[i]
	}
	return levels, nil
}
