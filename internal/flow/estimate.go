// Package flow implements coarse-to-fine variational optical flow
// estimation: a Gaussian image pyramid, incremental warping, fixed-point
// linearization of a robust brightness + gradient constancy energy, and a
// preconditioned conjugate gradient solve of the resulting 5-point-stencil
// system at every inner iteration.
package flow

import (
	"fmt"

	"opticflow/internal/floatimg"
)

// Result is the output of one estimation: the dense flow field from image1
// to image2 at full resolution, and the final warp of image2 toward image1.
type Result struct {
	Flow   Field
	Warped *floatimg.Image
}

// Estimate computes the dense optical flow between two images of identical
// dimensions and channel count. The whole computation is scoped to this
// call; independent concurrent calls on independent inputs are safe.
//
// Per pyramid level, coarsest to finest, the flow is seeded from the
// upsampled result of the previous level (zero at the coarsest), then
// refined by OuterIterations warp-and-relinearize passes, each running
// InnerIterations rebuild-and-solve passes of CGIterations conjugate
// gradient steps. Any numerical failure aborts the estimation with the
// level and iteration indices attached; there is no partial result.
func Estimate(im1, im2 *floatimg.Image, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !floatimg.SameShape(im1, im2) {
		return nil, fmt.Errorf("%w: image1 %dx%dx%d vs image2 %dx%dx%d",
			ErrDimensionMismatch,
			im1.Width, im1.Height, im1.Channels,
			im2.Width, im2.Height, im2.Channels)
	}

	levels, err := BuildPyramid(im1, im2, p.Ratio, p.MinWidth)
	if err != nil {
		return nil, err
	}

	var dx, dy *floatimg.Image
	var warped *floatimg.Image

	for li, lv := range levels {
		if li == 0 {
			dx = floatimg.New(lv.Width, lv.Height, 1)
			dy = floatimg.New(lv.Width, lv.Height, 1)
		} else {
			dx, dy = UpsampleFlow(dx, dy, lv.Width, lv.Height)
		}

		for outer := 0; outer < p.OuterIterations; outer++ {
			warped, err = WarpImage(lv.Image2, dx, dy)
			if err != nil {
				return nil, fmt.Errorf("level %d outer %d: %w", li, outer, err)
			}
			coef := computeCoefficients(lv.Image1, warped)

			// Increment is taken relative to the flow the warp used.
			u0 := dx.Clone()
			v0 := dy.Clone()
			n := lv.Width * lv.Height
			du := make([]float64, n)
			dv := make([]float64, n)

			for inner := 0; inner < p.InnerIterations; inner++ {
				sys := BuildSystem(coef, u0.Pix, v0.Pix, du, dv, p.Alpha, lv.Width, lv.Height)
				if err := sys.Solve(du, dv, p.CGIterations); err != nil {
					return nil, fmt.Errorf("level %d outer %d inner %d: %w", li, outer, inner, err)
				}
				for i := 0; i < n; i++ {
					dx.Pix[i] = u0.Pix[i] + du[i]
					dy.Pix[i] = v0.Pix[i] + dv[i]
				}
			}
		}
	}

	finest := levels[len(levels)-1]
	warped, err = WarpImage(finest.Image2, dx, dy)
	if err != nil {
		return nil, err
	}
	return &Result{Flow: Field{Dx: dx, Dy: dy}, Warped: warped}, nil
}
