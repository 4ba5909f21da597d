package flow_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"opticflow/internal/floatimg"
	"opticflow/internal/flow"
)

func TestEstimateIdenticalImages(t *testing.T) {
	im1 := makeImage(48, 48, smoothPattern)
	im2 := im1.Clone()

	result, err := flow.Estimate(im1, im2, flow.DefaultParams())
	require.NoError(t, err)

	norm, err := result.Flow.Norm()
	require.NoError(t, err)
	assert.Less(t, norm.Max(), 0.5, "identical images must yield near-zero flow")
}

func TestEstimateRecoversTranslation(t *testing.T) {
	// image2 is image1 shifted by exactly (2, 0) pixels; the analytic
	// pattern makes the shift exact everywhere, borders included.
	im1 := makeImage(64, 64, smoothPattern)
	im2 := makeImage(64, 64, func(x, y float64) float64 {
		return smoothPattern(x-2, y)
	})

	result, err := flow.Estimate(im1, im2, flow.DefaultParams())
	require.NoError(t, err)

	dx := result.Flow.Dx
	dy := result.Flow.Dy
	require.Equal(t, 64, dx.Width)
	require.Equal(t, 64, dx.Height)

	// Mean over the interior, away from border effects.
	const margin = 8
	var sumX, sumY float64
	var count int
	for y := margin; y < 64-margin; y++ {
		for x := margin; x < 64-margin; x++ {
			sumX += dx.At(x, y)[0]
			sumY += dy.At(x, y)[0]
			count++
		}
	}
	meanX := sumX / float64(count)
	meanY := sumY / float64(count)

	assert.InDelta(t, 2.0, meanX, 0.3, "mean dx")
	assert.InDelta(t, 0.0, meanY, 0.3, "mean dy")
}

func TestEstimateReturnsWarpedImage(t *testing.T) {
	im1 := makeImage(48, 40, smoothPattern)
	im2 := makeImage(48, 40, func(x, y float64) float64 {
		return smoothPattern(x-1, y)
	})

	result, err := flow.Estimate(im1, im2, flow.DefaultParams())
	require.NoError(t, err)
	require.NotNil(t, result.Warped)
	require.True(t, floatimg.SameShape(im1, result.Warped))

	// Warping image2 back toward image1 must reduce the residual.
	rawDiff := make([]float64, len(im1.Pix))
	warpDiff := make([]float64, len(im1.Pix))
	for i := range im1.Pix {
		rawDiff[i] = im2.Pix[i] - im1.Pix[i]
		warpDiff[i] = result.Warped.Pix[i] - im1.Pix[i]
	}
	assert.Less(t, floats.Norm(warpDiff, 2), floats.Norm(rawDiff, 2))
}

func TestEstimateInvalidParameters(t *testing.T) {
	im := makeImage(32, 32, smoothPattern)

	for _, tc := range []struct {
		name   string
		mutate func(*flow.Params)
	}{
		{"ratio above one", func(p *flow.Params) { p.Ratio = 1.2 }},
		{"ratio negative", func(p *flow.Params) { p.Ratio = -0.1 }},
		{"alpha zero", func(p *flow.Params) { p.Alpha = 0 }},
		{"minWidth zero", func(p *flow.Params) { p.MinWidth = 0 }},
		{"outer zero", func(p *flow.Params) { p.OuterIterations = 0 }},
		{"inner negative", func(p *flow.Params) { p.InnerIterations = -1 }},
		{"cg zero", func(p *flow.Params) { p.CGIterations = 0 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			params := flow.DefaultParams()
			tc.mutate(&params)
			_, err := flow.Estimate(im, im.Clone(), params)
			require.ErrorIs(t, err, flow.ErrInvalidParameter)
		})
	}
}

func TestEstimateDimensionMismatch(t *testing.T) {
	im1 := makeImage(32, 32, smoothPattern)
	im2 := makeImage(30, 32, smoothPattern)

	_, err := flow.Estimate(im1, im2, flow.DefaultParams())
	require.ErrorIs(t, err, flow.ErrDimensionMismatch)

	im3 := floatimg.New(32, 32, 3)
	_, err = flow.Estimate(im1, im3, flow.DefaultParams())
	require.ErrorIs(t, err, flow.ErrDimensionMismatch)
}

func TestEstimateMultiChannel(t *testing.T) {
	// Two-channel pair with the same translation in both channels.
	w, h := 48, 48
	im1 := floatimg.New(w, h, 2)
	im2 := floatimg.New(w, h, 2)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fx, fy := float64(x), float64(y)
			p1 := im1.At(x, y)
			p2 := im2.At(x, y)
			p1[0] = smoothPattern(fx, fy)
			p1[1] = smoothPattern(fy, fx)
			p2[0] = smoothPattern(fx-1, fy)
			p2[1] = smoothPattern(fy, fx-1)
		}
	}

	params := flow.DefaultParams()
	params.MinWidth = 20
	result, err := flow.Estimate(im1, im2, params)
	require.NoError(t, err)

	var sum float64
	var count int
	for y := 8; y < h-8; y++ {
		for x := 8; x < w-8; x++ {
			sum += result.Flow.Dx.At(x, y)[0]
			count++
		}
	}
	assert.InDelta(t, 1.0, sum/float64(count), 0.3)
}

func TestDefaultParamsValid(t *testing.T) {
	p := flow.DefaultParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, 0.01, p.Alpha)
	assert.Equal(t, 0.75, p.Ratio)
	assert.Equal(t, 30, p.MinWidth)
	assert.Equal(t, 15, p.OuterIterations)
	assert.Equal(t, 1, p.InnerIterations)
	assert.Equal(t, 20, p.CGIterations)
}

// Sanity guard for the analytic pattern used across the estimation tests:
// values stay within [0, 1] like a normalized grayscale image.
func TestSmoothPatternRange(t *testing.T) {
	for y := -4.0; y < 70; y++ {
		for x := -4.0; x < 70; x++ {
			v := smoothPattern(x, y)
			require.False(t, math.IsNaN(v))
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, 1.0)
		}
	}
}
