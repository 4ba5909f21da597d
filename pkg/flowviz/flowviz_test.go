package flowviz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opticflow/pkg/flowviz"
)

func TestHSVToRGBPrimaries(t *testing.T) {
	for _, tc := range []struct {
		name    string
		h, s, v float64
		r, g, b uint8
	}{
		{"red", 0, 1, 1, 255, 0, 0},
		{"green", 120, 1, 1, 0, 255, 0},
		{"blue", 240, 1, 1, 0, 0, 255},
		{"white", 0, 0, 1, 255, 255, 255},
		{"black", 180, 1, 0, 0, 0, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r, g, b := flowviz.HSVToRGB(tc.h, tc.s, tc.v)
			assert.Equal(t, tc.r, r)
			assert.Equal(t, tc.g, g)
			assert.Equal(t, tc.b, b)
		})
	}
}

func TestEncodeZeroFlowIsWhite(t *testing.T) {
	norm := make([]float64, 4*3)
	angle := make([]float64, 4*3)

	img, err := flowviz.Encode(norm, angle, 4, 3)
	require.NoError(t, err)
	require.Equal(t, 4, img.Bounds().Dx())
	require.Equal(t, 3, img.Bounds().Dy())

	c := img.RGBAAt(2, 1)
	assert.EqualValues(t, 255, c.R)
	assert.EqualValues(t, 255, c.G)
	assert.EqualValues(t, 255, c.B)
}

func TestEncodeStrongestMotionFullySaturated(t *testing.T) {
	norm := []float64{0, 1, 2, 4}
	angle := []float64{0, 0, 0, 0}

	img, err := flowviz.Encode(norm, angle, 4, 1)
	require.NoError(t, err)

	// Maximum magnitude at hue 0 renders pure red.
	c := img.RGBAAt(3, 0)
	assert.EqualValues(t, 255, c.R)
	assert.EqualValues(t, 0, c.G)
	assert.EqualValues(t, 0, c.B)
}

func TestEncodeLengthMismatch(t *testing.T) {
	_, err := flowviz.Encode(make([]float64, 5), make([]float64, 6), 2, 3)
	require.Error(t, err)
}

func TestLegendShape(t *testing.T) {
	img := flowviz.Legend(33)
	require.Equal(t, 33, img.Bounds().Dx())
	require.Equal(t, 33, img.Bounds().Dy())

	// Center of the wheel has zero magnitude: white, opaque.
	c := img.RGBAAt(16, 16)
	assert.EqualValues(t, 255, c.A)
	assert.EqualValues(t, 255, c.R)
	assert.EqualValues(t, 255, c.G)
	assert.EqualValues(t, 255, c.B)

	// Corners lie outside the wheel and stay transparent.
	assert.EqualValues(t, 0, img.RGBAAt(0, 0).A)
}
