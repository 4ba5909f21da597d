package flow

import (
	"fmt"

	"opticflow/internal/floatimg"
)

// WarpImage resamples img at coordinates shifted by the flow field: output
// pixel (x, y) takes the bilinear sample of img at (x+flowX, y+flowY).
// Samples falling outside the image are clamped to the border, so the
// operation is total and deterministic. flowX and flowY must be
// single-channel fields matching the image dimensions.
func WarpImage(img, flowX, flowY *floatimg.Image) (*floatimg.Image, error) {
	if flowX.Width != img.Width || flowX.Height != img.Height ||
		flowY.Width != img.Width || flowY.Height != img.Height {
		return nil, fmt.Errorf("%w: flow %dx%d / %dx%d vs image %dx%d",
			ErrDimensionMismatch,
			flowX.Width, flowX.Height, flowY.Width, flowY.Height,
			img.Width, img.Height)
	}
	if flowX.Channels != 1 || flowY.Channels != 1 {
		return nil, fmt.Errorf("%w: flow components must be single-channel", ErrDimensionMismatch)
	}

	out := floatimg.New(img.Width, img.Height, img.Channels)
	floatimg.ParallelRows(img.Height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < img.Width; x++ {
				fx := float64(x) + flowX.At(x, y)[0]
				fy := float64(y) + flowY.At(x, y)[0]
				img.Bilinear(fx, fy, out.At(x, y))
			}
		}
	})
	return out, nil
}

// UpsampleFlow resizes a flow field to width*height and rescales the
// displacement values by the actual per-axis magnification, which is
// 1/ratio up to the rounding of the pyramid dimensions.
func UpsampleFlow(flowX, flowY *floatimg.Image, width, height int) (*floatimg.Image, *floatimg.Image) {
	sx := float64(width) / float64(flowX.Width)
	sy := float64(height) / float64(flowY.Height)
	return flowX.Resize(width, height).Scale(sx),
		flowY.Resize(width, height).Scale(sy)
}
