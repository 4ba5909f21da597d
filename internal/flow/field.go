package flow

import (
	"fmt"
	"math"

	"opticflow/internal/floatimg"
)

// Field is a dense flow field: one displacement vector per pixel, stored as
// two single-channel images of identical dimensions.
type Field struct {
	Dx *floatimg.Image
	Dy *floatimg.Image
}

// Norm returns the elementwise magnitude sqrt(dx^2+dy^2) of a flow field.
func Norm(flowX, flowY *floatimg.Image) (*floatimg.Image, error) {
	if !floatimg.SameShape(flowX, flowY) {
		return nil, fmt.Errorf("%w: flowX %dx%d vs flowY %dx%d",
			ErrDimensionMismatch, flowX.Width, flowX.Height, flowY.Width, flowY.Height)
	}
	out := floatimg.New(flowX.Width, flowX.Height, 1)
	for i := range out.Pix {
		out.Pix[i] = math.Hypot(flowX.Pix[i], flowY.Pix[i])
	}
	return out, nil
}

// Angle returns the elementwise flow direction in degrees in [0, 360).
//
// The quadrant handling is an explicit branch table with dx == 0 treated
// before any division, rather than relying on IEEE division by zero:
//
//	dx = 0, dy >= 0            -> 90
//	dx = 0, dy <  0            -> 270
//	dx > 0, dy >= 0            -> atan(|dy/dx|) * 180/pi
//	dx > 0, dy <  0            -> 360 - atan(|dy/dx|) * 180/pi
//	dx < 0, dy >= 0            -> 180 - atan(|dy/dx|) * 180/pi
//	dx < 0, dy <  0            -> 180 + atan(|dy/dx|) * 180/pi
func Angle(flowX, flowY *floatimg.Image) (*floatimg.Image, error) {
	if !floatimg.SameShape(flowX, flowY) {
		return nil, fmt.Errorf("%w: flowX %dx%d vs flowY %dx%d",
			ErrDimensionMismatch, flowX.Width, flowX.Height, flowY.Width, flowY.Height)
	}
	out := floatimg.New(flowX.Width, flowX.Height, 1)
	for i := range out.Pix {
		out.Pix[i] = angleOf(flowX.Pix[i], flowY.Pix[i])
	}
	return out, nil
}

const radToDeg = 180.0 / math.Pi

func angleOf(dx, dy float64) float64 {
	switch {
	case dx == 0 && dy >= 0:
		return 90
	case dx == 0:
		return 270
	}
	a := math.Atan(math.Abs(dy/dx)) * radToDeg
	switch {
	case dx > 0 && dy >= 0:
		return a
	case dx > 0:
		return 360 - a
	case dy >= 0:
		return 180 - a
	default:
		return 180 + a
	}
}

// Norm is the magnitude field of f.
func (f Field) Norm() (*floatimg.Image, error) { return Norm(f.Dx, f.Dy) }

// Angle is the direction field of f, in degrees in [0, 360).
func (f Field) Angle() (*floatimg.Image, error) { return Angle(f.Dx, f.Dy) }
