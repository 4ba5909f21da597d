package flow

import "fmt"

// Params configures one estimation run. The struct is passed by value and
// never mutated by the solver, so a caller can reuse it across calls.
type Params struct {
	Alpha           float64 // Smoothness weight, > 0
	Ratio           float64 // Pyramid downsample factor, 0 < Ratio < 1
	MinWidth        int     // Coarsest-level size floor, > 0
	OuterIterations int     // Warp + re-linearize passes per level, > 0
	InnerIterations int     // Re-solve passes per outer iteration, > 0
	CGIterations    int     // Conjugate gradient iterations per solve, > 0
}

// DefaultParams returns the baseline parameter set.
func DefaultParams() Params {
	return Params{
		Alpha:           0.01,
		Ratio:           0.75,
		MinWidth:        30,
		OuterIterations: 15,
		InnerIterations: 1,
		CGIterations:    20,
	}
}

// Validate checks every parameter against its documented range.
func (p Params) Validate() error {
	if p.Alpha <= 0 {
		return fmt.Errorf("%w: alpha must be > 0, got %g", ErrInvalidParameter, p.Alpha)
	}
	if p.Ratio <= 0 || p.Ratio >= 1 {
		return fmt.Errorf("%w: ratio must be in (0,1), got %g", ErrInvalidParameter, p.Ratio)
	}
	if p.MinWidth <= 0 {
		return fmt.Errorf("%w: minWidth must be > 0, got %d", ErrInvalidParameter, p.MinWidth)
	}
	if p.OuterIterations <= 0 {
		return fmt.Errorf("%w: outerIterations must be > 0, got %d", ErrInvalidParameter, p.OuterIterations)
	}
	if p.InnerIterations <= 0 {
		return fmt.Errorf("%w: innerIterations must be > 0, got %d", ErrInvalidParameter, p.InnerIterations)
	}
	if p.CGIterations <= 0 {
		return fmt.Errorf("%w: cgIterations must be > 0, got %d", ErrInvalidParameter, p.CGIterations)
	}
	return nil
}
