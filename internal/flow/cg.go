package flow

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Solve runs exactly iters iterations of block-Jacobi preconditioned
// conjugate gradient on the system, refining (du, dv) in place. The slices
// double as the initial guess, which warm-starts repeated solves of related
// systems during the fixed-point loop.
//
// The system is positive (semi-)definite by construction, so CG cannot
// diverge; the iteration stops early only when the residual or a curvature
// denominator underflows to zero, i.e. when the solution is already exact
// to machine precision. A NaN or Inf in the result yields
// ErrNumericalFailure.
func (s *System) Solve(du, dv []float64, iters int) error {
	n := s.Width * s.Height

	// r = b - A x
	ru := make([]float64, n)
	rv := make([]float64, n)
	s.Apply(du, dv, ru, rv)
	for p := 0; p < n; p++ {
		ru[p] = s.B1[p] - ru[p]
		rv[p] = s.B2[p] - rv[p]
	}

	// Per-pixel 2x2 diagonal blocks for the preconditioner, including the
	// Laplacian diagonal contribution.
	d11 := make([]float64, n)
	d12 := make([]float64, n)
	d22 := make([]float64, n)
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			p := y*s.Width + x
			var sw float64
			if x < s.Width-1 {
				sw += s.WRight[p]
			}
			if x > 0 {
				sw += s.WRight[p-1]
			}
			if y < s.Height-1 {
				sw += s.WDown[p]
			}
			if y > 0 {
				sw += s.WDown[p-s.Width]
			}
			d11[p] = s.A11[p] + sw
			d12[p] = s.A12[p]
			d22[p] = s.A22[p] + sw
		}
	}

	precond := func(ru, rv, zu, zv []float64) {
		for p := 0; p < n; p++ {
			det := d11[p]*d22[p] - d12[p]*d12[p]
			if det <= 0 {
				zu[p] = ru[p]
				zv[p] = rv[p]
				continue
			}
			zu[p] = (d22[p]*ru[p] - d12[p]*rv[p]) / det
			zv[p] = (d11[p]*rv[p] - d12[p]*ru[p]) / det
		}
	}

	zu := make([]float64, n)
	zv := make([]float64, n)
	precond(ru, rv, zu, zv)

	pu := make([]float64, n)
	pv := make([]float64, n)
	copy(pu, zu)
	copy(pv, zv)

	apu := make([]float64, n)
	apv := make([]float64, n)

	rz := floats.Dot(ru, zu) + floats.Dot(rv, zv)
	for k := 0; k < iters; k++ {
		if rz == 0 {
			break
		}
		s.Apply(pu, pv, apu, apv)
		pap := floats.Dot(pu, apu) + floats.Dot(pv, apv)
		if pap <= 0 {
			break
		}
		step := rz / pap
		floats.AddScaled(du, step, pu)
		floats.AddScaled(dv, step, pv)
		floats.AddScaled(ru, -step, apu)
		floats.AddScaled(rv, -step, apv)

		precond(ru, rv, zu, zv)
		rzNext := floats.Dot(ru, zu) + floats.Dot(rv, zv)
		beta := rzNext / rz
		rz = rzNext
		for p := 0; p < n; p++ {
			pu[p] = zu[p] + beta*pu[p]
			pv[p] = zv[p] + beta*pv[p]
		}
	}

	for p := 0; p < n; p++ {
		if math.IsNaN(du[p]) || math.IsInf(du[p], 0) ||
			math.IsNaN(dv[p]) || math.IsInf(dv[p], 0) {
			return fmt.Errorf("%w: non-finite increment at pixel (%d,%d)",
				ErrNumericalFailure, p%s.Width, p/s.Width)
		}
	}
	return nil
}

// ResidualNorm returns ||b - A x||_2 for the increment (du, dv).
func (s *System) ResidualNorm(du, dv []float64) float64 {
	n := s.Width * s.Height
	ru := make([]float64, n)
	rv := make([]float64, n)
	s.Apply(du, dv, ru, rv)
	var sum float64
	for p := 0; p < n; p++ {
		eu := s.B1[p] - ru[p]
		ev := s.B2[p] - rv[p]
		sum += eu*eu + ev*ev
	}
	return math.Sqrt(sum)
}
