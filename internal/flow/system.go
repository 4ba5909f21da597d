package flow

import (
	"math"

	"opticflow/internal/floatimg"
)

// Robust penalty: psi(s^2) = sqrt(s^2 + epsPsi), linearized each inner
// iteration through its derivative psi'(s^2) = 1/(2 sqrt(s^2 + epsPsi)).
// The constant 2 is absorbed into the weights below.
const epsPsi = 1e-6

// gradWeight scales the gradient-constancy data term relative to
// brightness constancy.
const gradWeight = 0.5

// coefficients holds the image-derivative fields recomputed at every outer
// iteration from (image1, warped image2). All fields share the channel
// count of the input pair.
type coefficients struct {
	Ix, Iy, It    *floatimg.Image
	Ixx, Ixy, Iyy *floatimg.Image
	Ixt, Iyt      *floatimg.Image
}

// computeCoefficients derives the brightness and gradient constancy terms.
// Spatial derivatives are taken on a 0.4/0.6 blend of the first and the
// warped second image, which centers the linearization between the frames.
func computeCoefficients(im1, warped *floatimg.Image) *coefficients {
	blend := floatimg.New(im1.Width, im1.Height, im1.Channels)
	it := floatimg.New(im1.Width, im1.Height, im1.Channels)
	for i := range blend.Pix {
		blend.Pix[i] = 0.4*im1.Pix[i] + 0.6*warped.Pix[i]
		it.Pix[i] = warped.Pix[i] - im1.Pix[i]
	}

	ix := blend.DerivativeX()
	iy := blend.DerivativeY()
	return &coefficients{
		Ix: ix, Iy: iy, It: it,
		Ixx: ix.DerivativeX(), Ixy: ix.DerivativeY(), Iyy: iy.DerivativeY(),
		Ixt: it.DerivativeX(), Iyt: it.DerivativeY(),
	}
}

// System is the symmetric positive (semi-)definite 5-point-stencil system
// over the flow increment (du, dv). Each pixel carries a 2x2 data block
// (A11, A12, A22), a right-hand side (B1, B2), and alpha-weighted smoothness
// couplings to its right and lower neighbors (WRight, WDown).
type System struct {
	Width, Height int

	A11, A12, A22 []float64
	B1, B2        []float64
	WRight, WDown []float64
}

// BuildSystem linearizes the energy at the current increment estimate
// (du, dv), taken relative to the flow (u0, v0) that the second image was
// last warped with. Robust data weights come from the current residuals;
// smoothness weights come from the gradients of the total flow.
func BuildSystem(c *coefficients, u0, v0, du, dv []float64, alpha float64, width, height int) *System {
	n := width * height
	s := &System{
		Width: width, Height: height,
		A11: make([]float64, n), A12: make([]float64, n), A22: make([]float64, n),
		B1: make([]float64, n), B2: make([]float64, n),
		WRight: make([]float64, n), WDown: make([]float64, n),
	}

	// Smoothness weights phi'(|grad u|^2 + |grad v|^2) at the total flow,
	// then averaged onto stencil edges.
	phi := make([]float64, n)
	floatimg.ParallelRows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				p := y*width + x
				var g float64
				if x < width-1 {
					ux := (u0[p+1] + du[p+1]) - (u0[p] + du[p])
					vx := (v0[p+1] + dv[p+1]) - (v0[p] + dv[p])
					g += ux*ux + vx*vx
				}
				if y < height-1 {
					uy := (u0[p+width] + du[p+width]) - (u0[p] + du[p])
					vy := (v0[p+width] + dv[p+width]) - (v0[p] + dv[p])
					g += uy*uy + vy*vy
				}
				phi[p] = 1 / math.Sqrt(g+epsPsi)
			}
		}
	})
	floatimg.ParallelRows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				p := y*width + x
				if x < width-1 {
					s.WRight[p] = alpha * 0.5 * (phi[p] + phi[p+1])
				}
				if y < height-1 {
					s.WDown[p] = alpha * 0.5 * (phi[p] + phi[p+width])
				}
			}
		}
	})

	// Data terms, summed over channels with per-pixel robust weights.
	ch := c.Ix.Channels
	floatimg.ParallelRows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				p := y*width + x
				off := p * ch
				for k := 0; k < ch; k++ {
					ix := c.Ix.Pix[off+k]
					iy := c.Iy.Pix[off+k]
					it := c.It.Pix[off+k]
					ixx := c.Ixx.Pix[off+k]
					ixy := c.Ixy.Pix[off+k]
					iyy := c.Iyy.Pix[off+k]
					ixt := c.Ixt.Pix[off+k]
					iyt := c.Iyt.Pix[off+k]

					rd := it + ix*du[p] + iy*dv[p]
					psiD := 1 / math.Sqrt(rd*rd+epsPsi)

					rgx := ixt + ixx*du[p] + ixy*dv[p]
					rgy := iyt + ixy*du[p] + iyy*dv[p]
					psiG := gradWeight / math.Sqrt(rgx*rgx+rgy*rgy+epsPsi)

					s.A11[p] += psiD*ix*ix + psiG*(ixx*ixx+ixy*ixy)
					s.A12[p] += psiD*ix*iy + psiG*ixy*(ixx+iyy)
					s.A22[p] += psiD*iy*iy + psiG*(ixy*ixy+iyy*iyy)
					s.B1[p] += -psiD*ix*it - psiG*(ixx*ixt+ixy*iyt)
					s.B2[p] += -psiD*iy*it - psiG*(ixy*ixt+iyy*iyt)
				}
			}
		}
	})

	// The smoothness energy acts on u0+du, so the weighted Laplacian of the
	// base flow moves to the right-hand side.
	lu := make([]float64, n)
	lv := make([]float64, n)
	s.applyLaplacian(u0, lu)
	s.applyLaplacian(v0, lv)
	for p := 0; p < n; p++ {
		s.B1[p] -= lu[p]
		s.B2[p] -= lv[p]
	}
	return s
}

// applyLaplacian computes out = L w for the weighted 5-point Laplacian
// defined by the edge weights (alpha already folded in).
func (s *System) applyLaplacian(w, out []float64) {
	width, height := s.Width, s.Height
	floatimg.ParallelRows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				p := y*width + x
				var acc float64
				if x < width-1 {
					acc += s.WRight[p] * (w[p] - w[p+1])
				}
				if x > 0 {
					acc += s.WRight[p-1] * (w[p] - w[p-1])
				}
				if y < height-1 {
					acc += s.WDown[p] * (w[p] - w[p+width])
				}
				if y > 0 {
					acc += s.WDown[p-width] * (w[p] - w[p-width])
				}
				out[p] = acc
			}
		}
	})
}

// Apply computes the matrix-vector product of the full system with the
// increment (du, dv), writing the two output components.
func (s *System) Apply(du, dv, outU, outV []float64) {
	s.applyLaplacian(du, outU)
	s.applyLaplacian(dv, outV)
	for p := range outU {
		outU[p] += s.A11[p]*du[p] + s.A12[p]*dv[p]
		outV[p] += s.A12[p]*du[p] + s.A22[p]*dv[p]
	}
}
