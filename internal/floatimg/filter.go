package floatimg

import "math"

// GaussianKernel builds a normalized 1D Gaussian kernel for the given
// standard deviation. The radius is max(1, ceil(3*sigma)) so the tails are
// cut below ~1% of the peak.
func GaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	if radius < 1 {
		radius = 1
	}
	k := make([]float64, 2*radius+1)

	sum := 0.0
	for i := -radius; i <= radius; i++ {
		x := float64(i)
		v := math.Exp(-x * x / (2 * sigma * sigma))
		k[i+radius] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// derivKernel is the five-point central difference stencil
// f' ~ (f(x-2) - 8f(x-1) + 8f(x+1) - f(x+2)) / 12.
var derivKernel = []float64{1.0 / 12, -8.0 / 12, 0, 8.0 / 12, -1.0 / 12}

// clampIdx limits an integer coordinate to [0, n-1] (border replication).
func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// FilterX correlates each row of the image with the odd-length kernel k,
// replicating border samples.
func (p *Image) FilterX(k []float64) *Image {
	radius := len(k) / 2
	q := New(p.Width, p.Height, p.Channels)

	ParallelRows(p.Height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < p.Width; x++ {
				dst := q.At(x, y)
				for i := -radius; i <= radius; i++ {
					src := p.At(clampIdx(x+i, p.Width), y)
					w := k[i+radius]
					for c := 0; c < p.Channels; c++ {
						dst[c] += w * src[c]
					}
				}
			}
		}
	})
	return q
}

// FilterY correlates each column of the image with the odd-length kernel k,
// replicating border samples.
func (p *Image) FilterY(k []float64) *Image {
	radius := len(k) / 2
	q := New(p.Width, p.Height, p.Channels)

	ParallelRows(p.Height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < p.Width; x++ {
				dst := q.At(x, y)
				for i := -radius; i <= radius; i++ {
					src := p.At(x, clampIdx(y+i, p.Height))
					w := k[i+radius]
					for c := 0; c < p.Channels; c++ {
						dst[c] += w * src[c]
					}
				}
			}
		}
	})
	return q
}

// Smooth applies a separable Gaussian of the given sigma.
func (p *Image) Smooth(sigma float64) *Image {
	k := GaussianKernel(sigma)
	return p.FilterX(k).FilterY(k)
}

// DerivativeX returns the horizontal derivative using the five-point stencil.
func (p *Image) DerivativeX() *Image {
	return p.FilterX(derivKernel)
}

// DerivativeY returns the vertical derivative using the five-point stencil.
func (p *Image) DerivativeY() *Image {
	return p.FilterY(derivKernel)
}
