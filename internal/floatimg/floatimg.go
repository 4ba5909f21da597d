// Package floatimg implements the float64 image buffer shared by the optical
// flow pipeline. An Image holds width*height*channels samples in a flat,
// channel-interleaved slice so the per-pixel inner loops stay inlineable and
// free of interface dispatch. Conversion to and from the Go image world is
// provided for single-channel (grayscale) use by the CLI wrapper.
package floatimg

import (
	"image"
	"image/color"
)

// Image holds image-like float64 data with one or more channels.
// All samples for a pixel are stored consecutively, rows are contiguous.
type Image struct {
	Pix      []float64
	Width    int
	Height   int
	Channels int
}

// New creates a zero-filled image of the given dimensions.
func New(width, height, channels int) *Image {
	return &Image{
		Pix:      make([]float64, width*height*channels),
		Width:    width,
		Height:   height,
		Channels: channels,
	}
}

// PixOffset returns the index of the first channel of the pixel at (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y*p.Width + x) * p.Channels
}

// At returns the channel slice for the pixel at (x, y). The slice aliases
// the underlying buffer, so writes through it modify the image.
func (p *Image) At(x, y int) []float64 {
	i := p.PixOffset(x, y)
	return p.Pix[i : i+p.Channels]
}

// Clone returns a deep copy of the image.
func (p *Image) Clone() *Image {
	q := New(p.Width, p.Height, p.Channels)
	copy(q.Pix, p.Pix)
	return q
}

// SameShape reports whether two images have identical dimensions and
// channel counts. Every DimensionMismatch check in the pipeline goes
// through here.
func SameShape(a, b *Image) bool {
	return a.Width == b.Width && a.Height == b.Height && a.Channels == b.Channels
}

// clamp limits v to [0, n-1] as a float coordinate.
func clamp(v float64, n int) float64 {
	if v < 0 {
		return 0
	}
	if max := float64(n - 1); v > max {
		return max
	}
	return v
}

// Bilinear samples the image at the continuous position (fx, fy) and writes
// one value per channel into dst. Coordinates outside the image are clamped
// to the border, so sampling is defined for every finite input.
func (p *Image) Bilinear(fx, fy float64, dst []float64) {
	fx = clamp(fx, p.Width)
	fy = clamp(fy, p.Height)

	x0 := int(fx)
	y0 := int(fy)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 > p.Width-1 {
		x1 = p.Width - 1
	}
	if y1 > p.Height-1 {
		y1 = p.Height - 1
	}

	ax := fx - float64(x0)
	ay := fy - float64(y0)

	c00 := p.At(x0, y0)
	c10 := p.At(x1, y0)
	c01 := p.At(x0, y1)
	c11 := p.At(x1, y1)

	for c := 0; c < p.Channels; c++ {
		top := c00[c] + ax*(c10[c]-c00[c])
		bot := c01[c] + ax*(c11[c]-c01[c])
		dst[c] = top + ay*(bot-top)
	}
}

// Resize returns a bilinear resampling of the image to width*height.
// Pixel centers are aligned so that the corners of the source and
// destination grids coincide under the usual half-pixel convention.
func (p *Image) Resize(width, height int) *Image {
	q := New(width, height, p.Channels)
	sx := float64(p.Width) / float64(width)
	sy := float64(p.Height) / float64(height)

	ParallelRows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			fy := (float64(y)+0.5)*sy - 0.5
			for x := 0; x < width; x++ {
				fx := (float64(x)+0.5)*sx - 0.5
				p.Bilinear(fx, fy, q.At(x, y))
			}
		}
	})
	return q
}

// FromImage converts a Go image to a single-channel float image with
// luma values scaled into [0, 1].
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	f := New(w, h, 1)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var gray float64
			switch t := src.At(bounds.Min.X+x, bounds.Min.Y+y).(type) {
			case color.Gray:
				gray = float64(t.Y)
			default:
				r, g, b, _ := t.RGBA()
				gray = float64((299*r+587*g+114*b+500)/1000) / 257.0
			}
			f.Pix[y*w+x] = gray / 255.0
		}
	}
	return f
}

// Gray converts the first channel to an 8-bit grayscale image, mapping
// [0, 1] to [0, 255] with clipping.
func (p *Image) Gray() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			v := p.At(x, y)[0] * 255.0
			switch {
			case v < 0:
				out.SetGray(x, y, color.Gray{0})
			case v > 255:
				out.SetGray(x, y, color.Gray{255})
			default:
				out.SetGray(x, y, color.Gray{uint8(v + 0.5)})
			}
		}
	}
	return out
}

// Max returns the largest sample value, or 0 for an empty image.
func (p *Image) Max() float64 {
	if len(p.Pix) == 0 {
		return 0
	}
	max := p.Pix[0]
	for _, v := range p.Pix[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Scale multiplies every sample by s in place and returns the image.
func (p *Image) Scale(s float64) *Image {
	for i := range p.Pix {
		p.Pix[i] *= s
	}
	return p
}
