// Command flowcalc estimates dense optical flow between two images and
// writes magnitude, color-coded direction, and warped-image visualizations.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"opticflow/internal/floatimg"
	"opticflow/internal/flow"
	"opticflow/internal/version"
	"opticflow/pkg/flowviz"

	_ "golang.org/x/image/tiff"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	first := flag.String("i1", "", "Path to the first image")
	second := flag.String("i2", "", "Path to the second image")
	outDir := flag.String("out", ".", "Output directory")
	legendSize := flag.Int("legend", 0, "Also write a color wheel legend of this size (0 = skip)")

	defaults := flow.DefaultParams()
	alpha := flag.Float64("alpha", defaults.Alpha, "Smoothness weight (> 0)")
	ratio := flag.Float64("ratio", defaults.Ratio, "Pyramid downsample factor (0 < ratio < 1)")
	minWidth := flag.Int("minwidth", defaults.MinWidth, "Coarsest pyramid level size floor")
	outer := flag.Int("outer", defaults.OuterIterations, "Outer fixed-point iterations per level")
	inner := flag.Int("inner", defaults.InnerIterations, "Inner fixed-point iterations per outer pass")
	cg := flag.Int("cg", defaults.CGIterations, "Conjugate gradient iterations per solve")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *first == "" || *second == "" {
		fmt.Println("Usage: flowcalc -i1 <image> -i2 <image> [-out <dir>] [solver flags]")
		os.Exit(1)
	}

	im1, err := loadGray(*first)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load first image: %v\n", err)
		os.Exit(1)
	}
	im2, err := loadGray(*second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load second image: %v\n", err)
		os.Exit(1)
	}

	params := flow.Params{
		Alpha:           *alpha,
		Ratio:           *ratio,
		MinWidth:        *minWidth,
		OuterIterations: *outer,
		InnerIterations: *inner,
		CGIterations:    *cg,
	}

	fmt.Printf("Estimating flow %s -> %s (%dx%d)\n", *first, *second, im1.Width, im1.Height)
	result, err := flow.Estimate(im1, im2, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Estimation failed: %v\n", err)
		os.Exit(1)
	}

	norm, err := result.Flow.Norm()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Norm computation failed: %v\n", err)
		os.Exit(1)
	}
	angle, err := result.Flow.Angle()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Angle computation failed: %v\n", err)
		os.Exit(1)
	}

	// Normalize the magnitude for display.
	magImg := norm.Clone()
	if max := magImg.Max(); max > 0 {
		magImg.Scale(1 / max)
	}

	colorImg, err := flowviz.Encode(norm.Pix, angle.Pix, norm.Width, norm.Height)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Color coding failed: %v\n", err)
		os.Exit(1)
	}

	outputs := []struct {
		name string
		img  image.Image
	}{
		{"magnitude.png", magImg.Gray()},
		{"direction.png", colorImg},
		{"warped.png", result.Warped.Gray()},
	}
	if *legendSize > 0 {
		outputs = append(outputs, struct {
			name string
			img  image.Image
		}{"legend.png", flowviz.Legend(*legendSize)})
	}

	for _, o := range outputs {
		path := filepath.Join(*outDir, o.name)
		if err := writePNG(path, o.img); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", path)
	}
}

// loadGray decodes an image file and converts it to a single-channel
// float image with values in [0, 1].
func loadGray(path string) (*floatimg.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return floatimg.FromImage(img), nil
}

func writePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, img)
}
