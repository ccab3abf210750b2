// Package filter provides the named image filters applied to generated
// layers before compositing.
//
// Filters are opaque: the compositor runs them in order and never inspects
// what they do. All of them act on every channel including alpha, so a
// blurred crack layer fades out instead of darkening its surroundings.
//
// Supported names (arguments in parentheses are optional):
//
//	blur(radius)           Gaussian blur, radius defaults to 2
//	gaussian_blur(radius)  alias of blur
//	sharpen(sigma)         unsharp sharpening, sigma defaults to 1
//	edge_enhance           3×3 edge enhancement
//	edge_enhance_more      stronger 3×3 edge enhancement
//	smooth                 3×3 smoothing
package filter

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Filter is a unary image operation.
type Filter interface {
	// Name returns the canonical spelling accepted by Parse.
	Name() string
	// Apply returns a filtered copy of img. img is never modified.
	Apply(img image.Image) image.Image
}

// Default filter arguments.
const (
	DefaultBlurRadius   = 2.0
	DefaultSharpenSigma = 1.0
)

// Blur is a Gaussian blur.
type Blur struct{ Radius float64 }

func (f Blur) Name() string { return fmt.Sprintf("blur(%g)", f.Radius) }

func (f Blur) Apply(img image.Image) image.Image { return imaging.Blur(img, f.Radius) }

// Sharpen sharpens with a Gaussian of the given sigma.
type Sharpen struct{ Sigma float64 }

func (f Sharpen) Name() string { return fmt.Sprintf("sharpen(%g)", f.Sigma) }

func (f Sharpen) Apply(img image.Image) image.Image { return imaging.Sharpen(img, f.Sigma) }

// Kernel is a normalized 3×3 convolution applied to color and alpha alike.
type Kernel struct {
	name   string
	kernel [9]float64
}

// Predefined kernels.
var (
	EdgeEnhance = Kernel{
		name:   "edge_enhance",
		kernel: [9]float64{-1, -1, -1, -1, 10, -1, -1, -1, -1},
	}
	EdgeEnhanceMore = Kernel{
		name:   "edge_enhance_more",
		kernel: [9]float64{-1, -1, -1, -1, 9, -1, -1, -1, -1},
	}
	Smooth = Kernel{
		name:   "smooth",
		kernel: [9]float64{1, 1, 1, 1, 5, 1, 1, 1, 1},
	}
)

func (k Kernel) Name() string { return k.name }

func (k Kernel) Apply(img image.Image) image.Image {
	opts := &imaging.ConvolveOptions{Normalize: true}
	out := imaging.Convolve3x3(img, k.kernel, opts)
	alpha := imaging.Convolve3x3(alphaPlane(img), k.kernel, opts)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = alpha.Pix[i-3]
	}
	return out
}

// alphaPlane returns img's alpha channel as an opaque gray image.
func alphaPlane(img image.Image) *image.NRGBA {
	src := imaging.Clone(img)
	for i := 0; i < len(src.Pix); i += 4 {
		a := src.Pix[i+3]
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = a, a, a, 0xff
	}
	return src
}

// ApplyAll runs filters in order, each consuming the previous output.
func ApplyAll(img image.Image, filters ...Filter) image.Image {
	for _, f := range filters {
		img = f.Apply(img)
	}
	return img
}

// Names returns the canonical names of filters.
func Names(filters []Filter) []string {
	out := make([]string, len(filters))
	for i, f := range filters {
		out[i] = f.Name()
	}
	return out
}
