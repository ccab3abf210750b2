// Package tone implements the color stages of the aging pipeline: a
// jittered sepia color matrix and a contrast reduction around mean luma.
package tone

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/patina/pkg/random"
)

// Matrix is a 3×4 color conversion matrix in row-major order. Row i yields
// output channel i as m[4i]·R + m[4i+1]·G + m[4i+2]·B + m[4i+3].
type Matrix [12]float64

// SepiaMatrix is the classic sepia conversion.
var SepiaMatrix = Matrix{
	0.393, 0.769, 0.189, 0,
	0.349, 0.686, 0.168, 0,
	0.272, 0.564, 0.131, 0,
}

// SepiaJitter bounds the random offset added to each sepia matrix entry.
const SepiaJitter = 0.01

// Jitter returns a copy of m with Uniform(-amount, amount) added to every
// entry.
func (m Matrix) Jitter(rng random.Process, amount float64) Matrix {
	for i := range m {
		m[i] += rng.Uniform(-amount, amount)
	}
	return m
}

// Convert applies m to every pixel. The result is opaque; input alpha is
// dropped.
func Convert(img image.Image, m Matrix) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		r, g, b := float64(c.R), float64(c.G), float64(c.B)
		return color.NRGBA{
			R: clamp(m[0]*r + m[1]*g + m[2]*b + m[3]),
			G: clamp(m[4]*r + m[5]*g + m[6]*b + m[7]),
			B: clamp(m[8]*r + m[9]*g + m[10]*b + m[11]),
			A: 0xff,
		}
	})
}

// Sepia tints img with a freshly jittered sepia matrix and returns the
// matrix it used.
func Sepia(img image.Image, rng random.Process) (*image.NRGBA, Matrix) {
	m := SepiaMatrix.Jitter(rng, SepiaJitter)
	return Convert(img, m), m
}

// Contrast factor distribution: ContrastBase + Uniform(-0.5, 0.5)·ContrastSpread.
const (
	ContrastBase   = 0.55
	ContrastSpread = 0.1
)

// ContrastFactor draws a contrast factor in [0.5, 0.6].
func ContrastFactor(rng random.Process) float64 {
	return ContrastBase + rng.Uniform(-0.5, 0.5)*ContrastSpread
}

// Luma is the integer ITU-R 601 luma of c, rounded the way 8-bit grayscale
// conversion (color.GrayModel) rounds it.
func Luma(c color.NRGBA) float64 {
	return float64((19595*uint32(c.R) + 38470*uint32(c.G) + 7471*uint32(c.B) + 1<<15) >> 16)
}

// MeanLuma returns the average luma of img.
func MeanLuma(img image.Image) float64 {
	src := imaging.Clone(img)
	lumas := make([]float64, 0, len(src.Pix)/4)
	for i := 0; i < len(src.Pix); i += 4 {
		lumas = append(lumas, Luma(color.NRGBA{R: src.Pix[i], G: src.Pix[i+1], B: src.Pix[i+2]}))
	}
	if len(lumas) == 0 {
		return 0
	}
	return stat.Mean(lumas, nil)
}

// Contrast scales every channel's distance from the rounded mean luma by
// factor: 0 yields a flat gray, 1 leaves the image unchanged. Alpha is kept.
func Contrast(img image.Image, factor float64) *image.NRGBA {
	mean := math.Floor(MeanLuma(img) + 0.5)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp(mean + factor*(float64(c.R)-mean)),
			G: clamp(mean + factor*(float64(c.G)-mean)),
			B: clamp(mean + factor*(float64(c.B)-mean)),
			A: c.A,
		}
	})
}

func clamp(v float64) uint8 {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
