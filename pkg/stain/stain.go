// Package stain scatters flat-colored ellipses over a transparent layer.
//
// A stain layer is N ellipses of one shared color. Their bounding boxes may
// hang off any edge of the canvas, and where ellipses overlap the later one
// simply covers the earlier: alpha never accumulates.
package stain

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/matzehuels/patina/pkg/errors"
	"github.com/matzehuels/patina/pkg/random"
)

// Default stain geometry.
const (
	DefaultDiameter = 10
	DefaultCount    = 10
)

// Color is an RGBA color with straight (non-premultiplied) alpha. Channels
// are ints so that out-of-range values can be reported instead of wrapped.
type Color struct {
	R int `json:"r" toml:"r" yaml:"r"`
	G int `json:"g" toml:"g" yaml:"g"`
	B int `json:"b" toml:"b" yaml:"b"`
	A int `json:"a" toml:"a" yaml:"a"`
}

// Gray returns the gray level v with the given alpha.
func Gray(v, alpha int) Color { return Color{R: v, G: v, B: v, A: alpha} }

// Validate checks every channel is in [0, 255].
func (c Color) Validate() error {
	for _, ch := range []struct {
		name string
		v    int
	}{{"red", c.R}, {"green", c.G}, {"blue", c.B}, {"alpha", c.A}} {
		if err := errors.ValidateChannel(ch.name, ch.v); err != nil {
			return err
		}
	}
	return nil
}

// NRGBA converts a validated color.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: uint8(c.A)}
}

// Spec describes one stain layer.
type Spec struct {
	Color          Color `json:"color" toml:"color" yaml:"color"`
	Diameter       int   `json:"diameter,omitempty" toml:"diameter,omitempty" yaml:"diameter,omitempty"`
	DiameterJitter int   `json:"diameter_jitter,omitempty" toml:"diameter_jitter,omitempty" yaml:"diameter_jitter,omitempty"`
	Count          int   `json:"count,omitempty" toml:"count,omitempty" yaml:"count,omitempty"`
}

// SetDefaults fills a zero Diameter and Count.
func (s *Spec) SetDefaults() {
	if s.Diameter == 0 {
		s.Diameter = DefaultDiameter
	}
	if s.Count == 0 {
		s.Count = DefaultCount
	}
}

// Validate checks the color, a positive diameter and count, and a
// non-negative jitter.
func (s Spec) Validate() error {
	if err := s.Color.Validate(); err != nil {
		return err
	}
	if s.Diameter <= 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "stain diameter must be > 0, got %d", s.Diameter)
	}
	if s.DiameterJitter < 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "stain diameter jitter must be >= 0, got %d", s.DiameterJitter)
	}
	if s.Count <= 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "stain count must be > 0, got %d", s.Count)
	}
	return nil
}

// Painter receives ellipse fills. Bounding boxes are inclusive pixel
// coordinates and may lie partly or wholly outside the canvas.
type Painter interface {
	FillEllipse(x0, y0, x1, y1 float64)
}

// Paint issues exactly spec.Count ellipse fills to p for a canvas of the
// given size. The spec is validated as given; callers wanting defaults apply
// them first.
func Paint(p Painter, size image.Point, spec Spec, rng random.Process) error {
	if err := errors.ValidateSize(size.X, size.Y); err != nil {
		return err
	}
	if err := spec.Validate(); err != nil {
		return err
	}

	d := spec.Diameter
	for i := 0; i < spec.Count; i++ {
		x0 := rng.IntN(size.X+d) - d
		y0 := rng.IntN(size.Y+d) - d
		x1, y1 := x0+d, y0+d
		if spec.DiameterJitter > 0 {
			x1 += rng.IntN(spec.DiameterJitter + 1)
			y1 += rng.IntN(spec.DiameterJitter + 1)
		}
		p.FillEllipse(float64(x0), float64(y0), float64(x1), float64(y1))
	}
	return nil
}

// Generate renders a stain layer of the given size.
func Generate(size image.Point, spec Spec, rng random.Process) (*image.RGBA, error) {
	if err := errors.ValidateSize(size.X, size.Y); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	p := newCanvas(img, spec.Color)
	if err := Paint(p, size, spec, rng); err != nil {
		return nil, err
	}
	p.finish()
	return img, nil
}

// canvas fills ellipses with gg. Every shape is drawn opaque so overlaps
// stay flat; the shared alpha is applied once in finish.
type canvas struct {
	dc    *gg.Context
	img   *image.RGBA
	alpha uint8
}

func newCanvas(img *image.RGBA, c Color) *canvas {
	dc := gg.NewContextForRGBA(img)
	dc.SetRGBA255(c.R, c.G, c.B, 255)
	return &canvas{dc: dc, img: img, alpha: uint8(c.A)}
}

func (c *canvas) FillEllipse(x0, y0, x1, y1 float64) {
	c.dc.DrawEllipse((x0+x1+1)/2, (y0+y1+1)/2, (x1-x0+1)/2, (y1-y0+1)/2)
	c.dc.Fill()
}

// finish scales the premultiplied pixels by the stain alpha.
func (c *canvas) finish() {
	if c.alpha == 255 {
		return
	}
	a := uint16(c.alpha)
	for i, v := range c.img.Pix {
		c.img.Pix[i] = uint8(uint16(v) * a / 255)
	}
}
