// Package composite blends generated layers onto a base image.
//
// The compositor asks a [LayerFactory] for a layer exactly the size of the
// base, runs the layer through an ordered list of filters, and draws it over
// a copy of the base with Porter-Duff "over". It never resizes: a factory
// that works at a coarser resolution must upscale its own output.
package composite

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/matzehuels/patina/pkg/errors"
	"github.com/matzehuels/patina/pkg/filter"
)

// LayerFactory produces a layer for a base image of the given size.
type LayerFactory func(size image.Point) (image.Image, error)

// DrawOn composites the layer built by factory over base and returns the
// result as a new image. base is not modified.
//
// Both base and the (filtered) layer must carry an alpha channel and share
// pixel dimensions; anything else is an INVALID_ARGUMENT error.
func DrawOn(base image.Image, factory LayerFactory, filters ...filter.Filter) (*image.RGBA, error) {
	if base == nil {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "base image is nil")
	}
	if factory == nil {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "layer factory is nil")
	}
	if !HasAlpha(base) {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "base image %T has no alpha channel", base)
	}
	size := base.Bounds().Size()
	if err := errors.ValidateSize(size.X, size.Y); err != nil {
		return nil, err
	}

	layer, err := factory(size)
	if err != nil {
		return nil, err
	}
	if layer == nil {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "layer factory returned no image")
	}
	if err := check("layer", layer, size); err != nil {
		return nil, err
	}

	layer = filter.ApplyAll(layer, filters...)
	if err := check("filtered layer", layer, size); err != nil {
		return nil, err
	}

	out := ToRGBA(base)
	draw.Draw(out, out.Bounds(), layer, layer.Bounds().Min, draw.Over)
	return out, nil
}

func check(what string, img image.Image, size image.Point) error {
	if !HasAlpha(img) {
		return errors.New(errors.ErrCodeInvalidArgument, "%s %T has no alpha channel", what, img)
	}
	if got := img.Bounds().Size(); got != size {
		return errors.New(errors.ErrCodeInvalidArgument,
			"%s is %dx%d but the base image is %dx%d", what, got.X, got.Y, size.X, size.Y)
	}
	return nil
}

// HasAlpha reports whether img uses an alpha-capable pixel format.
func HasAlpha(img image.Image) bool {
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return true
	}
	return false
}

// ToRGBA returns a copy of img as *image.RGBA with bounds starting at the
// origin. Opaque formats become fully opaque RGBA.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
