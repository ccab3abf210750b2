// Package aging turns a photograph into an old-looking print.
//
// [Age] runs four stages, each consuming the previous stage's output:
//
//  1. sepia: a jittered sepia color matrix
//  2. stains: translucent gray ellipses composited over the image
//  3. cracks: a fractal crack network composited over the image
//  4. contrast: contrast reduced by a random factor in [0.5, 0.6]
//
// Every random draw comes from the [random.Process] handed to Age, in that
// order, so a seeded process reproduces a run exactly.
package aging

import (
	"context"
	"image"
	"time"

	"github.com/matzehuels/patina/pkg/composite"
	"github.com/matzehuels/patina/pkg/crack"
	"github.com/matzehuels/patina/pkg/errors"
	"github.com/matzehuels/patina/pkg/filter"
	"github.com/matzehuels/patina/pkg/observability"
	"github.com/matzehuels/patina/pkg/random"
	"github.com/matzehuels/patina/pkg/stain"
	"github.com/matzehuels/patina/pkg/tone"
)

// Stage names reported to pipeline hooks.
const (
	StageSepia    = "sepia"
	StageStains   = "stains"
	StageCracks   = "cracks"
	StageContrast = "contrast"
)

// DefaultStainAlpha is the alpha shared by every stain ellipse.
const DefaultStainAlpha = 32

// StainLayer configures the stain stage. The color of Spec is ignored: each
// run picks a random gray tone at StainAlpha.
type StainLayer struct {
	Spec    stain.Spec
	Filters []filter.Filter
}

// CrackLayer configures the crack stage.
type CrackLayer struct {
	crack.LayerOptions
	Filters []filter.Filter
}

// Options configures one aging run.
type Options struct {
	Stains StainLayer
	Cracks CrackLayer

	// StainAlpha is the alpha of every stain ellipse, in [1, 255]. Zero
	// selects DefaultStainAlpha.
	StainAlpha int
}

// ValidateAndSetDefaults fills zero fields and validates every stage.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.StainAlpha == 0 {
		o.StainAlpha = DefaultStainAlpha
	}
	if err := errors.ValidateChannel("stain alpha", o.StainAlpha); err != nil {
		return err
	}
	o.Stains.Spec.SetDefaults()
	spec := o.Stains.Spec
	spec.Color = stain.Gray(0, o.StainAlpha)
	if err := spec.Validate(); err != nil {
		return err
	}
	o.Cracks.SetDefaults()
	return o.Cracks.Validate()
}

// Report describes what a run drew.
type Report struct {
	Sepia          tone.Matrix
	StainTone      int
	StainAlpha     int
	CrackLength    float64
	CrackCells     int
	CrackOrigin    image.Point
	ContrastFactor float64
	Duration       time.Duration
}

// Age runs all four stages on img. img is never modified.
func Age(ctx context.Context, img image.Image, opts Options, rng random.Process) (_ *image.NRGBA, _ *Report, err error) {
	if img == nil {
		return nil, nil, errors.New(errors.ErrCodeInvalidArgument, "image is nil")
	}
	if rng == nil {
		return nil, nil, errors.New(errors.ErrCodeInvalidArgument, "random process is nil")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}
	size := img.Bounds().Size()
	if err := errors.ValidateSize(size.X, size.Y); err != nil {
		return nil, nil, err
	}

	hooks := observability.Pipeline()
	start := time.Now()
	report := &Report{StainAlpha: opts.StainAlpha}
	hooks.OnAgeStart(ctx, size.X, size.Y)
	defer func() {
		report.Duration = time.Since(start)
		hooks.OnAgeComplete(ctx, report.CrackLength, report.Duration, err)
	}()

	stage := func(name string, fn func() error) error {
		t := time.Now()
		err := fn()
		hooks.OnStageComplete(ctx, name, time.Since(t), err)
		return err
	}

	var base *image.RGBA
	_ = stage(StageSepia, func() error {
		toned, m := tone.Sepia(img, rng)
		report.Sepia = m
		base = composite.ToRGBA(toned)
		return nil
	})

	if err = stage(StageStains, func() error {
		report.StainTone = rng.IntN(256)
		spec := opts.Stains.Spec
		spec.Color = stain.Gray(report.StainTone, opts.StainAlpha)
		stained, err := composite.DrawOn(base, func(size image.Point) (image.Image, error) {
			return stain.Generate(size, spec, rng)
		}, opts.Stains.Filters...)
		if err != nil {
			return err
		}
		base = stained
		return nil
	}); err != nil {
		return nil, nil, err
	}

	if err = stage(StageCracks, func() error {
		var res *crack.Result
		cracked, err := composite.DrawOn(base, func(size image.Point) (image.Image, error) {
			layer, r, err := crack.Layer(ctx, size, opts.Cracks.LayerOptions, rng)
			res = r
			return layer, err
		}, opts.Cracks.Filters...)
		if err != nil {
			return err
		}
		report.CrackLength = res.Length
		report.CrackCells = res.Field.Count()
		report.CrackOrigin = res.Origin
		base = cracked
		return nil
	}); err != nil {
		return nil, nil, err
	}

	var out *image.NRGBA
	_ = stage(StageContrast, func() error {
		report.ContrastFactor = tone.ContrastFactor(rng)
		out = tone.Contrast(base, report.ContrastFactor)
		return nil
	})
	return out, report, nil
}
