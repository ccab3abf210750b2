package crack

import (
	"context"
	"image"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/patina/pkg/errors"
	"github.com/matzehuels/patina/pkg/field"
	"github.com/matzehuels/patina/pkg/random"
)

// DefaultCrackWidth renders cracks one target pixel wide.
const DefaultCrackWidth = 1.0

// LayerOptions configures a crack layer rendered at a target size.
//
// Cracks are grown at a coarser source resolution of target/CrackWidth cells
// and upscaled, so one cell becomes roughly CrackWidth pixels wide. When
// FillingRatio is positive it overrides Params.ExactEndDist with
// FillingRatio × source area, making total crack length proportional to
// the image.
type LayerOptions struct {
	CrackWidth   float64 `json:"crack_width,omitempty" toml:"crack_width,omitempty" yaml:"crack_width,omitempty"`
	FillingRatio float64 `json:"filling_ratio,omitempty" toml:"filling_ratio,omitempty" yaml:"filling_ratio,omitempty"`
	Params       Params  `json:"params" toml:"params" yaml:"params"`
}

// SetDefaults fills zero fields.
func (o *LayerOptions) SetDefaults() {
	if o.CrackWidth == 0 {
		o.CrackWidth = DefaultCrackWidth
	}
	o.Params.SetDefaults()
}

// Validate checks the options after defaults have been applied.
func (o LayerOptions) Validate() error {
	if err := errors.ValidateFinite("crack_width", o.CrackWidth); err != nil {
		return err
	}
	if err := errors.ValidatePositive("crack_width", o.CrackWidth); err != nil {
		return err
	}
	if err := errors.ValidateFinite("filling_ratio", o.FillingRatio); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("filling_ratio", o.FillingRatio); err != nil {
		return err
	}
	p := o.Params
	if o.FillingRatio > 0 {
		// Layer derives the budget from the source area.
		p.ExactEndDist = max(p.ExactEndDist, o.FillingRatio)
	}
	return p.Validate()
}

// SourceSize returns the field size used for a target raster size.
func (o LayerOptions) SourceSize(target image.Point) (field.Size, error) {
	size := field.Size{
		W: int(float64(target.X) / o.CrackWidth),
		H: int(float64(target.Y) / o.CrackWidth),
	}
	if err := size.Validate(); err != nil {
		return field.Size{}, errors.Wrap(errors.ErrCodeInvalidSize, err,
			"target %dx%d is too small for crack_width %v", target.X, target.Y, o.CrackWidth)
	}
	return size, nil
}

// Layer grows a crack network for a target of the given size and returns it
// as a transparent layer with opaque white cracks, together with the raw
// generation result. The layer always matches target exactly.
func Layer(ctx context.Context, target image.Point, opts LayerOptions, rng random.Process) (image.Image, *Result, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}
	src, err := opts.SourceSize(target)
	if err != nil {
		return nil, nil, err
	}

	p := opts.Params
	if opts.FillingRatio > 0 {
		p.ExactEndDist = opts.FillingRatio * float64(src.Area())
	}

	res, err := Generate(ctx, src, p, rng)
	if err != nil {
		return nil, nil, err
	}

	layer := res.Field.Layer()
	if src.Point() == target {
		return layer, res, nil
	}
	return imaging.Resize(layer, target.X, target.Y, imaging.CatmullRom), res, nil
}
