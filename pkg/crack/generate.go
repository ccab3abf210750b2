// Package crack grows fractal crack networks into an occupancy field.
//
// A crack is a random walk that drifts, forks and eventually stops. Each of
// those three behaviors fires on a Bernoulli trial whose probability rises
// with the distance the branch has already walked:
//
//	drift:     1 - exp(-dist/AngleDist)
//	fork:      1 - exp(-dist/ForkDist)
//	terminate: 1 - exp(-dist/EndDist)
//
// Forks recurse with a shorter EndDist, which keeps the tree self-similar and
// in practice shallow. When Params.ExactEndDist is set, termination becomes a
// length budget instead: a branch stops before its own distance plus the
// length of its forks would exceed the budget.
//
// # Usage
//
//	res, err := crack.Generate(ctx, field.Size{W: 256, H: 256}, crack.DefaultParams(), random.New(42))
//	if err != nil {
//	    return err
//	}
//	img := res.Field.Layer()
package crack

import (
	"context"
	"image"

	"github.com/matzehuels/patina/pkg/errors"
	"github.com/matzehuels/patina/pkg/field"
	"github.com/matzehuels/patina/pkg/random"
)

// Result is one generated crack network.
type Result struct {
	Field   *field.Field
	Length  float64     // total traced length, forks included
	Origin  image.Point // seed cell
	Heading float64     // initial heading in radians
}

// Generate allocates a field of the given size and grows one crack network
// into it from a uniformly random seed cell and heading.
//
// Invalid sizes and parameters are rejected before anything is allocated.
func Generate(ctx context.Context, size field.Size, p Params, rng random.Process) (*Result, error) {
	if rng == nil {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "random process is nil")
	}
	p.SetDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	f, err := field.New(size)
	if err != nil {
		return nil, err
	}

	origin := image.Pt(rng.IntN(size.W), rng.IntN(size.H))
	heading := random.Angle(rng)

	length, err := Grow(ctx, f, rng, float64(origin.X), float64(origin.Y), heading, p)
	if err != nil {
		return nil, err
	}
	return &Result{Field: f, Length: length, Origin: origin, Heading: heading}, nil
}
