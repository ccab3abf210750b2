package crack

import (
	"context"
	"fmt"
	"math"

	"github.com/matzehuels/patina/pkg/errors"
	"github.com/matzehuels/patina/pkg/field"
	"github.com/matzehuels/patina/pkg/random"
)

// pollEvery is how many steps pass between context checks.
const pollEvery = 1024

// Grow traces one crack starting at (x, y) with the given heading, marking
// every visited cell of f. It returns the total traced length: the distance
// walked by this branch plus everything its forks walked.
//
// Parameters are defaulted and validated before the first cell is marked.
// Growth stops with a RESOURCE_EXHAUSTED error when forks nest deeper than
// p.MaxForkDepth, and with the context error when ctx is done.
func Grow(ctx context.Context, f *field.Field, rng random.Process, x, y, heading float64, p Params) (float64, error) {
	if f == nil {
		return 0, errors.New(errors.ErrCodeInvalidArgument, "field is nil")
	}
	if rng == nil {
		return 0, errors.New(errors.ErrCodeInvalidArgument, "random process is nil")
	}
	p.SetDefaults()
	if err := p.Validate(); err != nil {
		return 0, err
	}

	g := &grower{ctx: ctx, field: f, rng: rng}
	return g.grow(branch{
		x:       x,
		y:       y,
		heading: heading,
		params:  p,
		budget:  p.ExactEndDist,
	})
}

// branch is the state of one crack segment. It is passed by value; nothing
// in it is shared with the parent that spawned it.
type branch struct {
	x, y    float64
	heading float64
	params  Params
	budget  float64 // only meaningful when params.Budgeted()
	depth   int
}

type grower struct {
	ctx   context.Context
	field *field.Field
	rng   random.Process
	steps int
}

func (g *grower) grow(b branch) (float64, error) {
	p := b.params
	if b.depth > p.MaxForkDepth {
		return 0, errors.New(errors.ErrCodeResourceExhausted,
			"crack forks nested deeper than max_fork_depth=%d", p.MaxForkDepth)
	}

	var dist, forks float64
	for {
		if p.Budgeted() {
			if dist+forks+p.Step > b.budget {
				break
			}
		} else if g.rng.Bernoulli(1 - math.Exp(-dist/p.EndDist)) {
			break
		}

		if g.rng.Bernoulli(1 - math.Exp(-dist/p.ForkDist)) {
			n, err := g.grow(b.fork(g.rng, dist, forks))
			if err != nil {
				return 0, err
			}
			forks += n
		}

		if g.rng.Bernoulli(1 - math.Exp(-dist/p.AngleDist)) {
			b.heading += random.Perturbation(g.rng, p.AngleAmplitude)
		}

		b.x += p.Step * math.Cos(b.heading)
		b.y += p.Step * math.Sin(b.heading)
		dist += p.Step
		g.field.Mark(b.x, b.y)

		if err := g.tick(); err != nil {
			return 0, err
		}
	}
	return dist + forks, nil
}

// fork derives a child branch at the current position. In compound mode it
// also bends the receiver.
func (b *branch) fork(rng random.Process, dist, forks float64) branch {
	child := branch{
		x:      b.x,
		y:      b.y,
		params: b.params,
		depth:  b.depth + 1,
	}
	switch b.params.ForkMode {
	case ForkCompound:
		delta := random.Perturbation(rng, b.params.AngleAmplitude)
		child.heading = b.heading - delta
		b.heading += delta
	default:
		child.heading = b.heading + random.Sign(rng)*math.Pi/2
	}

	child.params.EndDist = b.params.EndDist * b.params.EndDistFactor
	if b.params.Budgeted() {
		child.budget = (b.budget - dist - forks) * b.params.ExactEndForkFactor
	}
	return child
}

func (g *grower) tick() error {
	g.steps++
	if g.steps%pollEvery != 0 {
		return nil
	}
	if err := g.ctx.Err(); err != nil {
		return fmt.Errorf("crack growth interrupted after %d steps: %w", g.steps, err)
	}
	return nil
}
