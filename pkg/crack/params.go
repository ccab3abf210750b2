package crack

import (
	"math"

	"github.com/matzehuels/patina/pkg/errors"
)

// ForkMode selects how a fork splits off its parent branch.
type ForkMode string

const (
	// ForkSimple turns the child ±90° off the parent and leaves the parent
	// heading untouched.
	ForkSimple ForkMode = "simple"
	// ForkCompound bends parent and child in opposite directions by the
	// same random perturbation.
	ForkCompound ForkMode = "compound"
)

// Default growth parameters.
const (
	DefaultAngleAmplitude     = math.Pi / 6
	DefaultAngleDist          = 10.0
	DefaultForkDist           = 100.0
	DefaultEndDist            = 1000.0
	DefaultEndDistFactor      = 0.1
	DefaultExactEndForkFactor = 0.25
	DefaultStep               = 1.0
	DefaultMaxForkDepth       = 512
)

// Params configures crack growth. Zero fields are replaced by the defaults
// above in [Params.SetDefaults]; ExactEndDist is the exception, where 0
// selects probabilistic termination.
//
// Params is a value type. Every branch works on its own copy, so a fork can
// never change the parameters of its parent or siblings.
type Params struct {
	// AngleAmplitude bounds a single heading perturbation (radians).
	AngleAmplitude float64 `json:"angle_amplitude,omitempty" toml:"angle_amplitude,omitempty" yaml:"angle_amplitude,omitempty"`
	// AngleDist is the characteristic distance of heading drift.
	AngleDist float64 `json:"angle_dist,omitempty" toml:"angle_dist,omitempty" yaml:"angle_dist,omitempty"`
	// ForkDist is the characteristic distance of forking.
	ForkDist float64 `json:"fork_dist,omitempty" toml:"fork_dist,omitempty" yaml:"fork_dist,omitempty"`
	// EndDist is the characteristic distance of probabilistic termination.
	EndDist float64 `json:"end_dist,omitempty" toml:"end_dist,omitempty" yaml:"end_dist,omitempty"`
	// EndDistFactor scales EndDist for every child branch.
	EndDistFactor float64 `json:"end_dist_factor,omitempty" toml:"end_dist_factor,omitempty" yaml:"end_dist_factor,omitempty"`
	// ExactEndDist, when positive, switches to length-budgeted termination.
	ExactEndDist float64 `json:"exact_end_dist,omitempty" toml:"exact_end_dist,omitempty" yaml:"exact_end_dist,omitempty"`
	// ExactEndForkFactor scales the remaining budget handed to a child.
	ExactEndForkFactor float64 `json:"exact_end_fork_factor,omitempty" toml:"exact_end_fork_factor,omitempty" yaml:"exact_end_fork_factor,omitempty"`
	// Step is the distance advanced per iteration.
	Step float64 `json:"step,omitempty" toml:"step,omitempty" yaml:"step,omitempty"`
	// ForkMode is ForkSimple or ForkCompound.
	ForkMode ForkMode `json:"fork_mode,omitempty" toml:"fork_mode,omitempty" yaml:"fork_mode,omitempty"`
	// MaxForkDepth bounds recursion. Exceeding it is an error.
	MaxForkDepth int `json:"max_fork_depth,omitempty" toml:"max_fork_depth,omitempty" yaml:"max_fork_depth,omitempty"`
}

// DefaultParams returns a fresh Params with every default applied and
// probabilistic termination.
func DefaultParams() Params {
	var p Params
	p.SetDefaults()
	return p
}

// SetDefaults fills zero-valued fields with package defaults.
func (p *Params) SetDefaults() {
	if p.AngleAmplitude == 0 {
		p.AngleAmplitude = DefaultAngleAmplitude
	}
	if p.AngleDist == 0 {
		p.AngleDist = DefaultAngleDist
	}
	if p.ForkDist == 0 {
		p.ForkDist = DefaultForkDist
	}
	if p.EndDist == 0 {
		p.EndDist = DefaultEndDist
	}
	if p.EndDistFactor == 0 {
		p.EndDistFactor = DefaultEndDistFactor
	}
	if p.ExactEndForkFactor == 0 {
		p.ExactEndForkFactor = DefaultExactEndForkFactor
	}
	if p.Step == 0 {
		p.Step = DefaultStep
	}
	if p.ForkMode == "" {
		p.ForkMode = ForkSimple
	}
	if p.MaxForkDepth == 0 {
		p.MaxForkDepth = DefaultMaxForkDepth
	}
}

// Budgeted reports whether growth terminates on an exact length budget.
func (p Params) Budgeted() bool { return p.ExactEndDist > 0 }

// Validate checks that every parameter is usable. Characteristic distances
// may be +Inf to disable the behavior they control, except EndDist without a
// length budget: such a branch would never stop.
func (p Params) Validate() error {
	if err := errors.ValidateFinite("angle_amplitude", p.AngleAmplitude); err != nil {
		return err
	}
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"angle_dist", p.AngleDist},
		{"fork_dist", p.ForkDist},
		{"end_dist", p.EndDist},
	} {
		if err := errors.ValidatePositive(c.name, c.v); err != nil {
			return err
		}
	}
	if math.IsInf(p.EndDist, 1) && !p.Budgeted() {
		return errors.Invalid("end_dist", "end_dist must be finite without exact_end_dist")
	}
	if err := errors.ValidateFinite("step", p.Step); err != nil {
		return err
	}
	if err := errors.ValidatePositive("step", p.Step); err != nil {
		return err
	}
	if err := errors.ValidatePositive("end_dist_factor", p.EndDistFactor); err != nil {
		return err
	}
	if err := errors.ValidateFinite("exact_end_dist", p.ExactEndDist); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("exact_end_dist", p.ExactEndDist); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("exact_end_fork_factor", p.ExactEndForkFactor); err != nil {
		return err
	}
	switch p.ForkMode {
	case ForkSimple, ForkCompound:
	default:
		return errors.New(errors.ErrCodeInvalidArgument, "unknown fork mode %q (want %q or %q)", p.ForkMode, ForkSimple, ForkCompound)
	}
	if p.MaxForkDepth <= 0 {
		return errors.New(errors.ErrCodeInvalidArgument, "max_fork_depth must be positive, got %d", p.MaxForkDepth)
	}
	return nil
}
