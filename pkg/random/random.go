// Package random provides the injectable random process used by every
// generator in patina.
//
// Generators never reach for a package-level source. Each call receives a
// [Process], so concurrent generations stay independent and tests can swap in
// a [Script] to pin every draw.
package random

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Process is a source of uniform reals, Bernoulli trials and bounded integers.
// Implementations are not safe for concurrent use.
type Process interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// Uniform returns a uniform value in [min, max).
	Uniform(min, max float64) float64
	// Bernoulli returns true with probability p. p <= 0 never succeeds and
	// p >= 1 always does.
	Bernoulli(p float64) bool
	// IntN returns a uniform integer in [0, n). n <= 0 yields 0.
	IntN(n int) int
}

// Source is the production Process: a PCG generator with gonum
// distributions layered on top.
type Source struct {
	src rand.Source
	rng *rand.Rand
}

// New creates a deterministic Source seeded with seed.
func New(seed uint64) *Source {
	src := rand.NewPCG(seed, seed^0xdeadbeef)
	return &Source{src: src, rng: rand.New(src)}
}

// Float64 returns a uniform value in [0, 1).
func (s *Source) Float64() float64 { return s.rng.Float64() }

// Uniform returns a uniform value in [min, max).
func (s *Source) Uniform(min, max float64) float64 {
	if min == max {
		return min
	}
	return distuv.Uniform{Min: min, Max: max, Src: s.src}.Rand()
}

// Bernoulli returns true with probability p.
func (s *Source) Bernoulli(p float64) bool {
	switch {
	case p <= 0 || math.IsNaN(p):
		return false
	case p >= 1:
		return true
	}
	return distuv.Bernoulli{P: p, Src: s.src}.Rand() == 1
}

// IntN returns a uniform integer in [0, n).
func (s *Source) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rng.IntN(n)
}

// Angle draws a heading uniformly from [0, 2π).
func Angle(p Process) float64 {
	return 2 * math.Pi * p.Float64()
}

// Perturbation draws Uniform(-1, 1) × amplitude.
func Perturbation(p Process, amplitude float64) float64 {
	return p.Uniform(-1, 1) * amplitude
}

// Sign returns -1 or +1 with equal probability.
func Sign(p Process) float64 {
	if p.Bernoulli(0.5) {
		return 1
	}
	return -1
}

// Derive returns the seed used for the index-th item of a batch seeded with
// base. Every item gets its own stream while the batch stays reproducible.
func Derive(base uint64, index int) uint64 {
	return base + uint64(index)
}

// Ensure Source implements Process.
var _ Process = (*Source)(nil)
