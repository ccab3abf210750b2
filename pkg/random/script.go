package random

import "math"

// Script is a Process that replays fixed draws. Once a queue is exhausted it
// keeps returning the zero draw (0.0, false, 0, and min for Uniform), so an
// empty Script never succeeds a trial.
//
// Uniform consumes from Floats and maps the value from [0, 1) onto
// [min, max). Bernoulli consumes from Bools only when 0 < p < 1, mirroring
// Source. IntN consumes from Ints and reduces the value modulo n.
type Script struct {
	Floats []float64
	Bools  []bool
	Ints   []int

	// Trials counts Bernoulli calls that consumed (or would have consumed) a
	// scripted value.
	Trials int
}

// Float64 returns the next scripted float.
func (s *Script) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[0]
	s.Floats = s.Floats[1:]
	return v
}

// Uniform maps the next scripted float onto [min, max).
func (s *Script) Uniform(min, max float64) float64 {
	return min + s.Float64()*(max-min)
}

// Bernoulli returns the next scripted trial outcome.
func (s *Script) Bernoulli(p float64) bool {
	switch {
	case p <= 0 || math.IsNaN(p):
		return false
	case p >= 1:
		return true
	}
	s.Trials++
	if len(s.Bools) == 0 {
		return false
	}
	v := s.Bools[0]
	s.Bools = s.Bools[1:]
	return v
}

// IntN returns the next scripted integer reduced into [0, n).
func (s *Script) IntN(n int) int {
	if n <= 0 || len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[0]
	s.Ints = s.Ints[1:]
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

var _ Process = (*Script)(nil)
