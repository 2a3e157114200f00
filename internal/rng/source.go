package rng

import (
	"math/rand/v2"
	"sync"
)

// Source yields uniformly distributed values in [0, 1).
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Default returns the process-wide source. It is safe for concurrent use.
func Default() Source {
	return globalSource{}
}

// Seeded is a deterministic PCG-backed source.
type Seeded struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeeded returns a reproducible source for the given seed.
func NewSeeded(seed uint64) *Seeded {
	return &Seeded{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *Seeded) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// Sequence replays a fixed list of values, wrapping around at the end.
// Values outside [0, 1) are clamped so callers never index out of range.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	next   int
}

func NewSequence(values ...float64) *Sequence {
	if len(values) == 0 {
		values = []float64{0}
	}
	return &Sequence{values: values}
}

func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next%len(s.values)]
	s.next++
	switch {
	case v < 0:
		return 0
	case v >= 1:
		return maxBelowOne
	}
	return v
}

// Drawn reports how many values have been consumed.
func (s *Sequence) Drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

const maxBelowOne = 1 - 1.0/(1<<53)

// Uniform draws from [min, max).
func Uniform(src Source, min, max float64) float64 {
	return min + src.Float64()*(max-min)
}

// Pick draws an index in [0, n).
func Pick(src Source, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(src.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
