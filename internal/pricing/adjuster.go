// Package pricing generates daily synthetic prices from calendar-driven rules.
package pricing

import (
	"math/rand/v2"
	"sync"
)

// Range is a fractional [Min, Max] adjustment band.
type Range struct {
	Min float64
	Max float64
}

// DefaultNoiseRange is the ambient daily fluctuation band.
var DefaultNoiseRange = Range{Min: -0.03, Max: 0.03}

// Sampler draws uniform values from a range.
type Sampler interface {
	Uniform(min, max float64) float64
}

// RandSampler is a seeded uniform sampler safe for concurrent use.
type RandSampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandSampler creates a sampler with a fixed seed.
func NewRandSampler(seed uint64) *RandSampler {
	return &RandSampler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Uniform returns a value in [min, max).
func (s *RandSampler) Uniform(min, max float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + (max-min)*s.rng.Float64()
}

// ApplyUplift raises price by a fraction drawn from r.
func ApplyUplift(price float64, r Range, s Sampler) float64 {
	u := s.Uniform(r.Min, r.Max)
	return price * (1 + u)
}

// ApplyDiscount lowers price by a fraction drawn from r.
// r.Max must not exceed 1; the event validator enforces it.
func ApplyDiscount(price float64, r Range, s Sampler) float64 {
	d := s.Uniform(r.Min, r.Max)
	return price * (1 - d)
}

// ApplyNoise shifts price by a fraction drawn from r.
func ApplyNoise(price float64, r Range, s Sampler) float64 {
	n := s.Uniform(r.Min, r.Max)
	return price * (1 + n)
}
