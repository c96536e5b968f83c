package core

import "math/rand"

// Sampler provides the random numbers an integrator or primitive needs.
// Swappable for deterministic testing.
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
}

// RandomSampler wraps a *rand.Rand, the one RNG every thread-local
// integrator context owns exclusively.
type RandomSampler struct {
	Rand *rand.Rand
}

// NewRandomSampler creates a sampler from a seeded generator.
func NewRandomSampler(seed int64) *RandomSampler {
	return &RandomSampler{Rand: rand.New(rand.NewSource(seed))}
}

// Get1D returns a uniform float64 in [0,1).
func (s *RandomSampler) Get1D() float64 {
	return s.Rand.Float64()
}

// Get2D returns two independent uniform float64 values in [0,1).
func (s *RandomSampler) Get2D() Vec2 {
	return NewVec2(s.Rand.Float64(), s.Rand.Float64())
}
