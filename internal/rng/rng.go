// Package rng provides the seeded random source shared by a challenge run.
package rng

import (
	"math/rand/v2"
	"sync"
)

// pcgStream is mixed into the second PCG word so that seed 0 still yields
// a non-degenerate stream.
const pcgStream = 0x9e3779b97f4a7c15

// Source is a deterministic-given-seed random stream.
// It is safe for concurrent use.
type Source struct {
	mu   sync.Mutex
	r    *rand.Rand
	seed uint32
}

// New creates a source seeded with seed.
func New(seed uint32) *Source {
	return &Source{
		r:    rand.New(rand.NewPCG(uint64(seed), uint64(seed)^pcgStream)),
		seed: seed,
	}
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() uint32 {
	return s.seed
}

// Coin returns the result of a fair coin flip.
func (s *Source) Coin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(2) == 0
}

// IntN returns a uniform value in [0,n). It panics if n <= 0.
func (s *Source) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// Perm returns a pseudo-random permutation of [0,n).
func (s *Source) Perm(n int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Perm(n)
}

// Shuffle pseudo-randomizes the order of n elements using swap.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Shuffle(n, swap)
}

// Entropy returns a seed drawn from the runtime's randomly seeded generator.
func Entropy() uint32 {
	return rand.Uint32()
}
