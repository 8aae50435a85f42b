package random

import (
	"math/rand/v2"
	"sync"
)

// Source is the minimal generator contract the samplers need.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	NormFloat64() float64
}

// New returns a deterministic generator seeded with seed.
// Two generators created with the same seed yield identical sequences.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Shared is a mutex-guarded source that can be reseeded in place.
type Shared struct {
	mu  sync.Mutex
	pcg *rand.PCG
	r   *rand.Rand
}

// NewShared creates a shared source seeded non-deterministically.
func NewShared() *Shared {
	pcg := rand.NewPCG(rand.Uint64(), rand.Uint64())
	return &Shared{pcg: pcg, r: rand.New(pcg)}
}

// NormFloat64 draws one standard normal value.
func (s *Shared) NormFloat64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.NormFloat64()
}

// Seed resets the source so it replays the sequence of New(seed).
func (s *Shared) Seed(seed uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pcg.Seed(seed, seed)
}

var defaultSource = NewShared()

// Default returns the process-wide shared source.
func Default() *Shared {
	return defaultSource
}

// Seed reseeds the process-wide shared source.
func Seed(seed uint64) {
	defaultSource.Seed(seed)
}
