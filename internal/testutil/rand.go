package testutil

import "math/rand/v2"

// DefaultSeed seeds NewRand when a scenario does not pick one.
const DefaultSeed = 42

// NewRand returns a deterministic random source.
//
// The same seed always yields the same sequence, so generated test data and
// UUID() suffixes are stable across runs.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
