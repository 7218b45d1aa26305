package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRand_SameSeedSameSequence(t *testing.T) {
	a := NewRand(DefaultSeed)
	b := NewRand(DefaultSeed)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestNewRand_DifferentSeeds(t *testing.T) {
	a := NewRand(1)
	b := NewRand(2)
	assert.NotEqual(t, a.Uint64(), b.Uint64())
}
