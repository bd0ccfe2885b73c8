// Package rng provides the seeded pseudo-random source that underlies every
// synthetic artifact in the pipeline. Two generators built from equal string
// seeds produce bit-identical output sequences forever; reproducibility of
// cohorts, analysis runs and reports reduces to this property.
package rng

import (
	"math"

	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/core"
)

const (
	// FNV-1a 32-bit parameters for seed hashing.
	fnvOffsetBasis uint32 = 2166136261
	fnvPrime       uint32 = 16777619

	// Lehmer (Park-Miller) generator parameters.
	lcgMultiplier uint64 = 48271
	lcgModulus    uint64 = 1<<31 - 1
)

// HashSeed maps an arbitrary string seed to a 32-bit state via FNV-1a.
// The hash is order-sensitive: "ab" and "ba" diverge. A zero result maps
// to 1 to avoid the degenerate generator state.
func HashSeed(seed string) uint32 {
	h := fnvOffsetBasis
	for i := 0; i < len(seed); i++ {
		h ^= uint32(seed[i])
		h *= fnvPrime
	}
	if h == 0 {
		h = 1
	}
	return h
}

// Generator is a deterministic pseudo-random number source. It is not safe
// for concurrent use; callers construct one generator per logical operation.
type Generator struct {
	state uint32
}

// New creates a generator from a string seed.
func New(seed string) *Generator {
	return &Generator{state: normalizeState(HashSeed(seed))}
}

// normalizeState maps hashes that are multiples of the modulus to 1. Such
// a state would collapse the stream to a constant zero, violating the
// (0, 1) output range.
func normalizeState(h uint32) uint32 {
	if uint64(h)%lcgModulus == 0 {
		return 1
	}
	return h
}

// Next advances the state and returns a float in (0, 1).
func (g *Generator) Next() float64 {
	g.state = uint32((lcgMultiplier * uint64(g.state)) % lcgModulus)
	return float64(g.state) / float64(lcgModulus)
}

// NextInt returns an integer in [min, max], inclusive on both bounds.
func (g *Generator) NextInt(min, max int) int {
	return int(math.Floor(g.Next()*float64(max-min+1))) + min
}

// NextFloat returns a float linearly remapped into [min, max).
func (g *Generator) NextFloat(min, max float64) float64 {
	return min + g.Next()*(max-min)
}

// Boolean returns true with the given probability.
func (g *Generator) Boolean(trueProbability float64) bool {
	return g.Next() < trueProbability
}

// Pick returns a uniformly drawn element of items. Picking from an empty
// slice is a caller error and returns core.ErrEmptyInput.
func Pick[T any](g *Generator, items []T) (T, error) {
	var zero T
	if len(items) == 0 {
		return zero, core.ErrEmptyInput
	}
	return items[g.NextInt(0, len(items)-1)], nil
}
