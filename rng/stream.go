// Package rng manages reproducible random streams for the calibration
// engine. A narrow user-supplied seed is expanded through an intermediate
// generator into wide PCG state, and disjoint per-particle, per-batch
// substreams are derived from (base seed, particle index, call counter) so
// repeated generations never share a stream.
package rng

import "golang.org/x/exp/rand"

// minstd linear congruential constants, used as the intermediate
// warm-up generator of the two-stage expansion.
const (
	minstdMultiplier = 48271
	minstdModulus    = 2147483647
)

// mix is the splitmix64 finalizer; it decorrelates structured inputs
// (small seeds, sequential counters) before they reach PCG state.
func mix(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Expand widens a narrow seed: an LCG seeded from it is iterated to fill
// 64 bits, which are then finalized with mix. Small consecutive seeds map
// to well-separated PCG states.
func Expand(seed uint64) uint64 {
	x := seed%minstdModulus + 1
	var wide uint64
	for i := 0; i < 4; i++ {
		x = x * minstdMultiplier % minstdModulus
		wide = wide<<16 ^ x
	}
	return mix(wide ^ seed)
}

// NewExpanded returns a generator seeded via two-stage expansion of the
// given narrow seed.
func NewExpanded(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(Expand(seed + 1)))
}

// Substream returns the reproducible generator for one particle within one
// batch dispatch. Streams for distinct (particle, call) pairs are disjoint
// with overwhelming probability.
func Substream(base uint64, particle, call int) *rand.Rand {
	s := mix(Expand(base + 1))
	s = mix(s ^ uint64(call))
	s = mix(s ^ uint64(particle))
	return rand.New(rand.NewSource(s))
}
