// Package randutil centralises deterministic RNG construction so every
// call site derives reproducible sequences from a recorded seed.
package randutil

import rand "math/rand/v2"

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from the provided
// int64. The helper derives the two 64-bit seeds required by rand/v2
// from one value.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(Mix(u), Mix(u+goldenRatio64)))
}

// Mix is a splitmix64-style finalizer. It spreads structured inputs
// (hand numbers, sequential ids) across the full 64-bit space before
// they are used as seed material.
func Mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
