package core

import (
	"hash/fnv"
	"math/rand"
)

// StreamRays is the substream label for the main ray-emission driver.
const StreamRays = "rays"

// StreamTail is the substream label for late-tail pulse synthesis.
const StreamTail = "tail"

// SeedFromString hashes an arbitrary seed string to a 64-bit base seed
// using FNV-1a. The empty string is a valid seed.
func SeedFromString(seed string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(seed))
	return h.Sum64()
}

// splitmix64 is the SplitMix64 finalizer. It decorrelates nearby inputs,
// so per-ray seeds derived from consecutive indices produce independent
// streams.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// NewStream returns a deterministic random generator for a named substream
// of the given base seed. The same (seed, label) pair always yields the
// same sequence.
func NewStream(baseSeed uint64, label string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(label))
	return rand.New(rand.NewSource(int64(splitmix64(baseSeed ^ h.Sum64()))))
}

// NewRayStream returns the generator for a single ray, keyed by the ray's
// global index. Keying by index (rather than by worker) keeps simulations
// reproducible regardless of how rays are distributed across threads.
func NewRayStream(baseSeed uint64, rayIndex int) *rand.Rand {
	return rand.New(rand.NewSource(int64(splitmix64(baseSeed + uint64(rayIndex)*0x9e3779b97f4a7c15))))
}
