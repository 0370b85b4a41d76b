package noise

import "math/rand/v2"

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Hash3 mixes a seed and a lattice position into 64 well distributed bits.
func Hash3(seed int64, x, y, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uy := uint64(uint32(int32(y)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xc2b2ae3d27d4eb4f) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

// PositionalRandom hands out independent random sources keyed by position.
// The same seed and position always yield the same sequence.
type PositionalRandom struct {
	seed int64
}

// NewPositionalRandom creates a factory for seed.
func NewPositionalRandom(seed int64) PositionalRandom {
	return PositionalRandom{seed: seed}
}

// At returns the random source of position (x, y, z).
func (p PositionalRandom) At(x, y, z int) *rand.Rand {
	h := Hash3(p.seed, x, y, z)
	return rand.New(rand.NewPCG(h, mix64(h)))
}
