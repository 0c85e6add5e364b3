package cluster

import "math/rand/v2"

// RandomSource hands the clusterer a fresh generator per run.
type RandomSource interface {
	New() *rand.Rand
}

// FixedSeed makes runs reproducible.
type FixedSeed uint64

func (s FixedSeed) New() *rand.Rand {
	return rand.New(rand.NewPCG(uint64(s), uint64(s)^0x9e3779b97f4a7c15))
}

type SystemEntropy struct{}

func (SystemEntropy) New() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// SourceFromSeed returns FixedSeed for a non-zero seed and SystemEntropy otherwise.
func SourceFromSeed(seed int64) RandomSource {
	if seed == 0 {
		return SystemEntropy{}
	}
	return FixedSeed(uint64(seed))
}
