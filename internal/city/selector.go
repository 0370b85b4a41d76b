package city

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/OCharnyshevich/lostcities/pkg/world"
)

// noMaxDistance marks a selector without an upper spawn distance.
const noMaxDistance = math.MaxInt32

// Weight returns the selector factor at chunk c, feathered by the block
// distance of c from the world origin.
func (s Selector) Weight(c world.ChunkPos) float64 {
	minDist, maxDist := s.MinSpawnDistance, s.MaxSpawnDistance
	if maxDist <= 0 {
		maxDist = noMaxDistance
	}
	if minDist <= 0 && maxDist == noMaxDistance {
		return s.Factor
	}

	bx, bz := float64(c.X<<4), float64(c.Z<<4)
	sq := bx*bx + bz*bz
	switch {
	case sq < float64(minDist)*float64(minDist):
		if s.Feather <= 0 {
			return 0
		}
		fd := float64(minDist - s.Feather)
		if sq < fd*fd {
			return 0
		}
		return (math.Sqrt(sq) - fd) / (float64(minDist) - fd) * s.Factor
	case sq > float64(maxDist)*float64(maxDist):
		if s.Feather <= 0 {
			return 0
		}
		fd := float64(maxDist) + float64(s.Feather)
		if sq > fd*fd {
			return 0
		}
		return (fd - math.Sqrt(sq)) / (fd - float64(maxDist)) * s.Factor
	}
	return s.Factor
}

// pickWeighted returns an index drawn proportionally to weights, or -1 when
// no weight is positive.
func pickWeighted(rng *rand.Rand, weights []float64) int {
	if len(weights) == 0 {
		return -1
	}
	cum := floats.CumSum(make([]float64, len(weights)), weights)
	total := cum[len(cum)-1]
	if !(total > 0) {
		return -1
	}
	r := rng.Float64() * total
	i := sort.Search(len(cum), func(i int) bool { return cum[i] > r })
	if i == len(cum) {
		i = len(cum) - 1
	}
	return i
}

// pickMultiBuilding draws a multi-building name from the style selectors
// as seen from chunk c. It returns "" when no selector has weight there.
func (s *Style) pickMultiBuilding(rng *rand.Rand, c world.ChunkPos) string {
	weights := make([]float64, len(s.MultiBuildings))
	for i, sel := range s.MultiBuildings {
		weights[i] = max(sel.Weight(c), 0)
	}
	i := pickWeighted(rng, weights)
	if i < 0 {
		return ""
	}
	return s.MultiBuildings[i].Value
}
