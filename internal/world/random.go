package world

import (
	"hash/fnv"
	"math/rand"

	"roadrunner/server/internal/roadmap"
)

func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}

// RandomPointOnRoad picks a uniformly distributed point on the segment.
func RandomPointOnRoad(rng *rand.Rand, road roadmap.Road) roadmap.Position {
	t := rng.Float64()
	return roadmap.Position{
		X: road.Start.X + (road.End.X-road.Start.X)*t,
		Y: road.Start.Y + (road.End.Y-road.Start.Y)*t,
	}
}
