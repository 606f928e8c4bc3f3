package sched

import (
	"math"
	"math/rand/v2"
	"sort"
)

// ThompsonRank draws one posterior sample per archived arm from
// Normal(mean, sqrt(variance/(weight+1))) and returns the arms sorted by
// ascending sample, so arms worth probing next (low mean, or high enough
// uncertainty to be worth re-checking) come first. The +1 keeps the
// posterior scale finite for single-observation arms.
func (a *Archive) ThompsonRank(rng *rand.Rand) []Arm {
	type ranked struct {
		sample float64
		arm    Arm
	}

	candidates := make([]ranked, 0, len(a.Stats))
	for key, s := range a.Stats {
		arm, err := ParseKey(key)
		if err != nil {
			continue
		}
		variance := s.Variance
		if variance < varianceFloor {
			variance = varianceFloor
		}
		weight := s.Weight
		if weight < 0 {
			weight = 0
		}
		scale := math.Sqrt(variance / (weight + 1))
		if scale < varianceFloor {
			scale = varianceFloor
		}
		sample := s.Mean + scale*rng.NormFloat64()
		candidates = append(candidates, ranked{sample: sample, arm: arm})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].sample < candidates[j].sample })

	arms := make([]Arm, len(candidates))
	for i, c := range candidates {
		arms[i] = c.arm
	}
	return arms
}
