package simulation

import "math/rand"

// Weighted pairs a candidate value with its selection weight.
type Weighted[T any] struct {
	Value  T
	Weight float64
}

// ChooseWeighted draws one value from choices with probability proportional
// to its weight. Weights do not need to sum to 1. The rng parameter makes
// the draw seedable for deterministic tests.
func ChooseWeighted[T any](rng *rand.Rand, choices []Weighted[T]) T {
	total := 0.0
	for _, choice := range choices {
		total += choice.Weight
	}

	target := rng.Float64() * total
	for _, choice := range choices {
		target -= choice.Weight
		if target < 0 {
			return choice.Value
		}
	}

	// Float accumulation can leave a sliver above the last threshold.
	return choices[len(choices)-1].Value
}
