package evo

import (
	"golang.org/x/exp/rand"

	"connect4evo/internal/nn"
)

// MutationSchedule is the per-generation mutation rate with a single
// annealing step.
type MutationSchedule struct {
	Rate         float64
	Probability  float64
	AnnealAt     int
	AnnealFactor float64
}

// RateAt returns the rate in effect during generation gen (zero based).
// AnnealAt <= 0 disables annealing.
func (s MutationSchedule) RateAt(gen int) float64 {
	if s.AnnealAt > 0 && gen >= s.AnnealAt {
		return s.Rate * s.AnnealFactor
	}
	return s.Rate
}

// mutatePopulation mutates each network with the given probability and
// reports how many were touched. Probability 1 draws no coin.
func mutatePopulation(population []*nn.Network, rate, probability float64, rng *rand.Rand) int {
	mutated := 0
	for _, net := range population {
		switch {
		case probability <= 0:
			continue
		case probability < 1 && rng.Float64() >= probability:
			continue
		}
		net.Mutate(rate, rng)
		mutated++
	}
	return mutated
}
