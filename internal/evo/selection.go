package evo

import (
	"errors"
	"fmt"
	"sort"

	"connect4evo/internal/nn"
)

var ErrSelectionUnderflow = errors.New("not enough genomes to select from")

// ScoredNetwork pairs a genome with its tournament score.
type ScoredNetwork struct {
	Network *nn.Network
	Score   float64
}

// SelectTop returns the indices of the n highest scores, best first. Equal
// scores keep population order.
func SelectTop(scores []float64, n int) ([]int, error) {
	if n <= 0 {
		return nil, fmt.Errorf("survivor count must be > 0, got=%d", n)
	}
	if n > len(scores) {
		return nil, fmt.Errorf("%w: want=%d have=%d", ErrSelectionUnderflow, n, len(scores))
	}
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})
	return order[:n], nil
}

func rankSurvivors(population []*nn.Network, scores []float64, n int) ([]ScoredNetwork, error) {
	top, err := SelectTop(scores, n)
	if err != nil {
		return nil, err
	}
	out := make([]ScoredNetwork, len(top))
	for i, idx := range top {
		out[i] = ScoredNetwork{Network: population[idx], Score: scores[idx]}
	}
	return out, nil
}
