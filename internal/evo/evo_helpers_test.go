package evo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"connect4evo/internal/model"
	"connect4evo/internal/nn"
)

// columnNetwork is a single-layer network for a 6x7 board whose bias makes
// it always pick col.
func columnNetwork(t *testing.T, id string, col int) *nn.Network {
	t.Helper()
	bias := make([]float64, 7)
	bias[col] = 5
	net, err := nn.FromGenome(model.Genome{
		ID: id,
		Layers: []model.Layer{{
			In:      42,
			Out:     7,
			Weights: make([]float64, 42*7),
			Bias:    bias,
		}},
	})
	require.NoError(t, err)
	return net
}

func smallTrainerConfig() TrainerConfig {
	cfg := DefaultTrainerConfig()
	cfg.Rows = 4
	cfg.Cols = 5
	cfg.TurnCap = 19
	cfg.Hidden = []int{6}
	cfg.PopulationSize = 6
	cfg.Survivors = 2
	cfg.Generations = 3
	cfg.Seed = 17
	return cfg
}
