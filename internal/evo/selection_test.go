package evo

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"connect4evo/internal/nn"
)

func TestSelectTopIsStableOnTies(t *testing.T) {
	top, err := SelectTop([]float64{1, 3, 3, 0, 3, 2}, 4)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 4, 5}, top)
}

func TestSelectTopAllowsMoreSurvivorsThanDistinctScores(t *testing.T) {
	top, err := SelectTop([]float64{0, 0, 0}, 3)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, top)
}

func TestSelectTopUnderflow(t *testing.T) {
	_, err := SelectTop([]float64{1, 2}, 3)
	require.ErrorIs(t, err, ErrSelectionUnderflow)
	_, err = SelectTop([]float64{1, 2}, 0)
	require.Error(t, err)
}

func survivorsWithScores(scores ...float64) []ScoredNetwork {
	out := make([]ScoredNetwork, len(scores))
	for i, s := range scores {
		out[i] = ScoredNetwork{Score: s}
	}
	return out
}

func TestFixedQuotaPreservesSize(t *testing.T) {
	copies := FixedQuotaReproduction{}.Copies(survivorsWithScores(9, 4, 4, 1, 0), 50)
	require.Equal(t, []int{10, 10, 10, 10, 10}, copies)
	require.Equal(t, 50, sumCopies(copies))

	copies = FixedQuotaReproduction{}.Copies(survivorsWithScores(3, 2, 1), 10)
	require.Equal(t, []int{3, 3, 3}, copies, "remainder is dropped")
}

func TestProportionalStaysWithinTolerance(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for trial := 0; trial < 500; trial++ {
		n := 1 + rng.Intn(12)
		slots := n + rng.Intn(80)
		scores := make([]float64, n)
		for i := range scores {
			scores[i] = float64(rng.Intn(40) - 5)
		}
		copies := ProportionalReproduction{}.Copies(survivorsWithScores(scores...), slots)
		total := sumCopies(copies)
		require.LessOrEqual(t, total, slots, "scores=%v", scores)
		require.GreaterOrEqual(t, total, slots-(n-1), "scores=%v", scores)
		for i, c := range copies {
			if scores[i] <= 0 && total > 0 && hasPositive(scores) {
				require.Zero(t, c, "non-positive survivor copied: scores=%v", scores)
			}
		}
	}
}

func hasPositive(scores []float64) bool {
	for _, s := range scores {
		if s > 0 {
			return true
		}
	}
	return false
}

func TestProportionalFallsBackToFixedQuota(t *testing.T) {
	copies := ProportionalReproduction{}.Copies(survivorsWithScores(0, -1, -3), 9)
	require.Equal(t, []int{3, 3, 3}, copies)
}

func TestProportionalShares(t *testing.T) {
	copies := ProportionalReproduction{}.Copies(survivorsWithScores(6, 3, 1), 50)
	require.Equal(t, []int{30, 15, 5}, copies)
}

func TestRankSurvivorsCarriesScores(t *testing.T) {
	a, _ := nn.NewZero("a", []int{2, 1})
	b, _ := nn.NewZero("b", []int{2, 1})
	c, _ := nn.NewZero("c", []int{2, 1})
	ranked, err := rankSurvivors([]*nn.Network{a, b, c}, []float64{1, 5, 3}, 2)
	require.NoError(t, err)
	require.Equal(t, "b", ranked[0].Network.ID)
	require.Equal(t, 5.0, ranked[0].Score)
	require.Equal(t, "c", ranked[1].Network.ID)
}
