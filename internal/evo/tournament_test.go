package evo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"connect4evo/internal/game"
	"connect4evo/internal/nn"
)

func TestPairingsCoverEveryUnorderedPairOnce(t *testing.T) {
	require.Empty(t, Pairings(1))

	pairs := Pairings(5)
	require.Len(t, pairs, 10)
	seen := map[[2]int]bool{}
	for _, p := range pairs {
		require.Less(t, p[0], p[1], "lower index plays first")
		require.False(t, seen[p])
		seen[p] = true
	}
}

func TestScoringPolicies(t *testing.T) {
	cases := []struct {
		policy  ScoringPolicy
		outcome game.Outcome
		a, b    float64
	}{
		{WinsScoring{}, game.WinnerA, 1, 0},
		{WinsScoring{}, game.WinnerB, 0, 1},
		{WinsScoring{}, game.Draw, 0, 0},
		{WinsScoring{}, game.Aborted, 0, 0},
		{SignedScoring{}, game.WinnerA, 1, -1},
		{SignedScoring{}, game.WinnerB, -1, 1},
		{SignedScoring{}, game.Draw, 0, 0},
		{SignedScoring{}, game.Aborted, 0, 0},
	}
	for _, tc := range cases {
		a, b := tc.policy.Score(tc.outcome)
		require.Equal(t, tc.a, a, "%s %s", tc.policy.Name(), tc.outcome)
		require.Equal(t, tc.b, b, "%s %s", tc.policy.Name(), tc.outcome)
	}
}

func TestPlayTournamentScoresFirstMoverWins(t *testing.T) {
	population := []*nn.Network{
		columnNetwork(t, "c3", 3),
		columnNetwork(t, "c4", 4),
		columnNetwork(t, "c5", 5),
	}
	for _, workers := range []int{1, 2, 8} {
		res, err := PlayTournament(context.Background(), population, TournamentConfig{
			Rows: 6, Cols: 7, TurnCap: 41, Scoring: WinsScoring{}, Workers: workers,
		})
		require.NoError(t, err)
		require.Equal(t, []float64{2, 1, 0}, res.Scores, "workers=%d", workers)
		require.Equal(t, TournamentStats{Games: 3, WinsA: 3, TotalTurns: 21}, res.Stats)
		require.InDelta(t, 7.0, res.Stats.MeanTurns(), 1e-12)
	}

	res, err := PlayTournament(context.Background(), population, TournamentConfig{
		Rows: 6, Cols: 7, TurnCap: 41, Scoring: SignedScoring{},
	})
	require.NoError(t, err)
	require.Equal(t, []float64{2, 0, -2}, res.Scores)
}

func TestPlayTournamentCountsAbortsAsZero(t *testing.T) {
	// Both pick column 0; the seventh drop overflows it.
	population := []*nn.Network{
		columnNetwork(t, "a", 0),
		columnNetwork(t, "b", 0),
	}
	res, err := PlayTournament(context.Background(), population, TournamentConfig{Rows: 6, Cols: 7, TurnCap: 41})
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0}, res.Scores)
	require.Equal(t, 1, res.Stats.Aborted)
}

func TestPlayTournamentRejectsMismatchedNetworks(t *testing.T) {
	small, err := nn.NewZero("small", []int{20, 5})
	require.NoError(t, err)
	_, err = PlayTournament(context.Background(), []*nn.Network{small, columnNetwork(t, "ok", 1)}, TournamentConfig{Rows: 6, Cols: 7, TurnCap: 41})
	require.ErrorIs(t, err, nn.ErrTopology)
}

func TestPlayTournamentHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	population := []*nn.Network{columnNetwork(t, "a", 1), columnNetwork(t, "b", 2)}
	_, err := PlayTournament(ctx, population, TournamentConfig{Rows: 6, Cols: 7, TurnCap: 41})
	require.ErrorIs(t, err, context.Canceled)
}
