package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	summary := Summarize("run-1", sampleDiagnostics())
	require.Equal(t, 2, summary.Generations)
	require.Equal(t, 20, summary.Games)
	require.Equal(t, 4.0, summary.InitialBest)
	require.Equal(t, 6.0, summary.FinalBest)
	require.Equal(t, 2.0, summary.Improvement)
	require.Equal(t, 6.0, summary.BestMax)
	require.Equal(t, 4.0, summary.BestMin)
	require.Equal(t, 5.0, summary.BestMean)
	require.InDelta(t, math.Sqrt2, summary.BestStd, 1e-12, "sample std")
	require.Equal(t, 0.1, summary.DrawRate)
	require.Equal(t, 0.1, summary.AbortRate)
	require.Equal(t, 15.0, summary.MeanTurns)
}

func TestSummarizeEmptyAndSingle(t *testing.T) {
	empty := Summarize("run-0", nil)
	require.Zero(t, empty.Generations)
	require.Zero(t, empty.FinalBest)

	single := Summarize("run-1", sampleDiagnostics()[:1])
	require.Equal(t, 4.0, single.BestMean)
	require.Zero(t, single.BestStd)
}
