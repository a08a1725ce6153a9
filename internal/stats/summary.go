package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"connect4evo/internal/model"
)

// RunSummary condenses the per-generation best scores of one run.
type RunSummary struct {
	RunID       string  `json:"run_id"`
	Generations int     `json:"generations"`
	InitialBest float64 `json:"initial_best"`
	FinalBest   float64 `json:"final_best"`
	BestMean    float64 `json:"best_mean"`
	BestStd     float64 `json:"best_std"`
	BestMax     float64 `json:"best_max"`
	BestMin     float64 `json:"best_min"`
	Improvement float64 `json:"improvement"`
	Games       int     `json:"games"`
	DrawRate    float64 `json:"draw_rate"`
	AbortRate   float64 `json:"abort_rate"`
	MeanTurns   float64 `json:"mean_turns"`
}

func Summarize(runID string, diagnostics []model.GenerationDiagnostics) RunSummary {
	summary := RunSummary{RunID: runID, Generations: len(diagnostics)}
	if len(diagnostics) == 0 {
		return summary
	}

	best := make([]float64, len(diagnostics))
	var draws, aborted int
	var turns float64
	for i, d := range diagnostics {
		best[i] = d.BestScore
		summary.Games += d.Games
		draws += d.Draws
		aborted += d.Aborted
		turns += d.MeanTurns * float64(d.Games)
	}

	summary.InitialBest = best[0]
	summary.FinalBest = best[len(best)-1]
	summary.BestMax = floats.Max(best)
	summary.BestMin = floats.Min(best)
	summary.Improvement = summary.FinalBest - summary.InitialBest
	if len(best) > 1 {
		summary.BestMean, summary.BestStd = stat.MeanStdDev(best, nil)
	} else {
		summary.BestMean = best[0]
	}
	if summary.Games > 0 {
		games := float64(summary.Games)
		summary.DrawRate = float64(draws) / games
		summary.AbortRate = float64(aborted) / games
		summary.MeanTurns = turns / games
	}
	if math.IsNaN(summary.BestStd) {
		summary.BestStd = 0
	}
	return summary
}
