package evo

import (
	"context"
	"fmt"
	"sync"

	"connect4evo/internal/agent"
	"connect4evo/internal/game"
	"connect4evo/internal/nn"
)

type TournamentConfig struct {
	Rows    int
	Cols    int
	TurnCap int
	Scoring ScoringPolicy
	Workers int
}

type TournamentStats struct {
	Games      int
	WinsA      int
	WinsB      int
	Draws      int
	Aborted    int
	TotalTurns int
}

func (s TournamentStats) MeanTurns() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.TotalTurns) / float64(s.Games)
}

type TournamentResult struct {
	Scores []float64
	Stats  TournamentStats
}

// Pairings lists every unordered pair (i, j) with i < j. i plays first.
func Pairings(n int) [][2]int {
	if n < 2 {
		return nil
	}
	pairs := make([][2]int, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, [2]int{i, j})
		}
	}
	return pairs
}

// PlayTournament plays one game per pairing on a worker pool. Each game owns
// its board; outcomes are collected per pair and reduced afterwards.
func PlayTournament(ctx context.Context, population []*nn.Network, cfg TournamentConfig) (TournamentResult, error) {
	if cfg.Scoring == nil {
		cfg.Scoring = WinsScoring{}
	}
	agents := make([]*agent.Neural, len(population))
	for i, net := range population {
		a, err := agent.NewNeural(net, cfg.Rows, cfg.Cols)
		if err != nil {
			return TournamentResult{}, fmt.Errorf("population[%d]: %w", i, err)
		}
		agents[i] = a
	}

	pairs := Pairings(len(population))
	type job struct {
		idx int
	}
	type result struct {
		idx     int
		outcome game.Outcome
		turns   int
		err     error
	}

	jobs := make(chan job)
	results := make(chan result, len(pairs))

	workerCount := cfg.Workers
	if workerCount <= 0 {
		workerCount = 1
	}
	if workerCount > len(pairs) {
		workerCount = len(pairs)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				pair := pairs[j.idx]
				g, err := game.New(agents[pair[0]], agents[pair[1]], game.Options{
					Rows:     cfg.Rows,
					Cols:     cfg.Cols,
					TurnCap:  cfg.TurnCap,
					Headless: true,
				})
				if err != nil {
					results <- result{idx: j.idx, err: err}
					continue
				}
				res := g.Run(ctx)
				if res.Outcome == game.Aborted && ctx.Err() != nil {
					results <- result{idx: j.idx, err: ctx.Err()}
					continue
				}
				results <- result{idx: j.idx, outcome: res.Outcome, turns: res.Turns}
			}
		}()
	}

	for i := range pairs {
		jobs <- job{idx: i}
	}
	close(jobs)

	wg.Wait()
	close(results)

	outcomes := make([]result, len(pairs))
	for res := range results {
		if res.err != nil {
			return TournamentResult{}, res.err
		}
		outcomes[res.idx] = res
	}

	scores := make([]float64, len(population))
	var stats TournamentStats
	for i, res := range outcomes {
		pair := pairs[i]
		a, b := cfg.Scoring.Score(res.outcome)
		scores[pair[0]] += a
		scores[pair[1]] += b

		stats.Games++
		stats.TotalTurns += res.turns
		switch res.outcome {
		case game.WinnerA:
			stats.WinsA++
		case game.WinnerB:
			stats.WinsB++
		case game.Draw:
			stats.Draws++
		case game.Aborted:
			stats.Aborted++
		}
	}
	return TournamentResult{Scores: scores, Stats: stats}, nil
}
