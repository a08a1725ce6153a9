package evo

import "connect4evo/internal/game"

// ScoringPolicy converts one game outcome into score deltas for the two
// players. Draws and aborted games score zero under every policy.
type ScoringPolicy interface {
	Name() string
	Score(outcome game.Outcome) (a, b float64)
}

// WinsScoring gives +1 to the winner.
type WinsScoring struct{}

func (WinsScoring) Name() string {
	return "wins"
}

func (WinsScoring) Score(outcome game.Outcome) (float64, float64) {
	switch outcome {
	case game.WinnerA:
		return 1, 0
	case game.WinnerB:
		return 0, 1
	default:
		return 0, 0
	}
}

// SignedScoring gives +1 to the winner and -1 to the loser.
type SignedScoring struct{}

func (SignedScoring) Name() string {
	return "signed"
}

func (SignedScoring) Score(outcome game.Outcome) (float64, float64) {
	switch outcome {
	case game.WinnerA:
		return 1, -1
	case game.WinnerB:
		return -1, 1
	default:
		return 0, 0
	}
}
