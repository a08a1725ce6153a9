package evo

import "math"

// Reproducer decides how many copies of each survivor fill the next
// generation's slots. Survivors arrive best first.
type Reproducer interface {
	Name() string
	Copies(survivors []ScoredNetwork, slots int) []int
}

// FixedQuotaReproduction copies every survivor slots/len(survivors) times.
// The remainder is dropped.
type FixedQuotaReproduction struct{}

func (FixedQuotaReproduction) Name() string {
	return "fixed_quota"
}

func (FixedQuotaReproduction) Copies(survivors []ScoredNetwork, slots int) []int {
	copies := make([]int, len(survivors))
	if len(survivors) == 0 || slots <= 0 {
		return copies
	}
	quota := slots / len(survivors)
	for i := range copies {
		copies[i] = quota
	}
	return copies
}

// ProportionalReproduction copies each survivor floor(slots*share) times,
// share being its part of the positive survivor score. Without any positive
// score it falls back to the fixed quota.
type ProportionalReproduction struct{}

func (ProportionalReproduction) Name() string {
	return "proportional"
}

func (ProportionalReproduction) Copies(survivors []ScoredNetwork, slots int) []int {
	total := 0.0
	for _, s := range survivors {
		if s.Score > 0 {
			total += s.Score
		}
	}
	if total <= 0 {
		return FixedQuotaReproduction{}.Copies(survivors, slots)
	}
	copies := make([]int, len(survivors))
	for i, s := range survivors {
		if s.Score <= 0 {
			continue
		}
		copies[i] = int(math.Floor(float64(slots) * s.Score / total))
	}
	return copies
}

func sumCopies(copies []int) int {
	total := 0
	for _, c := range copies {
		total += c
	}
	return total
}
