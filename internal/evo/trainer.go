package evo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"connect4evo/internal/board"
	"connect4evo/internal/model"
	"connect4evo/internal/nn"
)

const (
	OperationSeed  = "seed"
	OperationClone = "clone"
	OperationFresh = "fresh"
)

type RunResult struct {
	BestByGeneration      []float64
	GenerationDiagnostics []model.GenerationDiagnostics

	// Survivors of the last generation, best first.
	Survivors       []ScoredNetwork
	FinalPopulation []*nn.Network
	Lineage         []model.LineageRecord
}

// TrainerConfig parameterises a Trainer. Zero Rows, Cols and TurnCap take
// the game defaults (6x7, 41 turns), matching game.Options.
type TrainerConfig struct {
	Rows    int
	Cols    int
	TurnCap int

	// Hidden lists the hidden layer widths between the board input and the
	// column output.
	Hidden []int

	PopulationSize     int
	Survivors          int
	Generations        int
	FreshPerGeneration int
	InitScale          float64
	Mutation           MutationSchedule
	Scoring            ScoringPolicy
	Reproduction       Reproducer
	Workers            int
	Seed               uint64

	// OnGeneration observes each generation's diagnostics as soon as they
	// are known.
	OnGeneration func(model.GenerationDiagnostics)
}

// DefaultTrainerConfig mirrors the reference trainer: 50 genomes, 10
// survivors, 10 generations, rate 2 halved at the midpoint.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		Rows:           board.DefaultRows,
		Cols:           board.DefaultCols,
		TurnCap:        board.DefaultTurnCap,
		Hidden:         []int{32, 22},
		PopulationSize: 50,
		Survivors:      10,
		Generations:    10,
		InitScale:      1,
		Mutation: MutationSchedule{
			Rate:         2,
			Probability:  1,
			AnnealAt:     -1,
			AnnealFactor: 0.5,
		},
		Scoring:      WinsScoring{},
		Reproduction: FixedQuotaReproduction{},
		Workers:      1,
	}
}

// Sizes returns the layer boundary widths of the trained networks.
func (c TrainerConfig) Sizes() []int {
	sizes := make([]int, 0, len(c.Hidden)+2)
	sizes = append(sizes, c.Rows*c.Cols)
	sizes = append(sizes, c.Hidden...)
	return append(sizes, c.Cols)
}

type Trainer struct {
	cfg TrainerConfig
	rng *rand.Rand
}

// NewTrainer validates cfg. Configurations that could run out of genomes
// to select from fail here, before any game is played.
func NewTrainer(cfg TrainerConfig) (*Trainer, error) {
	if cfg.Rows == 0 {
		cfg.Rows = board.DefaultRows
	}
	if cfg.Cols == 0 {
		cfg.Cols = board.DefaultCols
	}
	if cfg.TurnCap == 0 {
		cfg.TurnCap = board.DefaultTurnCap
	}
	if cfg.Rows < 0 || cfg.Cols < 0 || cfg.TurnCap < 0 {
		return nil, fmt.Errorf("board %dx%d with turn cap %d is invalid", cfg.Rows, cfg.Cols, cfg.TurnCap)
	}
	for _, h := range cfg.Hidden {
		if h <= 0 {
			return nil, fmt.Errorf("%w: hidden layer widths must be > 0, got %v", nn.ErrTopology, cfg.Hidden)
		}
	}
	if cfg.PopulationSize < 2 {
		return nil, fmt.Errorf("population size must be >= 2")
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generations must be > 0")
	}
	if cfg.Survivors <= 0 {
		return nil, fmt.Errorf("survivors must be > 0")
	}
	if cfg.FreshPerGeneration < 0 || cfg.FreshPerGeneration >= cfg.PopulationSize {
		return nil, fmt.Errorf("fresh genomes per generation must be in [0, population size)")
	}
	if cfg.Mutation.Rate < 0 {
		return nil, fmt.Errorf("mutation rate must be >= 0")
	}
	if cfg.Mutation.Probability < 0 || cfg.Mutation.Probability > 1 {
		return nil, fmt.Errorf("mutation probability must be in [0, 1]")
	}
	if cfg.Mutation.AnnealFactor < 0 {
		return nil, fmt.Errorf("anneal factor must be >= 0")
	}
	if cfg.Mutation.AnnealAt < 0 {
		cfg.Mutation.AnnealAt = cfg.Generations / 2
	}
	if cfg.InitScale < 0 {
		return nil, fmt.Errorf("init scale must be >= 0")
	}
	if cfg.Scoring == nil {
		cfg.Scoring = WinsScoring{}
	}
	if cfg.Reproduction == nil {
		cfg.Reproduction = FixedQuotaReproduction{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	if cfg.Survivors > cfg.PopulationSize {
		return nil, fmt.Errorf("%w: survivors=%d population=%d", ErrSelectionUnderflow, cfg.Survivors, cfg.PopulationSize)
	}
	slots := cfg.PopulationSize - cfg.FreshPerGeneration
	if cfg.Survivors > slots {
		return nil, fmt.Errorf("%w: survivors=%d exceed reproduction slots=%d", ErrSelectionUnderflow, cfg.Survivors, slots)
	}
	if _, ok := cfg.Reproduction.(FixedQuotaReproduction); ok {
		if slots%cfg.Survivors != 0 {
			return nil, fmt.Errorf("fixed quota needs survivors to divide reproduction slots: survivors=%d slots=%d", cfg.Survivors, slots)
		}
	} else if floor := slots - (cfg.Survivors - 1) + cfg.FreshPerGeneration; floor < cfg.Survivors {
		return nil, fmt.Errorf("%w: %s reproduction may leave %d genomes for %d survivors", ErrSelectionUnderflow, cfg.Reproduction.Name(), floor, cfg.Survivors)
	}

	return &Trainer{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (t *Trainer) Config() TrainerConfig {
	return t.cfg
}

func genomeID(generation, idx int) string {
	return fmt.Sprintf("g%d-%d", generation, idx)
}

// RandomPopulation draws PopulationSize fresh networks from the trainer's RNG.
func (t *Trainer) RandomPopulation() ([]*nn.Network, error) {
	population := make([]*nn.Network, t.cfg.PopulationSize)
	for i := range population {
		net, err := nn.NewRandom(genomeID(0, i), t.cfg.Sizes(), t.cfg.InitScale, t.rng)
		if err != nil {
			return nil, err
		}
		population[i] = net
	}
	return population, nil
}

// Run evolves the population for the configured number of generations. A nil
// initial population is drawn at random; a supplied one is cloned so the
// caller's networks are never mutated. A supplied population may hold
// between Survivors and PopulationSize genomes, as proportional reproduction
// leaves behind; the first reproduction refills it.
func (t *Trainer) Run(ctx context.Context, initial []*nn.Network) (RunResult, error) {
	var population []*nn.Network
	if len(initial) == 0 {
		var err error
		population, err = t.RandomPopulation()
		if err != nil {
			return RunResult{}, err
		}
	} else {
		if len(initial) < t.cfg.Survivors || len(initial) > t.cfg.PopulationSize {
			return RunResult{}, fmt.Errorf("initial population mismatch: got=%d want %d..%d", len(initial), t.cfg.Survivors, t.cfg.PopulationSize)
		}
		population = make([]*nn.Network, len(initial))
		for i, net := range initial {
			if err := net.CheckShape(t.cfg.Rows*t.cfg.Cols, t.cfg.Cols); err != nil {
				return RunResult{}, fmt.Errorf("initial population[%d]: %w", i, err)
			}
			population[i] = net.Clone(net.ID)
		}
	}

	bestHistory := make([]float64, 0, t.cfg.Generations)
	diagnostics := make([]model.GenerationDiagnostics, 0, t.cfg.Generations)
	lineage := make([]model.LineageRecord, 0, len(population)*t.cfg.Generations)
	for _, net := range population {
		lineage = append(lineage, model.LineageRecord{
			VersionedRecord: model.Current(),
			GenomeID:        net.ID,
			Generation:      0,
			Operation:       OperationSeed,
		})
	}

	tcfg := TournamentConfig{
		Rows:    t.cfg.Rows,
		Cols:    t.cfg.Cols,
		TurnCap: t.cfg.TurnCap,
		Scoring: t.cfg.Scoring,
		Workers: t.cfg.Workers,
	}

	var survivors []ScoredNetwork
	for gen := 0; gen < t.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}

		rate := t.cfg.Mutation.RateAt(gen)
		mutated := mutatePopulation(population, rate, t.cfg.Mutation.Probability, t.rng)

		tournament, err := PlayTournament(ctx, population, tcfg)
		if err != nil {
			return RunResult{}, fmt.Errorf("generation %d tournament: %w", gen+1, err)
		}
		survivors, err = rankSurvivors(population, tournament.Scores, t.cfg.Survivors)
		if err != nil {
			return RunResult{}, fmt.Errorf("generation %d selection: %w", gen+1, err)
		}

		diag := summarizeGeneration(gen+1, tournament, len(survivors), mutated, rate)
		bestHistory = append(bestHistory, diag.BestScore)
		diagnostics = append(diagnostics, diag)
		log.Info().
			Int("generation", diag.Generation).
			Float64("best", diag.BestScore).
			Float64("mean", diag.MeanScore).
			Int("games", diag.Games).
			Int("draws", diag.Draws).
			Int("aborted", diag.Aborted).
			Float64("mutation_rate", rate).
			Msgf("generation %d of %d complete", diag.Generation, t.cfg.Generations)
		if t.cfg.OnGeneration != nil {
			t.cfg.OnGeneration(diag)
		}

		if gen == t.cfg.Generations-1 {
			break
		}
		var generationLineage []model.LineageRecord
		population, generationLineage, err = t.nextGeneration(gen+1, survivors)
		if err != nil {
			return RunResult{}, err
		}
		lineage = append(lineage, generationLineage...)
	}

	return RunResult{
		BestByGeneration:      bestHistory,
		GenerationDiagnostics: diagnostics,
		Survivors:             survivors,
		FinalPopulation:       population,
		Lineage:               lineage,
	}, nil
}

// nextGeneration deep-copies survivors according to the reproduction policy
// and appends fresh random genomes.
func (t *Trainer) nextGeneration(generation int, survivors []ScoredNetwork) ([]*nn.Network, []model.LineageRecord, error) {
	slots := t.cfg.PopulationSize - t.cfg.FreshPerGeneration
	copies := t.cfg.Reproduction.Copies(survivors, slots)
	if len(copies) != len(survivors) {
		return nil, nil, fmt.Errorf("%s reproduction returned %d counts for %d survivors", t.cfg.Reproduction.Name(), len(copies), len(survivors))
	}

	size := sumCopies(copies) + t.cfg.FreshPerGeneration
	if size < t.cfg.Survivors {
		return nil, nil, fmt.Errorf("%w: generation %d has %d genomes for %d survivors", ErrSelectionUnderflow, generation+1, size, t.cfg.Survivors)
	}
	population := make([]*nn.Network, 0, size)
	lineage := make([]model.LineageRecord, 0, size)
	for i, survivor := range survivors {
		for c := 0; c < copies[i]; c++ {
			child := survivor.Network.Clone(genomeID(generation, len(population)))
			population = append(population, child)
			lineage = append(lineage, model.LineageRecord{
				VersionedRecord: model.Current(),
				GenomeID:        child.ID,
				ParentID:        survivor.Network.ID,
				Generation:      generation,
				Operation:       OperationClone,
			})
		}
	}
	for i := 0; i < t.cfg.FreshPerGeneration; i++ {
		fresh, err := nn.NewRandom(genomeID(generation, len(population)), t.cfg.Sizes(), t.cfg.InitScale, t.rng)
		if err != nil {
			return nil, nil, err
		}
		population = append(population, fresh)
		lineage = append(lineage, model.LineageRecord{
			VersionedRecord: model.Current(),
			GenomeID:        fresh.ID,
			Generation:      generation,
			Operation:       OperationFresh,
		})
	}
	return population, lineage, nil
}

func summarizeGeneration(generation int, tournament TournamentResult, survivors, mutated int, rate float64) model.GenerationDiagnostics {
	diag := model.GenerationDiagnostics{
		Generation:   generation,
		Population:   len(tournament.Scores),
		Survivors:    survivors,
		Mutated:      mutated,
		MutationRate: rate,
		Games:        tournament.Stats.Games,
		WinsA:        tournament.Stats.WinsA,
		WinsB:        tournament.Stats.WinsB,
		Draws:        tournament.Stats.Draws,
		Aborted:      tournament.Stats.Aborted,
		MeanTurns:    tournament.Stats.MeanTurns(),
	}
	if len(tournament.Scores) == 0 {
		return diag
	}
	diag.BestScore = tournament.Scores[0]
	diag.MinScore = tournament.Scores[0]
	for _, s := range tournament.Scores {
		if s > diag.BestScore {
			diag.BestScore = s
		}
		if s < diag.MinScore {
			diag.MinScore = s
		}
	}
	diag.MeanScore, _ = nn.Avg(tournament.Scores)
	return diag
}
