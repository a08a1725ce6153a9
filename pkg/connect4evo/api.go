package connect4evo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"connect4evo/internal/evo"
	"connect4evo/internal/model"
	"connect4evo/internal/nn"
	"connect4evo/internal/stats"
	"connect4evo/internal/storage"
)

const (
	defaultStoreKind     = "memory"
	defaultBenchmarksDir = "benchmarks"
	defaultExportsDir    = "exports"
	defaultDBPath        = "connect4evo.db"
)

var ErrNoRuns = errors.New("no runs available")

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
	ExportsDir    string
}

type Client struct {
	store storage.Store

	benchmarksDir string
	exportsDir    string
	now           func() time.Time
}

// RunRequest configures one training run. Zero values take the trainer
// defaults; MutationRate and MutationProb are pointers so an explicit 0
// (no mutation) differs from unset. AnnealAt 0 anneals at the midpoint and a
// negative value never anneals.
//
// ContinueRunID seeds the run with the final population stored for that
// run; ContinuePopulationID names a population snapshot directly.
type RunRequest struct {
	RunID                string
	ContinuePopulationID string
	ContinueRunID        string
	Rows                 int
	Cols                 int
	TurnCap              int
	Hidden               []int
	Population           int
	Survivors            int
	Generations          int
	Fresh                int
	InitScale            float64
	MutationRate         *float64
	MutationProb         *float64
	AnnealAt             int
	AnnealFactor         float64
	Scoring              string
	Reproduction         string
	Workers              int
	Seed                 uint64
	Plot                 bool

	OnGeneration func(model.GenerationDiagnostics)
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	PopulationID     string
	PlotPath         string
	Seed             uint64
	BestByGeneration []float64
	FinalBestScore   float64
	Survivors        []model.TopGenomeRecord
	Stats            stats.RunSummary
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID          string
	CreatedAtUTC   string
	Rows           int
	Cols           int
	Seed           uint64
	Population     int
	Generations    int
	Scoring        string
	Reproduction   string
	FinalBestScore float64
}

// RunRef names a run either by id or as the most recent one.
type RunRef struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
	Deep   bool
}

type ExportSummary struct {
	RunID     string
	Directory string
	DeepFiles []string
}

type PlotRequest struct {
	RunID  string
	Latest bool
	Path   string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = defaultStoreKind
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		benchmarksDir: benchmarksDir,
		exportsDir:    exportsDir,
		now:           time.Now,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Init prepares the backing store. Every other method calls it, so calling
// it directly is only needed to create an empty database.
func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) trainerConfig(req RunRequest) (evo.TrainerConfig, error) {
	cfg := evo.DefaultTrainerConfig()
	if req.Rows > 0 {
		cfg.Rows = req.Rows
	}
	if req.Cols > 0 {
		cfg.Cols = req.Cols
	}
	if req.TurnCap > 0 {
		cfg.TurnCap = req.TurnCap
	}
	if req.Hidden != nil {
		cfg.Hidden = append([]int(nil), req.Hidden...)
	}
	if req.Population > 0 {
		cfg.PopulationSize = req.Population
	}
	if req.Survivors > 0 {
		cfg.Survivors = req.Survivors
	}
	if req.Generations > 0 {
		cfg.Generations = req.Generations
	}
	cfg.FreshPerGeneration = req.Fresh
	if req.InitScale > 0 {
		cfg.InitScale = req.InitScale
	}
	if req.MutationRate != nil {
		cfg.Mutation.Rate = *req.MutationRate
	}
	if req.MutationProb != nil {
		cfg.Mutation.Probability = *req.MutationProb
	}
	switch {
	case req.AnnealAt > 0:
		cfg.Mutation.AnnealAt = req.AnnealAt
	case req.AnnealAt < 0:
		cfg.Mutation.AnnealAt = 0
	}
	if req.AnnealFactor > 0 {
		cfg.Mutation.AnnealFactor = req.AnnealFactor
	}
	if req.Scoring != "" {
		policy, err := evo.ResolveScoring(req.Scoring)
		if err != nil {
			return evo.TrainerConfig{}, err
		}
		cfg.Scoring = policy
	}
	if req.Reproduction != "" {
		reproducer, err := evo.ResolveReproduction(req.Reproduction)
		if err != nil {
			return evo.TrainerConfig{}, err
		}
		cfg.Reproduction = reproducer
	}
	if req.Workers > 0 {
		cfg.Workers = req.Workers
	}
	cfg.Seed = req.Seed
	if cfg.Seed == 0 {
		cfg.Seed = uint64(c.now().UnixNano())
	}
	cfg.OnGeneration = req.OnGeneration
	return cfg, nil
}

// Run trains a population and persists its history, survivors, lineage and
// final population to the store and the artifacts directory.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg, err := c.trainerConfig(req)
	if err != nil {
		return RunSummary{}, err
	}
	trainer, err := evo.NewTrainer(cfg)
	if err != nil {
		return RunSummary{}, err
	}
	cfg = trainer.Config()

	if err := c.store.Init(ctx); err != nil {
		return RunSummary{}, err
	}
	if req.ContinuePopulationID != "" && req.ContinueRunID != "" {
		return RunSummary{}, errors.New("use either a continue population id or a continue run id, not both")
	}
	var initial []*nn.Network
	switch {
	case req.ContinuePopulationID != "":
		initial, err = c.loadPopulation(ctx, req.ContinuePopulationID)
		if err != nil {
			return RunSummary{}, err
		}
	case req.ContinueRunID != "":
		snapshot, ok, err := c.store.GetRunPopulation(ctx, req.ContinueRunID)
		if err != nil {
			return RunSummary{}, err
		}
		if !ok {
			return RunSummary{}, fmt.Errorf("no stored population for run id: %s", req.ContinueRunID)
		}
		initial, err = c.loadPopulation(ctx, snapshot.ID)
		if err != nil {
			return RunSummary{}, err
		}
	}

	runID := req.RunID
	if runID == "" {
		runID = "run-" + uuid.NewString()
	}
	now := c.now().UTC()
	log.Info().
		Str("run_id", runID).
		Ints("sizes", cfg.Sizes()).
		Int("population", cfg.PopulationSize).
		Int("survivors", cfg.Survivors).
		Int("generations", cfg.Generations).
		Uint64("seed", cfg.Seed).
		Msg("run started")

	result, err := trainer.Run(ctx, initial)
	if err != nil {
		return RunSummary{}, fmt.Errorf("run %s: %w", runID, err)
	}

	top := make([]model.TopGenomeRecord, 0, len(result.Survivors))
	for i, survivor := range result.Survivors {
		genome := survivor.Network.Genome()
		top = append(top, model.TopGenomeRecord{
			VersionedRecord: model.Current(),
			Rank:            i + 1,
			Score:           survivor.Score,
			Genome:          genome,
		})
	}

	population := model.Population{
		VersionedRecord: model.Current(),
		ID:              "pop-" + uuid.NewString(),
		RunID:           runID,
		Generation:      cfg.Generations,
		GenomeIDs:       make([]string, 0, len(result.FinalPopulation)),
	}
	for _, net := range result.FinalPopulation {
		genome := net.Genome()
		genome.ID = StoredGenomeID(runID, net.ID)
		if err := c.store.SaveGenome(ctx, genome); err != nil {
			return RunSummary{}, err
		}
		population.GenomeIDs = append(population.GenomeIDs, genome.ID)
	}
	if err := c.store.SavePopulation(ctx, population); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, result.BestByGeneration); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, runID, result.GenerationDiagnostics); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveTopGenomes(ctx, runID, top); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveLineage(ctx, runID, result.Lineage); err != nil {
		return RunSummary{}, err
	}

	var finalBest float64
	if len(top) > 0 {
		finalBest = top[0].Score
	}
	runConfig := stats.RunConfig{
		RunID:              runID,
		Rows:               cfg.Rows,
		Cols:               cfg.Cols,
		TurnCap:            cfg.TurnCap,
		Hidden:             append([]int(nil), cfg.Hidden...),
		PopulationSize:     cfg.PopulationSize,
		Survivors:          cfg.Survivors,
		Generations:        cfg.Generations,
		FreshPerGeneration: cfg.FreshPerGeneration,
		InitScale:          cfg.InitScale,
		MutationRate:       cfg.Mutation.Rate,
		MutationProb:       cfg.Mutation.Probability,
		AnnealAt:           cfg.Mutation.AnnealAt,
		AnnealFactor:       cfg.Mutation.AnnealFactor,
		Scoring:            cfg.Scoring.Name(),
		Reproduction:       cfg.Reproduction.Name(),
		Workers:            cfg.Workers,
		Seed:               cfg.Seed,
	}
	runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, stats.RunArtifacts{
		Config:                runConfig,
		BestByGeneration:      result.BestByGeneration,
		GenerationDiagnostics: result.GenerationDiagnostics,
		FinalBestScore:        finalBest,
		TopGenomes:            top,
		Lineage:               result.Lineage,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.benchmarksDir, stats.RunIndexEntry{
		RunID:          runID,
		Rows:           cfg.Rows,
		Cols:           cfg.Cols,
		PopulationSize: cfg.PopulationSize,
		Generations:    cfg.Generations,
		Seed:           cfg.Seed,
		Workers:        cfg.Workers,
		Scoring:        runConfig.Scoring,
		Reproduction:   runConfig.Reproduction,
		FinalBestScore: finalBest,
		CreatedAtUTC:   now.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		PopulationID:     population.ID,
		Seed:             cfg.Seed,
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
		FinalBestScore:   finalBest,
		Survivors:        top,
		Stats:            stats.Summarize(runID, result.GenerationDiagnostics),
	}
	if req.Plot {
		summary.PlotPath = filepath.Join(runDir, stats.PlotFile)
		if err := stats.WriteFitnessPlot(summary.PlotPath, runID, result.GenerationDiagnostics); err != nil {
			return RunSummary{}, err
		}
	}

	log.Info().
		Str("run_id", runID).
		Float64("final_best", finalBest).
		Float64("improvement", summary.Stats.Improvement).
		Str("artifacts", summary.ArtifactsDir).
		Msg("run finished")
	return summary, nil
}

// StoredGenomeID is the store key of a genome produced by a run. Trainer ids
// restart at g0-0 every run.
func StoredGenomeID(runID, genomeID string) string {
	return runID + "/" + genomeID
}

func (c *Client) loadPopulation(ctx context.Context, id string) ([]*nn.Network, error) {
	population, ok, err := c.store.GetPopulation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("population not found: %s", id)
	}
	networks := make([]*nn.Network, 0, len(population.GenomeIDs))
	for _, genomeID := range population.GenomeIDs {
		genome, ok, err := c.store.GetGenome(ctx, genomeID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("population %s references missing genome %s", id, genomeID)
		}
		net, err := nn.FromGenome(genome)
		if err != nil {
			return nil, fmt.Errorf("population %s: %w", id, err)
		}
		networks = append(networks, net)
	}
	return networks, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:          e.RunID,
			CreatedAtUTC:   e.CreatedAtUTC,
			Rows:           e.Rows,
			Cols:           e.Cols,
			Seed:           e.Seed,
			Population:     e.PopulationSize,
			Generations:    e.Generations,
			Scoring:        e.Scoring,
			Reproduction:   e.Reproduction,
			FinalBestScore: e.FinalBestScore,
		})
	}
	return out, nil
}

func (c *Client) resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if latest {
		entries, err := stats.ListRunIndex(c.benchmarksDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", ErrNoRuns
		}
		return entries[0].RunID, nil
	}
	if runID == "" {
		return "", errors.New("run id or latest is required")
	}
	return runID, nil
}

// TopGenomes returns a run's ranked survivors. Runs recorded by another
// process with a memory store are read back from the artifacts directory.
func (c *Client) TopGenomes(ctx context.Context, ref RunRef) ([]model.TopGenomeRecord, error) {
	if ref.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ref.RunID, ref.Latest)
	if err != nil {
		return nil, err
	}
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	top, ok, err := c.store.GetTopGenomes(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		top, ok, err = stats.ReadTopGenomes(c.benchmarksDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("top genomes not found for run id: %s", runID)
	}
	if ref.Limit > 0 && len(top) > ref.Limit {
		top = top[:ref.Limit]
	}
	return top, nil
}

func (c *Client) FitnessHistory(ctx context.Context, ref RunRef) ([]float64, error) {
	if ref.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ref.RunID, ref.Latest)
	if err != nil {
		return nil, err
	}
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		history, ok, err = stats.ReadScoreSeries(c.benchmarksDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if ref.Limit > 0 && len(history) > ref.Limit {
		history = history[:ref.Limit]
	}
	return history, nil
}

func (c *Client) Diagnostics(ctx context.Context, ref RunRef) ([]model.GenerationDiagnostics, error) {
	if ref.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ref.RunID, ref.Latest)
	if err != nil {
		return nil, err
	}
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		diagnostics, ok, err = stats.ReadGenerationDiagnostics(c.benchmarksDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("generation diagnostics not found for run id: %s", runID)
	}
	if ref.Limit > 0 && len(diagnostics) > ref.Limit {
		diagnostics = diagnostics[:ref.Limit]
	}
	return diagnostics, nil
}

func (c *Client) Lineage(ctx context.Context, ref RunRef) ([]model.LineageRecord, error) {
	runID, err := c.resolveRunID(ref.RunID, ref.Latest)
	if err != nil {
		return nil, err
	}
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}
	lineage, ok, err := c.store.GetLineage(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("lineage not found for run id: %s", runID)
	}
	if ref.Limit > 0 && len(lineage) > ref.Limit {
		lineage = lineage[:ref.Limit]
	}
	return lineage, nil
}

// Export copies a run's artifacts. With Deep set, every top genome is also
// written as a go-deep weight dump under deep/.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.benchmarksDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	summary := ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}
	if !req.Deep {
		return summary, nil
	}

	top, err := c.TopGenomes(ctx, RunRef{RunID: runID})
	if err != nil {
		return ExportSummary{}, err
	}
	deepDir := filepath.Join(exportedDir, "deep")
	if err := os.MkdirAll(deepDir, 0o755); err != nil {
		return ExportSummary{}, err
	}
	for _, record := range top {
		net, err := nn.FromGenome(record.Genome)
		if err != nil {
			return ExportSummary{}, err
		}
		data, err := net.MarshalDeep()
		if err != nil {
			log.Warn().Err(err).Str("genome_id", net.ID).Msg("skipping go-deep export")
			continue
		}
		path := filepath.Join(deepDir, fmt.Sprintf("%02d-%s.json", record.Rank, net.ID))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return ExportSummary{}, err
		}
		summary.DeepFiles = append(summary.DeepFiles, path)
	}
	return summary, nil
}

// Plot renders the run's score curve. An empty Path writes fitness.png into
// the run's artifacts directory.
func (c *Client) Plot(ctx context.Context, req PlotRequest) (string, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return "", err
	}
	diagnostics, err := c.Diagnostics(ctx, RunRef{RunID: runID})
	if err != nil {
		return "", err
	}
	path := req.Path
	if path == "" {
		path = filepath.Join(c.benchmarksDir, runID, stats.PlotFile)
	}
	if err := stats.WriteFitnessPlot(path, runID, diagnostics); err != nil {
		return "", err
	}
	return path, nil
}

// LoadGenome reads a genome JSON file, as written into top_genomes.json
// entries or by a genome export, and rebuilds its network.
func LoadGenome(path string) (*nn.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	genome, err := storage.DecodeGenome(data)
	if err != nil {
		return nil, fmt.Errorf("load genome %s: %w", path, err)
	}
	return nn.FromGenome(genome)
}

// SaveGenome writes a network as genome JSON that LoadGenome accepts.
func SaveGenome(path string, net *nn.Network) error {
	data, err := storage.EncodeGenome(net.Genome())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
