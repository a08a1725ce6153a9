package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"connect4evo/internal/game"
	"connect4evo/internal/model"
	c4 "connect4evo/pkg/connect4evo"
)

const (
	benchmarksDir = "benchmarks"
	exportsDir    = "exports"
	defaultStore  = "sqlite"
	defaultDBPath = "connect4evo.db"
)

var (
	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	global := flag.NewFlagSet("connect4ctl", flag.ContinueOnError)
	logLevel := global.String("log-level", "info", "log level: trace|debug|info|warn|error|disabled")
	logJSON := global.Bool("log-json", false, "emit raw JSON logs instead of console output")
	if err := global.Parse(args); err != nil {
		return err
	}
	if err := setupLogging(*logLevel, *logJSON); err != nil {
		return err
	}

	args = global.Args()
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "top":
		return runTop(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "lineage":
		return runLineage(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "plot":
		return runPlot(ctx, args[1:])
	case "play":
		return runPlay(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func setupLogging(level string, jsonOut bool) error {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	zerolog.SetGlobalLevel(parsed)
	if !jsonOut {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return nil
}

type storeFlags struct {
	kind   *string
	dbPath *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:   fs.String("store", defaultStore, "store backend: memory|sqlite"),
		dbPath: fs.String("db-path", defaultDBPath, "sqlite database path"),
	}
}

func (s storeFlags) client() (*c4.Client, error) {
	return c4.New(c4.Options{
		StoreKind:     *s.kind,
		DBPath:        *s.dbPath,
		BenchmarksDir: benchmarksDir,
		ExportsDir:    exportsDir,
	})
}

type runRefFlags struct {
	runID  *string
	latest *bool
}

func addRunRefFlags(fs *flag.FlagSet) runRefFlags {
	return runRefFlags{
		runID:  fs.String("run-id", "", "run id"),
		latest: fs.Bool("latest", false, "use the most recent run from the run index"),
	}
}

func (r runRefFlags) validate(command string) error {
	if *r.runID != "" && *r.latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *r.runID == "" && !*r.latest {
		return fmt.Errorf("%s requires --run-id or --latest", command)
	}
	return nil
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "initialized store=%s\n", *store.kind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config file (YAML or JSON)")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	continuePopID := fs.String("continue-pop-id", "", "continue from a persisted population snapshot id")
	continueRunID := fs.String("continue-run-id", "", "continue from the final population of a persisted run")
	rows := fs.Int("rows", 6, "board rows")
	cols := fs.Int("cols", 7, "board columns")
	turnCap := fs.Int("turn-cap", 41, "turns before a game is declared a draw")
	hidden := fs.String("hidden", "32,22", "comma separated hidden layer widths")
	population := fs.Int("pop", 50, "population size")
	survivors := fs.Int("survivors", 10, "genomes kept after each tournament")
	generations := fs.Int("gens", 10, "generation count")
	fresh := fs.Int("fresh", 0, "fresh random genomes injected per generation")
	initScale := fs.Float64("init-scale", 1, "initial weight magnitude")
	mutationRate := fs.Float64("mutation-rate", 2, "maximum weight perturbation")
	mutationProb := fs.Float64("mutation-prob", 1, "probability that a genome is mutated each generation")
	annealAt := fs.Int("anneal-at", 0, "generation at which the mutation rate is annealed (0 midpoint, <0 never)")
	annealFactor := fs.Float64("anneal-factor", 0.5, "mutation rate multiplier after annealing")
	scoring := fs.String("scoring", "wins", "scoring policy: wins|signed")
	reproduction := fs.String("reproduction", "fixed_quota", "reproduction policy: fixed_quota|proportional")
	workers := fs.Int("workers", 4, "tournament worker count")
	seed := fs.Uint64("seed", 0, "rng seed (0 derives one from the clock)")
	plot := fs.Bool("plot", false, "render fitness.png into the run directory")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	setFlags := make(map[string]bool)
	if *configPath == "" {
		fs.VisitAll(func(f *flag.Flag) {
			setFlags[f.Name] = true
		})
	} else {
		fs.Visit(func(f *flag.Flag) {
			setFlags[f.Name] = true
		})
	}
	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}
	if err := overrideFromFlags(&req, setFlags, map[string]any{
		"run-id":          *runID,
		"continue-pop-id": *continuePopID,
		"continue-run-id": *continueRunID,
		"rows":            *rows,
		"cols":            *cols,
		"turn-cap":        *turnCap,
		"hidden":          *hidden,
		"pop":             *population,
		"survivors":       *survivors,
		"gens":            *generations,
		"fresh":           *fresh,
		"init-scale":      *initScale,
		"mutation-rate":   *mutationRate,
		"mutation-prob":   *mutationProb,
		"anneal-at":       *annealAt,
		"anneal-factor":   *annealFactor,
		"scoring":         *scoring,
		"reproduction":    *reproduction,
		"workers":         *workers,
		"seed":            *seed,
		"plot":            *plot,
	}); err != nil {
		return err
	}
	req.OnGeneration = func(d model.GenerationDiagnostics) {
		fmt.Fprintf(stdout, "generation=%d best=%.1f mean=%.2f min=%.1f games=%s draws=%d aborted=%d mean_turns=%.1f\n",
			d.Generation, d.BestScore, d.MeanScore, d.MinScore, humanize.Comma(int64(d.Games)), d.Draws, d.Aborted, d.MeanTurns)
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "run_id=%s seed=%d population_id=%s artifacts=%s\n", summary.RunID, summary.Seed, summary.PopulationID, summary.ArtifactsDir)
	fmt.Fprintf(stdout, "final_best=%.1f improvement=%+.1f draw_rate=%.3f abort_rate=%.3f games=%s\n",
		summary.FinalBestScore, summary.Stats.Improvement, summary.Stats.DrawRate, summary.Stats.AbortRate, humanize.Comma(int64(summary.Stats.Games)))
	for _, survivor := range summary.Survivors {
		fmt.Fprintf(stdout, "rank=%d score=%.1f genome_id=%s\n", survivor.Rank, survivor.Score, survivor.Genome.ID)
	}
	if summary.PlotPath != "" {
		fmt.Fprintf(stdout, "plot=%s\n", summary.PlotPath)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := c4.New(c4.Options{StoreKind: "memory", BenchmarksDir: benchmarksDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	runs, err := client.Runs(ctx, c4.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "no runs found")
		return nil
	}
	if *jsonOut {
		return encodeJSON(runs)
	}

	for _, r := range runs {
		age := r.CreatedAtUTC
		if created, err := time.Parse(time.RFC3339Nano, r.CreatedAtUTC); err == nil {
			age = humanize.Time(created)
		}
		fmt.Fprintf(stdout, "run_id=%s created=%s board=%dx%d seed=%d pop=%d gens=%d scoring=%s reproduction=%s final_best=%.1f\n",
			r.RunID, age, r.Rows, r.Cols, r.Seed, r.Population, r.Generations, r.Scoring, r.Reproduction, r.FinalBestScore)
	}
	return nil
}

func runTop(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	ref := addRunRefFlags(fs)
	limit := fs.Int("limit", 5, "max top genomes to print (0 for all)")
	jsonOut := fs.Bool("json", false, "emit top genomes as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := ref.validate("top"); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	top, err := client.TopGenomes(ctx, c4.RunRef{RunID: *ref.runID, Latest: *ref.latest, Limit: *limit})
	if err != nil {
		return err
	}
	if len(top) == 0 {
		fmt.Fprintln(stdout, "no top genomes")
		return nil
	}
	if *jsonOut {
		return encodeJSON(top)
	}

	for _, item := range top {
		layers := make([]string, 0, len(item.Genome.Layers)+1)
		params := 0
		for i, layer := range item.Genome.Layers {
			if i == 0 {
				layers = append(layers, fmt.Sprint(layer.In))
			}
			layers = append(layers, fmt.Sprint(layer.Out))
			params += len(layer.Weights) + len(layer.Bias)
		}
		fmt.Fprintf(stdout, "rank=%d score=%.1f genome_id=%s layers=%s params=%s\n",
			item.Rank, item.Score, item.Genome.ID, strings.Join(layers, "-"), humanize.Comma(int64(params)))
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	ref := addRunRefFlags(fs)
	limit := fs.Int("limit", 0, "max generations to print (0 for all)")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := ref.validate("fitness"); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, c4.RunRef{RunID: *ref.runID, Latest: *ref.latest, Limit: *limit})
	if err != nil {
		return err
	}
	for i, best := range history {
		fmt.Fprintf(stdout, "generation=%d best=%.1f\n", i+1, best)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	ref := addRunRefFlags(fs)
	limit := fs.Int("limit", 0, "max generations to print (0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := ref.validate("diagnostics"); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, c4.RunRef{RunID: *ref.runID, Latest: *ref.latest, Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return encodeJSON(diagnostics)
	}
	for _, d := range diagnostics {
		fmt.Fprintf(stdout, "generation=%d best=%.1f mean=%.2f min=%.1f population=%d survivors=%d mutated=%d rate=%.3f games=%s wins_a=%d wins_b=%d draws=%d aborted=%d mean_turns=%.1f\n",
			d.Generation, d.BestScore, d.MeanScore, d.MinScore, d.Population, d.Survivors, d.Mutated, d.MutationRate,
			humanize.Comma(int64(d.Games)), d.WinsA, d.WinsB, d.Draws, d.Aborted, d.MeanTurns)
	}
	return nil
}

func runLineage(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lineage", flag.ContinueOnError)
	ref := addRunRefFlags(fs)
	limit := fs.Int("limit", 50, "max lineage records to print (0 for all)")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := ref.validate("lineage"); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	lineage, err := client.Lineage(ctx, c4.RunRef{RunID: *ref.runID, Latest: *ref.latest, Limit: *limit})
	if err != nil {
		return err
	}
	for _, record := range lineage {
		parent := record.ParentID
		if parent == "" {
			parent = "-"
		}
		fmt.Fprintf(stdout, "generation=%d genome_id=%s parent_id=%s operation=%s\n", record.Generation, record.GenomeID, parent, record.Operation)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	ref := addRunRefFlags(fs)
	outDir := fs.String("out", exportsDir, "export output directory")
	deep := fs.Bool("deep", false, "also write go-deep weight dumps of the top genomes")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := ref.validate("export"); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, c4.ExportRequest{RunID: *ref.runID, Latest: *ref.latest, OutDir: *outDir, Deep: *deep})
	if err != nil {
		return err
	}
	size, err := dirSize(exported.Directory)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported run_id=%s to=%s size=%s\n", exported.RunID, exported.Directory, humanize.Bytes(size))
	for _, path := range exported.DeepFiles {
		fmt.Fprintf(stdout, "deep=%s\n", path)
	}
	return nil
}

func runPlot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	ref := addRunRefFlags(fs)
	out := fs.String("out", "", "png path (defaults to the run directory)")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := ref.validate("plot"); err != nil {
		return err
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	path, err := client.Plot(ctx, c4.PlotRequest{RunID: *ref.runID, Latest: *ref.latest, Path: *out})
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "plot=%s size=%s\n", path, humanize.Bytes(uint64(info.Size())))
	return nil
}

func runPlay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	ref := addRunRefFlags(fs)
	genomePath := fs.String("genome", "", "genome JSON file to play against")
	opponent := fs.String("opponent", "", "scripted opponent instead of a genome: pass|first-open|cycle|column-<n>")
	challenger := fs.String("challenger", "", "scripted agent in the human seat, for demos")
	humanSecond := fs.Bool("human-second", false, "let the opponent move first")
	turnCap := fs.Int("turn-cap", 0, "turns before a draw (0 uses the default)")
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *opponent == "" && *genomePath == "" {
		if err := ref.validate("play"); err != nil {
			return fmt.Errorf("%w (or --genome / --opponent)", err)
		}
	}

	client, err := store.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Play(ctx, c4.PlayRequest{
		RunID:       *ref.runID,
		Latest:      *ref.latest,
		GenomePath:  *genomePath,
		Opponent:    *opponent,
		Challenger:  *challenger,
		HumanSecond: *humanSecond,
		TurnCap:     *turnCap,
		In:          stdin,
		Out:         stdout,
	})
	if err != nil {
		return err
	}

	switch summary.Outcome {
	case game.WinnerA, game.WinnerB:
		fmt.Fprintf(stdout, "%s wins after %d turns\n", summary.Winner, summary.Turns)
	case game.Draw:
		fmt.Fprintf(stdout, "draw after %d turns\n", summary.Turns)
	default:
		fmt.Fprintf(stdout, "game aborted after %d turns: %v\n", summary.Turns, summary.Err)
	}
	return nil
}

func encodeJSON(value any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func dirSize(root string) (uint64, error) {
	var total uint64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += uint64(info.Size())
		return nil
	})
	return total, err
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: connect4ctl [--log-level L] [--log-json] <init|run|runs|top|fitness|diagnostics|lineage|export|plot|play> [flags]", msg)
}
