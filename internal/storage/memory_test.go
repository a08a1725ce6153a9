package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"connect4evo/internal/model"
)

func newInitializedMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	require.Error(t, store.SaveGenome(context.Background(), sampleGenome("g1")))
}

func TestMemoryStoreGenomeIsCopied(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)

	genome := sampleGenome("g1")
	require.NoError(t, store.SaveGenome(ctx, genome))
	genome.Layers[0].Weights[0] = 99

	loaded, ok, err := store.GetGenome(ctx, "g1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0.5, loaded.Layers[0].Weights[0], "stored genome aliased caller slice")

	loaded.Layers[0].Bias[0] = -7
	again, _, err := store.GetGenome(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, 0.75, again.Layers[0].Bias[0], "returned genome aliased stored slice")

	_, ok, err = store.GetGenome(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreLineageRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)

	input := []model.LineageRecord{{
		VersionedRecord: model.Current(),
		GenomeID:        "g1-0",
		ParentID:        "g0-2",
		Generation:      1,
		Operation:       "clone",
	}}
	require.NoError(t, store.SaveLineage(ctx, "run-1", input))

	output, ok, err := store.GetLineage(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, output, 1)
	require.Equal(t, "g0-2", output[0].ParentID)
}

func TestMemoryStoreFitnessHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)

	input := []float64{3, 5, 8}
	require.NoError(t, store.SaveFitnessHistory(ctx, "run-1", input))
	input[0] = 100

	output, ok, err := store.GetFitnessHistory(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []float64{3, 5, 8}, output)
}

func TestMemoryStoreGenerationDiagnosticsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)

	input := []model.GenerationDiagnostics{
		{Generation: 1, BestScore: 8, MeanScore: 4, MinScore: 0, Population: 10, Games: 45},
		{Generation: 2, BestScore: 9, MeanScore: 4.5, MinScore: 1, Population: 10, Games: 45},
	}
	require.NoError(t, store.SaveGenerationDiagnostics(ctx, "run-1", input))

	output, ok, err := store.GetGenerationDiagnostics(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, input, output)
}

func TestMemoryStoreTopGenomesAndPopulation(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)

	top := []model.TopGenomeRecord{{VersionedRecord: model.Current(), Rank: 1, Score: 6, Genome: sampleGenome("best")}}
	require.NoError(t, store.SaveTopGenomes(ctx, "run-1", top))
	loadedTop, ok, err := store.GetTopGenomes(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "best", loadedTop[0].Genome.ID)
	require.Equal(t, 6.0, loadedTop[0].Score)

	population := model.Population{VersionedRecord: model.Current(), ID: "run-1-final", RunID: "run-1", GenomeIDs: []string{"a", "b"}, Generation: 3}
	require.NoError(t, store.SavePopulation(ctx, population))
	population.GenomeIDs[0] = "mutated"

	loaded, ok, err := store.GetPopulation(ctx, "run-1-final")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", loaded.GenomeIDs[0])
	require.Equal(t, 3, loaded.Generation)
}

func TestMemoryStoreRunPopulationPicksLatestGeneration(t *testing.T) {
	ctx := context.Background()
	store := newInitializedMemoryStore(t)

	for _, population := range []model.Population{
		{VersionedRecord: model.Current(), ID: "p-early", RunID: "run-1", GenomeIDs: []string{"a"}, Generation: 2},
		{VersionedRecord: model.Current(), ID: "p-late", RunID: "run-1", GenomeIDs: []string{"b", "c"}, Generation: 5},
		{VersionedRecord: model.Current(), ID: "p-other", RunID: "run-2", GenomeIDs: []string{"d"}, Generation: 9},
	} {
		require.NoError(t, store.SavePopulation(ctx, population))
	}

	latest, ok, err := store.GetRunPopulation(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "p-late", latest.ID)
	require.Equal(t, []string{"b", "c"}, latest.GenomeIDs)

	_, ok, err = store.GetRunPopulation(ctx, "run-3")
	require.NoError(t, err)
	require.False(t, ok)
}
