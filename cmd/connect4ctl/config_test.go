package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadRunRequestFromYAMLConfig(t *testing.T) {
	path := writeConfig(t, "run.yaml", `
run_id: yaml-run
continue_run_id: run-prev
rows: 4
cols: 5
turn_cap: 19
hidden: [8, 4]
population: 12
survivors: 3
generations: 6
fresh: 3
mutation_rate: 1.5
mutation_probability: 0.8
anneal_at: -1
scoring: signed
reproduction: proportional
workers: 3
seed: 77
plot: true
`)

	req, err := loadRunRequestFromConfig(path)
	require.NoError(t, err)
	require.Equal(t, "yaml-run", req.RunID)
	require.Equal(t, "run-prev", req.ContinueRunID)
	require.Equal(t, 4, req.Rows)
	require.Equal(t, 5, req.Cols)
	require.Equal(t, 19, req.TurnCap)
	require.Equal(t, []int{8, 4}, req.Hidden)
	require.Equal(t, 12, req.Population)
	require.Equal(t, 3, req.Survivors)
	require.Equal(t, 6, req.Generations)
	require.Equal(t, 3, req.Fresh)
	require.NotNil(t, req.MutationRate)
	require.Equal(t, 1.5, *req.MutationRate)
	require.NotNil(t, req.MutationProb)
	require.Equal(t, 0.8, *req.MutationProb)
	require.Equal(t, -1, req.AnnealAt)
	require.Equal(t, "signed", req.Scoring)
	require.Equal(t, "proportional", req.Reproduction)
	require.Equal(t, 3, req.Workers)
	require.Equal(t, uint64(77), req.Seed)
	require.True(t, req.Plot)
}

func TestLoadRunRequestFromJSONConfig(t *testing.T) {
	path := writeConfig(t, "run.json", `{"population": 10, "survivors": 5, "seed": 3}`)
	req, err := loadRunRequestFromConfig(path)
	require.NoError(t, err)
	require.Equal(t, 10, req.Population)
	require.Equal(t, 5, req.Survivors)
	require.Equal(t, uint64(3), req.Seed)
	require.Nil(t, req.Hidden, "unset hidden layers stay nil")
	require.Nil(t, req.MutationRate, "unset mutation rate stays nil")
	require.Nil(t, req.MutationProb, "unset mutation probability stays nil")
}

func TestLoadRunRequestKeepsExplicitZeroMutation(t *testing.T) {
	path := writeConfig(t, "frozen.yaml", "mutation_rate: 0\nmutation_probability: 0\n")
	req, err := loadRunRequestFromConfig(path)
	require.NoError(t, err)
	require.NotNil(t, req.MutationRate)
	require.Zero(t, *req.MutationRate)
	require.NotNil(t, req.MutationProb)
	require.Zero(t, *req.MutationProb)
}

func TestLoadOrDefaultRunRequest(t *testing.T) {
	req, err := loadOrDefaultRunRequest("")
	require.NoError(t, err)
	require.Zero(t, req.Population)
	require.Nil(t, req.Hidden)

	_, err = loadOrDefaultRunRequest(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestOverrideFromFlagsOnlyTouchesSetFlags(t *testing.T) {
	path := writeConfig(t, "run.yaml", "population: 12\nsurvivors: 3\nseed: 5\nmutation_rate: 1.5\n")
	req, err := loadOrDefaultRunRequest(path)
	require.NoError(t, err)

	set := map[string]bool{"seed": true, "hidden": true, "mutation-prob": true, "continue-run-id": true}
	values := map[string]any{
		"pop":             50,
		"seed":            uint64(9),
		"hidden":          "6",
		"mutation-rate":   2.0,
		"mutation-prob":   0.0,
		"continue-run-id": "run-prev",
	}
	require.NoError(t, overrideFromFlags(&req, set, values))
	require.Equal(t, 12, req.Population, "config value overwritten")
	require.Equal(t, 3, req.Survivors, "config value overwritten")
	require.Equal(t, 1.5, *req.MutationRate, "config value overwritten")
	require.Equal(t, uint64(9), req.Seed)
	require.Equal(t, []int{6}, req.Hidden)
	require.NotNil(t, req.MutationProb)
	require.Zero(t, *req.MutationProb)
	require.Equal(t, "run-prev", req.ContinueRunID)

	err = overrideFromFlags(&req, map[string]bool{"hidden": true}, map[string]any{"hidden": "6,x"})
	require.Error(t, err, "invalid hidden")
}

func TestParseHidden(t *testing.T) {
	cases := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "32,22", want: []int{32, 22}},
		{in: " 8 , 4 ", want: []int{8, 4}},
		{in: "", want: []int{}},
		{in: "0", wantErr: true},
		{in: "4,,2", wantErr: true},
		{in: "-3", wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseHidden(tc.in)
		if tc.wantErr {
			require.Error(t, err, "parseHidden(%q)", tc.in)
			continue
		}
		require.NoError(t, err, "parseHidden(%q)", tc.in)
		require.Equal(t, tc.want, got, "parseHidden(%q)", tc.in)
	}
}
