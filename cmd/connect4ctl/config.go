package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	c4 "connect4evo/pkg/connect4evo"
)

// runFile is the on-disk run configuration. JSON files parse too since
// YAML is a superset. Mutation settings are pointers so an explicit 0 turns
// mutation off instead of falling back to the default.
type runFile struct {
	RunID                string   `yaml:"run_id"`
	ContinuePopulationID string   `yaml:"continue_population_id"`
	ContinueRunID        string   `yaml:"continue_run_id"`
	Rows                 int      `yaml:"rows"`
	Cols                 int      `yaml:"cols"`
	TurnCap              int      `yaml:"turn_cap"`
	Hidden               []int    `yaml:"hidden"`
	Population           int      `yaml:"population"`
	Survivors            int      `yaml:"survivors"`
	Generations          int      `yaml:"generations"`
	Fresh                int      `yaml:"fresh"`
	InitScale            float64  `yaml:"init_scale"`
	MutationRate         *float64 `yaml:"mutation_rate"`
	MutationProbability  *float64 `yaml:"mutation_probability"`
	AnnealAt             int      `yaml:"anneal_at"`
	AnnealFactor         float64  `yaml:"anneal_factor"`
	Scoring              string   `yaml:"scoring"`
	Reproduction         string   `yaml:"reproduction"`
	Workers              int      `yaml:"workers"`
	Seed                 uint64   `yaml:"seed"`
	Plot                 bool     `yaml:"plot"`
}

func loadRunRequestFromConfig(path string) (c4.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return c4.RunRequest{}, err
	}
	var file runFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return c4.RunRequest{}, err
	}
	return c4.RunRequest{
		RunID:                file.RunID,
		ContinuePopulationID: file.ContinuePopulationID,
		ContinueRunID:        file.ContinueRunID,
		Rows:                 file.Rows,
		Cols:                 file.Cols,
		TurnCap:              file.TurnCap,
		Hidden:               file.Hidden,
		Population:           file.Population,
		Survivors:            file.Survivors,
		Generations:          file.Generations,
		Fresh:                file.Fresh,
		InitScale:            file.InitScale,
		MutationRate:         file.MutationRate,
		MutationProb:         file.MutationProbability,
		AnnealAt:             file.AnnealAt,
		AnnealFactor:         file.AnnealFactor,
		Scoring:              file.Scoring,
		Reproduction:         file.Reproduction,
		Workers:              file.Workers,
		Seed:                 file.Seed,
		Plot:                 file.Plot,
	}, nil
}

func loadOrDefaultRunRequest(configPath string) (c4.RunRequest, error) {
	if configPath == "" {
		return c4.RunRequest{}, nil
	}
	req, err := loadRunRequestFromConfig(configPath)
	if err != nil {
		return c4.RunRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}

// overrideFromFlags applies only the flags given on the command line, so a
// config file value survives unless explicitly overridden.
func overrideFromFlags(req *c4.RunRequest, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "continue-pop-id":
			req.ContinuePopulationID = v.(string)
		case "continue-run-id":
			req.ContinueRunID = v.(string)
		case "rows":
			req.Rows = v.(int)
		case "cols":
			req.Cols = v.(int)
		case "turn-cap":
			req.TurnCap = v.(int)
		case "hidden":
			hidden, err := parseHidden(v.(string))
			if err != nil {
				return err
			}
			req.Hidden = hidden
		case "pop":
			req.Population = v.(int)
		case "survivors":
			req.Survivors = v.(int)
		case "gens":
			req.Generations = v.(int)
		case "fresh":
			req.Fresh = v.(int)
		case "init-scale":
			req.InitScale = v.(float64)
		case "mutation-rate":
			rate := v.(float64)
			req.MutationRate = &rate
		case "mutation-prob":
			prob := v.(float64)
			req.MutationProb = &prob
		case "anneal-at":
			req.AnnealAt = v.(int)
		case "anneal-factor":
			req.AnnealFactor = v.(float64)
		case "scoring":
			req.Scoring = v.(string)
		case "reproduction":
			req.Reproduction = v.(string)
		case "workers":
			req.Workers = v.(int)
		case "seed":
			req.Seed = v.(uint64)
		case "plot":
			req.Plot = v.(bool)
		default:
			return fmt.Errorf("unsupported override flag: %s", name)
		}
	}
	return nil
}

// parseHidden reads comma separated layer widths. An empty string means no
// hidden layers.
func parseHidden(value string) ([]int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return []int{}, nil
	}
	parts := strings.Split(value, ",")
	hidden := make([]int, 0, len(parts))
	for _, part := range parts {
		width, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || width <= 0 {
			return nil, fmt.Errorf("invalid hidden layer width %q", part)
		}
		hidden = append(hidden, width)
	}
	return hidden, nil
}
