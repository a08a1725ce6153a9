package model

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Current stamps a record with the versions this build writes.
func Current() VersionedRecord {
	return VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

// Genome is the persisted form of a feed-forward network: layer dimensions
// plus flat row-major weights (Out x In) and biases (Out). An empty
// Activation means sigmoid.
type Genome struct {
	VersionedRecord
	ID         string  `json:"id"`
	Activation string  `json:"activation,omitempty"`
	Layers     []Layer `json:"layers"`
}

type Layer struct {
	In      int       `json:"in"`
	Out     int       `json:"out"`
	Weights []float64 `json:"weights"`
	Bias    []float64 `json:"bias"`
}

type Population struct {
	VersionedRecord
	ID         string   `json:"id"`
	RunID      string   `json:"run_id"`
	GenomeIDs  []string `json:"genome_ids"`
	Generation int      `json:"generation"`
}

type GenerationDiagnostics struct {
	Generation   int     `json:"generation"`
	BestScore    float64 `json:"best_score"`
	MeanScore    float64 `json:"mean_score"`
	MinScore     float64 `json:"min_score"`
	Population   int     `json:"population"`
	Survivors    int     `json:"survivors"`
	Mutated      int     `json:"mutated"`
	MutationRate float64 `json:"mutation_rate"`
	Games        int     `json:"games"`
	WinsA        int     `json:"wins_a"`
	WinsB        int     `json:"wins_b"`
	Draws        int     `json:"draws"`
	Aborted      int     `json:"aborted"`
	MeanTurns    float64 `json:"mean_turns"`
}

type TopGenomeRecord struct {
	VersionedRecord
	Rank   int     `json:"rank"`
	Score  float64 `json:"score"`
	Genome Genome  `json:"genome"`
}

type LineageRecord struct {
	VersionedRecord
	GenomeID   string `json:"genome_id"`
	ParentID   string `json:"parent_id"`
	Generation int    `json:"generation"`
	Operation  string `json:"operation"`
}
