package stats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFitnessPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", PlotFile)
	require.NoError(t, WriteFitnessPlot(path, "run-1", sampleDiagnostics()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, len(data) > 8 && string(data[:4]) == "\x89PNG", "expected png header")
}

func TestWriteFitnessPlotRequiresData(t *testing.T) {
	require.Error(t, WriteFitnessPlot(filepath.Join(t.TempDir(), PlotFile), "empty", nil))
}
