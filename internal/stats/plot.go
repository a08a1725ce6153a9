package stats

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"connect4evo/internal/model"
)

// WriteFitnessPlot renders best and mean score per generation as a PNG.
func WriteFitnessPlot(path, title string, diagnostics []model.GenerationDiagnostics) error {
	if len(diagnostics) == 0 {
		return fmt.Errorf("no generations to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Score"

	bestPts := make(plotter.XYs, len(diagnostics))
	meanPts := make(plotter.XYs, len(diagnostics))
	minPts := make(plotter.XYs, len(diagnostics))
	for i, d := range diagnostics {
		x := float64(d.Generation)
		bestPts[i].X, bestPts[i].Y = x, d.BestScore
		meanPts[i].X, meanPts[i].Y = x, d.MeanScore
		minPts[i].X, minPts[i].Y = x, d.MinScore
	}

	bestLine, err := plotter.NewLine(bestPts)
	if err != nil {
		return err
	}
	meanLine, err := plotter.NewLine(meanPts)
	if err != nil {
		return err
	}
	meanLine.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	minLine, err := plotter.NewLine(minPts)
	if err != nil {
		return err
	}
	minLine.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}

	p.Add(plotter.NewGrid(), bestLine, meanLine, minLine)
	p.Legend.Add("best", bestLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Add("min", minLine)
	p.Legend.Top = true
	p.Legend.Left = true

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
