package io

import (
	"path/filepath"
	"strings"

	"github.com/phil-mansfield/grainsynth"
	plt "github.com/phil-mansfield/pyplot"
)

// PlotNames returns the misorientation and microtexture figure names
// derived from fname.
func PlotNames(fname string) (miso, micro string) {
	ext := filepath.Ext(fname)
	base := strings.TrimSuffix(fname, ext)
	if ext == "" {
		ext = ".png"
	}
	return base + "_misorientation" + ext, base + "_microtexture" + ext
}

// binCenters returns the centers of n equal bins spanning [0, width).
func binCenters(n int, width float64) []float64 {
	xs := make([]float64, n)
	dx := width / float64(n)
	for i := range xs {
		xs[i] = (float64(i) + 0.5) * dx
	}
	return xs
}

// PlotHistograms compares the target and synthesized misorientation and
// microtexture histograms of a finished run. Running the script requires
// python with matplotlib.
func PlotHistograms(c *grainsynth.Context, fname string) {
	vs := c.VolumeStats()
	misoName, microName := PlotNames(fname)

	plt.Reset()

	plotHistogram(
		binCenters(len(vs.Misorientation), 100), c.Store.Misorientation,
		vs.Misorientation, `Misorientation [degrees]`, misoName,
	)
	plotHistogram(
		binCenters(len(vs.Microtexture), 1), c.Store.Microtexture,
		vs.Microtexture, `Low-angle boundary fraction`, microName,
	)

	plt.Execute()
}

func plotHistogram(xs, target, sim []float64, xLabel, fname string) {
	if len(xs) == 0 {
		return
	}
	plt.Figure(plt.FigSize(8, 6))
	plt.Plot(xs, target, "k", plt.LW(3))
	plt.Plot(xs, sim, "o", plt.C("r"))
	plt.Title("Target (black) and synthesized (red)")
	plt.XLabel(xLabel, plt.FontSize(16))
	plt.YLabel(`Fraction`, plt.FontSize(16))
	plt.XLim(0, xs[len(xs)-1]+xs[0])
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)
}
