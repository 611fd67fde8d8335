package viz

import (
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/chainsim/internal/metrics"
)

// SeriesPlot draws one series as a terminal line chart. An empty series
// renders as an empty string.
func SeriesPlot(caption string, data []float64, width, height int) string {
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// EnergyPlot overlays total (white), kinetic (blue) and potential (red)
// energy.
func EnergyPlot(e metrics.Energies, width, height int) string {
	if e.Len() == 0 {
		return ""
	}
	return asciigraph.PlotMany([][]float64{e.Total, e.Kinetic, e.Potential},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("energy: total, kinetic, potential"),
		asciigraph.SeriesColors(asciigraph.White, asciigraph.Blue, asciigraph.Red),
	)
}
