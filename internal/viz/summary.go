package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/lindex/internal/lindemann"
)

const plotWidth = 60

// RenderSummary formats a finished run: the headline numbers, the
// per-particle index and, when there is more than one point, the
// ensemble trace.
func RenderSummary(title string, res lindemann.Result, trace []lindemann.TracePoint, elapsed time.Duration) string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(title)) + "\n")

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Particles", fmt.Sprintf("%d (%d with neighbors)", len(res.Particles), res.Valid))
	row("Pairs", fmt.Sprintf("%d", res.Pairs))
	row("Frames", fmt.Sprintf("%d", res.Frames))
	if elapsed > 0 {
		row("Elapsed", elapsed.Round(time.Millisecond).String())
	}
	s.WriteString(labelStyle.Render("Ensemble L") +
		phaseStyle(res.Ensemble).Render(fmt.Sprintf("%.5f  %s", res.Ensemble, Phase(res.Ensemble))) + "\n")

	if len(res.Particles) > 1 {
		lo, hi := res.Particles[0], res.Particles[0]
		for _, v := range res.Particles {
			lo = min(lo, v)
			hi = max(hi, v)
		}
		row("Range", fmt.Sprintf("%.5f .. %.5f", lo, hi))

		chart := asciigraph.Plot(res.Particles,
			asciigraph.Height(8),
			asciigraph.Width(plotWidth),
			asciigraph.Caption("L per particle"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	if len(trace) > 1 {
		series := make([]float64, len(trace))
		for i, p := range trace {
			series[i] = p.Ensemble
		}
		chart := asciigraph.Plot(series,
			asciigraph.Height(6),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(fmt.Sprintf("ensemble L over %d frames", trace[len(trace)-1].Frame)))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	return panelStyle.Render(s.String())
}
