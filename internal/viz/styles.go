package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Lindemann criterion: values above this are liquid-like.
const (
	meltingThreshold = 0.1
	solidThreshold   = 0.05
)

var (
	panelStyle  lipgloss.Style
	headerStyle lipgloss.Style
	labelStyle  lipgloss.Style
	valueStyle  lipgloss.Style
	graphStyle  lipgloss.Style
	helpStyle   lipgloss.Style
	subtle      lipgloss.Style
	solidStyle  lipgloss.Style
	meltStyle   lipgloss.Style
	liquidStyle lipgloss.Style
)

func init() {
	applyTheme(CurrentTheme)
}

func applyTheme(t Theme) {
	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Muted).
		Padding(1, 2)
	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Foreground(t.Muted).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(t.Text)
	graphStyle = lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0)
	helpStyle = lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1)
	subtle = lipgloss.NewStyle().Foreground(t.Muted)
	solidStyle = lipgloss.NewStyle().Bold(true).Foreground(t.Solid)
	meltStyle = lipgloss.NewStyle().Bold(true).Foreground(t.Melting)
	liquidStyle = lipgloss.NewStyle().Bold(true).Foreground(t.Liquid)
}

// Phase classifies an ensemble index against the Lindemann criterion.
func Phase(l float64) string {
	switch {
	case l < solidThreshold:
		return "solid"
	case l < meltingThreshold:
		return "near melting"
	default:
		return "liquid-like"
	}
}

func phaseStyle(l float64) lipgloss.Style {
	switch {
	case l < solidThreshold:
		return solidStyle
	case l < meltingThreshold:
		return meltStyle
	default:
		return liquidStyle
	}
}

// ProgressBar renders a progress bar
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if percent >= 1 {
		return solidStyle.Render(bar)
	}
	return meltStyle.Render(bar)
}

// Sparkline renders a mini sparkline from values, sampled to width.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var result strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)
		result.WriteRune(chars[idx])
	}
	return result.String()
}

// Separator draws a decorative rule.
func Separator(width int) string {
	if width < 8 {
		return subtle.Render(strings.Repeat("─", max(width, 0)))
	}
	mid := width / 2
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", width-mid-3)
	return subtle.Render(left + " ◆ " + right)
}
