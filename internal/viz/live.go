package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/lindex/internal/lindemann"
	"github.com/san-kum/lindex/internal/pbc"
)

const (
	canvasWidth     = 40
	canvasHeight    = 20
	historyCapacity = 600
)

var statsStyle = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder(), false, false, false, true).
	Padding(0, 2).
	Width(56)

// FrameMsg reports one ingested frame. Positions may be nil when the
// sender does not want the projection redrawn.
type FrameMsg struct {
	Point     lindemann.TracePoint
	Positions []r3.Vec
}

// DoneMsg ends a run. Err is set when ingestion stopped early.
type DoneMsg struct {
	Result lindemann.Result
	Err    error
}

type tickMsg time.Time

// Model follows a run while frames are ingested on another goroutine and
// delivered through tea.Program.Send.
type Model struct {
	title     string
	box       pbc.Box
	total     int
	canvas    *Canvas
	plane     Plane
	history   []float64
	last      lindemann.TracePoint
	positions []r3.Vec
	result    *lindemann.Result
	err       error
	started   time.Time
	elapsed   time.Duration
	showHelp  bool
	quitting  bool
}

// NewModel builds a live view for a run of total frames in box.
func NewModel(title string, box pbc.Box, total int) Model {
	return Model{
		title:   title,
		box:     box,
		total:   total,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		plane:   PlaneXY,
		history: make([]float64, 0, historyCapacity),
		started: time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update consumes frame and completion messages and handles keys.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "p":
			m.plane = m.plane.Next()
			m.canvas.Project(m.box, m.positions, m.plane)
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case FrameMsg:
		m.last = msg.Point
		m.history = append(m.history, msg.Point.Ensemble)
		if len(m.history) > historyCapacity {
			m.history = m.history[1:]
		}
		if msg.Positions != nil {
			m.positions = msg.Positions
			m.canvas.Project(m.box, m.positions, m.plane)
		}
	case DoneMsg:
		res := msg.Result
		m.result = &res
		m.err = msg.Err
		m.elapsed = time.Since(m.started)
	case tickMsg:
		if m.result == nil {
			m.elapsed = time.Since(m.started)
		}
		return m, tick()
	}
	return m, nil
}

// Done reports whether the run has finished.
func (m Model) Done() bool { return m.result != nil }

// Err is the error the run ended with, if any.
func (m Model) Err() error { return m.err }

// Frames is the number of frames seen so far.
func (m Model) Frames() int { return m.last.Frame }

// View renders the TUI interface.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")

	status := "INGESTING"
	switch {
	case m.err != nil:
		status = "FAILED: " + m.err.Error()
	case m.result != nil:
		status = "DONE"
	}
	s.WriteString(status + "\n\n")

	if m.total > 0 {
		pct := float64(m.last.Frame) / float64(m.total)
		s.WriteString(ProgressBar(pct, 30) + fmt.Sprintf(" %d/%d\n\n", m.last.Frame, m.total))
	}

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(6), asciigraph.Width(40), asciigraph.Caption("ensemble L"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString(labelStyle.Render("Frame") + valueStyle.Render(fmt.Sprintf("%d", m.last.Frame)) + "\n")
	s.WriteString(labelStyle.Render("Pairs") + valueStyle.Render(fmt.Sprintf("%d", m.last.Pairs)) + "\n")
	s.WriteString(labelStyle.Render("Valid") + valueStyle.Render(fmt.Sprintf("%d", m.last.Valid)) + "\n")
	s.WriteString(labelStyle.Render("Ensemble L") +
		phaseStyle(m.last.Ensemble).Render(fmt.Sprintf("%.5f %s", m.last.Ensemble, Phase(m.last.Ensemble))) + "\n")
	s.WriteString(labelStyle.Render("Elapsed") + valueStyle.Render(m.elapsed.Round(100*time.Millisecond).String()) + "\n")
	if m.result != nil && len(m.result.Particles) > 0 {
		s.WriteString(labelStyle.Render("Per particle") + valueStyle.Render(Sparkline(m.result.Particles, 30)) + "\n")
	}

	s.WriteString(helpStyle.Render("P:Plane T:Theme ?:Help Q:Quit"))

	plot := panelStyle.Render(fmt.Sprintf("%s plane\n%s", m.plane, m.canvas.String()))
	view := lipgloss.JoinHorizontal(lipgloss.Top, plot, statsStyle.BorderForeground(CurrentTheme.Muted).Render(s.String()))

	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  P        - Cycle projection plane   ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n" + view
	}
	return view
}
