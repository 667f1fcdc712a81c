package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/polydrive/internal/control"
	"github.com/san-kum/polydrive/internal/dynamo"
	"github.com/san-kum/polydrive/internal/sim"
)

const (
	canvasWidth     = 60
	canvasHeight    = 24
	headingCapacity = 300
	frameRate       = time.Second / 30
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(44)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

type TickMsg time.Time

// LiveModel steps a session on a frame ticker and draws the path as it grows.
type LiveModel struct {
	session       *sim.Session
	name          string
	ideal         []dynamo.Pose
	bounds        Bounds
	canvas        *Canvas
	stepsPerFrame int

	trail    []dynamo.Pose
	headings []float64
	last     sim.Sample
	err      error
	running  bool
}

// NewLiveModel prepares a live view. The ideal polygon fixes the viewport so the
// frame does not rescale while driving.
func NewLiveModel(session *sim.Session, name string, cfg control.PolygonConfig, stepsPerFrame int) *LiveModel {
	ideal := control.IdealVertices(cfg, session.Pose())
	if stepsPerFrame < 1 {
		stepsPerFrame = 1
	}
	return &LiveModel{
		session:       session,
		name:          name,
		ideal:         ideal,
		bounds:        BoundsOf(0.15, ideal),
		canvas:        NewCanvas(canvasWidth, canvasHeight),
		stepsPerFrame: stepsPerFrame,
		trail:         []dynamo.Pose{session.Pose()},
		running:       true,
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m *LiveModel) Init() tea.Cmd { return tick() }

func (m *LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

// advance runs up to stepsPerFrame ticks, stopping when the session finishes.
func (m *LiveModel) advance() {
	for i := 0; i < m.stepsPerFrame && m.err == nil && !m.session.Finished(); i++ {
		sample, err := m.session.Step()
		if err != nil {
			m.err = err
			return
		}
		m.last = sample
		m.trail = append(m.trail, m.session.Pose())
		m.headings = append(m.headings, sample.Pose.Theta)
		if len(m.headings) > headingCapacity {
			m.headings = m.headings[1:]
		}
	}
}

func (m *LiveModel) reset() {
	m.session.Reset()
	m.trail = []dynamo.Pose{m.session.Pose()}
	m.headings = m.headings[:0]
	m.last = sim.Sample{}
	m.err = nil
	m.running = true
}

// Err returns the error that stopped stepping, if any.
func (m *LiveModel) Err() error { return m.err }

func (m *LiveModel) draw() {
	m.canvas.Clear()
	m.canvas.PlotPath(m.bounds, m.ideal)
	m.canvas.PlotPath(m.bounds, m.trail)
}

func (m *LiveModel) status() string {
	switch {
	case m.err != nil:
		return StatusDone.Render("ERROR")
	case m.session.Finished():
		return StatusDone.Render("FINISHED")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	default:
		return StatusRunning.Render("RUNNING")
	}
}

func (m *LiveModel) View() string {
	m.draw()

	var s strings.Builder
	s.WriteString(Title.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.headings) > 1 {
		chart := asciigraph.Plot(m.headings, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("heading"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	d := m.last.Decision
	sides := len(m.ideal) - 1
	s.WriteString(KV("Time", fmt.Sprintf("%.2fs", m.session.Time())) + "\n")
	s.WriteString(KV("Phase", d.Phase.String()) + "\n")
	s.WriteString(KV("Corners", fmt.Sprintf("%d/%d", m.last.TurnCount, sides)) + "\n")
	s.WriteString(ProgressBar(m.last.TurnCount, sides, 20) + "\n")
	s.WriteString(KV("Distance", fmt.Sprintf("%.3f", d.Distance)) + "\n")
	if d.Evaluated {
		s.WriteString(KV("Heading err", fmt.Sprintf("%.4f", d.HeadingError)) + "\n")
	}
	s.WriteString(KV("Command", m.last.Cmd.String()) + "\n")
	s.WriteString(KV("Pose", m.session.Pose().String()) + "\n")
	if m.err != nil {
		s.WriteString("\n" + StatusDone.Render(m.err.Error()) + "\n")
	}
	s.WriteString("\n" + KeyHint.Render("SPACE:Pause R:Reset Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(m.canvas.String()), statsStyle.Render(s.String()))
}
