package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/chainsim/internal/config"
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/metrics"
	"github.com/san-kum/chainsim/internal/physics"
)

const (
	canvasWidth     = 80
	canvasHeight    = 16
	historyCapacity = 600
	sparklineWidth  = 36
	maxStepsPerTick = 1024
	frameInterval   = time.Second / 30
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(42)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// LiveModel animates one chain. Displacements are drawn transversally,
// scaled to the largest displacement seen so far.
type LiveModel struct {
	name   string
	params *config.Params
	init   *config.InitialState
	dt     float64

	chain   *physics.Chain
	canvas  *Canvas
	steps   int
	running bool
	help    bool
	scale   float64
	energy  []float64
	e0      float64
	err     error
}

// NewLiveModel validates the inputs by building the first chain.
func NewLiveModel(name string, p *config.Params, init *config.InitialState, dt float64) (LiveModel, error) {
	m := LiveModel{
		name:    name,
		params:  p,
		init:    init,
		dt:      dt,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		steps:   1,
		running: true,
		energy:  make([]float64, 0, historyCapacity),
	}
	if err := m.reset(); err != nil {
		return LiveModel{}, err
	}
	return m, nil
}

func (m *LiveModel) reset() error {
	ch, err := physics.NewChain(m.params, m.init, m.dt)
	if err != nil {
		return err
	}
	m.chain = ch
	m.err = nil
	m.energy = m.energy[:0]
	m.scale = 0

	snap := ch.Snapshot()
	m.e0 = m.record(snap)
	return nil
}

func (m *LiveModel) record(s dynamo.Snapshot) float64 {
	k, u := metrics.FrameEnergy(s.Displacements, s.Velocities, m.params.Mass, m.params.SpringConstant)
	m.energy = append(m.energy, k+u)
	if len(m.energy) > historyCapacity {
		m.energy = m.energy[1:]
	}
	m.scale = max(m.scale, s.Displacements.MaxAbs())
	return k + u
}

func (m LiveModel) Init() tea.Cmd { return tick() }

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
			}
		case "+", "=":
			m.steps = min(m.steps*2, maxStepsPerTick)
		case "-", "_":
			m.steps = max(m.steps/2, 1)
		case "t":
			NextTheme()
		case "?":
			m.help = !m.help
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *LiveModel) advance() {
	for i := 0; i < m.steps; i++ {
		m.chain.Step()
	}
	if !m.chain.IsValid() {
		m.err = &dynamo.SimulationError{
			Frame:   m.chain.Frame(),
			Time:    m.chain.Time(),
			Wrapped: dynamo.ErrUnstable,
		}
		m.running = false
		return
	}
	m.record(m.chain.Snapshot())
}

func (m LiveModel) Time() float64 { return m.chain.Time() }
func (m LiveModel) Running() bool { return m.running }
func (m LiveModel) Steps() int    { return m.steps }
func (m LiveModel) Err() error    { return m.err }

// draw plots the displacement of every oscillator against its index.
func (m *LiveModel) draw() {
	m.canvas.Clear()
	w, h := m.canvas.Dots()
	mid := h / 2

	for x := 0; x < w; x += 4 {
		m.canvas.Set(x, mid)
	}

	d := m.chain.Snapshot().Displacements
	n := len(d)
	scale := m.scale
	if scale == 0 {
		scale = 1
	}
	amp := float64(mid - 2)

	px, py := -1, -1
	for i, v := range d {
		x := 1
		if n > 1 {
			x = 1 + i*(w-3)/(n-1)
		}
		off := v / scale * amp
		if math.IsNaN(off) {
			off = 0
		}
		y := mid - int(math.Round(math.Max(-amp, math.Min(amp, off))))
		if px >= 0 {
			m.canvas.DrawLine(px, py, x, y)
		}
		if n <= 40 {
			m.canvas.DrawBlob(x, y)
		}
		px, py = x, y
	}
}

func (m LiveModel) View() string {
	m.draw()

	var s strings.Builder
	s.WriteString(titleStyle().Render(strings.ToUpper(m.name)) + "\n")

	status := lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Good).Render("RUNNING")
	switch {
	case m.err != nil:
		status = lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Bad).Render("STOPPED")
	case !m.running:
		status = lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Warning).Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	if len(m.energy) > 1 {
		s.WriteString(mutedStyle().Render("total energy") + "\n")
		s.WriteString(SparklineChart(m.energy, sparklineWidth) + "\n\n")
	}

	energy := m.energy[len(m.energy)-1]
	drift := 0.0
	if m.e0 != 0 {
		drift = math.Abs(energy-m.e0) / math.Abs(m.e0)
	}
	stat := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	stat("Time", fmt.Sprintf("%.2f", m.chain.Time()))
	stat("Frame", fmt.Sprint(m.chain.Frame()))
	stat("dt", fmt.Sprintf("%g", m.dt))
	stat("Steps/frame", fmt.Sprint(m.steps))
	stat("Energy", fmt.Sprintf("%.6g", energy))
	stat("Drift", fmt.Sprintf("%.2e", drift))
	stat("Oscillators", fmt.Sprint(m.chain.Len()))
	if m.err != nil {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(CurrentTheme.Bad).Render(m.err.Error()) + "\n")
	}
	s.WriteString("\n" + KeyHint("SP:Pause R:Reset Q:Quit\n+/-:Speed T:Theme ?:Help"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(m.canvas.String()), statsStyle.Render(s.String()))
	if m.help {
		return helpText + "\n" + main
	}
	return main
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space  - Pause/Resume               ║
║  R      - Reset to the initial state ║
║  + / -  - Double/halve steps a frame ║
║  T      - Cycle themes               ║
║  ?      - Toggle this help           ║
║  Q      - Quit                       ║
╚══════════════════════════════════════╝
`

// RunLive starts the live view in the alternate screen and blocks until
// the user quits.
func RunLive(name string, p *config.Params, init *config.InitialState, dt float64) error {
	m, err := NewLiveModel(name, p, init, dt)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
