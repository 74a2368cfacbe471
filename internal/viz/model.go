package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pulleysim/internal/config"
	"github.com/san-kum/pulleysim/internal/logging"
	"github.com/san-kum/pulleysim/internal/sim"
)

const (
	canvasWidth     = 56
	canvasHeight    = 24
	historyCapacity = 240
	sliderWidth     = 14
)

type TickMsg time.Time

type Options struct {
	Dt    float64
	FPS   int
	Theme string
}

// Model is the terminal front end. Key presses become surface edits that are
// applied in the input phase of the next tick.
type Model struct {
	ctx     context.Context
	loop    *sim.Loop
	log     logging.Logger
	dt      float64
	fps     int
	canvas  *Canvas
	camera  *Camera
	theme   Theme
	styles  styles
	pending []sim.Input
	paused  bool
	frame   sim.Frame
	heights []float64
	err     error
}

func NewModel(ctx context.Context, loop *sim.Loop, opts Options, log logging.Logger) Model {
	if opts.Dt <= 0 {
		opts.Dt = config.DefaultDt
	}
	if opts.FPS <= 0 {
		opts.FPS = config.DefaultFPS
	}
	if log == nil {
		log = logging.Noop()
	}
	theme := GetTheme(opts.Theme)
	return Model{
		ctx:     ctx,
		loop:    loop,
		log:     log,
		dt:      opts.Dt,
		fps:     opts.FPS,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		camera:  NewCamera(),
		theme:   theme,
		styles:  newStyles(theme),
		heights: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Frame() sim.Frame { return m.frame }
func (m Model) Paused() bool     { return m.paused }
func (m Model) Err() error       { return m.err }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		if !m.paused {
			m.step()
		}
		if m.err != nil {
			return m, tea.Quit
		}
		DrawFrame(m.canvas, m.camera, m.frame)
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	surface := m.loop.Surface()
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "down", "j":
		surface.Next()
	case "shift+tab", "up", "k":
		surface.Prev()
	case "left", "h":
		m.queue(func(s *sim.Surface) { s.Adjust(-1) })
	case "right", "l":
		m.queue(func(s *sim.Surface) { s.Adjust(1) })
	case " ", "enter":
		m.queue((*sim.Surface).Restart)
	case "t":
		m.queue(func(s *sim.Surface) { s.ToggleTracing() })
	case "c":
		m.queue((*sim.Surface).ClearTrace)
	case "p":
		m.paused = !m.paused
	case "s":
		if m.paused {
			m.step()
			DrawFrame(m.canvas, m.camera, m.frame)
		}
	case "v":
		m.theme = NextTheme(m.theme)
		m.styles = newStyles(m.theme)
	case "x":
		m.camera.Orbit(0.1, 0)
	case "X":
		m.camera.Orbit(-0.1, 0)
	case "y":
		m.camera.Orbit(0, 0.1)
	case "Y":
		m.camera.Orbit(0, -0.1)
	case "+", "=":
		m.camera.ZoomIn()
	case "-", "_":
		m.camera.ZoomOut()
	case "0":
		m.camera.Reset()
	}
	return m, nil
}

// queue defers in to the next tick. While paused it is applied at once so
// restarts and edits show without single-stepping.
func (m *Model) queue(in sim.Input) {
	if !m.paused {
		m.pending = append(m.pending, in)
		return
	}
	pending := append(m.pending, in)
	m.pending = nil
	m.frame = m.loop.Apply(m.ctx, func(s *sim.Surface) {
		for _, in := range pending {
			in(s)
		}
	})
	if m.frame.Restarted {
		m.heights = m.heights[:0]
	}
	DrawFrame(m.canvas, m.camera, m.frame)
}

func (m *Model) step() {
	pending := m.pending
	m.pending = nil
	f, err := m.loop.Tick(m.ctx, m.dt, func(s *sim.Surface) {
		for _, in := range pending {
			in(s)
		}
	})
	if err != nil {
		m.err = err
		m.log.Error(m.ctx, "tick failed", logging.Err(err))
		return
	}
	if f.Restarted {
		m.heights = m.heights[:0]
	}
	if len(f.Traceable) > 0 {
		if len(m.heights) == historyCapacity {
			copy(m.heights, m.heights[1:])
			m.heights = m.heights[:historyCapacity-1]
		}
		m.heights = append(m.heights, f.Traceable[0].Y())
	}
	m.frame = f
}

func (m Model) View() string {
	left := m.styles.canvas.Render(m.canvas.Render())
	right := m.styles.panel.Render(m.panel())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) panel() string {
	st := m.styles
	surface := m.loop.Surface()
	f := m.frame

	var b strings.Builder
	b.WriteString(st.title.Render("DOUBLE PULLEY") + "\n")
	b.WriteString(st.separator(36) + "\n")

	for _, field := range sim.Fields() {
		lo, hi := surface.Range(field)
		v := surface.Value(field)
		label := field.Info().Label
		row := fmt.Sprintf("%s %s", Slider(v, lo, hi, sliderWidth), formatValue(field, v))
		if field == surface.Selected() {
			b.WriteString(st.active.Render("▸ ") + st.active.Width(12).Render(label) + st.active.Render(row) + "\n")
		} else {
			b.WriteString("  " + st.label.Width(12).Render(label) + st.value.Render(row) + "\n")
		}
	}

	check := "[ ]"
	if surface.Tracing() {
		check = "[x]"
	}
	b.WriteString("  " + st.label.Width(12).Render("trace") + st.value.Render(check) + "\n")
	b.WriteString(st.separator(36) + "\n")

	b.WriteString(st.label.Render("generation") + st.value.Render(fmt.Sprintf("%d", f.Generation)) + "\n")
	b.WriteString(st.label.Render("time") + st.value.Render(fmt.Sprintf("%.2fs", f.Time)) + "\n")
	b.WriteString(st.label.Render("markers") + st.value.Render(fmt.Sprintf("%d", f.Markers)) + "\n")
	b.WriteString(st.label.Render("cable error") + st.value.Render(fmt.Sprintf("%.2e", f.CableError)) + "\n")
	if m.paused {
		b.WriteString(st.warning.Render("PAUSED") + "\n")
	}

	if len(m.heights) > 1 {
		chart := asciigraph.Plot(m.heights, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("central y"))
		b.WriteString("\n" + st.graph.Render(chart) + "\n")
	}

	b.WriteString("\n" + st.hint("tab", "select") + st.hint("←→", "adjust") + st.hint("space", "start") + "\n")
	b.WriteString(st.hint("t", "trace") + st.hint("c", "clear") + st.hint("p", "pause") + st.hint("q", "quit") + "\n")
	return b.String()
}

func formatValue(f sim.Field, v float64) string {
	switch f {
	case sim.FieldIntegrationSubsteps, sim.FieldConstraintSubsteps:
		return fmt.Sprintf("%6.0f", v)
	case sim.FieldBaumgarte:
		return fmt.Sprintf("%6.3f", v)
	}
	return fmt.Sprintf("%6.2f", v)
}

// Run starts the terminal front end and blocks until it quits.
func Run(ctx context.Context, loop *sim.Loop, opts Options, log logging.Logger) error {
	final, err := tea.NewProgram(NewModel(ctx, loop, opts, log), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.err != nil {
		return m.err
	}
	return nil
}
