package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/chainbreak/chainview/pkg/community"
	"github.com/chainbreak/chainview/pkg/config"
	"github.com/chainbreak/chainview/pkg/errors"
	"github.com/chainbreak/chainview/pkg/intel"
	"github.com/chainbreak/chainview/pkg/render"
	"github.com/chainbreak/chainview/pkg/session"
)

// Terminal cells are roughly twice as tall as wide; the vertical scale
// compensates so the graph keeps its aspect ratio on screen.
const cellAspect = 2.0

// viewTickInterval paces the TUI's simulation; slower than the session
// default because terminal redraws are the bottleneck, not the layout.
const viewTickInterval = 50 * time.Millisecond

// panStep is the screen-space pan distance per arrow key press.
const panStep = 20.0

var (
	viewTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	viewDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	viewErrStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("167"))
	viewStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// newViewCmd creates the view command: explore a graph interactively in
// the terminal.
func newViewCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "Explore a transaction graph interactively in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runView(cmd.Context(), cfg, args[0])
		},
	}
	return cmd
}

func runView(ctx context.Context, cfg config.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}

	cacheBackend, err := cfg.OpenCache(ctx)
	if err != nil {
		return err
	}

	m := &viewModel{}
	m.sess = session.New(session.Options{
		Layout: cfg.LayoutConfig(),
		// The TUI drives ticks itself so redraws and simulation steps stay
		// in lockstep.
		TickInterval: -1,
		Detector:     community.NewClient(cfg.Services.Detection, cacheBackend, loggerFromContext(ctx)),
		Intel:        intel.NewHTTPProvider(cfg.Services.ThreatIntel),
		Host:         &altScreenHost{},
		ExportPrefix: cfg.Export.Prefix,
		Callbacks: session.Callbacks{
			OnError: func(code errors.Code, msg string) {
				m.pushStatus(fmt.Sprintf("[%s] %s", code, msg))
			},
		},
	})
	defer m.sess.Close()

	if err := m.sess.LoadJSON(ctx, data); err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// altScreenHost satisfies the fullscreen contract for the terminal: the
// program already owns the alternate screen, so both requests trivially
// succeed and only the flag changes.
type altScreenHost struct{}

func (altScreenHost) EnterFullscreen(context.Context) error { return nil }
func (altScreenHost) ExitFullscreen(context.Context) error  { return nil }

// =============================================================================
// Bubbletea Model
// =============================================================================

type viewTickMsg time.Time

type viewModel struct {
	sess *session.Session

	width  int
	height int

	status   string
	statusAt time.Time
}

func (m *viewModel) pushStatus(s string) {
	m.status = s
	m.statusAt = time.Now()
}

func (m *viewModel) Init() tea.Cmd {
	return viewTick()
}

func viewTick() tea.Cmd {
	return tea.Tick(viewTickInterval, func(t time.Time) tea.Msg {
		return viewTickMsg(t)
	})
}

func (m *viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Two rows are reserved for the header and status line.
		m.sess.HandleResize(float64(msg.Width), float64(msg.Height-2)*cellAspect)
		return m, nil

	case viewTickMsg:
		m.sess.Tick()
		return m, viewTick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.sess.IsFullscreen() {
				m.sess.HostExitedFullscreen()
				return m, nil
			}
			return m, tea.Quit
		case "up":
			m.sess.Pan(0, panStep)
		case "down":
			m.sess.Pan(0, -panStep)
		case "left":
			m.sess.Pan(panStep, 0)
		case "right":
			m.sess.Pan(-panStep, 0)
		case "+", "=":
			m.sess.ZoomBy(1.2)
		case "-", "_":
			m.sess.ZoomBy(1 / 1.2)
		case "r":
			m.sess.ResetView()
		case "f":
			if m.sess.IsFullscreen() {
				_ = m.sess.ExitFullscreen(context.Background())
			} else {
				_ = m.sess.EnterFullscreen(context.Background())
			}
		case "c":
			if err := m.sess.DetectCommunities(context.Background(), community.Params{}); err == nil {
				m.pushStatus("community detection started")
			}
		case "i":
			go func() { _ = m.sess.RefreshIntel(context.Background()) }()
			m.pushStatus("threat-intel refresh started")
		case "e":
			if _, name, err := m.exportPNG(); err == nil {
				m.pushStatus("exported " + name)
			}
		}
		return m, nil
	}
	return m, nil
}

// exportPNG writes the current frame next to the working directory.
func (m *viewModel) exportPNG() ([]byte, string, error) {
	data, name, err := m.sess.ExportPNG()
	if err != nil {
		return nil, "", err
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return nil, "", err
	}
	return data, name, nil
}

func (m *viewModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "initializing..."
	}

	frame := m.sess.Frame()
	canvas := m.renderCanvas(frame)

	var b strings.Builder
	b.WriteString(viewTitleStyle.Render("chainview"))
	b.WriteString(viewDimStyle.Render("  arrows pan  +/- zoom  r reset  c communities  i intel  e export  f fullscreen  q quit"))
	b.WriteString("\n")
	b.WriteString(canvas)
	b.WriteString("\n")
	b.WriteString(m.statusLine(frame))
	return b.String()
}

// renderCanvas projects the frame's screen-space primitives onto the
// character grid. Nodes paint their cell with a kind or community color;
// flagged nodes always win the cell.
func (m *viewModel) renderCanvas(frame render.Frame) string {
	rows := m.height - 2
	if rows < 1 {
		rows = 1
	}
	type cell struct {
		ch      string
		color   string
		flagged bool
	}
	grid := make([][]cell, rows)
	for i := range grid {
		grid[i] = make([]cell, m.width)
	}

	put := func(x, y int, c cell) {
		if y < 0 || y >= rows || x < 0 || x >= m.width {
			return
		}
		if grid[y][x].flagged && !c.flagged {
			return
		}
		grid[y][x] = c
	}

	for _, e := range frame.Edges {
		drawLine(int(e.X1), int(e.Y1/cellAspect), int(e.X2), int(e.Y2/cellAspect), func(x, y int) {
			put(x, y, cell{ch: "·", color: "240"})
		})
	}
	for _, n := range frame.Nodes {
		ch := "●"
		if n.Flagged {
			ch = "✱"
		}
		put(int(n.X), int(n.Y/cellAspect), cell{ch: ch, color: termColor(n), flagged: n.Flagged})
	}

	var b strings.Builder
	for y := 0; y < rows; y++ {
		for x := 0; x < m.width; x++ {
			c := grid[y][x]
			if c.ch == "" {
				b.WriteString(" ")
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.color)).Render(c.ch))
		}
		if y < rows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// termColor maps a node's precedence bucket onto a terminal palette slot.
func termColor(n render.NodePrimitive) string {
	switch {
	case n.Flagged:
		return "167"
	case n.Community >= 0:
		// Cycle through distinguishable ANSI colors per community.
		palette := []string{"36", "35", "220", "75", "213", "208", "141", "119"}
		return palette[n.Community%len(palette)]
	default:
		return "255"
	}
}

func (m *viewModel) statusLine(frame render.Frame) string {
	scale, _, _ := m.sess.Transform()
	parts := []string{
		fmt.Sprintf("state %s", m.sess.State()),
		fmt.Sprintf("nodes %d", len(frame.Nodes)),
		fmt.Sprintf("zoom %.2f", scale),
	}
	if p := m.sess.Partition(); p != nil {
		parts = append(parts, fmt.Sprintf("communities %d (%s)", p.Count, p.Quality()))
	}
	line := viewStatusStyle.Render(strings.Join(parts, "  "))
	if m.status != "" && time.Since(m.statusAt) < 5*time.Second {
		line += "  " + viewErrStyle.Render(m.status)
	}
	return line
}

// drawLine rasterizes a straight segment onto the cell grid (Bresenham).
func drawLine(x1, y1, x2, y2 int, plot func(x, y int)) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x1, y1)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
