package controller

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	m "spectra.dev/pkg/spectra/internal/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Faint(true)
	highStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	mediumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	lowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

const (
	headerHeight = 2
	footerHeight = 2
	defaultTitle = "spectra"
)

// TUI implements UI with a scrollable Bubble Tea dashboard.
type TUI struct {
	output io.Writer

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the dashboard in the background.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := newStartConfig(options...)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program != nil {
		return nil
	}

	title := cfg.title
	if title == "" {
		title = defaultTitle
	}

	model := newDashboardModel(title, cfg.mode)

	// Get initial terminal size
	if f, ok := t.output.(*os.File); ok {
		if width, height, err := term.GetSize(int(f.Fd())); err == nil {
			model = model.resize(width, height)
		}
	}

	t.program = tea.NewProgram(model, tea.WithOutput(t.output), tea.WithAltScreen(), tea.WithContext(ctx))
	t.done = make(chan struct{})

	program, done := t.program, t.done

	go func() {
		defer close(done)

		_, _ = program.Run()
	}()

	return nil
}

// Close stops the dashboard.
func (t *TUI) Close(_ context.Context) {
	program, done := t.current()
	if program == nil {
		return
	}

	program.Quit()
	<-done

	t.mu.Lock()
	t.program, t.done = nil, nil
	t.mu.Unlock()
}

// Wait blocks until the user quits the dashboard.
func (t *TUI) Wait(ctx context.Context) {
	program, done := t.current()
	if program == nil {
		return
	}

	program.Send(finishedMsg{})

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// DisplayGeneration appends a progress line.
func (t *TUI) DisplayGeneration(_ context.Context, stats m.GenerationStats) {
	t.send(generationMsg(stats))
}

// DisplayEvolutionResult shows the final table.
func (t *TUI) DisplayEvolutionResult(_ context.Context, result m.EvolutionResult) error {
	t.send(evolutionMsg(result))
	return nil
}

// DisplayReport shows the ranked lines.
func (t *TUI) DisplayReport(_ context.Context, report m.Report) error {
	t.send(reportMsg(report))
	return nil
}

// DisplaySessions shows the stored sessions.
func (t *TUI) DisplaySessions(_ context.Context, sessions []m.SessionInfo) error {
	t.send(sessionsMsg(sessions))
	return nil
}

func (t *TUI) current() (*tea.Program, chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.program, t.done
}

func (t *TUI) send(msg tea.Msg) {
	if program, _ := t.current(); program != nil {
		program.Send(msg)
	}
}

type (
	generationMsg m.GenerationStats
	evolutionMsg  m.EvolutionResult
	reportMsg     m.Report
	sessionsMsg   []m.SessionInfo
	finishedMsg   struct{}
)

// dashboardModel renders everything the workflow reported into a viewport.
type dashboardModel struct {
	title       string
	mode        StartMode
	viewport    viewport.Model
	ready       bool
	finished    bool
	generations []string
	evolution   *m.EvolutionResult
	report      *m.Report
	sessions    []m.SessionInfo
	sessionsSet bool
}

func newDashboardModel(title string, mode StartMode) dashboardModel {
	return dashboardModel{title: title, mode: mode}
}

func (d dashboardModel) Init() tea.Cmd {
	return nil
}

func (d dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	follow := false

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d = d.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return d, tea.Quit
		case "g", "home":
			d.viewport.GotoTop()
			return d, nil
		case "G", "end":
			d.viewport.GotoBottom()
			return d, nil
		}

	case generationMsg:
		d.generations = append(d.generations, renderGenerationLine(m.GenerationStats(msg)))
		follow = true

	case evolutionMsg:
		result := m.EvolutionResult(msg)
		d.evolution = &result
		follow = true

	case reportMsg:
		report := m.Report(msg)
		d.report = &report

	case sessionsMsg:
		d.sessions = msg
		d.sessionsSet = true

	case finishedMsg:
		d.finished = true
	}

	if d.ready {
		d.viewport.SetContent(d.content())

		if follow {
			d.viewport.GotoBottom()
		}
	}

	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)

	return d, cmd
}

func (d dashboardModel) resize(width, height int) dashboardModel {
	height -= headerHeight + footerHeight
	if height < 1 {
		height = 1
	}

	if !d.ready {
		d.viewport = viewport.New(width, height)
		d.ready = true
	} else {
		d.viewport.Width = width
		d.viewport.Height = height
	}

	d.viewport.SetContent(d.content())

	return d
}

func (d dashboardModel) content() string {
	var b strings.Builder

	for _, line := range d.generations {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if d.evolution != nil {
		b.WriteString("\n")
		b.WriteString(renderEvolutionTable(*d.evolution))
		b.WriteString("\n")
		b.WriteString(renderEvolutionSummary(*d.evolution))
	}

	if d.report != nil {
		b.WriteString(renderReportSummary(*d.report))

		if len(d.report.TopLines) > 0 {
			b.WriteString("\n")
			b.WriteString(renderReportTable(*d.report))
		}

		for _, rec := range d.report.Recommendations {
			b.WriteString(priorityStyle(rec.Priority).Render("[" + string(rec.Priority) + "] "))
			b.WriteString(rec.Message)
			b.WriteByte('\n')
		}
	}

	if d.sessionsSet {
		if len(d.sessions) == 0 {
			b.WriteString("No stored sessions\n")
		} else {
			b.WriteString(renderSessionsTable(d.sessions))
		}
	}

	return b.String()
}

func (d dashboardModel) View() string {
	if !d.ready {
		return "\n  Initializing..."
	}

	help := "↑/↓ scroll • g/G top/bottom • q quit"
	if !d.finished && d.mode == ModeEvolve {
		help = "evolving... • " + help
	}

	return titleStyle.Render(d.title) + "\n\n" +
		d.viewport.View() + "\n" +
		footerStyle.Render(help)
}

func priorityStyle(p m.Priority) lipgloss.Style {
	switch p {
	case m.PriorityHigh:
		return highStyle
	case m.PriorityMedium:
		return mediumStyle
	default:
		return lowStyle
	}
}
