package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/go-disc-burn/internal/orchestrator"
	"github.com/randomizedcoder/go-disc-burn/internal/parser"
)

// =============================================================================
// Messages
// =============================================================================

// TickMsg is sent periodically to refresh the elapsed time.
type TickMsg time.Time

// StatusMsg replaces the status line.
type StatusMsg string

// OutputMsg replaces the tool transcript.
type OutputMsg string

// OutputLineMsg appends one transcript line, or replaces the final one.
type OutputLineMsg struct {
	Line    string
	Replace bool
}

// ProgressMsg carries the current progress state.
type ProgressMsg parser.ProgressState

// NotificationMsg carries the latest notification.
type NotificationMsg orchestrator.Notification

// DoneMsg signals the session finished; the TUI exits.
type DoneMsg struct {
	Err error
}

// =============================================================================
// Model
// =============================================================================

// Layout rows used by everything except the output pane.
const chromeHeight = 14

// Model represents the TUI state.
type Model struct {
	// Configuration
	command     string
	target      string
	device      string
	simulation  bool
	metricsAddr string

	// Current state
	status       string
	transcript   *parser.Transcript
	outputDirty  bool
	progress     parser.ProgressState
	notification *orchestrator.Notification
	running      bool
	err          error
	startTime    time.Time

	// Display options
	width  int
	height int
	follow bool

	bar      progress.Model
	spinner  spinner.Model
	viewport viewport.Model

	quitting bool
}

// Config holds TUI configuration.
type Config struct {
	Command     string
	Target      string
	Device      string
	Simulation  bool
	MetricsAddr string
}

// New creates a new TUI model.
func New(cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	m := Model{
		command:     cfg.Command,
		target:      cfg.Target,
		device:      cfg.Device,
		simulation:  cfg.Simulation,
		metricsAddr: cfg.MetricsAddr,
		status:      "Waiting",
		transcript:  &parser.Transcript{},
		progress:    parser.ProgressState{ETA: parser.ETAPlaceholder},
		startTime:   time.Now(),
		width:       80,
		height:      24,
		follow:      true,
		bar:         progress.New(progress.WithDefaultGradient()),
		spinner:     s,
		viewport:    viewport.New(76, 10),
	}
	m.resize()
	return m
}

// =============================================================================
// Bubble Tea Interface
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	// tea.WithAltScreen() is passed when creating the program.
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "f":
			m.follow = !m.follow
			if m.follow {
				m.viewport.GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case TickMsg:
		// line updates are batched into one viewport refresh per tick
		if m.outputDirty {
			m.refreshOutput()
		}
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StatusMsg:
		m.status = string(msg)
		m.running = true
		return m, nil

	case OutputMsg:
		m.transcript.SetText(string(msg))
		m.refreshOutput()
		return m, nil

	case OutputLineMsg:
		if msg.Replace {
			m.transcript.ReplaceLastLine(msg.Line)
		} else {
			m.transcript.AppendLine(msg.Line)
		}
		m.outputDirty = true
		return m, nil

	case ProgressMsg:
		m.progress = parser.ProgressState(msg)
		return m, nil

	case NotificationMsg:
		n := orchestrator.Notification(msg)
		m.notification = &n
		// the final notification of a run is never a progress one
		m.running = n.Kind == orchestrator.NotifyProgress
		return m, nil

	case DoneMsg:
		m.err = msg.Err
		m.running = false
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderView()
}

// refreshOutput copies the transcript into the viewport.
func (m *Model) refreshOutput() {
	m.viewport.SetContent(m.transcript.String())
	if m.follow {
		m.viewport.GotoBottom()
	}
	m.outputDirty = false
}

// resize fits the output pane and the progress bar to the window.
func (m *Model) resize() {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	h := m.height - chromeHeight
	if h < 3 {
		h = 3
	}
	m.viewport.Width = w
	m.viewport.Height = h

	barWidth := m.width - 40
	if barWidth < 10 {
		barWidth = 10
	}
	m.bar.Width = barWidth
}

// =============================================================================
// Commands
// =============================================================================

// tickCmd returns a command that sends a tick after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// =============================================================================
// Accessors
// =============================================================================

// Elapsed returns the time since the TUI started.
func (m Model) Elapsed() time.Duration {
	return time.Since(m.startTime)
}

// Status returns the current status line.
func (m Model) Status() string {
	return m.status
}

// Progress returns the last progress state received.
func (m Model) Progress() parser.ProgressState {
	return m.progress
}

// Running reports whether a run is in flight.
func (m Model) Running() bool {
	return m.running
}

// Err returns the error the session finished with.
func (m Model) Err() error {
	return m.err
}
