package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/cycle-arbitrage/pkg/ui/components"
)

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "done", "failed"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseStartup   Phase = "startup"
	PhaseDashboard Phase = "dashboard"
)

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

var stepOrder = []string{"config", "ethereum", "modules", "server"}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	matrix    *components.MatrixComponent
	decisions *components.DecisionsComponent
	status    *components.StatusComponent
	stats     *components.StatsComponent

	keys KeyMap
	help help.Model

	phase    Phase
	quitting bool
	paused   bool
	width    int
	height   int

	currentBlock uint64
	counters     components.Stats
	lastUpdate   time.Time
	errors       []ErrorEntry
	activity     []string

	startupSteps map[string]*StartupStep
	startupTime  time.Time
}

// New creates a new TUI model.
func New() Model {
	return Model{
		matrix:    components.NewMatrixComponent(8),
		decisions: components.NewDecisionsComponent(50, 5),
		status:    components.NewStatusComponent(),
		stats:     components.NewStatsComponent(),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		phase:     PhaseStartup,
		startupSteps: map[string]*StartupStep{
			"config":   {Name: "Loading configuration", Status: "pending"},
			"ethereum": {Name: "Connecting to the chain", Status: "pending"},
			"modules":  {Name: "Starting modules", Status: "pending"},
			"server":   {Name: "Opening feed server", Status: "pending"},
		},
		startupTime: time.Now(),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Clear):
			m.decisions.Clear()
		case key.Matches(msg, m.keys.ClearErrors):
			m.errors = nil
		case key.Matches(msg, m.keys.Up):
			m.decisions.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.decisions.ScrollDown()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case TickMsg:
		return m, tickCmd()

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
		}
		if msg.Status == "failed" && msg.Message != "" {
			m = m.addError(msg.Message)
		}
		if m.startupDone() {
			m.phase = PhaseDashboard
		}

	case BlockMsg:
		if msg.Number == m.currentBlock {
			break
		}
		m.currentBlock = msg.Number
		m.counters.Blocks++
		m.lastUpdate = time.Now()
		m.activity = addActivity(m.activity, fmt.Sprintf("Block #%d", msg.Number))
		m.phase = PhaseDashboard

	case ConnectionStatusMsg:
		m.status.Update(components.ConnectionStatus{
			Name:       msg.Name,
			State:      msg.State,
			Connected:  msg.Connected,
			LastBlock:  m.currentBlock,
			LastUpdate: time.Now(),
		})

	case SessionsMsg:
		m.counters.Sessions = msg.Open

	case SnapshotMsg:
		m.counters.Snapshots++
		if !m.paused {
			m.matrix.Update(msg.Tick, msg.Tokens, msg.Cells)
		}
		m.lastUpdate = time.Now()

	case DecisionMsg:
		d := msg.Decision
		m.counters.Decisions++
		m.counters.TotalProfit = m.counters.TotalProfit.Add(d.Profit())
		m.activity = addActivity(m.activity,
			fmt.Sprintf("Decision on %s, profit %s", d.TokenName(), d.Profit().StringFixed(6)))
		if !m.paused {
			m.decisions.Add(decisionRow(msg))
		}
		m.lastUpdate = time.Now()

	case ErrorMsg:
		if msg.Error != nil {
			m = m.addError(msg.Error.Error())
		}

	case LogMsg:
		m.activity = addActivity(m.activity, fmt.Sprintf("%s: %s", msg.Level, msg.Message))
	}

	m.counters.Errors = len(m.errors)
	m.stats.Update(m.counters)
	return m, nil
}

func decisionRow(msg DecisionMsg) components.DecisionRow {
	d := msg.Decision
	steps := make([]string, 0, len(d.Result.Path))
	for _, step := range d.Result.Path {
		steps = append(steps, fmt.Sprintf("%s@%s", step.TokenName, step.ExchangeName))
	}
	return components.DecisionRow{
		Time:        d.Timestamp.Format("15:04:05"),
		BlockNumber: d.Tick,
		Token:       d.TokenName(),
		Route:       strings.Join(steps, " → "),
		StartAmount: d.StartAmount(),
		Profit:      d.Profit(),
		Fees:        d.Fees,
	}
}

func (m Model) startupDone() bool {
	for _, step := range m.startupSteps {
		if step.Status != "connected" && step.Status != "done" {
			return false
		}
	}
	return true
}

// addError keeps the last 3 errors.
func (m Model) addError(message string) Model {
	m.errors = append(m.errors, ErrorEntry{Message: message, Timestamp: time.Now()})
	if len(m.errors) > 3 {
		m.errors = m.errors[len(m.errors)-3:]
	}
	return m
}

// addActivity keeps the last 6 lines.
func addActivity(feed []string, message string) []string {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message)
	feed = append(feed, line)
	if len(feed) > 6 {
		feed = feed[len(feed)-6:]
	}
	return feed
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}
	if m.phase == PhaseStartup {
		return m.renderStartupScreen()
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" Cycle Arbitrage "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	leftCol := m.matrix.View() + "\n\n" + m.stats.View()
	rightCol := m.renderActivity() + "\n\n" + m.decisions.View()

	if m.width > 120 {
		left := BoxStyle.Width(m.width/2 - 2).Render(leftCol)
		right := BoxStyle.Width(m.width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		width := max(m.width-4, 40)
		b.WriteString(BoxStyle.Width(width).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width).Render(rightCol))
	}
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		b.WriteString(DangerStyle.Bold(true).Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(DangerStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.paused {
		b.WriteString(PausedStyle.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) renderActivity() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("LIVE ACTIVITY"))
	sb.WriteString("\n\n")

	if len(m.activity) == 0 {
		sb.WriteString(MutedValue.Render("  Waiting for blocks..."))
		return sb.String()
	}
	for _, line := range m.activity {
		if strings.Contains(line, "Block #") {
			sb.WriteString(BlockStyle.Render("  " + line))
		} else {
			sb.WriteString(MutedValue.Render("  " + line))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderStartupScreen() string {
	var sb strings.Builder

	sb.WriteString("\n\n")
	sb.WriteString(HeaderStyle.Render("  Cycle Arbitrage"))
	sb.WriteString("\n\n")
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("  Starting up..."))
	sb.WriteString("\n\n")

	for _, k := range stepOrder {
		step := m.startupSteps[k]

		var icon, text string
		var style lipgloss.Style
		switch step.Status {
		case "connected", "done":
			icon, text, style = "✓", "Ready", SuccessStyle
		case "connecting":
			spinners := []string{"◐", "◓", "◑", "◒"}
			idx := int(time.Since(m.startupTime).Milliseconds()/200) % len(spinners)
			icon, text, style = spinners[idx], "Connecting...", WarningStyle
		case "failed":
			icon, text, style = "✗", "Failed", DangerStyle
		default:
			icon, text, style = "○", "Pending", MutedValue
		}

		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			style.Render(icon),
			MutedValue.Render(step.Name),
			style.Render(text),
		))
	}

	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render(fmt.Sprintf("  Elapsed: %s", time.Since(m.startupTime).Round(time.Second))))
	sb.WriteString("\n")

	for _, err := range m.errors {
		sb.WriteString(DangerStyle.Render("  " + err.Message))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderStatusBar() string {
	parts := []string{fmt.Sprintf("Block: #%d", m.currentBlock)}

	if v := m.status.View(); v != "No connections" {
		parts = append(parts, v)
	}
	parts = append(parts, fmt.Sprintf("Sessions: %d", m.counters.Sessions))

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}
	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// Send sends a message to the running program. It is a no-op before the
// program exists.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
