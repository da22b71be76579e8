// Package ui provides the Bubble Tea TUI for the bridge status dashboard.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/bridge-status/business/status/domain"
	"github.com/fd1az/bridge-status/pkg/ui/components"
)

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "failed"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseStartup   Phase = "startup"   // Loading/connecting
	PhaseDashboard Phase = "dashboard" // Main dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

var stepOrder = []string{"config", "base", "rollup", "indicators"}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	grid  *components.StatusGrid
	stats *components.StatsComponent
	keys  KeyMap
	help  help.Model

	// Phase state
	phase        Phase
	welcomeStart time.Time

	// State
	quitting   bool
	switching  bool
	width      int
	height     int
	layer      string
	lastUpdate time.Time
	updates    uint64
	errors     []ErrorEntry // Persistent error panel (last 3)
	logs       []string     // Recent log messages

	// Startup state
	startupComplete bool
	startupSteps    map[string]*StartupStep
	startupTime     time.Time
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		grid:         components.NewStatusGrid(),
		stats:        components.NewStatsComponent(),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		phase:        PhaseWelcome,
		welcomeStart: now,
		logs:         make([]string, 0, 5),
		errors:       make([]ErrorEntry, 0, 3),
		startupSteps: map[string]*StartupStep{
			"config":     {Name: "Loading configuration", Status: "pending"},
			"base":       {Name: "Connecting to base chain", Status: "pending"},
			"rollup":     {Name: "Connecting to rollup", Status: "pending"},
			"indicators": {Name: "Building indicators", Status: "pending"},
		},
		startupTime: now,
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m *Model) startModules() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// Trigger callback directly (don't use Send() from within Update)
	if OnStartModules != nil {
		go OnStartModules()
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Always allow quit
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		// During welcome phase, any other key skips to startup
		if m.phase == PhaseWelcome {
			m.startModules()
			return m, tickCmd()
		}
		return m.handleKey(msg), nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.startModules()
		}
		return m, tickCmd()

	case SnapshotMsg:
		cards := make([]components.StatusCard, 0, len(msg.Statuses))
		for _, st := range msg.Statuses {
			cards = append(cards, toCard(st))
		}
		m.grid.Set(cards)
		m.lastUpdate = time.Now()

	case StatusMsg:
		m.grid.Update(toCard(msg.Status))
		m.updates++
		m.lastUpdate = time.Now()

	case LayerMsg:
		m.layer = msg.Layer
		m.switching = false
		m.startupComplete = true
		m.phase = PhaseDashboard
		for _, step := range m.startupSteps {
			step.Status = "done"
		}
		m.logs = addLog(m.logs, "info", fmt.Sprintf("%s active with %d indicators", msg.Layer, msg.Indicators))
		for _, e := range msg.BuildErrors {
			m.errors = addError(m.errors, e)
		}

	case StatsMsg:
		s := components.Stats{
			Indicators: len(msg.Stats.Indicators),
			Dropped:    msg.Dropped,
			Failing:    msg.Stats.Failing(),
		}
		for _, in := range msg.Stats.Indicators {
			s.Attempts += in.Attempts
			s.Failures += in.Failures
			s.Rejected += in.Rejected
		}
		m.stats.Update(s)

	case ErrorMsg:
		m.switching = false
		m.logs = addLog(m.logs, "error", msg.Error.Error())
		m.errors = addError(m.errors, msg.Error.Error())
		if m.phase == PhaseStartup && !m.startupComplete {
			if step := m.startupSteps["indicators"]; step != nil {
				step.Status = "failed"
			}
		}

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)
		if msg.Level == "error" {
			m.errors = addError(m.errors, msg.Message)
		}

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) Model {
	cols := components.Columns(m.width)
	switch {
	case key.Matches(msg, m.keys.Up):
		m.grid.Move(-cols)
	case key.Matches(msg, m.keys.Down):
		m.grid.Move(cols)
	case key.Matches(msg, m.keys.Left):
		m.grid.Move(-1)
	case key.Matches(msg, m.keys.Right):
		m.grid.Move(1)
	case key.Matches(msg, m.keys.Open):
		if card, ok := m.grid.Selected(); ok && card.Href != "" && OnOpenLink != nil {
			go OnOpenLink(card.Href)
			m.logs = addLog(m.logs, "info", "opened "+card.Href)
		}
	case key.Matches(msg, m.keys.Layer):
		if !m.switching && OnSwitchLayer != nil {
			m.switching = true
			go OnSwitchLayer()
		}
	case key.Matches(msg, m.keys.ClearErrors):
		m.errors = make([]ErrorEntry, 0, 3)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m
}

func toCard(st domain.Status) components.StatusCard {
	return components.StatusCard{
		ID:      st.ID,
		Header:  st.Header,
		Value:   st.Value.String(),
		Color:   st.Color.String(),
		Tooltip: st.Tooltip,
		Href:    st.Href(),
	}
}

// addLog adds a log message and returns the updated slice (keeps last 5).
func addLog(logs []string, level, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	logLine := fmt.Sprintf("[%s] %s: %s", timestamp, level, message)
	logs = append(logs, logLine)
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// addError adds an error and returns the updated slice (keeps last 3).
func addError(errs []ErrorEntry, message string) []ErrorEntry {
	errs = append(errs, ErrorEntry{Message: message, Timestamp: time.Now()})
	if len(errs) > 3 {
		errs = errs[len(errs)-3:]
	}
	return errs
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		if !m.startupComplete {
			return m.renderStartupScreen()
		}
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" Bridge Status "))
	if m.layer != "" {
		b.WriteString(" ")
		b.WriteString(LayerStyle.Render(m.layer))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	b.WriteString(m.grid.View(m.width))
	b.WriteString("\n\n")

	if card, ok := m.grid.Selected(); ok {
		b.WriteString(m.renderTooltip(card))
		b.WriteString("\n\n")
	}

	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	// Persistent error panel (show last 3 errors)
	if len(m.errors) > 0 {
		errorStyle := lipgloss.NewStyle().Foreground(ColorDanger)
		errorHeader := lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
		mutedError := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

		b.WriteString(errorHeader.Render("ERRORS"))
		b.WriteString(mutedError.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(mutedError.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.switching {
		switchStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)
		b.WriteString(switchStyle.Render("⟳ switching layer"))
		b.WriteString(" • ")
	}
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) renderTooltip(card components.StatusCard) string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render(card.Header))
	sb.WriteString("\n")
	sb.WriteString(card.Tooltip)
	if card.Href != "" {
		sb.WriteString("\n")
		sb.WriteString(LinkStyle.Render(card.Href))
	}

	width := m.width - 4
	if width < 20 {
		width = 20
	}
	return TooltipStyle.Width(width).Render(sb.String())
}

func (m Model) renderStatusBar() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Indicators: %d", m.grid.Len()))
	parts = append(parts, fmt.Sprintf("Updates: %d", m.updates))

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		indicator := ""
		if ago < 2*time.Second {
			indicator = "▪" // Recent activity indicator
		}
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago %s", ago, indicator)))
	}

	if n := len(m.logs); n > 0 {
		parts = append(parts, MutedValue.Render(m.logs[n-1]))
	}

	return strings.Join(parts, "  │  ")
}

// renderWelcomeScreen renders the animated welcome screen.
func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED"))

	mutedStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	greenStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981"))

	// Animated dots based on time
	elapsed := time.Since(m.welcomeStart)
	dotCount := int(elapsed.Milliseconds()/300) % 4
	dots := strings.Repeat(".", dotCount)

	var sb strings.Builder

	sb.WriteString("\n\n\n\n")

	logo := `
   ██████╗ ██████╗ ██╗██████╗  ██████╗ ███████╗
   ██╔══██╗██╔══██╗██║██╔══██╗██╔════╝ ██╔════╝
   ██████╔╝██████╔╝██║██║  ██║██║  ███╗█████╗
   ██╔══██╗██╔══██╗██║██║  ██║██║   ██║██╔══╝
   ██████╔╝██║  ██║██║██████╔╝╚██████╔╝███████╗
   ╚═════╝ ╚═╝  ╚═╝╚═╝╚═════╝  ╚═════╝ ╚══════╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")

	sb.WriteString(mutedStyle.Render("               S T A T U S"))
	sb.WriteString("\n\n\n")

	sb.WriteString(greenStyle.Render(fmt.Sprintf("              Initializing%s", dots)))
	sb.WriteString("\n\n")

	sb.WriteString(mutedStyle.Render("        Press any key to skip, or wait..."))
	sb.WriteString("\n")

	return sb.String()
}

// renderStartupScreen renders the loading/startup screen.
func (m Model) renderStartupScreen() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		MarginBottom(1)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF"))

	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	connectingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	failedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var sb strings.Builder

	sb.WriteString("\n\n")
	sb.WriteString(titleStyle.Render("  Bridge Status"))
	sb.WriteString("\n\n")
	sb.WriteString(headerStyle.Render("  Starting up..."))
	sb.WriteString("\n\n")

	for _, name := range stepOrder {
		step, ok := m.startupSteps[name]
		if !ok {
			continue
		}

		var icon, statusText string
		var style lipgloss.Style

		switch step.Status {
		case "connected", "done":
			icon = "✓"
			statusText = "Ready"
			style = successStyle
		case "connecting":
			spinners := []string{"◐", "◓", "◑", "◒"}
			idx := int(time.Since(m.startupTime).Milliseconds()/200) % len(spinners)
			icon = spinners[idx]
			statusText = "Connecting..."
			style = connectingStyle
		case "failed":
			icon = "✗"
			statusText = "Failed"
			style = failedStyle
		default:
			icon = "○"
			statusText = "Pending"
			style = mutedStyle
		}

		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			style.Render(icon),
			mutedStyle.Render(step.Name),
			style.Render(statusText),
		))
	}

	sb.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n")

	if len(m.errors) > 0 {
		sb.WriteString("\n")
		sb.WriteString(failedStyle.Render("  " + m.errors[len(m.errors)-1].Message))
		sb.WriteString("\n")
	}

	return sb.String()
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
// This is set by main.go to signal when to begin loading modules.
var OnStartModules func()

// OnSwitchLayer is called when the user asks for the other layer.
var OnSwitchLayer func()

// OnOpenLink is called with the resolved link of the selected indicator.
var OnOpenLink func(url string)

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
	// Call OnStartModules callback when StartModulesMsg is sent
	if _, ok := msg.(StartModulesMsg); ok && OnStartModules != nil {
		OnStartModules()
	}
}
