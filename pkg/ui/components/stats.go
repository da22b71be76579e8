// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds engine counters for display.
type Stats struct {
	Indicators int
	Attempts   uint64
	Failures   uint64
	Rejected   uint64
	Dropped    uint64
	Failing    []string
}

// StatsComponent renders engine statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	failuresDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Failures))
	if s.stats.Failures > 0 {
		failuresDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Failures))
	}

	out := style.Render("ENGINE") + "  " +
		fmt.Sprintf("Indicators: %s  │  Fetches: %s  │  Failures: %s  │  Stale: %s  │  Dropped: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Indicators)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Attempts)),
			failuresDisplay,
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Rejected)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Dropped)),
		)
	if n := len(s.stats.Failing); n > 0 {
		out += "  │  " + errorStyle.Render(fmt.Sprintf("Failing: %d", n))
	}
	return out
}
