package infra

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/bridge-status/business/status/app"
	"github.com/fd1az/bridge-status/business/status/domain"
	"github.com/fd1az/bridge-status/pkg/ui"
)

// Ensure TUIReporter implements Reporter.
var _ app.Reporter = (*TUIReporter)(nil)

// Sender delivers messages to a running Bubble Tea program.
type Sender interface {
	Send(msg tea.Msg)
}

// TUIReporter implements Reporter for the Bubble Tea TUI.
type TUIReporter struct {
	program Sender
}

// NewTUIReporter creates a reporter sending to program.
func NewTUIReporter(program Sender) *TUIReporter {
	return &TUIReporter{program: program}
}

// Snapshot replaces every card of the TUI.
func (r *TUIReporter) Snapshot(statuses []domain.Status) {
	r.program.Send(ui.SnapshotMsg{Statuses: statuses})
}

// Report sends one accepted update to the TUI.
func (r *TUIReporter) Report(status domain.Status) {
	r.program.Send(ui.StatusMsg{Status: status})
}
