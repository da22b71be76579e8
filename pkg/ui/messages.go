// Package ui provides the Bubble Tea TUI for the bridge status dashboard.
package ui

import (
	"github.com/fd1az/bridge-status/business/status/app"
	"github.com/fd1az/bridge-status/business/status/domain"
)

// Message types for TUI updates

// SnapshotMsg replaces every indicator card, e.g. after a layer switch.
type SnapshotMsg struct {
	Statuses []domain.Status
}

// StatusMsg is sent when an indicator accepts a new value.
type StatusMsg struct {
	Status domain.Status
}

// LayerMsg is sent when a layer has been activated.
type LayerMsg struct {
	Layer       string
	Indicators  int
	BuildErrors []string
}

// StatsMsg carries the engine counters.
type StatsMsg struct {
	Stats   app.EngineStats
	Dropped uint64
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // Current step name
	Status  string // "connecting", "connected", "failed"
	Message string // Optional message
}
