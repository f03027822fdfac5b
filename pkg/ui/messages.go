// Package ui provides the Bubble Tea dashboard of the arbitrage engine.
package ui

import (
	"time"

	"github.com/fd1az/cycle-arbitrage/business/arbitrage/domain"
)

// Message types for TUI updates

// SnapshotMsg carries a price graph snapshot taken for a tick.
type SnapshotMsg struct {
	Tick   uint64
	Tokens []string
	Cells  []float64
}

// DecisionMsg is sent for every decision the executor produces.
type DecisionMsg struct {
	Decision domain.Decision
}

// BlockMsg is sent when a new head is observed.
type BlockMsg struct {
	Number    uint64
	Timestamp time.Time
}

// ConnectionStatusMsg reports an upstream's state.
type ConnectionStatusMsg struct {
	Name      string
	State     string
	Connected bool
}

// SessionsMsg reports the number of open feed sessions.
type SessionsMsg struct {
	Open int
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg drives redraws.
type TickMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg reports the progress of one startup step.
type StartupMsg struct {
	Step    string // "config", "ethereum", "modules", "server"
	Status  string // "connecting", "connected", "done", "failed"
	Message string
}
