package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ConnectionStatus is one upstream's state as shown in the status panel.
type ConnectionStatus struct {
	Name       string
	State      string
	Connected  bool
	LastBlock  uint64
	LastUpdate time.Time
}

// StatusComponent renders connection status.
type StatusComponent struct {
	connections []ConnectionStatus
}

func NewStatusComponent() *StatusComponent {
	return &StatusComponent{}
}

// Update upserts status by name.
func (s *StatusComponent) Update(status ConnectionStatus) {
	for i, conn := range s.connections {
		if conn.Name == status.Name {
			s.connections[i] = status
			return
		}
	}
	s.connections = append(s.connections, status)
}

// View renders one line per connection.
func (s *StatusComponent) View() string {
	if len(s.connections) == 0 {
		return "No connections"
	}

	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	badStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	parts := make([]string, 0, len(s.connections))
	for _, conn := range s.connections {
		if conn.Connected {
			parts = append(parts, okStyle.Render("● "+conn.Name))
			continue
		}
		state := conn.State
		if state == "" {
			state = "disconnected"
		}
		parts = append(parts, badStyle.Render(fmt.Sprintf("○ %s (%s)", conn.Name, state)))
	}
	return strings.Join(parts, "  │  ")
}
