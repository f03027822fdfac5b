package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Stats holds counters for display.
type Stats struct {
	Blocks      uint64
	Snapshots   uint64
	Decisions   uint64
	Sessions    int
	TotalProfit decimal.Decimal
	Errors      int
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Blocks: %s  │  Snapshots: %s  │  Decisions: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Blocks)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Snapshots)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Decisions)),
		) +
		fmt.Sprintf("Sessions: %s  │  Profit: %s  │  Errors: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Sessions)),
			valueStyle.Render(s.stats.TotalProfit.StringFixed(6)),
			errorsDisplay,
		)
}
