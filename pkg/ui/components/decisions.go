package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// DecisionRow is one executed decision in the feed.
type DecisionRow struct {
	Time        string
	BlockNumber uint64
	Token       string
	Route       string
	StartAmount decimal.Decimal
	Profit      decimal.Decimal
	Fees        *decimal.Decimal
}

// DecisionsComponent renders the newest-first decision list.
type DecisionsComponent struct {
	rows    []DecisionRow
	maxRows int
	visible int
	offset  int
}

func NewDecisionsComponent(maxRows, visible int) *DecisionsComponent {
	return &DecisionsComponent{maxRows: maxRows, visible: visible}
}

// Add prepends row and drops the oldest beyond maxRows.
func (d *DecisionsComponent) Add(row DecisionRow) {
	d.rows = append([]DecisionRow{row}, d.rows...)
	if len(d.rows) > d.maxRows {
		d.rows = d.rows[:d.maxRows]
	}
	if d.offset > 0 {
		d.offset++
	}
}

func (d *DecisionsComponent) Clear() {
	d.rows = nil
	d.offset = 0
}

func (d *DecisionsComponent) Len() int { return len(d.rows) }

func (d *DecisionsComponent) ScrollUp() {
	if d.offset > 0 {
		d.offset--
	}
}

func (d *DecisionsComponent) ScrollDown() {
	if d.offset+d.visible < len(d.rows) {
		d.offset++
	}
}

// View renders the decisions component.
func (d *DecisionsComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	if len(d.rows) == 0 {
		return headerStyle.Render("DECISIONS") + "\n\nNo decisions yet..."
	}

	profitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	end := min(d.offset+d.visible, len(d.rows))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("DECISIONS (%d-%d of %d)", d.offset+1, end, len(d.rows))))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("  %-8s  %9s  %-6s  %12s  %12s  %10s\n", "Time", "Block", "Token", "Start", "Profit", "Fees"))
	sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", 66)) + "\n")

	for _, row := range d.rows[d.offset:end] {
		fees := "-"
		if row.Fees != nil {
			fees = row.Fees.StringFixed(5)
		}
		sb.WriteString(fmt.Sprintf("  %-8s  %9d  %-6s  %12s  %s  %10s\n",
			row.Time,
			row.BlockNumber,
			label(row.Token),
			row.StartAmount.StringFixed(4),
			profitStyle.Render(fmt.Sprintf("%12s", row.Profit.StringFixed(6))),
			fees,
		))
		sb.WriteString(dimStyle.Render("    "+row.Route) + "\n")
	}
	return sb.String()
}
