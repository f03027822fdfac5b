// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// MatrixComponent renders the best-rate grid of a graph snapshot. Row i,
// column j is the rate for one unit of token i into token j.
type MatrixComponent struct {
	tick    uint64
	tokens  []string
	cells   []float64
	maxSize int
}

// NewMatrixComponent shows at most maxSize tokens per side.
func NewMatrixComponent(maxSize int) *MatrixComponent {
	return &MatrixComponent{maxSize: maxSize}
}

// Update replaces the grid. cells is row-major with len(tokens)² entries;
// mismatched input is ignored.
func (m *MatrixComponent) Update(tick uint64, tokens []string, cells []float64) {
	if len(cells) != len(tokens)*len(tokens) {
		return
	}
	m.tick = tick
	m.tokens = tokens
	m.cells = cells
}

// Size is the number of tokens in the last snapshot.
func (m *MatrixComponent) Size() int { return len(m.tokens) }

// Rate returns cell (i, j), 0 outside the grid.
func (m *MatrixComponent) Rate(i, j int) float64 {
	n := len(m.tokens)
	if i < 0 || j < 0 || i >= n || j >= n {
		return 0
	}
	return m.cells[i*n+j]
}

// View renders the matrix component.
func (m *MatrixComponent) View() string {
	if len(m.tokens) == 0 {
		return "Waiting for a snapshot..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	rateStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

	n := min(len(m.tokens), m.maxSize)

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("RATES (block #%d, %d tokens)", m.tick, len(m.tokens))))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  %-8s", ""))
	for j := 0; j < n; j++ {
		sb.WriteString(fmt.Sprintf(" %10s", label(m.tokens[j])))
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", 8+11*n)) + "\n")

	for i := 0; i < n; i++ {
		sb.WriteString(fmt.Sprintf("  %-8s", label(m.tokens[i])))
		for j := 0; j < n; j++ {
			r := m.Rate(i, j)
			switch {
			case i == j:
				sb.WriteString(dimStyle.Render(fmt.Sprintf(" %10s", "·")))
			case r == 0:
				sb.WriteString(dimStyle.Render(fmt.Sprintf(" %10s", "-")))
			default:
				sb.WriteString(rateStyle.Render(fmt.Sprintf(" %10s", formatRate(r))))
			}
		}
		sb.WriteString("\n")
	}

	if len(m.tokens) > n {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  … %d more tokens", len(m.tokens)-n)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func label(name string) string {
	if len(name) > 8 {
		return name[:8]
	}
	return name
}

func formatRate(r float64) string {
	switch {
	case r >= 1e6:
		return fmt.Sprintf("%.3g", r)
	case r >= 1:
		return fmt.Sprintf("%.4f", r)
	default:
		return fmt.Sprintf("%.6f", r)
	}
}
