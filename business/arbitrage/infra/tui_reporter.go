package infra

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/cycle-arbitrage/business/arbitrage/app"
	"github.com/fd1az/cycle-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
	"github.com/fd1az/cycle-arbitrage/pkg/ui"
)

var _ app.DecisionListener = (*TUIReporter)(nil)

// TUIReporter forwards decisions and store snapshots to the dashboard.
type TUIReporter struct {
	send func(tea.Msg)
}

// NewTUIReporter sends through send, or ui.Send when nil.
func NewTUIReporter(send func(tea.Msg)) *TUIReporter {
	if send == nil {
		send = ui.Send
	}
	return &TUIReporter{send: send}
}

func (r *TUIReporter) OnDecision(_ context.Context, d domain.Decision) {
	r.send(ui.DecisionMsg{Decision: d})
}

// OnSnapshot matches the store's snapshot callback.
func (r *TUIReporter) OnSnapshot(_ context.Context, tick uint64, cells []float64, tokens []asset.Token) {
	names := make([]string, len(tokens))
	for i, t := range tokens {
		names[i] = t.Name
		if names[i] == "" {
			names[i] = t.Address.Hex()[:8]
		}
	}
	r.send(ui.SnapshotMsg{Tick: tick, Tokens: names, Cells: cells})
}
