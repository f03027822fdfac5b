package infra

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/cycle-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
	"github.com/fd1az/cycle-arbitrage/pkg/ui"
)

func TestTUIReporter(t *testing.T) {
	var got []tea.Msg
	r := NewTUIReporter(func(msg tea.Msg) { got = append(got, msg) })

	r.OnDecision(context.Background(), domain.Decision{ID: "d1"})
	unnamed := asset.NewToken("", "0xabcdef0000000000000000000000000000000002", 18)
	r.OnSnapshot(context.Background(), 9, []float64{0, 1, 1, 0}, []asset.Token{
		asset.NewToken("WETH", "0x0000000000000000000000000000000000000001", 18),
		unnamed,
	})

	require.Len(t, got, 2)
	assert.Equal(t, "d1", got[0].(ui.DecisionMsg).Decision.ID)

	snap := got[1].(ui.SnapshotMsg)
	assert.Equal(t, uint64(9), snap.Tick)
	assert.Equal(t, []string{"WETH", unnamed.Address.Hex()[:8]}, snap.Tokens)
}
