package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mdomain "github.com/fd1az/cycle-arbitrage/business/market/domain"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
)

func TestCycleKey_IgnoresRotation(t *testing.T) {
	assert.Equal(t, cycleKey([]int{0, 1, 2, 0}), cycleKey([]int{1, 2, 0, 1}))
	assert.NotEqual(t, cycleKey([]int{0, 1, 2, 0}), cycleKey([]int{0, 2, 1, 0}))
}

func TestDetector_SnapshotToDecision(t *testing.T) {
	g := twoVenueGraph()
	exec := &recordingExecutor{}
	s := newScheduler(t, exec, SchedulerConfig{})
	d := NewDetector(s, g, 4, logger.Nop())

	cells, tokens := g.Snapshot()
	d.OnSnapshot(context.Background(), 11, cells, tokens)

	require.Equal(t, []uint64{11}, exec.calls)
	res := exec.results[0]
	assert.Equal(t, "A", res.Path[0].TokenName)
	assert.Positive(t, res.Profit().Sign())
}

func TestDetector_NoCycleNoEvaluation(t *testing.T) {
	g := twoVenueGraph()
	g.Remove(mdomain.NewTokenPair(tokA, tokB))
	exec := &recordingExecutor{}
	d := NewDetector(newScheduler(t, exec, SchedulerConfig{}), g, 4, logger.Nop())

	cells, tokens := g.Snapshot()
	d.OnSnapshot(context.Background(), 1, cells, tokens)

	assert.Zero(t, exec.count())
}
