package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// matrix builds an n×n rate matrix with 1 on the diagonal and +Inf elsewhere.
func matrix(n int, rates map[[2]int]float64) []float64 {
	cells := make([]float64, n*n)
	for i := range n {
		for j := range n {
			cells[i*n+j] = math.Inf(1)
		}
		cells[i*n+i] = 1
	}
	for k, r := range rates {
		cells[k[0]*n+k[1]] = r
	}
	return cells
}

func TestWeights(t *testing.T) {
	w := Weights([]float64{1, 0, math.Inf(1), math.E})

	assert.Zero(t, w[0])
	assert.True(t, math.IsInf(w[1], 1))
	assert.True(t, math.IsInf(w[2], 1))
	assert.InDelta(t, -1, w[3], 1e-12)
}

func TestFindCycle_ThroughSource(t *testing.T) {
	cells := matrix(3, map[[2]int]float64{
		{0, 1}: 2, {1, 2}: 2, {2, 0}: 0.3,
		{1, 0}: 0.5, {2, 1}: 0.5, {0, 2}: 3,
	})

	path, ok := FindCycle(cells, 3, 0)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1, 2, 0}, path)
}

func TestFindCycle_AwayFromSource(t *testing.T) {
	// 1→2→3→1 gains 10%; 0 only reaches it through 1.
	cells := matrix(4, map[[2]int]float64{
		{0, 1}: 1, {1, 0}: 1,
		{1, 2}: 1.1, {2, 3}: 1, {3, 1}: 1,
	})

	path, ok := FindCycle(cells, 4, 0)
	require.True(t, ok)
	require.Len(t, path, 4)
	assert.ElementsMatch(t, []int{1, 2, 3}, path[:3])
	assert.Equal(t, path[0], path[3])
	assert.NotContains(t, path, 0)
}

func TestFindCycle_NoArbitrage(t *testing.T) {
	cells := matrix(3, map[[2]int]float64{
		{0, 1}: 2, {1, 0}: 0.5,
		{1, 2}: 3, {2, 1}: 1.0 / 3,
		{0, 2}: 6, {2, 0}: 1.0 / 6.5,
	})

	_, ok := FindCycle(cells, 3, 0)
	assert.False(t, ok)
}

func TestFindCycle_BadInput(t *testing.T) {
	_, ok := FindCycle([]float64{1}, 1, 0)
	assert.False(t, ok)

	_, ok = FindCycle(make([]float64, 3), 2, 0)
	assert.False(t, ok)

	_, ok = FindCycle(matrix(2, nil), 2, 5)
	assert.False(t, ok)
}
