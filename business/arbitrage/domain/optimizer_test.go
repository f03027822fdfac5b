package domain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mdomain "github.com/fd1az/cycle-arbitrage/business/market/domain"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

// threeVenueChain builds A→B→C→D with three fee-3 venues per hop. Addresses
// ascend so each record's A side is the hop's input.
func threeVenueChain() *Hop {
	tokens := []asset.Token{tok("A", 1), tok("B", 2), tok("C", 3), tok("D", 4)}
	reserves := [][][2]int64{
		{{1, 1800}, {100, 120000}, {100, 110000}},
		{{1000, 550}, {1000, 560}, {1000, 570}},
		{{1000, 23000}, {1000, 25000}, {1000, 24500}},
	}
	names := []string{"v1", "v2", "v3"}

	var head, tail *Hop
	for i, hop := range reserves {
		a, b := tokens[i], tokens[i+1]
		h := &Hop{TokenA: a, TokenB: b}
		for j, r := range hop {
			h.Candidates = append(h.Candidates, record(venue(names[j], 3), a, b, e18(r[0]), e18(r[1])))
		}
		if head == nil {
			head = h
		} else {
			tail.Next = h
		}
		tail = h
	}
	return head
}

func whole(raw *big.Int) int64 {
	return new(big.Int).Quo(raw, e18(1)).Int64()
}

func TestOptimalPrice_FindsProfitMaximum(t *testing.T) {
	res, err := DefaultOptimizer().OptimalPrice(threeVenueChain())
	require.NoError(t, err)

	assert.EqualValues(t, 68, whole(res.AmountIn))
	assert.EqualValues(t, 8941, whole(res.AmountOut))
	assert.Positive(t, res.Profit().Sign())

	// one step per hop plus the closing token
	require.Len(t, res.Path, 4)
	assert.Equal(t, "v2", res.Path[0].ExchangeName)
	assert.Equal(t, "A", res.Path[0].TokenName)
	assert.Equal(t, "D", res.Path[3].TokenName)
}

func TestOptimalPrice_IsLocalMaximum(t *testing.T) {
	chain := threeVenueChain()
	res, err := DefaultOptimizer().OptimalPrice(chain)
	require.NoError(t, err)

	profitAt := func(n int64) *big.Int {
		out, _, err := chain.Price(e18(n))
		require.NoError(t, err)
		return out.Sub(out, e18(n))
	}
	best := res.Profit()
	assert.GreaterOrEqual(t, best.Cmp(profitAt(10)), 0)
	assert.GreaterOrEqual(t, best.Cmp(profitAt(500)), 0)
}

func TestOptimalPrice_NoSolution(t *testing.T) {
	a, b := tok("A", 1), tok("B", 2)
	chain := &Hop{TokenA: a, TokenB: b, Candidates: []mdomain.ReserveFeeInfo{
		record(venue("uniswap", 3), a, b, e18(1000), e18(500)),
	}}

	_, err := DefaultOptimizer().OptimalPrice(chain)
	assert.ErrorIs(t, err, ErrNoSolution)
}

func TestOptimalPrice_IterationCap(t *testing.T) {
	o := NewOptimizer(0, 10000, 1)

	_, err := o.OptimalPrice(threeVenueChain())
	assert.ErrorIs(t, err, ErrNoSolution)
}

func TestOptimalPrice_NilChain(t *testing.T) {
	_, err := DefaultOptimizer().OptimalPrice(nil)
	assert.ErrorIs(t, err, ErrChainTooShort)
}
