package domain_test

import (
	"fmt"
	"math"
	"math/big"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exdomain "github.com/fd1az/cycle-arbitrage/business/exchange/domain"
	"github.com/fd1az/cycle-arbitrage/business/market/domain"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

var (
	venueA = exdomain.Exchange{Name: "uniswap", Environment: asset.Development, Kind: exdomain.KindConstantProduct, Fee: 3}
	venueB = exdomain.Exchange{Name: "apeswap", Environment: asset.Development, Kind: exdomain.KindConstantProduct, Fee: 3}
)

func token(i int) asset.Token {
	return asset.NewToken(fmt.Sprintf("T%d", i), fmt.Sprintf("0x%040x", i+1), 18)
}

func TestTokenPair_Canonical(t *testing.T) {
	a, b := token(1), token(2)

	assert.Equal(t, domain.NewTokenPair(a, b), domain.NewTokenPair(b, a))
	assert.True(t, domain.NewTokenPair(b, a).Equal(domain.NewTokenPair(a, b)))
	assert.Equal(t, a, domain.NewTokenPair(b, a).A)

	g := domain.NewGraph()
	g.Insert(b, a, domain.ReserveFeeInfo{Exchange: venueA, SpotBA: domain.Float(2)})

	ab := g.Reserves(a, b)
	ba := g.Reserves(b, a)
	require.Len(t, ab, 1)
	assert.Equal(t, ab, ba)
	assert.Equal(t, a, ab[0].TokenA, "record is stored in canonical order")
}

func TestGraph_MergeNotOverwrite(t *testing.T) {
	a, b := token(1), token(2)
	g := domain.NewGraph()

	g.Insert(a, b, domain.ReserveFeeInfo{Exchange: venueA, SpotAB: domain.Float(4)})
	g.Insert(b, a, domain.ReserveFeeInfo{Exchange: venueA, SpotBA: domain.Float(0.25)})

	assert.Equal(t, 4.0, g.Price(a, b))
	assert.Equal(t, 0.25, g.Price(b, a))

	// Re-inserting one direction leaves the other alone.
	g.Insert(a, b, domain.ReserveFeeInfo{Exchange: venueA, SpotAB: domain.Float(5)})
	assert.Equal(t, 5.0, g.Price(a, b))
	assert.Equal(t, 0.25, g.Price(b, a))

	// A nil spot in the matching direction changes nothing.
	g.Insert(a, b, domain.ReserveFeeInfo{Exchange: venueA})
	assert.Equal(t, 5.0, g.Price(a, b))
}

func TestGraph_RefreshesReserves(t *testing.T) {
	a, b := token(1), token(2)
	g := domain.NewGraph()

	g.Insert(a, b, domain.ReserveFeeInfo{Exchange: venueA, ReserveA: big.NewInt(1), ReserveB: big.NewInt(2)})
	g.Insert(b, a, domain.ReserveFeeInfo{Exchange: venueA, ReserveA: big.NewInt(10), ReserveB: big.NewInt(20), Fee: 2})

	rs := g.Reserves(a, b)
	require.Len(t, rs, 1)
	assert.Equal(t, int64(10), rs[0].ReserveA.Int64())
	assert.Equal(t, int64(20), rs[0].ReserveB.Int64())
	assert.EqualValues(t, 2, rs[0].Fee)
}

func TestGraph_PriceIsBestAcrossVenues(t *testing.T) {
	a, b, c := token(1), token(2), token(3)
	g := domain.NewGraph()

	g.Insert(a, b, domain.ReserveFeeInfo{Exchange: venueA, SpotAB: domain.Float(3)})
	g.Insert(a, b, domain.ReserveFeeInfo{Exchange: venueB, SpotAB: domain.Float(3.5)})

	assert.Equal(t, 3.5, g.Price(a, b))
	assert.Equal(t, 0.0, g.Price(b, a), "unobserved direction counts as 0")
	assert.Equal(t, 1.0, g.Price(c, c))
	assert.True(t, math.IsInf(g.Price(a, c), 1))

	rs := g.Reserves(a, b)
	require.Len(t, rs, 2)
	assert.Equal(t, "apeswap", rs[0].Exchange.Name, "records ordered by venue key")
	assert.Nil(t, g.Reserves(a, c))
}

func TestGraph_Remove(t *testing.T) {
	a, b := token(1), token(2)
	g := domain.NewGraph()
	g.Insert(a, b, domain.ReserveFeeInfo{Exchange: venueA, SpotAB: domain.Float(1)})
	g.Insert(a, b, domain.ReserveFeeInfo{Exchange: venueB, SpotAB: domain.Float(1)})

	g.Remove(domain.NewTokenPair(b, a))

	assert.Nil(t, g.Reserves(a, b))
	assert.True(t, math.IsInf(g.Price(a, b), 1))
	assert.Len(t, g.Tokens(), 2, "tokens are not pruned")
	assert.Zero(t, g.PairCount())
}

func TestGraph_SnapshotFidelity(t *testing.T) {
	const n = 200
	rng := rand.New(rand.NewPCG(1, 2))
	g := domain.NewGraph()

	want := make([]float64, n*n)
	for i := range n {
		want[i*n+i] = 1
		for j := i + 1; j < n; j++ {
			r := 0.01 + rng.Float64()*100
			g.Insert(token(i), token(j), domain.ReserveFeeInfo{Exchange: venueA, SpotAB: domain.Float(r)})
			g.Insert(token(j), token(i), domain.ReserveFeeInfo{Exchange: venueA, SpotBA: domain.Float(1 / r)})
			want[i*n+j] = r
			want[j*n+i] = 1 / r
		}
	}

	cells, tokens := g.Snapshot()
	require.Len(t, tokens, n)
	require.Len(t, cells, n*n)
	for i := range n {
		assert.Equal(t, token(i), tokens[i])
	}
	assert.Equal(t, want, cells)
}

func TestGraph_ConcurrentAccess(t *testing.T) {
	g := domain.NewGraph()
	var wg sync.WaitGroup

	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				a, b := token(w), token(w+i+1)
				g.Insert(a, b, domain.ReserveFeeInfo{Exchange: venueA, SpotAB: domain.Float(float64(i + 1))})
				_, _ = g.Snapshot()
				_ = g.Price(a, b)
			}
		}()
	}
	wg.Wait()

	cells, tokens := g.Snapshot()
	assert.Len(t, cells, len(tokens)*len(tokens))
	for i := 1; i < len(tokens); i++ {
		assert.True(t, tokens[i-1].Less(tokens[i]))
	}
}

func TestReserveFeeInfo_AmountOut(t *testing.T) {
	a, b := token(1), token(2)
	info := domain.ReserveFeeInfo{
		Exchange: venueA, TokenA: a, TokenB: b, Fee: 3,
		ReserveA: big.NewInt(1_000_000), ReserveB: big.NewInt(2_000_000),
	}

	outAB, err := info.AmountOut(big.NewInt(1000), a)
	require.NoError(t, err)
	outBA, err := info.AmountOut(big.NewInt(1000), b)
	require.NoError(t, err)

	assert.Greater(t, outAB.Int64(), outBA.Int64(), "a is the scarcer side")

	_, err = domain.ReserveFeeInfo{Exchange: venueA, TokenA: a, TokenB: b}.AmountOut(big.NewInt(1), a)
	assert.ErrorIs(t, err, exdomain.ErrInsufficientLiquidity)
}
