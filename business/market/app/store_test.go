package app_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exdomain "github.com/fd1az/cycle-arbitrage/business/exchange/domain"
	"github.com/fd1az/cycle-arbitrage/business/market/app"
	"github.com/fd1az/cycle-arbitrage/business/market/domain"
	"github.com/fd1az/cycle-arbitrage/internal/apperror"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
)

func TestRegistry_CreateGetRemove(t *testing.T) {
	r := app.NewRegistry(logger.Nop())

	first := r.CreateStore()
	second := r.CreateStore()
	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, r.Count())

	s, err := r.Get(second)
	require.NoError(t, err)
	assert.Equal(t, second, s.ID())

	r.Remove(first)
	_, err = r.Get(first)
	assert.True(t, apperror.Is(err, apperror.CodeStoreNotFound))

	third := r.CreateStore()
	assert.NotEqual(t, first, third, "ids are not reused")
}

func TestRegistry_ConcurrentCreate(t *testing.T) {
	r := app.NewRegistry(logger.Nop())

	var mu sync.Mutex
	seen := make(map[int]bool)
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := r.CreateStore()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 50)
}

func TestStore_Dispatch(t *testing.T) {
	r := app.NewRegistry(logger.Nop())
	s, err := r.Get(r.CreateStore())
	require.NoError(t, err)

	// No callback: nothing to do.
	s.Dispatch(context.Background(), 1)

	venue := exdomain.Exchange{Name: "uniswap", Environment: asset.Development}
	s.Graph().Insert(asset.TKABSCTestnet, asset.TKBBSCTestnet,
		domain.ReserveFeeInfo{Exchange: venue, SpotAB: domain.Float(2)})

	var gotTick uint64
	var gotCells []float64
	var gotTokens []asset.Token
	s.OnSnapshot(func(_ context.Context, tick uint64, cells []float64, tokens []asset.Token) {
		gotTick, gotCells, gotTokens = tick, cells, tokens
	})

	s.Dispatch(context.Background(), 42)

	assert.Equal(t, uint64(42), gotTick)
	require.Len(t, gotTokens, 2)
	require.Len(t, gotCells, 4)
	assert.Equal(t, 1.0, gotCells[0])
	assert.Equal(t, s.Graph().Price(gotTokens[0], gotTokens[1]), gotCells[1])
}
