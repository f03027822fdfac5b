package uniswapv2

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/cycle-arbitrage/business/exchange/domain"
	"github.com/fd1az/cycle-arbitrage/internal/apperror"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
)

type fakeCaller struct {
	out   []byte
	err   error
	calls atomic.Int32
	to    atomic.Value
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls.Add(1)
	f.to.Store(*msg.To)
	return f.out, f.err
}

func packReserves(t *testing.T, r0, r1 int64) []byte {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(PairABI))
	require.NoError(t, err)
	out, err := parsed.Methods[methodGetReserves].Outputs.Pack(big.NewInt(r0), big.NewInt(r1), uint32(7))
	require.NoError(t, err)
	return out
}

func newFetcher(t *testing.T, caller ContractCaller) *Fetcher {
	t.Helper()
	f, err := NewFetcher(caller, Config{CacheTTL: 0}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return f
}

var (
	low  = common.HexToAddress("0x1000000000000000000000000000000000000001")
	high = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

func uniswap() domain.Exchange {
	return domain.Catalogue(asset.Production)[0]
}

func TestFetcher_OrdersReservesToCaller(t *testing.T) {
	caller := &fakeCaller{out: packReserves(t, 100, 250)}
	f := newFetcher(t, caller)

	ra, rb, err := f.GetReserves(context.Background(), uniswap(), low, high, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(100), ra.Int64())
	assert.Equal(t, int64(250), rb.Int64())

	ra, rb, err = f.GetReserves(context.Background(), uniswap(), high, low, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(250), ra.Int64())
	assert.Equal(t, int64(100), rb.Int64())

	pair, err := uniswap().PairAddress(low, high)
	require.NoError(t, err)
	assert.Equal(t, pair, caller.to.Load().(common.Address))
}

func TestFetcher_CachesPerTick(t *testing.T) {
	caller := &fakeCaller{out: packReserves(t, 1, 2)}
	f := newFetcher(t, caller)
	ctx := context.Background()

	for range 3 {
		_, _, err := f.GetReserves(ctx, uniswap(), low, high, 42)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), caller.calls.Load())

	_, _, err := f.GetReserves(ctx, uniswap(), high, low, 43)
	require.NoError(t, err)
	assert.Equal(t, int32(2), caller.calls.Load())

	// tick 0 always reads through
	_, _, _ = f.GetReserves(ctx, uniswap(), low, high, 0)
	_, _, _ = f.GetReserves(ctx, uniswap(), low, high, 0)
	assert.Equal(t, int32(4), caller.calls.Load())
}

func TestFetcher_CallFailure(t *testing.T) {
	f := newFetcher(t, &fakeCaller{err: errors.New("execution reverted")})

	_, _, err := f.GetReserves(context.Background(), uniswap(), low, high, 1)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeContractCallFailed))
}

func TestFetcher_ShortResponse(t *testing.T) {
	f := newFetcher(t, &fakeCaller{out: []byte{0x01}})

	_, _, err := f.GetReserves(context.Background(), uniswap(), low, high, 1)
	assert.True(t, apperror.Is(err, apperror.CodeContractCallFailed))
}

func TestFetcher_IdenticalTokens(t *testing.T) {
	caller := &fakeCaller{}
	f := newFetcher(t, caller)

	_, _, err := f.GetReserves(context.Background(), uniswap(), low, low, 1)
	assert.ErrorIs(t, err, domain.ErrIdenticalAddresses)
	assert.Zero(t, caller.calls.Load())
}
