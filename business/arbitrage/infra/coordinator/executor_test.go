package coordinator

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/cycle-arbitrage/business/arbitrage/app"
	"github.com/fd1az/cycle-arbitrage/business/arbitrage/domain"
	bdomain "github.com/fd1az/cycle-arbitrage/business/blockchain/domain"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
)

var (
	coord  = common.HexToAddress("0x69FBa73a3D24A538f7E10eE0190B7Dc8Bb332fdF")
	router = common.HexToAddress("0xF76921660f6fcDb161A59c77d5daE6Be5ae89D20")
	weth   = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdt   = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
)

type fakeFees struct {
	fees bdomain.Fees
	err  error
	to   common.Address
}

func (f *fakeFees) Estimate(_ context.Context, to common.Address, _ []byte) (bdomain.Fees, error) {
	f.to = to
	return f.fees, f.err
}

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func winner() domain.OptimumResult {
	return domain.OptimumResult{
		AmountIn:  e18(2),
		AmountOut: new(big.Int).Add(e18(2), big.NewInt(500_000_000_000_000_000)),
		Path: []domain.ExecutionStep{
			{Intermediary: coord, Token: weth, TokenName: "ETH", RoutingData: router, ExchangeName: "uniswap"},
			{Intermediary: coord, Token: usdt, TokenName: "Tether", RoutingData: router, ExchangeName: "uniswap"},
			{Intermediary: coord, Token: weth, TokenName: "ETH", RoutingData: router, ExchangeName: "uniswap"},
		},
	}
}

func TestExecutor_PackRoundTrips(t *testing.T) {
	e, err := NewExecutor(nil, logger.Nop())
	require.NoError(t, err)

	to, data, err := e.Pack(winner())
	require.NoError(t, err)
	assert.Equal(t, coord, to)

	parsed, err := abi.JSON(strings.NewReader(CoordinatorABI))
	require.NoError(t, err)
	method := parsed.Methods[methodInitiate]
	assert.Equal(t, method.ID, data[:4])

	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, args, 5)
	assert.Equal(t, e18(2), args[0])
	assert.Equal(t, coord, args[1])
	assert.Equal(t, []common.Address{coord, coord, coord}, args[2])
	assert.Equal(t, []common.Address{weth, usdt, weth}, args[3])
	assert.Equal(t, []common.Address{router, router, router}, args[4])
}

func TestExecutor_PackNeedsSteps(t *testing.T) {
	e, err := NewExecutor(nil, logger.Nop())
	require.NoError(t, err)

	_, _, err = e.Pack(domain.OptimumResult{AmountIn: e18(1), AmountOut: e18(2)})
	assert.ErrorIs(t, err, domain.ErrInvalidPath)
}

func TestExecutor_ExecuteNotifiesListeners(t *testing.T) {
	fees := &fakeFees{fees: bdomain.Fees{GasLimit: 100_000, GasPrice: big.NewInt(10_000_000_000)}}
	e, err := NewExecutor(fees, logger.Nop())
	require.NoError(t, err)

	var got []domain.Decision
	e.AddListener(app.DecisionListenerFunc(func(_ context.Context, d domain.Decision) {
		got = append(got, d)
	}))

	require.NoError(t, e.Execute(context.Background(), 99, winner()))
	require.Len(t, got, 1)

	d := got[0]
	assert.NotEmpty(t, d.ID)
	assert.EqualValues(t, 99, d.Tick)
	assert.Equal(t, coord, fees.to)
	assert.Equal(t, "2", d.StartAmount().String())
	assert.Equal(t, "0.5", d.Profit().String())
	assert.Equal(t, "ETH", d.TokenName())
	require.NotNil(t, d.Fees)
	assert.Equal(t, "0.001", d.Fees.String())
}

func TestExecutor_FeeFailureStillPublishes(t *testing.T) {
	e, err := NewExecutor(&fakeFees{err: errors.New("rpc down")}, logger.Nop())
	require.NoError(t, err)

	var got int
	e.AddListener(app.DecisionListenerFunc(func(_ context.Context, d domain.Decision) {
		got++
		assert.Nil(t, d.Fees)
	}))

	require.NoError(t, e.Execute(context.Background(), 1, winner()))
	assert.Equal(t, 1, got)
}
