package domain_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/cycle-arbitrage/business/exchange/domain"
	"github.com/fd1az/cycle-arbitrage/internal/apperror"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func TestGetAmountOut(t *testing.T) {
	out, err := domain.GetAmountOut(e18(1), e18(100), e18(200), 3)
	require.NoError(t, err)

	// 1e18·997·200e18 / (100e18·1000 + 997e18)
	want, _ := new(big.Int).SetString("1974316068794122597", 10)
	assert.Equal(t, want.String(), out.String())
}

func TestGetAmountOut_Edges(t *testing.T) {
	out, err := domain.GetAmountOut(big.NewInt(0), e18(1), e18(1), 3)
	require.NoError(t, err)
	assert.Zero(t, out.Sign())

	_, err = domain.GetAmountOut(big.NewInt(-1), e18(1), e18(1), 3)
	assert.ErrorIs(t, err, domain.ErrInsufficientInputAmount)

	_, err = domain.GetAmountOut(big.NewInt(1), big.NewInt(0), e18(1), 3)
	assert.ErrorIs(t, err, domain.ErrInsufficientLiquidity)
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientLiquidity))
}

func TestGetAmountIn_Edges(t *testing.T) {
	_, err := domain.GetAmountIn(big.NewInt(0), e18(1), e18(1), 3)
	assert.ErrorIs(t, err, domain.ErrInsufficientOutputAmount)

	_, err = domain.GetAmountIn(e18(1), e18(1), e18(1), 3)
	assert.ErrorIs(t, err, domain.ErrInsufficientLiquidity, "out must be below reserveOut")
}

func TestAMM_RoundTrip(t *testing.T) {
	const rate = 1800
	reserveIn := e18(100)
	reserveOut := e18(100 * rate)

	for _, x := range []*big.Int{big.NewInt(1_000), e18(1), e18(7), e18(50)} {
		out, err := domain.GetAmountOut(x, reserveIn, reserveOut, 3)
		require.NoError(t, err)

		// Never better than the spot rate.
		assert.LessOrEqual(t, new(big.Int).Div(out, x).Int64(), int64(rate))

		in, err := domain.GetAmountIn(out, reserveIn, reserveOut, 3)
		require.NoError(t, err)
		assert.LessOrEqual(t, in.Cmp(new(big.Int).Add(x, big.NewInt(1))), 0, "amountIn overshoots by more than 1")

		back, err := domain.GetAmountOut(in, reserveIn, reserveOut, 3)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, back.Cmp(out), 0, "GetAmountIn must buy at least the requested output")
	}
}

func TestSortTokens(t *testing.T) {
	a := common.HexToAddress("0x02")
	b := common.HexToAddress("0x01")

	t0, t1, err := domain.SortTokens(a, b)
	require.NoError(t, err)
	assert.Equal(t, b, t0)
	assert.Equal(t, a, t1)

	_, _, err = domain.SortTokens(a, a)
	assert.ErrorIs(t, err, domain.ErrIdenticalAddresses)

	_, _, err = domain.SortTokens(common.Address{}, a)
	assert.ErrorIs(t, err, domain.ErrZeroAddress)
}

func TestPairFor_UniswapMainnet(t *testing.T) {
	uni, err := domain.Lookup("Uniswap", asset.Production)
	require.NoError(t, err)

	// The canonical USDC/WETH V2 pool.
	pair, err := uni.PairAddress(asset.WETH.Address, asset.USDC.Address)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc"), pair)

	swapped, err := uni.PairAddress(asset.USDC.Address, asset.WETH.Address)
	require.NoError(t, err)
	assert.Equal(t, pair, swapped)
}

func TestCatalogue(t *testing.T) {
	dev := domain.Catalogue(asset.Development)
	require.Len(t, dev, 3)
	for _, e := range dev {
		assert.True(t, e.Routable(), e.Name)
		assert.Equal(t, asset.Development, e.Environment)
	}

	pcs, err := domain.Lookup("pancakeswap", asset.Development)
	require.NoError(t, err)
	assert.EqualValues(t, 2, pcs.Fee)
	assert.Equal(t, "pancakeswap@development", pcs.Key())

	_, err = domain.Lookup("pancakeswap", asset.Production)
	assert.ErrorIs(t, err, domain.ErrUnknownExchange)
}
