package app

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/cycle-arbitrage/business/exchange/domain"
	mdomain "github.com/fd1az/cycle-arbitrage/business/market/domain"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
)

// stubFetcher serves one pool's reserves, keyed by its lower address.
type stubFetcher struct {
	low, high   common.Address
	rLow, rHigh *big.Int
	err         error
	seen        []common.Address
}

func (s *stubFetcher) GetReserves(_ context.Context, _ domain.Exchange, a, b common.Address, _ uint64) (*big.Int, *big.Int, error) {
	s.seen = append(s.seen, a, b)
	if s.err != nil {
		return nil, nil, s.err
	}
	if a == s.low {
		return s.rLow, s.rHigh, nil
	}
	return s.rHigh, s.rLow, nil
}

var (
	tokA = asset.Token{Name: "A", Address: common.HexToAddress("0x01"), Decimals: 18}
	tokB = asset.Token{Name: "B", Address: common.HexToAddress("0x02"), Decimals: 6}
)

func e18(n int64) *big.Int { return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18)) }

func fixture() *stubFetcher {
	return &stubFetcher{
		low: tokA.Address, high: tokB.Address,
		rLow: e18(100), rHigh: new(big.Int).Mul(big.NewInt(200_000), big.NewInt(1e6)),
	}
}

func newQuoter(t *testing.T, f ReserveFetcher) *Quoter {
	t.Helper()
	reg := asset.NewRegistry()
	reg.Register(tokA)
	reg.Register(tokB)
	q, err := NewQuoter(f, reg, common.HexToAddress("0x0e"), logger.Nop())
	require.NoError(t, err)
	return q
}

func uniswap() domain.Exchange {
	return domain.Catalogue(asset.Production)[0]
}

func TestMeanPrice_QuoteAndGraph(t *testing.T) {
	q := newQuoter(t, fixture())
	g := mdomain.NewGraph()

	quote, err := q.MeanPrice(context.Background(), g, QuoteRequest{Exchange: uniswap(), TokenA: tokA, TokenB: tokB, Tick: 1})
	require.NoError(t, err)

	assert.Equal(t, "uniswap", quote.ExchangeName)
	assert.Equal(t, e18(1), quote.Amount)
	assert.Equal(t, "1974316068", quote.AmountOut.String())
	assert.Equal(t, uint8(6), quote.Decimals)
	assert.InDelta(t, 2000.0, quote.Price, 1e-9)
	assert.InDelta(t, 1974.316068, quote.TransactionPrice, 1e-9)

	assert.InDelta(t, 2000.0, g.Price(tokA, tokB), 1e-9)
	assert.InDelta(t, 1.0/2000, g.Price(tokB, tokA), 1e-12)

	recs := g.Reserves(tokA, tokB)
	require.Len(t, recs, 1)
	assert.Equal(t, e18(100), recs[0].ReserveA)
	assert.Equal(t, int64(3), recs[0].Fee)
}

func TestMeanPrice_ReverseDirection(t *testing.T) {
	q := newQuoter(t, fixture())
	g := mdomain.NewGraph()

	quote, err := q.MeanPrice(context.Background(), g, QuoteRequest{Exchange: uniswap(), TokenA: tokB, TokenB: tokA})
	require.NoError(t, err)
	assert.InDelta(t, 1.0/2000, quote.Price, 1e-12)
	assert.Equal(t, big.NewInt(1e6), quote.Amount)

	// canonical reserves regardless of the caller's order
	recs := g.Reserves(tokB, tokA)
	require.Len(t, recs, 1)
	assert.Equal(t, e18(100), recs[0].ReserveA)
	assert.InDelta(t, 2000.0, g.Price(tokA, tokB), 1e-9)
}

func TestMeanPrice_ExplicitAmount(t *testing.T) {
	q := newQuoter(t, fixture())

	quote, err := q.MeanPrice(context.Background(), nil, QuoteRequest{
		Exchange: uniswap(), TokenA: tokA, TokenB: tokB, AmountIn: e18(2),
	})
	require.NoError(t, err)
	assert.Equal(t, e18(2), quote.Amount)
	assert.Less(t, quote.TransactionPrice, 1974.316068)
}

func TestMeanPrice_ZeroAddressIsWETH(t *testing.T) {
	f := fixture()
	q := newQuoter(t, f)

	_, _ = q.MeanPrice(context.Background(), nil, QuoteRequest{Exchange: uniswap(), TokenA: asset.Token{}, TokenB: tokB})
	require.NotEmpty(t, f.seen)
	assert.Equal(t, common.HexToAddress("0x0e"), f.seen[0])
}

func TestMeanPrice_FetchError(t *testing.T) {
	f := fixture()
	f.err = errors.New("rpc down")
	q := newQuoter(t, f)
	g := mdomain.NewGraph()

	_, err := q.MeanPrice(context.Background(), g, QuoteRequest{Exchange: uniswap(), TokenA: tokA, TokenB: tokB})
	require.Error(t, err)
	assert.Empty(t, g.Tokens())
}

func TestMeanPrice_EmptyPool(t *testing.T) {
	f := fixture()
	f.rLow = new(big.Int)
	q := newQuoter(t, f)

	_, err := q.MeanPrice(context.Background(), nil, QuoteRequest{Exchange: uniswap(), TokenA: tokA, TokenB: tokB})
	assert.ErrorIs(t, err, domain.ErrInsufficientLiquidity)
}

func TestNormalize(t *testing.T) {
	q := newQuoter(t, fixture())

	got := q.Normalize(asset.Token{Address: tokB.Address})
	assert.Equal(t, "B", got.Name)
	assert.Equal(t, uint8(6), got.Decimals)

	unknown := q.Normalize(asset.Token{Address: common.HexToAddress("0x99")})
	assert.Equal(t, asset.DefaultDecimals, unknown.Decimals)
}
