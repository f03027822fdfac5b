package domain

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exdomain "github.com/fd1az/cycle-arbitrage/business/exchange/domain"
	mdomain "github.com/fd1az/cycle-arbitrage/business/market/domain"
	"github.com/fd1az/cycle-arbitrage/internal/apperror"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), asset.Token{Decimals: 18}.Unit())
}

func tok(name string, b byte) asset.Token {
	return asset.Token{Name: name, Address: common.BytesToAddress([]byte{b}), Decimals: 18}
}

func venue(name string, fee int64) exdomain.Exchange {
	return exdomain.Exchange{
		Name:        name,
		Environment: asset.Development,
		Kind:        exdomain.KindConstantProduct,
		Fee:         fee,
		Router:      common.HexToAddress("0xF76921660f6fcDb161A59c77d5daE6Be5ae89D20"),
		Coordinator: common.HexToAddress("0x69FBa73a3D24A538f7E10eE0190B7Dc8Bb332fdF"),
	}
}

func record(ex exdomain.Exchange, a, b asset.Token, ra, rb *big.Int) mdomain.ReserveFeeInfo {
	return mdomain.ReserveFeeInfo{Exchange: ex, TokenA: a, TokenB: b, ReserveA: ra, ReserveB: rb, Fee: ex.Fee}
}

func TestBuildChain_Errors(t *testing.T) {
	g := mdomain.NewGraph()
	tokens := []asset.Token{tok("A", 1), tok("B", 2)}

	_, err := BuildChain([]int{0}, tokens, g)
	assert.ErrorIs(t, err, ErrChainTooShort)

	_, err = BuildChain([]int{0, 5}, tokens, g)
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestBuildChain_LinksHops(t *testing.T) {
	a, b, c := tok("A", 1), tok("B", 2), tok("C", 3)
	g := mdomain.NewGraph()
	g.Insert(a, b, record(venue("uniswap", 3), a, b, e18(10), e18(20)))
	g.Insert(b, c, record(venue("uniswap", 3), b, c, e18(10), e18(20)))

	chain, err := BuildChain([]int{0, 1, 2, 0}, []asset.Token{a, b, c}, g)
	require.NoError(t, err)

	assert.Equal(t, 3, chain.Len())
	assert.Equal(t, []asset.Token{a, b, c, a}, chain.Tokens())
	assert.Len(t, chain.Candidates, 1)
	assert.Empty(t, chain.Last().Candidates, "c/a was never inserted")
}

func TestHopPrice_NoReserve(t *testing.T) {
	h := &Hop{TokenA: tok("A", 1), TokenB: tok("B", 2)}

	_, _, err := h.Price(e18(1))
	assert.ErrorIs(t, err, ErrNoReserve)
}

func TestHopPrice_PicksBestVenue(t *testing.T) {
	a, b := tok("A", 1), tok("B", 2)
	h := &Hop{TokenA: a, TokenB: b, Candidates: []mdomain.ReserveFeeInfo{
		record(venue("uniswap", 3), a, b, e18(100), e18(1000)),
		record(venue("pancakeswap", 2), a, b, e18(100), e18(1000)),
	}}

	out, path, err := h.Price(e18(1))
	require.NoError(t, err)

	want, err := exdomain.GetAmountOut(e18(1), e18(100), e18(1000), 2)
	require.NoError(t, err)
	assert.Equal(t, want, out)

	require.Len(t, path, 2)
	assert.Equal(t, "pancakeswap", path[0].ExchangeName)
	assert.Equal(t, a.Address, path[0].Token)
	assert.Equal(t, b.Address, path[1].Token)
}

func TestHopPrice_ReverseDirection(t *testing.T) {
	a, b := tok("A", 1), tok("B", 2)
	h := &Hop{TokenA: b, TokenB: a, Candidates: []mdomain.ReserveFeeInfo{
		record(venue("uniswap", 3), a, b, e18(100), e18(1000)),
	}}

	out, _, err := h.Price(e18(10))
	require.NoError(t, err)

	want, _ := exdomain.GetAmountOut(e18(10), e18(1000), e18(100), 3)
	assert.Equal(t, want, out)
}

func TestHopPrice_SkipsFailingCandidate(t *testing.T) {
	a, b := tok("A", 1), tok("B", 2)
	h := &Hop{TokenA: a, TokenB: b, Candidates: []mdomain.ReserveFeeInfo{
		record(venue("empty", 3), a, b, nil, nil),
		record(venue("uniswap", 3), a, b, e18(100), e18(1000)),
	}}

	out, _, err := h.Price(e18(1))
	require.NoError(t, err)
	assert.Positive(t, out.Sign())
}

func TestHopPrice_UnroutableVenueHasNoSteps(t *testing.T) {
	a, b := tok("A", 1), tok("B", 2)
	ex := venue("local", 3)
	ex.Coordinator = common.Address{}
	h := &Hop{TokenA: a, TokenB: b, Candidates: []mdomain.ReserveFeeInfo{
		record(ex, a, b, e18(100), e18(1000)),
	}}

	_, path, err := h.Price(e18(1))
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestHopPrice_AllCandidatesFail(t *testing.T) {
	a, b := tok("A", 1), tok("B", 2)
	h := &Hop{TokenA: a, TokenB: b, Candidates: []mdomain.ReserveFeeInfo{
		record(venue("uniswap", 3), a, b, e18(100), big.NewInt(0)),
	}}

	_, _, err := h.Price(e18(1))
	require.Error(t, err)

	var appErr *apperror.AppError
	assert.True(t, errors.As(err, &appErr))
}
