package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	exdomain "github.com/fd1az/cycle-arbitrage/business/exchange/domain"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

// PairKey is the address-only identity of a canonical pair.
type PairKey struct {
	A common.Address
	B common.Address
}

// ReserveFeeInfo is one venue's view of a canonical pair. SpotAB is the
// price of A in B; a nil spot means that direction was never observed.
type ReserveFeeInfo struct {
	Exchange exdomain.Exchange
	TokenA   asset.Token
	TokenB   asset.Token
	ReserveA *big.Int
	ReserveB *big.Int
	Fee      int64
	SpotAB   *float64
	SpotBA   *float64
}

// Spot returns the price in the from→to direction, 0 when unknown.
func (r ReserveFeeInfo) Spot(from common.Address) float64 {
	p := r.SpotBA
	if from == r.TokenA.Address {
		p = r.SpotAB
	}
	if p == nil {
		return 0
	}
	return *p
}

// AmountOut prices a swap of amountIn of from through this record.
func (r ReserveFeeInfo) AmountOut(amountIn *big.Int, from asset.Token) (*big.Int, error) {
	reserveIn, reserveOut := r.ReserveB, r.ReserveA
	if from.Equal(r.TokenA) {
		reserveIn, reserveOut = r.ReserveA, r.ReserveB
	}
	if reserveIn == nil || reserveOut == nil {
		return nil, exdomain.ErrInsufficientLiquidity
	}
	return r.Exchange.AmountOut(amountIn, reserveIn, reserveOut, r.Fee)
}

// Float is a helper for building optional spots.
func Float(f float64) *float64 {
	return &f
}
