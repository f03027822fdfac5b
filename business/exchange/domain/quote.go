package domain

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

// Quote is one venue's price for TokenA in TokenB. Price is the reserve
// spot; TransactionPrice is what Amount would actually fetch.
type Quote struct {
	ExchangeName     string
	Amount           *big.Int
	AmountOut        *big.Int
	Decimals         uint8
	Price            float64
	TransactionPrice float64
	TokenA           asset.Token
	TokenB           asset.Token
	Ask              *float64
	Bid              *float64
	TTF              *float64
}

// SpotPrice is rB/rA scaled by 10^(decA−decB): the price of one whole A
// in whole B. Empty reserves fail with ErrInsufficientLiquidity.
func SpotPrice(reserveA, reserveB *big.Int, a, b asset.Token) (decimal.Decimal, error) {
	if reserveA == nil || reserveB == nil || reserveA.Sign() <= 0 || reserveB.Sign() <= 0 {
		return decimal.Zero, ErrInsufficientLiquidity
	}
	ra := asset.ToDecimal(reserveA, a.Decimals)
	rb := asset.ToDecimal(reserveB, b.Decimals)
	return rb.Div(ra), nil
}

// ExecutionPrice is amountOut per amountIn in whole units.
func ExecutionPrice(amountIn, amountOut *big.Int, a, b asset.Token) decimal.Decimal {
	if amountIn == nil || amountIn.Sign() == 0 || amountOut == nil {
		return decimal.Zero
	}
	return asset.ToDecimal(amountOut, b.Decimals).Div(asset.ToDecimal(amountIn, a.Decimals))
}
