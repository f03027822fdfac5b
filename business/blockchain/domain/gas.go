package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var weiPerEther = decimal.New(1, 18)

// Fees is the cost estimate of one coordinator call.
type Fees struct {
	GasLimit uint64
	GasPrice *big.Int
	TipCap   *big.Int
}

// Total is GasLimit × GasPrice in wei.
func (f Fees) Total() *big.Int {
	if f.GasPrice == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(f.GasPrice, new(big.Int).SetUint64(f.GasLimit))
}

// Ether renders Total in whole native units.
func (f Fees) Ether() decimal.Decimal {
	return decimal.NewFromBigInt(f.Total(), 0).Div(weiPerEther)
}

// Gwei converts wei to gwei for display and metrics.
func Gwei(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	f, _ := decimal.NewFromBigInt(wei, -9).Float64()
	return f
}
