package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Decision is a winning trade prepared for the coordinator contract.
// Nothing here is signed or sent.
type Decision struct {
	ID          string
	Tick        uint64
	Timestamp   time.Time
	Result      OptimumResult
	Coordinator common.Address
	Calldata    []byte
	GasLimit    uint64
	Fees        *decimal.Decimal // native units; nil when estimation failed
}

var wholeUnit = decimal.New(1, 18)

// StartAmount is AmountIn in whole 18-decimal units.
func (d Decision) StartAmount() decimal.Decimal {
	return toWhole(d.Result.AmountIn)
}

// Profit is AmountOut − AmountIn in whole 18-decimal units.
func (d Decision) Profit() decimal.Decimal {
	return toWhole(d.Result.Profit())
}

// TokenName names the head of the route, empty without steps.
func (d Decision) TokenName() string {
	if len(d.Result.Path) == 0 {
		return ""
	}
	return d.Result.Path[0].TokenName
}

func toWhole(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, 0).Div(wholeUnit)
}
