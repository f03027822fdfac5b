package asset

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// ErrEmptyReserve is returned when a spot price is requested from an empty pool.
var ErrEmptyReserve = errors.New("asset: empty reserve")

// Price is an exchange rate of quote per base in whole-token units.
type Price struct {
	rate      decimal.Decimal
	base      Token
	quote     Token
	timestamp time.Time
}

// NewPrice creates a price observed at timestamp.
func NewPrice(base, quote Token, rate decimal.Decimal, timestamp time.Time) Price {
	if rate.IsNegative() {
		panic("asset: negative price rate")
	}
	return Price{rate: rate, base: base, quote: quote, timestamp: timestamp}
}

// SpotFromReserves derives quote-per-base from pool reserves held in base units:
// (reserveQuote / reserveBase) * 10^(baseDecimals - quoteDecimals).
func SpotFromReserves(base, quote Token, reserveBase, reserveQuote *big.Int) (Price, error) {
	if reserveBase == nil || reserveQuote == nil || reserveBase.Sign() <= 0 || reserveQuote.Sign() <= 0 {
		return Price{}, ErrEmptyReserve
	}
	rate := decimal.NewFromBigInt(reserveQuote, 0).
		Div(decimal.NewFromBigInt(reserveBase, 0)).
		Shift(int32(base.Decimals) - int32(quote.Decimals))
	return NewPrice(base, quote, rate, time.Now()), nil
}

// Rate returns the rate.
func (p Price) Rate() decimal.Decimal {
	return p.rate
}

// Float64 is the rate as stored in the price graph.
func (p Price) Float64() float64 {
	f, _ := p.rate.Float64()
	return f
}

func (p Price) Base() Token  { return p.base }
func (p Price) Quote() Token { return p.quote }

func (p Price) Timestamp() time.Time {
	return p.timestamp
}

// Pair returns "BASE/QUOTE".
func (p Price) Pair() string {
	return fmt.Sprintf("%s/%s", p.base, p.quote)
}

// IsZero returns true if the price is zero.
func (p Price) IsZero() bool {
	return p.rate.IsZero()
}

// Invert swaps base and quote. A zero price stays zero.
func (p Price) Invert() Price {
	inv := decimal.Zero
	if !p.IsZero() {
		inv = decimal.NewFromInt(1).Div(p.rate)
	}
	return Price{rate: inv, base: p.quote, quote: p.base, timestamp: p.timestamp}
}

// Convert converts an amount of base into quote at this rate, truncating to base units.
func (p Price) Convert(amount Amount) (Amount, error) {
	if !amount.Token().Equal(p.base) {
		return Amount{}, fmt.Errorf("%w: expected %s, got %s", ErrTokenMismatch, p.base, amount.Token())
	}
	out := amount.ToDecimal().Mul(p.rate).Shift(int32(p.quote.Decimals)).Truncate(0)
	return NewAmount(p.quote, out.BigInt()), nil
}

func (p Price) String() string {
	return fmt.Sprintf("%s %s", p.rate.String(), p.Pair())
}

// Age returns how old this price is.
func (p Price) Age() time.Duration {
	return time.Since(p.timestamp)
}
