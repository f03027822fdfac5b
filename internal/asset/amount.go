package asset

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrNilRaw          = errors.New("asset: nil raw value")
	ErrNegativeAmount  = errors.New("asset: negative amount")
	ErrTokenMismatch   = errors.New("asset: cannot operate on different tokens")
	ErrNegativeResult  = errors.New("asset: operation would result in negative amount")
	ErrTooManyDecimals = errors.New("asset: too many decimal places for token")
)

// Amount is an immutable quantity of a token in base units.
type Amount struct {
	raw   *big.Int
	token Token
}

// NewAmount creates an Amount from base units.
func NewAmount(token Token, raw *big.Int) Amount {
	if raw == nil {
		panic(ErrNilRaw)
	}
	if raw.Sign() < 0 {
		panic(ErrNegativeAmount)
	}
	return Amount{raw: new(big.Int).Set(raw), token: token}
}

// One is a single whole token.
func One(token Token) Amount {
	return Amount{raw: token.Unit(), token: token}
}

// Raw returns a copy of the base-unit value.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(a.raw)
}

// Token returns the denomination.
func (a Amount) Token() Token {
	return a.token
}

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool {
	return a.raw == nil || a.raw.Sign() == 0
}

// Add adds two amounts of the same token.
func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.checkSameToken(b); err != nil {
		return Amount{}, err
	}
	return NewAmount(a.token, new(big.Int).Add(a.Raw(), b.Raw())), nil
}

// Sub subtracts b from a (same token only).
func (a Amount) Sub(b Amount) (Amount, error) {
	if err := a.checkSameToken(b); err != nil {
		return Amount{}, err
	}
	if a.Raw().Cmp(b.Raw()) < 0 {
		return Amount{}, ErrNegativeResult
	}
	return NewAmount(a.token, new(big.Int).Sub(a.Raw(), b.Raw())), nil
}

// ToDecimal converts to whole-token units.
func (a Amount) ToDecimal() decimal.Decimal {
	return ToDecimal(a.raw, a.token.Decimals)
}

// ToFloat64 is for display only.
func (a Amount) ToFloat64() float64 {
	f, _ := a.ToDecimal().Float64()
	return f
}

// String returns e.g. "1.5 WETH".
func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.ToDecimal().String(), a.token.String())
}

func (a Amount) checkSameToken(b Amount) error {
	if !a.token.Equal(b.token) {
		return fmt.Errorf("%w: %s vs %s", ErrTokenMismatch, a.token, b.token)
	}
	return nil
}

// ToDecimal scales base units down by decimals.
func ToDecimal(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// FromDecimal scales whole units up to base units, rounding half away from zero.
func FromDecimal(d decimal.Decimal, decimals uint8) *big.Int {
	return d.Shift(int32(decimals)).Round(0).BigInt()
}

// ParseDecimal creates an Amount from whole units, rejecting excess precision.
func ParseDecimal(token Token, d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return Amount{}, ErrNegativeAmount
	}
	scaled := d.Shift(int32(token.Decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return Amount{}, ErrTooManyDecimals
	}
	return NewAmount(token, scaled.BigInt()), nil
}

// ParseString creates an Amount from a decimal string in whole units.
func ParseString(token Token, s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("asset: invalid decimal string: %w", err)
	}
	return ParseDecimal(token, d)
}
