package domain

import (
	"math/big"

	"github.com/fd1az/cycle-arbitrage/internal/apperror"
)

// FeeDenominator is the basis of the per-mille fee.
const FeeDenominator = 1000

// Sentinels matched with errors.Is.
var (
	ErrInsufficientInputAmount  = apperror.Sentinel(apperror.CodeInsufficientInputAmount)
	ErrInsufficientOutputAmount = apperror.Sentinel(apperror.CodeInsufficientOutputAmount)
	ErrInsufficientLiquidity    = apperror.Sentinel(apperror.CodeInsufficientLiquidity)
	ErrIdenticalAddresses       = apperror.Sentinel(apperror.CodeIdenticalAddresses)
	ErrZeroAddress              = apperror.Sentinel(apperror.CodeZeroAddress)
	ErrUnknownExchange          = apperror.Sentinel(apperror.CodeUnknownExchange)
)

// GetAmountOut is the constant-product output for amountIn, with fee per mille
// taken from the input:
//
//	out = in·(1000−fee)·rOut / (rIn·1000 + in·(1000−fee))
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int, fee int64) (*big.Int, error) {
	if amountIn.Sign() == 0 {
		return new(big.Int), nil
	}
	if amountIn.Sign() < 0 {
		return nil, ErrInsufficientInputAmount
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}

	inWithFee := new(big.Int).Mul(amountIn, big.NewInt(FeeDenominator-fee))
	num := new(big.Int).Mul(inWithFee, reserveOut)
	den := new(big.Int).Mul(reserveIn, big.NewInt(FeeDenominator))
	den.Add(den, inWithFee)

	return num.Quo(num, den), nil
}

// GetAmountIn is the minimum input that yields amountOut:
//
//	in = rIn·out·1000 / ((rOut−out)·(1000−fee)) + 1
func GetAmountIn(amountOut, reserveIn, reserveOut *big.Int, fee int64) (*big.Int, error) {
	if amountOut.Sign() <= 0 {
		return nil, ErrInsufficientOutputAmount
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 || amountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}

	num := new(big.Int).Mul(reserveIn, amountOut)
	num.Mul(num, big.NewInt(FeeDenominator))
	den := new(big.Int).Sub(reserveOut, amountOut)
	den.Mul(den, big.NewInt(FeeDenominator-fee))

	num.Quo(num, den)
	return num.Add(num, big.NewInt(1)), nil
}
