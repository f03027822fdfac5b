// Package domain contains hop chains, the trade-size optimizer and cycle search.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/cycle-arbitrage/internal/apperror"
)

// Sentinels matched with errors.Is.
var (
	ErrChainTooShort = apperror.Sentinel(apperror.CodeChainTooShort)
	ErrInvalidPath   = apperror.Sentinel(apperror.CodeInvalidPath)
	ErrNoReserve     = apperror.Sentinel(apperror.CodeNoReserve)
	ErrNoSolution    = apperror.Sentinel(apperror.CodeNoSolution)
)

// ExecutionStep is one leg handed to the on-chain coordinator.
type ExecutionStep struct {
	Intermediary common.Address // coordinator of the venue
	Token        common.Address
	TokenName    string
	RoutingData  common.Address // router of the venue
	ExchangeName string
}

// OptimumResult is the best trade found along one chain.
type OptimumResult struct {
	AmountIn  *big.Int
	AmountOut *big.Int
	Path      []ExecutionStep
}

// Profit is AmountOut − AmountIn in base units of the head token.
func (r OptimumResult) Profit() *big.Int {
	if r.AmountIn == nil || r.AmountOut == nil {
		return new(big.Int)
	}
	return new(big.Int).Sub(r.AmountOut, r.AmountIn)
}
