// Package app prices pairs on DEX venues and feeds the price graph.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/cycle-arbitrage/business/exchange/domain"
	mdomain "github.com/fd1az/cycle-arbitrage/business/market/domain"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

// ReserveFetcher reads pool reserves ordered to (a, b). tick scopes any
// caching to one block; 0 means "latest".
type ReserveFetcher interface {
	GetReserves(ctx context.Context, ex domain.Exchange, a, b common.Address, tick uint64) (reserveA, reserveB *big.Int, err error)
}

// PriceSink receives every quote as a graph record. *mdomain.Graph satisfies it.
type PriceSink interface {
	Insert(a, b asset.Token, info mdomain.ReserveFeeInfo)
}
