// Package app contains the tick source and fee estimation ports.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/cycle-arbitrage/business/blockchain/domain"
)

// BlockSubscriber streams chain heads.
type BlockSubscriber interface {
	// Subscribe starts the head stream. The channel closes with the subscriber.
	Subscribe(ctx context.Context) (<-chan *domain.Block, error)

	LatestBlock(ctx context.Context) (*domain.Block, error)

	Status() domain.ConnectionStatus
}

// FeeEstimator prices a call to a contract.
type FeeEstimator interface {
	Estimate(ctx context.Context, to common.Address, data []byte) (domain.Fees, error)
}
