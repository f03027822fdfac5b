package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/cycle-arbitrage/business/blockchain/domain"
)

// BlockchainService is the public face of the blockchain context.
type BlockchainService struct {
	subscriber BlockSubscriber
	fees       FeeEstimator
}

var _ FeeEstimator = (*BlockchainService)(nil)

// NewBlockchainService creates a new BlockchainService.
func NewBlockchainService(subscriber BlockSubscriber, fees FeeEstimator) *BlockchainService {
	return &BlockchainService{
		subscriber: subscriber,
		fees:       fees,
	}
}

// SubscribeBlocks starts the head stream.
func (s *BlockchainService) SubscribeBlocks(ctx context.Context) (<-chan *domain.Block, error) {
	return s.subscriber.Subscribe(ctx)
}

// LatestBlock fetches the current head.
func (s *BlockchainService) LatestBlock(ctx context.Context) (*domain.Block, error) {
	return s.subscriber.LatestBlock(ctx)
}

// Estimate prices a call to to with calldata data.
func (s *BlockchainService) Estimate(ctx context.Context, to common.Address, data []byte) (domain.Fees, error) {
	return s.fees.Estimate(ctx, to, data)
}

// Status reports the subscriber state.
func (s *BlockchainService) Status() domain.ConnectionStatus {
	return s.subscriber.Status()
}
