// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	"github.com/fd1az/cycle-arbitrage/business/blockchain/app"
	"github.com/fd1az/cycle-arbitrage/internal/di"
)

// Public service tokens - exposed to other modules
var (
	BlockchainService = di.NewToken[*app.BlockchainService]("blockchain.BlockchainService")
)

// Private dependency tokens - internal to blockchain module
var (
	BlockSubscriber = di.NewToken[app.BlockSubscriber]("blockchain:blockSubscriber")
	FeeEstimator    = di.NewToken[app.FeeEstimator]("blockchain:feeEstimator")
)

func GetBlockchainService(c di.ServiceRegistry) *app.BlockchainService {
	return di.GetToken(c, BlockchainService)
}

func GetBlockSubscriber(c di.ServiceRegistry) app.BlockSubscriber {
	return di.GetToken(c, BlockSubscriber)
}

func GetFeeEstimator(c di.ServiceRegistry) app.FeeEstimator {
	return di.GetToken(c, FeeEstimator)
}
