// Package blockchain is the tick source and fee oracle of the engine.
package blockchain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/cycle-arbitrage/business/blockchain/app"
	blockchainDI "github.com/fd1az/cycle-arbitrage/business/blockchain/di"
	"github.com/fd1az/cycle-arbitrage/business/blockchain/domain"
	"github.com/fd1az/cycle-arbitrage/business/blockchain/infra/ethereum"
	"github.com/fd1az/cycle-arbitrage/internal/config"
	"github.com/fd1az/cycle-arbitrage/internal/di"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
	"github.com/fd1az/cycle-arbitrage/internal/monolith"
)

// Module implements the blockchain bounded context.
type Module struct{}

var _ monolith.Module = (*Module)(nil)

// RegisterServices registers all blockchain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, blockchainDI.BlockSubscriber, func(sr di.ServiceRegistry) app.BlockSubscriber {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		subCfg := ethereum.DefaultSubscriberConfig(cfg.Ethereum.WebSocketURL, cfg.Ethereum.HTTPURL)
		if cfg.Ethereum.InitialBackoff > 0 {
			subCfg.InitialBackoff = cfg.Ethereum.InitialBackoff
		}
		if cfg.Ethereum.MaxBackoff > 0 {
			subCfg.MaxBackoff = cfg.Ethereum.MaxBackoff
		}
		sub, err := ethereum.NewSubscriber(subCfg, log.With("component", "subscriber"))
		if err != nil {
			panic("failed to create subscriber: " + err.Error())
		}
		return sub
	})

	di.RegisterToken(c, blockchainDI.FeeEstimator, func(sr di.ServiceRegistry) app.FeeEstimator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclient.Client)

		oracle, err := ethereum.NewGasOracle(
			ethereum.DefaultGasOracleConfig(cfg.Arbitrage.GasLimit), client, log.With("component", "gas-oracle"))
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	di.RegisterToken(c, blockchainDI.BlockchainService, func(sr di.ServiceRegistry) *app.BlockchainService {
		return app.NewBlockchainService(
			blockchainDI.GetBlockSubscriber(sr),
			blockchainDI.GetFeeEstimator(sr),
		)
	})

	return nil
}

// Startup resolves the service and exposes the subscriber to health checks.
// The head stream itself is started by whoever consumes ticks.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	svc := blockchainDI.GetBlockchainService(mono.Services())

	mono.Health().RegisterCheck("subscriber", func(context.Context) (bool, string) {
		st := svc.Status()
		return st.State == domain.StateConnected, fmt.Sprintf("%s at block %d", st.State, st.LastBlock)
	})

	log.Info(ctx, "blockchain module started")
	return nil
}
