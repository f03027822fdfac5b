// Package arbitrage finds and sizes trade cycles on every tick.
package arbitrage

import (
	"context"
	"os"

	"github.com/fd1az/cycle-arbitrage/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/cycle-arbitrage/business/arbitrage/di"
	"github.com/fd1az/cycle-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/cycle-arbitrage/business/arbitrage/infra"
	"github.com/fd1az/cycle-arbitrage/business/arbitrage/infra/coordinator"
	blockchainDI "github.com/fd1az/cycle-arbitrage/business/blockchain/di"
	marketDI "github.com/fd1az/cycle-arbitrage/business/market/di"
	"github.com/fd1az/cycle-arbitrage/internal/config"
	"github.com/fd1az/cycle-arbitrage/internal/di"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
	"github.com/fd1az/cycle-arbitrage/internal/monolith"
)

// Module implements the arbitrage bounded context.
type Module struct{}

var _ monolith.Module = (*Module)(nil)

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, arbitrageDI.Optimizer, func(sr di.ServiceRegistry) app.ChainOptimizer {
		cfg := sr.Get("config").(*config.Config)
		return domain.NewOptimizer(cfg.Arbitrage.LowerBound, cfg.Arbitrage.UpperBound, cfg.Arbitrage.MaxIter)
	})

	di.RegisterToken(c, arbitrageDI.Executor, func(sr di.ServiceRegistry) *coordinator.Executor {
		log := sr.Get("logger").(logger.LoggerInterface)

		exec, err := coordinator.NewExecutor(
			blockchainDI.GetBlockchainService(sr), log.With("component", "executor"))
		if err != nil {
			panic("failed to create executor: " + err.Error())
		}
		return exec
	})

	di.RegisterToken(c, arbitrageDI.Scheduler, func(sr di.ServiceRegistry) *app.Scheduler {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		s, err := app.NewScheduler(
			arbitrageDI.GetOptimizer(sr),
			arbitrageDI.GetExecutor(sr),
			app.SchedulerConfig{ForwardStale: cfg.Arbitrage.ForwardStale},
			log.With("component", "scheduler"),
		)
		if err != nil {
			panic("failed to create scheduler: " + err.Error())
		}
		return s
	})

	di.RegisterToken(c, arbitrageDI.Detector, func(sr di.ServiceRegistry) *app.Detector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		store := marketDI.GetDefaultStore(sr)

		return app.NewDetector(
			arbitrageDI.GetScheduler(sr),
			store.Graph(),
			cfg.Arbitrage.MaxCycles,
			log.With("component", "detector"),
		)
	})

	return nil
}

// Startup feeds default-store snapshots into the detector. Dispatch is
// driven by the feed module once a session arms decisions.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	sr := mono.Services()

	detector := arbitrageDI.GetDetector(sr)
	store := marketDI.GetDefaultStore(sr)
	store.OnSnapshot(detector.OnSnapshot)

	if mono.Config().Arbitrage.TUIMode {
		reporter := infra.NewTUIReporter(nil)
		store.OnSnapshot(reporter.OnSnapshot)
		arbitrageDI.GetExecutor(sr).AddListener(reporter)
	} else {
		arbitrageDI.GetExecutor(sr).AddListener(infra.NewConsoleReporter(os.Stdout))
	}

	log.Info(ctx, "arbitrage module started",
		"forward_stale", mono.Config().Arbitrage.ForwardStale,
		"max_cycles", mono.Config().Arbitrage.MaxCycles,
	)
	return nil
}
