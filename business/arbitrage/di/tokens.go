// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/cycle-arbitrage/business/arbitrage/app"
	"github.com/fd1az/cycle-arbitrage/business/arbitrage/infra/coordinator"
	"github.com/fd1az/cycle-arbitrage/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Scheduler = di.NewToken[*app.Scheduler]("arbitrage.Scheduler")
	Executor  = di.NewToken[*coordinator.Executor]("arbitrage.Executor")
)

// Private dependency tokens - internal to arbitrage module
var (
	Optimizer = di.NewToken[app.ChainOptimizer]("arbitrage:optimizer")
	Detector  = di.NewToken[*app.Detector]("arbitrage:detector")
)

func GetScheduler(c di.ServiceRegistry) *app.Scheduler {
	return di.GetToken(c, Scheduler)
}

// GetExecutor is used by other modules to subscribe to decisions.
func GetExecutor(c di.ServiceRegistry) *coordinator.Executor {
	return di.GetToken(c, Executor)
}

func GetOptimizer(c di.ServiceRegistry) app.ChainOptimizer {
	return di.GetToken(c, Optimizer)
}

func GetDetector(c di.ServiceRegistry) *app.Detector {
	return di.GetToken(c, Detector)
}
