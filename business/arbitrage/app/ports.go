// Package app schedules cycle evaluation per tick and turns winners into decisions.
package app

import (
	"context"

	"github.com/fd1az/cycle-arbitrage/business/arbitrage/domain"
)

// ChainOptimizer sizes the trade along one chain. *domain.Optimizer is the
// production implementation.
type ChainOptimizer interface {
	OptimalPrice(chain *domain.Hop) (domain.OptimumResult, error)
}

// Executor receives the best result of a tick.
type Executor interface {
	Execute(ctx context.Context, tick uint64, res domain.OptimumResult) error
}

// DecisionListener is notified of every decision the executor produces.
type DecisionListener interface {
	OnDecision(ctx context.Context, d domain.Decision)
}

// DecisionListenerFunc adapts a function to DecisionListener.
type DecisionListenerFunc func(ctx context.Context, d domain.Decision)

func (f DecisionListenerFunc) OnDecision(ctx context.Context, d domain.Decision) { f(ctx, d) }
