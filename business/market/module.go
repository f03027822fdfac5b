// Package market owns the live price graphs.
package market

import (
	"context"
	"fmt"

	"github.com/fd1az/cycle-arbitrage/business/market/app"
	marketDI "github.com/fd1az/cycle-arbitrage/business/market/di"
	"github.com/fd1az/cycle-arbitrage/internal/di"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
	"github.com/fd1az/cycle-arbitrage/internal/monolith"
)

// Module implements the market bounded context.
type Module struct{}

var _ monolith.Module = (*Module)(nil)

// RegisterServices registers the store registry and the default store.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, marketDI.Registry, func(sr di.ServiceRegistry) *app.Registry {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewRegistry(log.With("component", "store-registry"))
	})

	di.RegisterToken(c, marketDI.DefaultStore, func(sr di.ServiceRegistry) *app.Store {
		reg := marketDI.GetRegistry(sr)
		store, err := reg.Get(reg.CreateStore())
		if err != nil {
			panic("failed to create default store: " + err.Error())
		}
		return store
	})

	return nil
}

// Startup creates the default store and reports store counts to health.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	reg := marketDI.GetRegistry(mono.Services())
	store := marketDI.GetDefaultStore(mono.Services())

	mono.Health().RegisterCheck("stores", func(context.Context) (bool, string) {
		n := reg.Count()
		return n > 0, fmt.Sprintf("%d stores, default graph has %d tokens", n, len(store.Graph().Tokens()))
	})

	mono.Logger().Info(ctx, "market module started", "default_store", store.ID())
	return nil
}
