// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/fd1az/cycle-arbitrage/business/market/app"
	"github.com/fd1az/cycle-arbitrage/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Registry     = di.NewToken[*app.Registry]("market.Registry")
	DefaultStore = di.NewToken[*app.Store]("market.DefaultStore")
)

func GetRegistry(c di.ServiceRegistry) *app.Registry {
	return di.GetToken(c, Registry)
}

// GetDefaultStore returns the store shared by the detector and every
// session opened without an explicit store.
func GetDefaultStore(c di.ServiceRegistry) *app.Store {
	return di.GetToken(c, DefaultStore)
}
