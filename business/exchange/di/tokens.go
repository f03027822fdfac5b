// Package di contains dependency injection tokens for the exchange context.
package di

import (
	"github.com/fd1az/cycle-arbitrage/business/exchange/app"
	"github.com/fd1az/cycle-arbitrage/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Quoter = di.NewToken[*app.Quoter]("exchange.Quoter")
)

// Private dependency tokens - internal to exchange module
var (
	ReserveFetcher = di.NewToken[app.ReserveFetcher]("exchange:reserveFetcher")
)

func GetQuoter(c di.ServiceRegistry) *app.Quoter {
	return di.GetToken(c, Quoter)
}

func GetReserveFetcher(c di.ServiceRegistry) app.ReserveFetcher {
	return di.GetToken(c, ReserveFetcher)
}
