// Package exchange quotes token pairs on constant-product DEX venues.
package exchange

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/cycle-arbitrage/business/exchange/app"
	exchangeDI "github.com/fd1az/cycle-arbitrage/business/exchange/di"
	"github.com/fd1az/cycle-arbitrage/business/exchange/domain"
	"github.com/fd1az/cycle-arbitrage/business/exchange/infra/uniswapv2"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
	"github.com/fd1az/cycle-arbitrage/internal/config"
	"github.com/fd1az/cycle-arbitrage/internal/di"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
	"github.com/fd1az/cycle-arbitrage/internal/monolith"
)

// Module implements the exchange bounded context.
type Module struct{}

var _ monolith.Module = (*Module)(nil)

// RegisterServices registers the reserve fetcher and the quoter.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, exchangeDI.ReserveFetcher, func(sr di.ServiceRegistry) app.ReserveFetcher {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclient.Client)

		fetcher, err := uniswapv2.NewFetcher(client, uniswapv2.Config{
			RPCPerMinute: cfg.Exchange.RPCPerMinute,
			CacheTTL:     cfg.Exchange.ReserveCacheTTL,
		}, log.With("component", "uniswapv2"))
		if err != nil {
			panic("failed to create reserve fetcher: " + err.Error())
		}
		return fetcher
	})

	di.RegisterToken(c, exchangeDI.Quoter, func(sr di.ServiceRegistry) *app.Quoter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		tokens := sr.Get("tokens").(*asset.Registry)

		q, err := app.NewQuoter(exchangeDI.GetReserveFetcher(sr), tokens, cfg.Exchange.WETH(), log.With("component", "quoter"))
		if err != nil {
			panic("failed to create quoter: " + err.Error())
		}
		return q
	})

	return nil
}

// Startup logs the venue catalogue of the configured environment.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	env := mono.Config().Exchange.Env()
	venues := domain.Catalogue(env)

	names := make([]string, 0, len(venues))
	for _, v := range venues {
		names = append(names, v.Name)
	}

	// fail fast on wiring
	_ = exchangeDI.GetQuoter(mono.Services())
	mono.Logger().Info(ctx, "exchange module started", "environment", string(env), "venues", names)
	return nil
}
