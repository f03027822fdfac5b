// Package feed serves the realtime protocol and drives per-block quoting.
package feed

import (
	"context"
	"fmt"
	"time"

	arbitrageDI "github.com/fd1az/cycle-arbitrage/business/arbitrage/di"
	blockchainDI "github.com/fd1az/cycle-arbitrage/business/blockchain/di"
	exchangeDI "github.com/fd1az/cycle-arbitrage/business/exchange/di"
	"github.com/fd1az/cycle-arbitrage/business/feed/app"
	feedDI "github.com/fd1az/cycle-arbitrage/business/feed/di"
	feedredis "github.com/fd1az/cycle-arbitrage/business/feed/infra/redis"
	feedws "github.com/fd1az/cycle-arbitrage/business/feed/infra/websocket"
	marketDI "github.com/fd1az/cycle-arbitrage/business/market/di"
	"github.com/fd1az/cycle-arbitrage/internal/config"
	"github.com/fd1az/cycle-arbitrage/internal/di"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
	"github.com/fd1az/cycle-arbitrage/internal/monolith"
)

const shutdownTimeout = 5 * time.Second

// Module implements the feed bounded context.
type Module struct{}

var _ monolith.Module = (*Module)(nil)

// RegisterServices registers all feed services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, feedDI.Hub, func(sr di.ServiceRegistry) *app.Hub {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		hub, err := app.NewHub(
			marketDI.GetRegistry(sr),
			exchangeDI.GetQuoter(sr),
			app.HubConfig{SessionBuffer: cfg.Server.SessionBuffer},
			log.With("component", "hub"),
		)
		if err != nil {
			panic("failed to create hub: " + err.Error())
		}
		return hub
	})

	di.RegisterToken(c, feedDI.Server, func(sr di.ServiceRegistry) *feedws.Server {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return feedws.NewServer(
			feedDI.GetHub(sr),
			feedws.Config{
				Addr:         cfg.Server.Addr,
				DefaultStore: marketDI.GetDefaultStore(sr).ID(),
				WriteTimeout: cfg.Server.WriteTimeout,
			},
			log.With("component", "feed-server"),
		)
	})

	di.RegisterToken(c, feedDI.DecisionBus, func(sr di.ServiceRegistry) *feedredis.DecisionBus {
		cfg := sr.Get("config").(*config.Config)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := feedredis.New(ctx, feedredis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			panic("failed to connect redis: " + err.Error())
		}
		return feedredis.NewDecisionBus(client, cfg.Redis.Channel, cfg.Redis.Stream)
	})

	return nil
}

// Startup wires decisions into the hub, starts the head stream that drives
// ticks and opens the websocket listener.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()
	sr := mono.Services()

	hub := feedDI.GetHub(sr)
	arbitrageDI.GetExecutor(sr).AddListener(hub)

	if cfg.Redis.Enabled {
		bus := feedDI.GetDecisionBus(sr)
		hub.AddPublisher(bus)
		mono.Health().RegisterCheck("redis", func(ctx context.Context) (bool, string) {
			if err := bus.Ping(ctx); err != nil {
				return false, err.Error()
			}
			return true, cfg.Redis.Addr
		})
	}

	blocks, err := blockchainDI.GetBlockchainService(sr).SubscribeBlocks(ctx)
	if err != nil {
		return fmt.Errorf("subscribe blocks: %w", err)
	}
	go hub.Run(ctx, blocks)

	srv := feedDI.GetServer(sr)
	if err := srv.Start(); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn(shutdownCtx, "feed server shutdown", "error", err)
		}
	}()

	mono.Health().RegisterCheck("sessions", func(context.Context) (bool, string) {
		return true, fmt.Sprintf("%d open", hub.Count())
	})

	log.Info(ctx, "feed module started",
		"addr", srv.Addr(),
		"redis", cfg.Redis.Enabled,
	)
	return nil
}
