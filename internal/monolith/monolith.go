// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/cycle-arbitrage/internal/asset"
	"github.com/fd1az/cycle-arbitrage/internal/config"
	"github.com/fd1az/cycle-arbitrage/internal/di"
	"github.com/fd1az/cycle-arbitrage/internal/health"
	"github.com/fd1az/cycle-arbitrage/internal/httpclient"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
)

// Monolith is the application container shared by every module.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	EthClient() *ethclient.Client
	Tokens() *asset.Registry
	Health() health.Registrar
	Services() di.ServiceRegistry
}

// Module is a bounded context that registers services and starts up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	ethClient *ethclient.Client
	tokens    *asset.Registry
	health    health.Registrar
	container di.Container
}

// New dials the HTTP RPC endpoint through an instrumented client and
// registers the shared services.
func New(cfg *config.Config, log logger.LoggerInterface, hc health.Registrar) (*app, error) {
	httpClient, err := httpclient.New(httpclient.WithProviderName("eth-rpc"))
	if err != nil {
		return nil, fmt.Errorf("http client: %w", err)
	}

	rpcClient, err := rpc.DialOptions(context.Background(), cfg.Ethereum.HTTPURL, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Ethereum.HTTPURL, err)
	}
	ethClient := ethclient.NewClient(rpcClient)

	tokens := asset.DefaultRegistry(cfg.Exchange.Env())

	container := di.NewContainer()
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("ethClient", ethClient)
	container.Register("tokens", tokens)
	container.Register("health", hc)

	return &app{
		config:    cfg,
		logger:    log,
		ethClient: ethClient,
		tokens:    tokens,
		health:    hc,
		container: container,
	}, nil
}

func (a *app) Config() *config.Config         { return a.config }
func (a *app) Logger() logger.LoggerInterface { return a.logger }
func (a *app) EthClient() *ethclient.Client   { return a.ethClient }
func (a *app) Tokens() *asset.Registry        { return a.tokens }
func (a *app) Health() health.Registrar       { return a.health }
func (a *app) Services() di.ServiceRegistry   { return a.container }

// RegisterModules registers all provided modules in order.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules in order.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all resources.
func (a *app) Close() error {
	if a.ethClient != nil {
		a.ethClient.Close()
	}
	return nil
}
