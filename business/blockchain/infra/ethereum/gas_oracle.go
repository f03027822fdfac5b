package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/cycle-arbitrage/business/blockchain/app"
	"github.com/fd1az/cycle-arbitrage/business/blockchain/domain"
	"github.com/fd1az/cycle-arbitrage/internal/apperror"
	"github.com/fd1az/cycle-arbitrage/internal/cache"
	"github.com/fd1az/cycle-arbitrage/internal/circuitbreaker"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
)

// FeeBackend is the slice of the RPC client the oracle needs.
// *ethclient.Client satisfies it.
type FeeBackend interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// GasOracleConfig holds configuration for the gas oracle.
type GasOracleConfig struct {
	CacheTTL        time.Duration // how long a suggested price is reused
	MaxGasPrice     *big.Int      // price ceiling
	DefaultGasLimit uint64        // used when estimation fails
}

// DefaultGasOracleConfig caches for about one block and caps at 500 gwei.
func DefaultGasOracleConfig(defaultGasLimit uint64) GasOracleConfig {
	if defaultGasLimit == 0 {
		defaultGasLimit = 500_000
	}
	return GasOracleConfig{
		CacheTTL:        12 * time.Second,
		MaxGasPrice:     big.NewInt(500_000_000_000),
		DefaultGasLimit: defaultGasLimit,
	}
}

type gasOracleMetrics struct {
	priceFetches metric.Int64Counter
	priceGwei    metric.Float64Gauge
	estimates    metric.Int64Counter
	fallbacks    metric.Int64Counter
	cacheHits    metric.Int64Counter
}

// GasOracle estimates coordinator call fees.
type GasOracle struct {
	config  GasOracleConfig
	backend FeeBackend
	logger  logger.LoggerInterface

	prices *cache.Cache[string, *big.Int]
	cb     *circuitbreaker.CircuitBreaker[*big.Int]

	tracer  trace.Tracer
	metrics *gasOracleMetrics
}

var _ app.FeeEstimator = (*GasOracle)(nil)

// NewGasOracle creates an oracle over backend.
func NewGasOracle(cfg GasOracleConfig, backend FeeBackend, log logger.LoggerInterface) (*GasOracle, error) {
	g := &GasOracle{
		config:  cfg,
		backend: backend,
		logger:  log,
		prices:  cache.New[string, *big.Int](time.Minute),
		cb:      circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("gas-oracle")),
		tracer:  otel.Tracer(tracerName),
	}

	if err := g.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return g, nil
}

func (g *GasOracle) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	g.metrics = &gasOracleMetrics{}

	g.metrics.priceFetches, err = meter.Int64Counter(
		"gas_price_fetches_total",
		metric.WithDescription("Gas price RPC fetches"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	g.metrics.priceGwei, err = meter.Float64Gauge(
		"gas_price_gwei",
		metric.WithDescription("Last suggested gas price"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return err
	}

	g.metrics.estimates, err = meter.Int64Counter(
		"gas_estimate_total",
		metric.WithDescription("Fee estimates served"),
		metric.WithUnit("{estimate}"),
	)
	if err != nil {
		return err
	}

	g.metrics.fallbacks, err = meter.Int64Counter(
		"gas_estimate_fallback_total",
		metric.WithDescription("Estimates that used the default gas limit"),
		metric.WithUnit("{estimate}"),
	)
	if err != nil {
		return err
	}

	g.metrics.cacheHits, err = meter.Int64Counter(
		"gas_cache_hits_total",
		metric.WithDescription("Gas price cache hits"),
		metric.WithUnit("{hit}"),
	)
	return err
}

// GasPrice returns the suggested price, capped at MaxGasPrice and cached.
func (g *GasOracle) GasPrice(ctx context.Context) (*big.Int, error) {
	ctx, span := g.tracer.Start(ctx, "gas.price")
	defer span.End()

	if wei, ok := g.prices.Get(ctx, "current"); ok {
		g.metrics.cacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		return wei, nil
	}

	g.metrics.priceFetches.Add(ctx, 1)
	wei, err := g.cb.Execute(func() (*big.Int, error) {
		return g.backend.SuggestGasPrice(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("suggest gas price"))
	}

	if g.config.MaxGasPrice != nil && wei.Cmp(g.config.MaxGasPrice) > 0 {
		g.logger.Warn(ctx, "gas price above ceiling", "wei", wei.String(), "max", g.config.MaxGasPrice.String())
		wei = new(big.Int).Set(g.config.MaxGasPrice)
	}

	g.prices.Set(ctx, "current", wei, g.config.CacheTTL)
	g.metrics.priceGwei.Record(ctx, domain.Gwei(wei))
	span.SetAttributes(attribute.Float64("gwei", domain.Gwei(wei)))
	return wei, nil
}

// Estimate prices a call. A failed gas estimate falls back to the default
// limit; a failed price lookup is an error.
func (g *GasOracle) Estimate(ctx context.Context, to common.Address, data []byte) (domain.Fees, error) {
	ctx, span := g.tracer.Start(ctx, "gas.estimate",
		trace.WithAttributes(
			attribute.String("to", to.Hex()),
			attribute.Int("data_len", len(data)),
		),
	)
	defer span.End()

	g.metrics.estimates.Add(ctx, 1)

	price, err := g.GasPrice(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no gas price")
		return domain.Fees{}, err
	}

	fees := domain.Fees{GasPrice: price, GasLimit: g.config.DefaultGasLimit}

	limit, err := g.backend.EstimateGas(ctx, ethereum.CallMsg{To: &to, Data: data})
	if err != nil {
		g.metrics.fallbacks.Add(ctx, 1)
		span.AddEvent("using_default_gas", trace.WithAttributes(
			attribute.Int64("default", int64(fees.GasLimit))))
		g.logger.Debug(ctx, "gas estimate failed, using default", "to", to.Hex(), "error", err)
	} else {
		fees.GasLimit = limit + limit/10
	}

	if tip, err := g.backend.SuggestGasTipCap(ctx); err == nil {
		fees.TipCap = tip
	}

	span.SetAttributes(
		attribute.Int64("gas_limit", int64(fees.GasLimit)),
		attribute.String("total_wei", fees.Total().String()),
	)
	span.SetStatus(codes.Ok, "estimated")
	return fees, nil
}

// Close stops the price cache janitor.
func (g *GasOracle) Close() error {
	g.prices.Close()
	return nil
}
