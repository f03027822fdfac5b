// Package uniswapv2 reads constant-product pool reserves over JSON-RPC.
package uniswapv2

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/cycle-arbitrage/business/exchange/app"
	"github.com/fd1az/cycle-arbitrage/business/exchange/domain"
	"github.com/fd1az/cycle-arbitrage/internal/apperror"
	"github.com/fd1az/cycle-arbitrage/internal/cache"
	"github.com/fd1az/cycle-arbitrage/internal/circuitbreaker"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
	"github.com/fd1az/cycle-arbitrage/internal/ratelimit"
)

const (
	tracerName = "uniswapv2"
	meterName  = "uniswapv2"
)

var _ app.ReserveFetcher = (*Fetcher)(nil)

// ContractCaller is the slice of the RPC client the fetcher needs.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Config tunes the fetcher.
type Config struct {
	RPCPerMinute int           // 0 disables limiting
	CacheTTL     time.Duration // lifetime of a reserve read for one tick
}

type reserveKey struct {
	pair common.Address
	tick uint64
}

type fetcherMetrics struct {
	calls     metric.Int64Counter
	errors    metric.Int64Counter
	cacheHits metric.Int64Counter
	latency   metric.Float64Histogram
}

// Fetcher reads getReserves from the CREATE2-derived pair address.
type Fetcher struct {
	client  ContractCaller
	pairABI abi.ABI
	config  Config

	limiter  *ratelimit.Limiter
	cb       *circuitbreaker.CircuitBreaker[[]byte]
	reserves *cache.Cache[reserveKey, Reserves]
	logger   logger.LoggerInterface

	tracer  trace.Tracer
	metrics *fetcherMetrics
}

// NewFetcher creates a fetcher over client.
func NewFetcher(client ContractCaller, cfg Config, log logger.LoggerInterface) (*Fetcher, error) {
	parsed, err := abi.JSON(strings.NewReader(PairABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pair ABI: %w", err)
	}

	f := &Fetcher{
		client:   client,
		pairABI:  parsed,
		config:   cfg,
		limiter:  ratelimit.New(cfg.RPCPerMinute),
		reserves: cache.New[reserveKey, Reserves](time.Minute),
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("uniswapv2-reserves")
	f.cb = circuitbreaker.New[[]byte](cbCfg)

	if err := f.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return f, nil
}

func (f *Fetcher) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	f.metrics = &fetcherMetrics{}

	f.metrics.calls, err = meter.Int64Counter(
		"uniswapv2_reserve_calls_total",
		metric.WithDescription("getReserves RPC calls"),
	)
	if err != nil {
		return err
	}

	f.metrics.errors, err = meter.Int64Counter(
		"uniswapv2_reserve_errors_total",
		metric.WithDescription("getReserves calls that failed"),
	)
	if err != nil {
		return err
	}

	f.metrics.cacheHits, err = meter.Int64Counter(
		"uniswapv2_reserve_cache_hits_total",
		metric.WithDescription("Reserve reads served from the per-tick cache"),
	)
	if err != nil {
		return err
	}

	f.metrics.latency, err = meter.Float64Histogram(
		"uniswapv2_reserve_latency_ms",
		metric.WithDescription("getReserves latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	return err
}

// GetReserves returns the reserves of the a/b pool ordered to (a, b).
// Reads within one tick share a single RPC call per pool.
func (f *Fetcher) GetReserves(ctx context.Context, ex domain.Exchange, a, b common.Address, tick uint64) (*big.Int, *big.Int, error) {
	pair, err := ex.PairAddress(a, b)
	if err != nil {
		return nil, nil, err
	}

	res, err := f.pairReserves(ctx, pair, tick)
	if err != nil {
		return nil, nil, err
	}

	token0, _, _ := domain.SortTokens(a, b)
	if a == token0 {
		return res.Reserve0, res.Reserve1, nil
	}
	return res.Reserve1, res.Reserve0, nil
}

func (f *Fetcher) pairReserves(ctx context.Context, pair common.Address, tick uint64) (Reserves, error) {
	key := reserveKey{pair: pair, tick: tick}
	if tick != 0 {
		if res, ok := f.reserves.Get(ctx, key); ok {
			f.metrics.cacheHits.Add(ctx, 1)
			return res, nil
		}
	}

	ctx, span := f.tracer.Start(ctx, "uniswapv2.get_reserves",
		trace.WithAttributes(
			attribute.String("pair", pair.Hex()),
			attribute.Int64("tick", int64(tick)),
		),
	)
	defer span.End()

	start := time.Now()
	f.metrics.calls.Add(ctx, 1)

	res, err := f.call(ctx, pair)
	f.metrics.latency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		f.metrics.errors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.logger.Warn(ctx, "getReserves failed", "pair", pair.Hex(), "error", err)
		return Reserves{}, err
	}

	if tick != 0 {
		f.reserves.Set(ctx, key, res, f.config.CacheTTL)
	}
	span.SetAttributes(
		attribute.String("reserve0", res.Reserve0.String()),
		attribute.String("reserve1", res.Reserve1.String()),
	)
	return res, nil
}

func (f *Fetcher) call(ctx context.Context, pair common.Address) (Reserves, error) {
	callData, err := f.pairABI.Pack(methodGetReserves)
	if err != nil {
		return Reserves{}, apperror.New(apperror.CodeABIEncodingFailed, apperror.WithCause(err))
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return Reserves{}, err
	}

	out, err := f.cb.Execute(func() ([]byte, error) {
		return f.client.CallContract(ctx, ethereum.CallMsg{To: &pair, Data: callData}, nil)
	})
	if err != nil {
		return Reserves{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("getReserves on %s", pair.Hex())))
	}

	values, err := f.pairABI.Unpack(methodGetReserves, out)
	if err != nil || len(values) < 3 {
		return Reserves{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("pair %s returned %d bytes", pair.Hex(), len(out))))
	}

	return Reserves{
		Reserve0:           values[0].(*big.Int),
		Reserve1:           values[1].(*big.Int),
		BlockTimestampLast: values[2].(uint32),
	}, nil
}

// Close stops the cache janitor.
func (f *Fetcher) Close() {
	f.reserves.Close()
}
