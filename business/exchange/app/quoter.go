package app

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/cycle-arbitrage/business/exchange/domain"
	mdomain "github.com/fd1az/cycle-arbitrage/business/market/domain"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
)

const (
	tracerName = "exchange"
	meterName  = "exchange"
)

// QuoteRequest prices TokenA in TokenB on Exchange.
type QuoteRequest struct {
	Exchange domain.Exchange
	TokenA   asset.Token
	TokenB   asset.Token
	AmountIn *big.Int // nil quotes one whole TokenA
	Tick     uint64
}

type quoterMetrics struct {
	quotes   metric.Int64Counter
	failures metric.Int64Counter
	latency  metric.Float64Histogram
}

// Quoter turns pool reserves into quotes and graph records.
type Quoter struct {
	fetcher ReserveFetcher
	tokens  *asset.Registry
	weth    common.Address
	logger  logger.LoggerInterface

	tracer  trace.Tracer
	metrics *quoterMetrics
}

// NewQuoter creates a quoter. The zero address resolves to weth.
func NewQuoter(fetcher ReserveFetcher, tokens *asset.Registry, weth common.Address, log logger.LoggerInterface) (*Quoter, error) {
	if tokens == nil {
		tokens = asset.NewRegistry()
	}
	q := &Quoter{
		fetcher: fetcher,
		tokens:  tokens,
		weth:    weth,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
	if err := q.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return q, nil
}

func (q *Quoter) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	q.metrics = &quoterMetrics{}

	q.metrics.quotes, err = meter.Int64Counter(
		"exchange_quotes_total",
		metric.WithDescription("Quotes computed from pool reserves"),
	)
	if err != nil {
		return err
	}

	q.metrics.failures, err = meter.Int64Counter(
		"exchange_quote_errors_total",
		metric.WithDescription("Quotes that failed"),
	)
	if err != nil {
		return err
	}

	q.metrics.latency, err = meter.Float64Histogram(
		"exchange_quote_latency_ms",
		metric.WithDescription("Quote latency including the reserve fetch"),
		metric.WithUnit("ms"),
	)
	return err
}

// Normalize maps the zero address to WETH and fills name and decimals
// from the token registry.
func (q *Quoter) Normalize(t asset.Token) asset.Token {
	if t.IsZero() {
		t.Address = q.weth
		if t.Name == "" {
			t.Name = "WETH"
		}
	}
	t = q.tokens.Resolve(t)
	if t.Decimals == 0 {
		t.Decimals = asset.DefaultDecimals
	}
	return t
}

// MeanPrice quotes req and, when sink is non-nil, records the venue's
// reserves and spot in both directions: tP for TokenA→TokenB and 1/tP for
// the reverse.
func (q *Quoter) MeanPrice(ctx context.Context, sink PriceSink, req QuoteRequest) (quote domain.Quote, err error) {
	a, b := q.Normalize(req.TokenA), q.Normalize(req.TokenB)

	ctx, span := q.tracer.Start(ctx, "exchange.mean_price",
		trace.WithAttributes(
			attribute.String("exchange", req.Exchange.Key()),
			attribute.String("token_a", a.Address.Hex()),
			attribute.String("token_b", b.Address.Hex()),
			attribute.Int64("tick", int64(req.Tick)),
		),
	)
	start := time.Now()
	defer func() {
		q.metrics.latency.Record(ctx, float64(time.Since(start).Milliseconds()))
		if err != nil {
			q.metrics.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("exchange", req.Exchange.Name)))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	reserveA, reserveB, err := q.fetcher.GetReserves(ctx, req.Exchange, a.Address, b.Address, req.Tick)
	if err != nil {
		return domain.Quote{}, err
	}

	spot, err := domain.SpotPrice(reserveA, reserveB, a, b)
	if err != nil {
		return domain.Quote{}, err
	}

	amountIn := req.AmountIn
	if amountIn == nil {
		amountIn = a.Unit()
	}
	amountOut, err := req.Exchange.AmountOut(amountIn, reserveA, reserveB, req.Exchange.Fee)
	if err != nil {
		return domain.Quote{}, err
	}

	tP := spot.InexactFloat64()
	quote = domain.Quote{
		ExchangeName:     req.Exchange.Name,
		Amount:           amountIn,
		AmountOut:        amountOut,
		Decimals:         b.Decimals,
		Price:            tP,
		TransactionPrice: domain.ExecutionPrice(amountIn, amountOut, a, b).InexactFloat64(),
		TokenA:           a,
		TokenB:           b,
	}

	if sink != nil {
		sink.Insert(a, b, record(req.Exchange, a, b, reserveA, reserveB, tP))
	}

	q.metrics.quotes.Add(ctx, 1, metric.WithAttributes(attribute.String("exchange", req.Exchange.Name)))
	span.SetAttributes(attribute.Float64("price", tP), attribute.String("amount_out", amountOut.String()))
	q.logger.Debug(ctx, "quote",
		"exchange", req.Exchange.Name,
		"pair", a.String()+"/"+b.String(),
		"price", tP,
		"amount_out", amountOut.String(),
	)
	return quote, nil
}

// record builds the canonical graph entry for an a→b observation.
func record(ex domain.Exchange, a, b asset.Token, reserveA, reserveB *big.Int, tP float64) mdomain.ReserveFeeInfo {
	info := mdomain.ReserveFeeInfo{Exchange: ex, Fee: ex.Fee}
	forward, backward := mdomain.Float(tP), mdomain.Float(1/tP)

	if a.Less(b) {
		info.ReserveA, info.ReserveB = reserveA, reserveB
		info.SpotAB, info.SpotBA = forward, backward
	} else {
		info.ReserveA, info.ReserveB = reserveB, reserveA
		info.SpotAB, info.SpotBA = backward, forward
	}
	return info
}
