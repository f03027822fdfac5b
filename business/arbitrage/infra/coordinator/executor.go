// Package coordinator prepares swap-route coordinator calls for winning cycles.
package coordinator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/cycle-arbitrage/business/arbitrage/app"
	"github.com/fd1az/cycle-arbitrage/business/arbitrage/domain"
	blockchainApp "github.com/fd1az/cycle-arbitrage/business/blockchain/app"
	"github.com/fd1az/cycle-arbitrage/internal/apperror"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
)

const (
	tracerName = "coordinator"
	meterName  = "coordinator"
)

var _ app.Executor = (*Executor)(nil)

type executorMetrics struct {
	decisions   metric.Int64Counter
	feeFailures metric.Int64Counter
	profitWhole metric.Float64Histogram
}

// Executor packs the coordinator call for a winner, prices it and hands the
// resulting decision to every listener. It never signs or sends.
type Executor struct {
	abi    abi.ABI
	fees   blockchainApp.FeeEstimator
	logger logger.LoggerInterface
	now    func() time.Time

	mu        sync.RWMutex
	listeners []app.DecisionListener

	tracer  trace.Tracer
	metrics *executorMetrics
}

// NewExecutor creates an executor. fees may be nil, in which case decisions
// carry no fee estimate.
func NewExecutor(fees blockchainApp.FeeEstimator, log logger.LoggerInterface) (*Executor, error) {
	parsed, err := abi.JSON(strings.NewReader(CoordinatorABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse coordinator ABI: %w", err)
	}

	e := &Executor{
		abi:    parsed,
		fees:   fees,
		logger: log,
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}
	if err := e.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return e, nil
}

func (e *Executor) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	e.metrics = &executorMetrics{}

	e.metrics.decisions, err = meter.Int64Counter(
		"coordinator_decisions_total",
		metric.WithDescription("Decisions prepared"),
	)
	if err != nil {
		return err
	}

	e.metrics.feeFailures, err = meter.Int64Counter(
		"coordinator_fee_failures_total",
		metric.WithDescription("Decisions published without a fee estimate"),
	)
	if err != nil {
		return err
	}

	e.metrics.profitWhole, err = meter.Float64Histogram(
		"coordinator_profit",
		metric.WithDescription("Decision profit in whole head-token units"),
	)
	return err
}

// AddListener registers l for every future decision.
func (e *Executor) AddListener(l app.DecisionListener) {
	e.mu.Lock()
	e.listeners = append(e.listeners, l)
	e.mu.Unlock()
}

// Pack encodes initiateArbitrage for res. The first step's coordinator is
// both the call target and the lap exchange.
func (e *Executor) Pack(res domain.OptimumResult) (common.Address, []byte, error) {
	if len(res.Path) == 0 {
		return common.Address{}, nil, apperror.New(apperror.CodeInvalidPath,
			apperror.WithContext("route has no routable steps"))
	}

	n := len(res.Path)
	intermediaries := make([]common.Address, n)
	tokens := make([]common.Address, n)
	data := make([]common.Address, n)
	for i, step := range res.Path {
		intermediaries[i] = step.Intermediary
		tokens[i] = step.Token
		data[i] = step.RoutingData
	}

	lap := res.Path[0].Intermediary
	calldata, err := e.abi.Pack(methodInitiate, res.AmountIn, lap, intermediaries, tokens, data)
	if err != nil {
		return common.Address{}, nil, apperror.New(apperror.CodeABIEncodingFailed,
			apperror.WithCause(err))
	}
	return lap, calldata, nil
}

// Execute turns the tick's winner into a decision and notifies listeners.
func (e *Executor) Execute(ctx context.Context, tick uint64, res domain.OptimumResult) (err error) {
	ctx, span := e.tracer.Start(ctx, "coordinator.execute",
		trace.WithAttributes(
			attribute.Int64("tick", int64(tick)),
			attribute.Int("steps", len(res.Path)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "execute failed")
		}
		span.End()
	}()

	to, calldata, err := e.Pack(res)
	if err != nil {
		return err
	}

	d := domain.Decision{
		ID:          uuid.NewString(),
		Tick:        tick,
		Timestamp:   e.now(),
		Result:      res,
		Coordinator: to,
		Calldata:    calldata,
	}

	if e.fees != nil {
		fees, ferr := e.fees.Estimate(ctx, to, calldata)
		if ferr != nil {
			e.metrics.feeFailures.Add(ctx, 1)
			e.logger.Warn(ctx, "fee estimate failed", "decision", d.ID, "error", ferr)
		} else {
			ether := fees.Ether()
			d.Fees = &ether
			d.GasLimit = fees.GasLimit
		}
	}

	profit, _ := d.Profit().Float64()
	e.metrics.decisions.Add(ctx, 1)
	e.metrics.profitWhole.Record(ctx, profit)
	span.SetAttributes(
		attribute.String("decision_id", d.ID),
		attribute.String("profit", d.Profit().String()),
	)

	e.logger.Info(ctx, "decision",
		"id", d.ID,
		"tick", tick,
		"token", d.TokenName(),
		"start_amount", d.StartAmount().String(),
		"profit", d.Profit().String(),
		"fees", feesString(d.Fees),
	)

	e.mu.RLock()
	listeners := make([]app.DecisionListener, len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.RUnlock()

	for _, l := range listeners {
		l.OnDecision(ctx, d)
	}
	return nil
}

func feesString(f *decimal.Decimal) string {
	if f == nil {
		return "unknown"
	}
	return f.String()
}
