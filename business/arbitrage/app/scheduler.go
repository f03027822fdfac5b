package app

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/cycle-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
)

const (
	tracerName = "github.com/fd1az/cycle-arbitrage/business/arbitrage/app"
	meterName  = "github.com/fd1az/cycle-arbitrage/business/arbitrage/app"
)

// SchedulerConfig tunes evaluation.
type SchedulerConfig struct {
	// ForwardStale forwards a winner even when a newer tick arrived while
	// it was being evaluated.
	ForwardStale bool
	// Parallelism caps concurrent optimizations; 0 means GOMAXPROCS.
	Parallelism int
}

type schedulerMetrics struct {
	submitted   metric.Int64Counter
	evaluations metric.Int64Counter
	skipped     metric.Int64Counter
	failures    metric.Int64Counter
	forwarded   metric.Int64Counter
	duration    metric.Float64Histogram
}

// Scheduler collects the chains found for a tick and evaluates them once.
// Evaluate is single-flight: a call that finds another evaluation running,
// or whose tick is no longer current, returns without doing anything.
type Scheduler struct {
	optimizer ChainOptimizer
	executor  Executor
	config    SchedulerConfig
	logger    logger.LoggerInterface

	busy atomic.Bool

	mu      sync.Mutex
	tick    uint64
	pending []*domain.Hop

	tracer  trace.Tracer
	metrics *schedulerMetrics
}

// NewScheduler creates a scheduler that forwards winners to exec.
func NewScheduler(opt ChainOptimizer, exec Executor, cfg SchedulerConfig, log logger.LoggerInterface) (*Scheduler, error) {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = runtime.GOMAXPROCS(0)
	}
	s := &Scheduler{
		optimizer: opt,
		executor:  exec,
		config:    cfg,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return s, nil
}

func (s *Scheduler) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &schedulerMetrics{}

	s.metrics.submitted, err = meter.Int64Counter(
		"arbitrage_chains_submitted_total",
		metric.WithDescription("Chains queued for evaluation"),
		metric.WithUnit("{chain}"),
	)
	if err != nil {
		return err
	}

	s.metrics.evaluations, err = meter.Int64Counter(
		"arbitrage_evaluations_total",
		metric.WithDescription("Evaluations that ran"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return err
	}

	s.metrics.skipped, err = meter.Int64Counter(
		"arbitrage_evaluations_skipped_total",
		metric.WithDescription("Evaluate calls dropped as busy or stale"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return err
	}

	s.metrics.failures, err = meter.Int64Counter(
		"arbitrage_chain_failures_total",
		metric.WithDescription("Chains the optimizer could not solve"),
		metric.WithUnit("{chain}"),
	)
	if err != nil {
		return err
	}

	s.metrics.forwarded, err = meter.Int64Counter(
		"arbitrage_winners_forwarded_total",
		metric.WithDescription("Winners handed to the executor"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return err
	}

	s.metrics.duration, err = meter.Float64Histogram(
		"arbitrage_evaluation_duration_ms",
		metric.WithDescription("Wall time of one evaluation"),
		metric.WithUnit("ms"),
	)
	return err
}

// Submit queues chain for tick. Any change of tick, newer or older, discards
// what was pending; a late trigger for the abandoned tick is then stale in
// Evaluate.
func (s *Scheduler) Submit(chain *domain.Hop, tick uint64) {
	if chain == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tick != s.tick {
		s.tick = tick
		s.pending = nil
	}
	s.pending = append(s.pending, chain)
	s.metrics.submitted.Add(context.Background(), 1)
}

// Tick is the tick of the last Submit.
func (s *Scheduler) Tick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Pending counts the chains waiting for the current tick.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Evaluate optimizes every chain pending for tick and forwards the best.
// Only executor errors are returned.
func (s *Scheduler) Evaluate(ctx context.Context, tick uint64) (err error) {
	if !s.busy.CompareAndSwap(false, true) {
		s.metrics.skipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "busy")))
		return nil
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	if tick != s.tick {
		s.mu.Unlock()
		s.metrics.skipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "stale")))
		return nil
	}
	chains := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(chains) == 0 {
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "arbitrage.evaluate",
		trace.WithAttributes(
			attribute.Int64("tick", int64(tick)),
			attribute.Int("chains", len(chains)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "execute failed")
		}
		span.End()
	}()

	start := time.Now()
	s.metrics.evaluations.Add(ctx, 1)

	best, ok := s.optimizeAll(ctx, chains)
	s.metrics.duration.Record(ctx, float64(time.Since(start).Milliseconds()))
	if !ok {
		span.AddEvent("no_winner")
		return nil
	}

	if !s.config.ForwardStale && s.Tick() != tick {
		span.AddEvent("winner_stale")
		s.logger.Debug(ctx, "dropping stale winner", "tick", tick, "current", s.Tick())
		return nil
	}

	span.SetAttributes(
		attribute.String("amount_in", best.AmountIn.String()),
		attribute.String("amount_out", best.AmountOut.String()),
	)
	s.metrics.forwarded.Add(ctx, 1)
	return s.executor.Execute(ctx, tick, best)
}

// optimizeAll runs the optimizer over chains concurrently and returns the
// result with the largest AmountOut. Ties go to the earlier chain.
func (s *Scheduler) optimizeAll(ctx context.Context, chains []*domain.Hop) (domain.OptimumResult, bool) {
	results := make([]*domain.OptimumResult, len(chains))

	var g errgroup.Group
	g.SetLimit(s.config.Parallelism)
	for i, chain := range chains {
		g.Go(func() error {
			res, err := s.optimizer.OptimalPrice(chain)
			if err != nil {
				s.metrics.failures.Add(ctx, 1)
				s.logger.Debug(ctx, "chain dropped", "hops", chain.Len(), "error", err)
				return nil
			}
			results[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	var best *domain.OptimumResult
	for _, r := range results {
		if r == nil {
			continue
		}
		if best == nil || r.AmountOut.Cmp(best.AmountOut) > 0 {
			best = r
		}
	}
	if best == nil {
		return domain.OptimumResult{}, false
	}
	return *best, true
}
