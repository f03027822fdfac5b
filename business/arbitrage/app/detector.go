package app

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/cycle-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
)

// Detector turns graph snapshots into scheduled chains. OnSnapshot matches
// the market store's snapshot callback.
type Detector struct {
	scheduler *Scheduler
	reserves  domain.ReserveSource
	maxCycles int
	logger    logger.LoggerInterface
	tracer    trace.Tracer
}

// NewDetector searches up to maxCycles source tokens per snapshot.
func NewDetector(s *Scheduler, reserves domain.ReserveSource, maxCycles int, log logger.LoggerInterface) *Detector {
	if maxCycles <= 0 {
		maxCycles = 1
	}
	return &Detector{
		scheduler: s,
		reserves:  reserves,
		maxCycles: maxCycles,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
}

// OnSnapshot finds profitable cycles in cells, submits one chain per
// distinct cycle and then evaluates the tick.
func (d *Detector) OnSnapshot(ctx context.Context, tick uint64, cells []float64, tokens []asset.Token) {
	ctx, span := d.tracer.Start(ctx, "arbitrage.detect",
		trace.WithAttributes(
			attribute.Int64("tick", int64(tick)),
			attribute.Int("tokens", len(tokens)),
		),
	)
	defer span.End()

	n := len(tokens)
	seen := make(map[string]struct{})
	for src := range min(n, d.maxCycles) {
		path, ok := domain.FindCycle(cells, n, src)
		if !ok {
			continue
		}
		key := cycleKey(path)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		chain, err := domain.BuildChain(path, tokens, d.reserves)
		if err != nil {
			d.logger.Warn(ctx, "cycle rejected", "path", path, "error", err)
			continue
		}
		d.scheduler.Submit(chain, tick)
	}
	span.SetAttributes(attribute.Int("cycles", len(seen)))

	if len(seen) == 0 {
		return
	}
	if err := d.scheduler.Evaluate(ctx, tick); err != nil {
		d.logger.Error(ctx, "evaluation failed", "tick", tick, "error", err)
	}
}

// cycleKey identifies a round trip regardless of where it starts.
func cycleKey(path []int) string {
	ring := path[:len(path)-1]
	if len(ring) == 0 {
		return ""
	}
	i := slices.Index(ring, slices.Min(ring))
	return fmt.Sprint(append(slices.Clone(ring[i:]), ring[:i]...))
}
