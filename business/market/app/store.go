// Package app holds the price stores and their registry.
package app

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/cycle-arbitrage/business/market/domain"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

const tracerName = "market"

// SnapshotFunc receives a consistent picture of the graph for a tick.
type SnapshotFunc func(ctx context.Context, tick uint64, cells []float64, tokens []asset.Token)

// Store owns one price graph and the callbacks fed from it.
type Store struct {
	id    int
	graph *domain.Graph

	mu        sync.RWMutex
	callbacks []SnapshotFunc

	tracer trace.Tracer
}

func newStore(id int) *Store {
	return &Store{
		id:     id,
		graph:  domain.NewGraph(),
		tracer: otel.Tracer(tracerName),
	}
}

func (s *Store) ID() int { return s.id }

// Graph is the store's live price graph.
func (s *Store) Graph() *domain.Graph { return s.graph }

// OnSnapshot registers cb to run on every Dispatch.
func (s *Store) OnSnapshot(cb SnapshotFunc) {
	s.mu.Lock()
	s.callbacks = append(s.callbacks, cb)
	s.mu.Unlock()
}

// Dispatch snapshots the graph once and hands the picture to every
// callback. It is a no-op without callbacks. Callers that must not block
// run it on their own goroutine.
func (s *Store) Dispatch(ctx context.Context, tick uint64) {
	s.mu.RLock()
	callbacks := make([]SnapshotFunc, len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.RUnlock()

	if len(callbacks) == 0 {
		return
	}

	ctx, span := s.tracer.Start(ctx, "market.dispatch",
		trace.WithAttributes(
			attribute.Int("store_id", s.id),
			attribute.Int64("tick", int64(tick)),
		),
	)
	defer span.End()

	cells, tokens := s.graph.Snapshot()
	span.SetAttributes(attribute.Int("tokens", len(tokens)))

	for _, cb := range callbacks {
		cb(ctx, tick, cells, tokens)
	}
}
