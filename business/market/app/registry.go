package app

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/cycle-arbitrage/internal/apperror"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
)

const meterName = "market"

// Registry hands out stores by integer id.
type Registry struct {
	mu     sync.RWMutex
	next   int
	stores map[int]*Store

	log    logger.LoggerInterface
	active metric.Int64UpDownCounter
}

// NewRegistry creates an empty registry.
func NewRegistry(log logger.LoggerInterface) *Registry {
	r := &Registry{
		stores: make(map[int]*Store),
		log:    log,
	}

	active, err := otel.Meter(meterName).Int64UpDownCounter(
		"market_stores_active",
		metric.WithDescription("Price stores currently registered"),
	)
	if err == nil {
		r.active = active
	}

	return r
}

// CreateStore allocates a new store and returns its id. Ids are never reused.
func (r *Registry) CreateStore() int {
	r.mu.Lock()
	id := r.next
	r.next++
	r.stores[id] = newStore(id)
	r.mu.Unlock()

	if r.active != nil {
		r.active.Add(context.Background(), 1)
	}
	r.log.Debug(context.Background(), "store created", "store_id", id)
	return id
}

// Get returns the store with id.
func (r *Registry) Get(id int) (*Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stores[id]
	if !ok {
		return nil, apperror.New(apperror.CodeStoreNotFound, apperror.WithContext(fmt.Sprintf("store %d", id)))
	}
	return s, nil
}

// Remove forgets a store. Unknown ids are ignored.
func (r *Registry) Remove(id int) {
	r.mu.Lock()
	_, ok := r.stores[id]
	delete(r.stores, id)
	r.mu.Unlock()

	if ok && r.active != nil {
		r.active.Add(context.Background(), -1)
	}
}

// Count returns the number of live stores.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}
