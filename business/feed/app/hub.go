package app

import (
	"context"
	"fmt"
	"math/big"
	"runtime"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	arbapp "github.com/fd1az/cycle-arbitrage/business/arbitrage/app"
	arbdomain "github.com/fd1az/cycle-arbitrage/business/arbitrage/domain"
	bdomain "github.com/fd1az/cycle-arbitrage/business/blockchain/domain"
	exapp "github.com/fd1az/cycle-arbitrage/business/exchange/app"
	exdomain "github.com/fd1az/cycle-arbitrage/business/exchange/domain"
	"github.com/fd1az/cycle-arbitrage/business/feed/domain"
	mapp "github.com/fd1az/cycle-arbitrage/business/market/app"
	mdomain "github.com/fd1az/cycle-arbitrage/business/market/domain"
	"github.com/fd1az/cycle-arbitrage/internal/apperror"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
)

const (
	tracerName = "feed"
	meterName  = "feed"
)

var _ arbapp.DecisionListener = (*Hub)(nil)

// HubConfig tunes the hub.
type HubConfig struct {
	SessionBuffer int // pushed responses queued per session
	Parallelism   int // concurrent quotes per tick; 0 means GOMAXPROCS
}

type hubMetrics struct {
	sessions  metric.Int64UpDownCounter
	requests  metric.Int64Counter
	quotes    metric.Int64Counter
	dropped   metric.Int64Counter
	decisions metric.Int64Counter
	tickTime  metric.Float64Histogram
}

// Hub owns every session, refreshes their subscriptions on each tick and
// fans decisions out to the sessions that asked for them.
type Hub struct {
	stores StoreLookup
	quoter Quoter
	config HubConfig
	logger logger.LoggerInterface

	mu       sync.RWMutex
	sessions map[string]*Session

	pubMu      sync.RWMutex
	publishers []DecisionPublisher

	tracer  trace.Tracer
	metrics *hubMetrics
}

// NewHub creates a hub over the given stores.
func NewHub(stores StoreLookup, quoter Quoter, cfg HubConfig, log logger.LoggerInterface) (*Hub, error) {
	if cfg.SessionBuffer <= 0 {
		cfg.SessionBuffer = 64
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = runtime.GOMAXPROCS(0)
	}

	h := &Hub{
		stores:   stores,
		quoter:   quoter,
		config:   cfg,
		logger:   log,
		sessions: make(map[string]*Session),
		tracer:   otel.Tracer(tracerName),
	}
	if err := h.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return h, nil
}

func (h *Hub) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	h.metrics = &hubMetrics{}

	h.metrics.sessions, err = meter.Int64UpDownCounter(
		"feed_sessions_active",
		metric.WithDescription("Open client sessions"),
	)
	if err != nil {
		return err
	}

	h.metrics.requests, err = meter.Int64Counter(
		"feed_requests_total",
		metric.WithDescription("Client requests handled"),
	)
	if err != nil {
		return err
	}

	h.metrics.quotes, err = meter.Int64Counter(
		"feed_quotes_total",
		metric.WithDescription("Subscription quotes computed per tick"),
	)
	if err != nil {
		return err
	}

	h.metrics.dropped, err = meter.Int64Counter(
		"feed_responses_dropped_total",
		metric.WithDescription("Pushed responses dropped because a session was slow"),
	)
	if err != nil {
		return err
	}

	h.metrics.decisions, err = meter.Int64Counter(
		"feed_decisions_broadcast_total",
		metric.WithDescription("Decisions broadcast to sessions"),
	)
	if err != nil {
		return err
	}

	h.metrics.tickTime, err = meter.Float64Histogram(
		"feed_tick_refresh_ms",
		metric.WithDescription("Time to refresh every subscription of a tick"),
		metric.WithUnit("ms"),
	)
	return err
}

// AddPublisher forwards every decision push to p as well.
func (h *Hub) AddPublisher(p DecisionPublisher) {
	h.pubMu.Lock()
	h.publishers = append(h.publishers, p)
	h.pubMu.Unlock()
}

// Open starts a session on storeID.
func (h *Hub) Open(storeID int) (*Session, error) {
	store, err := h.stores.Get(storeID)
	if err != nil {
		return nil, err
	}

	s := newSession(uuid.NewString(), store, h, h.config.SessionBuffer)

	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()

	h.metrics.sessions.Add(context.Background(), 1)
	h.logger.Info(context.Background(), "session opened", "session", s.id, "store_id", storeID)
	return s, nil
}

// Close ends a session and closes its message channel.
func (h *Hub) Close(id string) error {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		return apperror.New(apperror.CodeSessionNotFound, apperror.WithContext(id))
	}

	s.close()
	h.metrics.sessions.Add(context.Background(), -1)
	h.logger.Info(context.Background(), "session closed", "session", id)
	return nil
}

// Session looks a session up by id.
func (h *Hub) Session(id string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

// Count returns the number of open sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// pairHeld reports whether any open session on storeID still subscribes to
// pair, on any venue.
func (h *Hub) pairHeld(storeID int, pair mdomain.PairKey) bool {
	for _, s := range h.snapshot() {
		if s.StoreID() == storeID && s.holds(pair) {
			return true
		}
	}
	return false
}

func (h *Hub) snapshot() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// OnDecision pushes d to every session subscribed to decisions and to the
// registered publishers.
func (h *Hub) OnDecision(ctx context.Context, d arbdomain.Decision) {
	resp := domain.DecisionResponse(d)

	for _, s := range h.snapshot() {
		if !s.DecisionsArmed() {
			continue
		}
		if s.deliver(resp) {
			h.metrics.decisions.Add(ctx, 1)
		} else {
			h.metrics.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", string(domain.TopicDecision))))
		}
	}

	h.pubMu.RLock()
	publishers := h.publishers
	h.pubMu.RUnlock()
	for _, p := range publishers {
		if err := p.PublishDecision(ctx, resp); err != nil {
			h.logger.Warn(ctx, "decision publish failed", "decision", d.ID, "error", err)
		}
	}
}

// Run drives OnTick from a block stream until ctx ends or the stream closes.
func (h *Hub) Run(ctx context.Context, blocks <-chan *bdomain.Block) {
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-blocks:
			if !ok {
				return
			}
			h.OnTick(ctx, b.Tick())
		}
	}
}

// storeTick is the work of one store for one tick.
type storeTick struct {
	store       *mapp.Store
	subs        []domain.Subscription
	subscribers map[domain.SubscriptionKey][]*Session
	armed       bool
}

// OnTick re-quotes every active subscription, pushes the results to their
// sessions and, for stores with a session subscribed to decisions,
// dispatches a snapshot to the arbitrage detector.
func (h *Hub) OnTick(ctx context.Context, tick uint64) {
	ctx, span := h.tracer.Start(ctx, "feed.tick",
		trace.WithAttributes(attribute.Int64("tick", int64(tick))))
	defer span.End()

	for _, work := range h.group() {
		if len(work.subs) == 0 {
			continue
		}

		start := time.Now()
		responses := h.refresh(ctx, work.store, work.subs, tick)
		elapsed := time.Since(start)
		h.metrics.tickTime.Record(ctx, float64(elapsed.Microseconds())/1000)

		for i, sub := range work.subs {
			resp := responses[i].WithQueryTime(elapsed)
			for _, s := range work.subscribers[sub.Key()] {
				if !s.deliver(resp) {
					h.metrics.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", string(domain.TopicPriceData))))
				}
			}
		}

		h.logger.Debug(ctx, "tick refreshed",
			"tick", tick,
			"store_id", work.store.ID(),
			"subscriptions", len(work.subs),
			"elapsed_ms", elapsed.Milliseconds(),
		)

		if work.armed {
			work.store.Dispatch(ctx, tick)
		}
	}
}

// group collects the union of subscriptions per store. The first session
// to hold a key decides its query parameters.
func (h *Hub) group() []*storeTick {
	byStore := make(map[int]*storeTick)
	var order []int

	for _, s := range h.snapshot() {
		work, ok := byStore[s.StoreID()]
		if !ok {
			work = &storeTick{store: s.store, subscribers: make(map[domain.SubscriptionKey][]*Session)}
			byStore[s.StoreID()] = work
			order = append(order, s.StoreID())
		}
		if s.DecisionsArmed() {
			work.armed = true
		}
		for _, sub := range s.Subscriptions() {
			key := sub.Key()
			if _, seen := work.subscribers[key]; !seen {
				work.subs = append(work.subs, sub)
			}
			work.subscribers[key] = append(work.subscribers[key], s)
		}
	}

	out := make([]*storeTick, 0, len(order))
	for _, id := range order {
		out = append(out, byStore[id])
	}
	return out
}

// refresh quotes subs concurrently. A failing pair becomes an error
// response in its slot and never stops the others.
func (h *Hub) refresh(ctx context.Context, store *mapp.Store, subs []domain.Subscription, tick uint64) []domain.Response {
	responses := make([]domain.Response, len(subs))

	var g errgroup.Group
	g.SetLimit(h.config.Parallelism)

	for i, sub := range subs {
		g.Go(func() error {
			quote, err := h.quote(ctx, store, sub, tick)
			if err != nil {
				h.logger.Warn(ctx, "quote failed",
					"exchange", sub.Exchange,
					"pair", sub.Pair().String(),
					"error", err,
				)
				responses[i] = domain.Failure(domain.TopicPriceData, err)
				return nil
			}
			resp := domain.Success(domain.TopicPriceData)
			resp.Quote = domain.NewQuote(quote)
			responses[i] = resp
			h.metrics.quotes.Add(ctx, 1, metric.WithAttributes(attribute.String("exchange", sub.Exchange)))
			return nil
		})
	}
	_ = g.Wait()

	return responses
}

func (h *Hub) quote(ctx context.Context, store *mapp.Store, sub domain.Subscription, tick uint64) (exdomain.Quote, error) {
	ex, err := exdomain.Lookup(sub.Exchange, sub.Environment)
	if err != nil {
		return exdomain.Quote{}, err
	}
	if sub.Router != (common.Address{}) {
		ex.Router = sub.Router
	}
	if sub.Factory != (common.Address{}) {
		ex.Factory = sub.Factory
	}

	var amountIn *big.Int
	if sub.AmountIn != nil && *sub.AmountIn > 0 {
		amountIn = asset.FromDecimal(decimal.NewFromFloat(*sub.AmountIn), sub.TokenA.Decimals)
	}

	return h.quoter.MeanPrice(ctx, store.Graph(), exapp.QuoteRequest{
		Exchange: ex,
		TokenA:   sub.TokenA,
		TokenB:   sub.TokenB,
		AmountIn: amountIn,
		Tick:     tick,
	})
}
