// Package ethereum provides the head subscription and fee oracle over go-ethereum.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/cycle-arbitrage/business/blockchain/app"
	"github.com/fd1az/cycle-arbitrage/business/blockchain/domain"
	"github.com/fd1az/cycle-arbitrage/internal/apperror"
	"github.com/fd1az/cycle-arbitrage/internal/circuitbreaker"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
)

const (
	tracerName = "github.com/fd1az/cycle-arbitrage/business/blockchain/infra/ethereum"
	meterName  = "github.com/fd1az/cycle-arbitrage/business/blockchain/infra/ethereum"
)

// HeadClient is the slice of the RPC client used for heads.
// *ethclient.Client satisfies it.
type HeadClient interface {
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	Close()
}

// Dialer opens a HeadClient for url.
type Dialer func(ctx context.Context, url string) (HeadClient, error)

// DialEthclient is the production Dialer.
func DialEthclient(ctx context.Context, url string) (HeadClient, error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SubscriberConfig holds configuration for the head subscriber.
type SubscriberConfig struct {
	WSURL          string
	HTTPURL        string
	PollInterval   time.Duration // HTTP fallback cadence
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BufferSize     int
	Dial           Dialer
}

// DefaultSubscriberConfig polls every 12s while the websocket is down.
func DefaultSubscriberConfig(wsURL, httpURL string) SubscriberConfig {
	return SubscriberConfig{
		WSURL:          wsURL,
		HTTPURL:        httpURL,
		PollInterval:   12 * time.Second,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		BufferSize:     16,
		Dial:           DialEthclient,
	}
}

type subscriberMetrics struct {
	blocksReceived  metric.Int64Counter
	blocksDropped   metric.Int64Counter
	subscribeErrors metric.Int64Counter
	connectionState metric.Int64Gauge
	blockLatency    metric.Float64Histogram
	httpFallback    metric.Int64Counter
}

// Subscriber streams heads over the websocket endpoint and falls back to
// polling the HTTP endpoint while the websocket is unavailable. Heads are
// emitted with strictly increasing numbers.
type Subscriber struct {
	config SubscriberConfig
	logger logger.LoggerInterface

	httpMu     sync.Mutex
	httpClient HeadClient

	state      atomic.Value // domain.ConnectionState
	usingHTTP  atomic.Bool
	lastBlock  atomic.Uint64
	reconnects atomic.Int32

	blocks    chan *domain.Block
	started   atomic.Bool
	cancelMu  sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once

	httpCB *circuitbreaker.CircuitBreaker[*types.Header]

	tracer  trace.Tracer
	metrics *subscriberMetrics
}

var _ app.BlockSubscriber = (*Subscriber)(nil)

// NewSubscriber creates a subscriber. It does not dial.
func NewSubscriber(cfg SubscriberConfig, log logger.LoggerInterface) (*Subscriber, error) {
	if cfg.WSURL == "" && cfg.HTTPURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("subscriber needs a ws or http url"))
	}
	if cfg.Dial == nil {
		cfg.Dial = DialEthclient
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}

	s := &Subscriber{
		config: cfg,
		logger: log,
		blocks: make(chan *domain.Block, cfg.BufferSize),
		done:   make(chan struct{}),
		tracer: otel.Tracer(tracerName),
	}
	s.state.Store(domain.StateDisconnected)

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("eth-http")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		s.logger.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	s.httpCB = circuitbreaker.New[*types.Header](cbCfg)

	return s, nil
}

func (s *Subscriber) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &subscriberMetrics{}

	s.metrics.blocksReceived, err = meter.Int64Counter(
		"eth_blocks_received_total",
		metric.WithDescription("Heads emitted as ticks"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return err
	}

	s.metrics.blocksDropped, err = meter.Int64Counter(
		"eth_blocks_dropped_total",
		metric.WithDescription("Heads dropped because the consumer lagged"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return err
	}

	s.metrics.subscribeErrors, err = meter.Int64Counter(
		"eth_subscribe_errors_total",
		metric.WithDescription("Head subscription and poll errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	s.metrics.connectionState, err = meter.Int64Gauge(
		"eth_connection_state",
		metric.WithDescription("0=disconnected, 1=connecting, 2=connected, 3=reconnecting"),
		metric.WithUnit("{state}"),
	)
	if err != nil {
		return err
	}

	s.metrics.blockLatency, err = meter.Float64Histogram(
		"eth_block_latency_ms",
		metric.WithDescription("Block timestamp to receipt"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	s.metrics.httpFallback, err = meter.Int64Counter(
		"eth_http_fallback_total",
		metric.WithDescription("Switches to HTTP polling"),
		metric.WithUnit("{fallback}"),
	)
	return err
}

// Subscribe starts the head loop once and returns the shared channel.
func (s *Subscriber) Subscribe(ctx context.Context) (<-chan *domain.Block, error) {
	select {
	case <-s.done:
		return nil, apperror.New(apperror.CodeEthereumSubscribeFailed,
			apperror.WithContext("subscriber is closed"))
	default:
	}
	if !s.started.CompareAndSwap(false, true) {
		return s.blocks, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancelMu.Lock()
	s.cancel = cancel
	s.cancelMu.Unlock()

	go s.run(ctx)
	return s.blocks, nil
}

// run owns the blocks channel and closes it on exit.
func (s *Subscriber) run(ctx context.Context) {
	defer close(s.blocks)

	s.setState(ctx, domain.StateConnecting)
	backoff := s.config.InitialBackoff

	for ctx.Err() == nil {
		if s.config.WSURL != "" {
			err := s.streamWS(ctx)
			if ctx.Err() != nil {
				return
			}
			s.metrics.subscribeErrors.Add(ctx, 1)
			s.logger.Warn(ctx, "ws head stream ended", "error", err)
		}

		s.setState(ctx, domain.StateReconnecting)
		s.reconnects.Add(1)

		if s.config.HTTPURL != "" {
			// Poll until it is time to retry the websocket.
			s.pollHTTP(ctx, backoff)
		} else {
			select {
			case <-ctx.Done():
			case <-time.After(backoff):
			}
		}
		backoff = min(backoff*2, s.config.MaxBackoff)
	}
}

// streamWS blocks until the websocket subscription fails.
func (s *Subscriber) streamWS(ctx context.Context) error {
	client, err := s.config.Dial(ctx, s.config.WSURL)
	if err != nil {
		return fmt.Errorf("dial ws: %w", err)
	}
	defer client.Close()

	headers := make(chan *types.Header, s.config.BufferSize)
	sub, err := client.SubscribeNewHead(ctx, headers)
	if err != nil {
		return fmt.Errorf("subscribe new head: %w", err)
	}
	defer sub.Unsubscribe()

	s.usingHTTP.Store(false)
	s.setState(ctx, domain.StateConnected)
	s.logger.Info(ctx, "subscribed to new heads", "url", s.config.WSURL)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription closed")
			}
			return err
		case h := <-headers:
			if h != nil {
				s.emit(ctx, h, false)
			}
		}
	}
}

// pollHTTP polls the HTTP endpoint for window, then returns.
func (s *Subscriber) pollHTTP(ctx context.Context, window time.Duration) {
	client, err := s.http(ctx)
	if err != nil {
		s.logger.Error(ctx, "http fallback unavailable", "error", err)
		select {
		case <-ctx.Done():
		case <-time.After(window):
		}
		return
	}

	if !s.usingHTTP.Swap(true) {
		s.metrics.httpFallback.Add(ctx, 1)
		s.logger.Info(ctx, "polling heads over http", "interval", s.config.PollInterval)
	}
	s.setState(ctx, domain.StateConnected)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()
	deadline := time.After(max(window, s.config.PollInterval))

	s.poll(ctx, client)
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			if s.config.WSURL != "" {
				return
			}
			deadline = time.After(window)
		case <-ticker.C:
			s.poll(ctx, client)
		}
	}
}

func (s *Subscriber) poll(ctx context.Context, client HeadClient) {
	ctx, span := s.tracer.Start(ctx, "eth.poll.head")
	defer span.End()

	h, err := s.httpCB.Execute(func() (*types.Header, error) {
		return client.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		span.RecordError(err)
		s.metrics.subscribeErrors.Add(ctx, 1)
		s.logger.Warn(ctx, "http head poll failed", "error", err)
		return
	}
	s.emit(ctx, h, true)
}

// http lazily dials the fallback client.
func (s *Subscriber) http(ctx context.Context) (HeadClient, error) {
	s.httpMu.Lock()
	defer s.httpMu.Unlock()

	if s.httpClient != nil {
		return s.httpClient, nil
	}
	client, err := s.config.Dial(ctx, s.config.HTTPURL)
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithCause(err), apperror.WithContext(s.config.HTTPURL))
	}
	s.httpClient = client
	return client, nil
}

// emit forwards h unless it is not newer than the last head. A full buffer
// drops the head: a lagging consumer only cares about the newest tick.
func (s *Subscriber) emit(ctx context.Context, h *types.Header, fromHTTP bool) {
	block := headerToBlock(h)
	for {
		last := s.lastBlock.Load()
		if block.Number <= last && last != 0 {
			return
		}
		if s.lastBlock.CompareAndSwap(last, block.Number) {
			break
		}
	}

	s.metrics.blockLatency.Record(ctx, float64(time.Since(block.Timestamp).Milliseconds()),
		metric.WithAttributes(attribute.Bool("from_http", fromHTTP)))

	select {
	case s.blocks <- block:
		s.metrics.blocksReceived.Add(ctx, 1)
		s.logger.Debug(ctx, "head", "number", block.Number, "from_http", fromHTTP)
	default:
		s.metrics.blocksDropped.Add(ctx, 1)
		s.logger.Warn(ctx, "head dropped, consumer lagging", "number", block.Number)
	}
}

func headerToBlock(h *types.Header) *domain.Block {
	return &domain.Block{
		Number:     h.Number.Uint64(),
		Hash:       h.Hash(),
		ParentHash: h.ParentHash,
		Timestamp:  time.Unix(int64(h.Time), 0),
		BaseFee:    h.BaseFee,
	}
}

// LatestBlock fetches the head over HTTP.
func (s *Subscriber) LatestBlock(ctx context.Context) (*domain.Block, error) {
	ctx, span := s.tracer.Start(ctx, "eth.latest_block")
	defer span.End()

	client, err := s.http(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no client")
		return nil, err
	}

	h, err := s.httpCB.Execute(func() (*types.Header, error) {
		return client.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, apperror.New(apperror.CodeBlockNotFound,
			apperror.WithCause(err),
			apperror.WithContext("latest head"))
	}
	return headerToBlock(h), nil
}

// Status returns detailed connection status.
func (s *Subscriber) Status() domain.ConnectionStatus {
	return domain.ConnectionStatus{
		State:      s.state.Load().(domain.ConnectionState),
		LastBlock:  s.lastBlock.Load(),
		Reconnects: int(s.reconnects.Load()),
		UsingHTTP:  s.usingHTTP.Load(),
	}
}

// Close stops the head loop. It is idempotent.
func (s *Subscriber) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancelMu.Lock()
		if s.cancel != nil {
			s.cancel()
		}
		s.cancelMu.Unlock()

		s.httpMu.Lock()
		if s.httpClient != nil {
			s.httpClient.Close()
			s.httpClient = nil
		}
		s.httpMu.Unlock()

		s.setState(context.Background(), domain.StateDisconnected)
	})
	return nil
}

func (s *Subscriber) setState(ctx context.Context, state domain.ConnectionState) {
	s.state.Store(state)
	s.metrics.connectionState.Record(ctx, state.Gauge())
}
