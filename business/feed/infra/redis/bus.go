package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	feedapp "github.com/fd1az/cycle-arbitrage/business/feed/app"
	"github.com/fd1az/cycle-arbitrage/business/feed/domain"
	"github.com/fd1az/cycle-arbitrage/internal/apperror"
)

const tracerName = "feed.redis"

// streamMaxLen trims the decision stream with XADD MAXLEN ~.
const streamMaxLen int64 = 10000

// DecisionBus publishes decision responses on a Pub/Sub channel for live
// consumers and appends them to a stream for replay.
type DecisionBus struct {
	rdb     *redis.Client
	channel string
	stream  string
	tracer  trace.Tracer
}

var _ feedapp.DecisionPublisher = (*DecisionBus)(nil)

// NewDecisionBus publishes to channel and stream. An empty stream disables
// the durable copy.
func NewDecisionBus(c *Client, channel, stream string) *DecisionBus {
	return &DecisionBus{
		rdb:     c.rdb,
		channel: channel,
		stream:  stream,
		tracer:  otel.Tracer(tracerName),
	}
}

// PublishDecision sends resp as JSON.
func (b *DecisionBus) PublishDecision(ctx context.Context, resp domain.Response) error {
	ctx, span := b.tracer.Start(ctx, "redis.publish_decision",
		trace.WithAttributes(
			attribute.String("channel", b.channel),
			attribute.String("stream", b.stream),
		),
	)
	defer span.End()

	payload, err := json.Marshal(resp)
	if err != nil {
		return b.fail(span, err, "marshal")
	}

	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return b.fail(span, err, "publish "+b.channel)
	}

	if b.stream == "" {
		return nil
	}
	args := &redis.XAddArgs{
		Stream: b.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{"payload": payload},
	}
	if err := b.rdb.XAdd(ctx, args).Err(); err != nil {
		return b.fail(span, err, "xadd "+b.stream)
	}
	return nil
}

// Ping checks the underlying connection.
func (b *DecisionBus) Ping(ctx context.Context) error {
	if err := b.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

func (b *DecisionBus) fail(span trace.Span, err error, op string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return apperror.New(apperror.CodePublishFailed, apperror.WithCause(err), apperror.WithContext(op))
}

// Subscribe streams decoded decisions from channel until ctx is done. Glob
// channels use PSUBSCRIBE. Payloads that do not decode are skipped.
func (b *DecisionBus) Subscribe(ctx context.Context, channel string) (<-chan domain.Response, error) {
	var pubsub *redis.PubSub
	if hasPattern(channel) {
		pubsub = b.rdb.PSubscribe(ctx, channel)
	} else {
		pubsub = b.rdb.Subscribe(ctx, channel)
	}

	// confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, apperror.New(apperror.CodeServiceUnavailable,
			apperror.WithCause(err), apperror.WithContext("subscribe "+channel))
	}

	out := make(chan domain.Response, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				resp, err := DecodeResponse([]byte(msg.Payload))
				if err != nil {
					continue
				}
				select {
				case out <- resp:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// DecodeResponse parses a payload written by PublishDecision.
func DecodeResponse(payload []byte) (domain.Response, error) {
	var resp domain.Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return domain.Response{}, apperror.New(apperror.CodeMalformedRequest, apperror.WithCause(err))
	}
	return resp, nil
}

func hasPattern(channel string) bool {
	return strings.ContainsAny(channel, "*?[")
}
