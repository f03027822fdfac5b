package ethereum

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/cycle-arbitrage/business/blockchain/domain"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
)

// fakeHeads serves a scripted sequence of head numbers over HeaderByNumber
// and refuses websocket subscriptions.
type fakeHeads struct {
	mu      sync.Mutex
	numbers []int64
	i       int
}

func (f *fakeHeads) SubscribeNewHead(context.Context, chan<- *types.Header) (ethereum.Subscription, error) {
	return nil, errors.New("no ws")
}

func (f *fakeHeads) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.numbers[min(f.i, len(f.numbers)-1)]
	f.i++
	return &types.Header{Number: big.NewInt(n), Time: uint64(time.Now().Unix())}, nil
}

func (f *fakeHeads) Close() {}

func httpOnly(t *testing.T, heads *fakeHeads) *Subscriber {
	t.Helper()
	cfg := DefaultSubscriberConfig("", "http://node")
	cfg.PollInterval = 5 * time.Millisecond
	cfg.InitialBackoff = 10 * time.Millisecond
	cfg.Dial = func(context.Context, string) (HeadClient, error) { return heads, nil }

	s, err := NewSubscriber(cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSubscriber_PollsAndDeduplicates(t *testing.T) {
	s := httpOnly(t, &fakeHeads{numbers: []int64{10, 10, 11, 9, 12}})

	blocks, err := s.Subscribe(context.Background())
	require.NoError(t, err)

	var got []uint64
	for len(got) < 3 {
		select {
		case b := <-blocks:
			got = append(got, b.Tick())
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, got %v", got)
		}
	}

	assert.Equal(t, []uint64{10, 11, 12}, got)
	assert.True(t, s.Status().UsingHTTP)
	assert.Equal(t, domain.StateConnected, s.Status().State)
}

func TestSubscriber_SubscribeTwiceSharesChannel(t *testing.T) {
	s := httpOnly(t, &fakeHeads{numbers: []int64{1}})

	a, err := s.Subscribe(context.Background())
	require.NoError(t, err)
	b, err := s.Subscribe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSubscriber_CloseEndsStream(t *testing.T) {
	s := httpOnly(t, &fakeHeads{numbers: []int64{1}})

	blocks, err := s.Subscribe(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-blocks:
			if !ok {
				_, err := s.Subscribe(context.Background())
				assert.Error(t, err)
				return
			}
		case <-deadline:
			t.Fatal("channel not closed")
		}
	}
}

func TestSubscriber_LatestBlock(t *testing.T) {
	s := httpOnly(t, &fakeHeads{numbers: []int64{42}})

	b, err := s.LatestBlock(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 42, b.Number)
}

func TestNewSubscriber_NeedsURL(t *testing.T) {
	_, err := NewSubscriber(SubscriberConfig{}, logger.Nop())
	assert.Error(t, err)
}
