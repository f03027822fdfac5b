package websocket

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exapp "github.com/fd1az/cycle-arbitrage/business/exchange/app"
	exdomain "github.com/fd1az/cycle-arbitrage/business/exchange/domain"
	feedapp "github.com/fd1az/cycle-arbitrage/business/feed/app"
	"github.com/fd1az/cycle-arbitrage/business/feed/domain"
	mapp "github.com/fd1az/cycle-arbitrage/business/market/app"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
)

type unitQuoter struct{}

func (unitQuoter) Normalize(t asset.Token) asset.Token { return t }

func (unitQuoter) MeanPrice(_ context.Context, _ exapp.PriceSink, req exapp.QuoteRequest) (exdomain.Quote, error) {
	return exdomain.Quote{
		ExchangeName: req.Exchange.Name,
		Amount:       big.NewInt(1), AmountOut: big.NewInt(1),
		Price: 1, TransactionPrice: 1,
		TokenA: req.TokenA, TokenB: req.TokenB,
	}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *feedapp.Hub, int) {
	t.Helper()
	reg := mapp.NewRegistry(logger.Nop())
	storeID := reg.CreateStore()

	hub, err := feedapp.NewHub(reg, unitQuoter{}, feedapp.HubConfig{}, logger.Nop())
	require.NoError(t, err)

	srv := NewServer(hub, Config{DefaultStore: storeID, WriteTimeout: time.Second}, logger.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, hub, storeID
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(url, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

func TestServer_RequestReply(t *testing.T) {
	ts, _, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts.URL)

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"buy","topic":"buy"}`)))

	var resp domain.Response
	require.NoError(t, wsjson.Read(ctx, conn, &resp))
	assert.Equal(t, domain.StatusError, resp.Status)
	assert.Equal(t, domain.TopicBuy, resp.Topic)
	assert.Equal(t, "buy is not supported", resp.Error)
}

func TestServer_PushesTickQuotes(t *testing.T) {
	ts, hub, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts.URL)

	sub := `{"type":"subscribe","topic":"priceData","query":{"exchange":"uniswap",` +
		`"tokenA":{"name":"A","address":"0x0000000000000000000000000000000000000001"},` +
		`"tokenB":{"name":"B","address":"0x0000000000000000000000000000000000000002"}}}`
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(sub)))

	var ack domain.Response
	require.NoError(t, wsjson.Read(ctx, conn, &ack))
	require.Equal(t, domain.StatusSuccess, ack.Status)

	hub.OnTick(ctx, 1)

	var push domain.Response
	require.NoError(t, wsjson.Read(ctx, conn, &push))
	assert.Equal(t, domain.TopicPriceData, push.Topic)
	require.NotNil(t, push.Quote)
	assert.Equal(t, "uniswap", push.Quote.ExchangeName)
	assert.NotNil(t, push.QueryTime)
}

func TestServer_UnknownStore(t *testing.T) {
	ts, _, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/?store=42", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, resp, err = websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/?store=x", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_DisconnectClosesSession(t *testing.T) {
	ts, hub, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts.URL)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestServer_StartShutdown(t *testing.T) {
	reg := mapp.NewRegistry(logger.Nop())
	hub, err := feedapp.NewHub(reg, unitQuoter{}, feedapp.HubConfig{}, logger.Nop())
	require.NoError(t, err)

	srv := NewServer(hub, Config{Addr: "127.0.0.1:0", DefaultStore: reg.CreateStore()}, logger.Nop())
	require.NoError(t, srv.Start())
	require.NotEmpty(t, srv.Addr())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+srv.Addr(), nil)
	require.NoError(t, err)
	defer conn.CloseNow()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, srv.Shutdown(ctx))
	assert.Equal(t, 0, hub.Count())
}
