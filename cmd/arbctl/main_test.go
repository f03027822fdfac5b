package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/cycle-arbitrage/business/feed/domain"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

const (
	weth = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	usdc = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
)

func TestBuildRequests(t *testing.T) {
	reqs, err := buildRequests(options{
		exchange:  "uniswap",
		env:       "development",
		pairs:     "WETH:" + weth + "/USDC:" + usdc + ":6",
		amountIn:  2,
		decisions: true,
	})
	require.NoError(t, err)
	require.Len(t, reqs, 3)

	assert.Equal(t, domain.TopicEnvironment, reqs[0].Topic)
	assert.Equal(t, asset.Development, reqs[0].Environment)

	q := reqs[1].Query
	require.NotNil(t, q)
	assert.Equal(t, domain.TypeSubscribe, reqs[1].Type)
	assert.Equal(t, "WETH", q.TokenA.Name)
	assert.Equal(t, uint8(18), q.TokenA.Decimals)
	assert.Equal(t, uint8(6), q.TokenB.Decimals)
	require.NotNil(t, q.AmountIn)
	assert.Equal(t, 2.0, *q.AmountIn)

	assert.Equal(t, domain.TopicDecision, reqs[2].Topic)
}

func TestBuildRequests_BadPair(t *testing.T) {
	for _, pairs := range []string{"WETH", "WETH:" + weth + "/USDC", "WETH:0x12/USDC:" + usdc, "A:" + weth + "/B:" + usdc + ":x"} {
		_, err := buildRequests(options{pairs: pairs})
		assert.Error(t, err, pairs)
	}
}

func TestFeedURL(t *testing.T) {
	u, err := feedURL("ws://localhost:8080", 3)
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080?store=3", u)

	u, err = feedURL("ws://localhost:8080/", -1)
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/", u)
}
