package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	mdomain "github.com/fd1az/cycle-arbitrage/business/market/domain"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

// SubscriptionKey identifies a price subscription: venue, environment and
// canonical pair. Token order does not matter.
type SubscriptionKey struct {
	Exchange    string
	Environment asset.Environment
	Pair        mdomain.PairKey
}

// Subscription is an active price feed for one pair on one venue. TokenA
// and TokenB keep the order the client asked for.
type Subscription struct {
	Exchange    string
	Environment asset.Environment
	TokenA      asset.Token
	TokenB      asset.Token
	AmountIn    *float64
	Router      common.Address
	Factory     common.Address
}

// NewSubscription builds a subscription from a priceData query.
func NewSubscription(q Query, env asset.Environment) Subscription {
	s := Subscription{
		Exchange:    strings.ToLower(q.Exchange),
		Environment: env,
		TokenA:      q.TokenA,
		TokenB:      q.TokenB,
		AmountIn:    q.AmountIn,
	}
	if common.IsHexAddress(q.RouterAddress) {
		s.Router = common.HexToAddress(q.RouterAddress)
	}
	if common.IsHexAddress(q.FactoryAddress) {
		s.Factory = common.HexToAddress(q.FactoryAddress)
	}
	return s
}

func (s Subscription) Key() SubscriptionKey {
	return SubscriptionKey{
		Exchange:    s.Exchange,
		Environment: s.Environment,
		Pair:        s.Pair().Key(),
	}
}

func (s Subscription) Pair() mdomain.TokenPair {
	return mdomain.NewTokenPair(s.TokenA, s.TokenB)
}
