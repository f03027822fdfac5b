// Package app runs client sessions: price subscriptions, decision fan-out
// and the per-tick refresh.
package app

import (
	"context"

	exapp "github.com/fd1az/cycle-arbitrage/business/exchange/app"
	exdomain "github.com/fd1az/cycle-arbitrage/business/exchange/domain"
	"github.com/fd1az/cycle-arbitrage/business/feed/domain"
	mapp "github.com/fd1az/cycle-arbitrage/business/market/app"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

// Quoter prices one subscription. *exapp.Quoter satisfies it.
type Quoter interface {
	Normalize(t asset.Token) asset.Token
	MeanPrice(ctx context.Context, sink exapp.PriceSink, req exapp.QuoteRequest) (exdomain.Quote, error)
}

// StoreLookup resolves store ids. *mapp.Registry satisfies it.
type StoreLookup interface {
	Get(id int) (*mapp.Store, error)
}

// DecisionPublisher forwards decision pushes outside the process.
type DecisionPublisher interface {
	PublishDecision(ctx context.Context, resp domain.Response) error
}
