package app

import (
	"context"
	"slices"
	"sync"

	exdomain "github.com/fd1az/cycle-arbitrage/business/exchange/domain"
	"github.com/fd1az/cycle-arbitrage/business/feed/domain"
	mapp "github.com/fd1az/cycle-arbitrage/business/market/app"
	mdomain "github.com/fd1az/cycle-arbitrage/business/market/domain"
	"github.com/fd1az/cycle-arbitrage/internal/apperror"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

// Session is one client's view of a store. Requests are answered
// synchronously; quotes and decisions arrive on Messages.
type Session struct {
	id    string
	store *mapp.Store
	hub   *Hub

	mu        sync.Mutex
	env       asset.Environment
	subs      map[domain.SubscriptionKey]domain.Subscription
	decisions bool
	out       chan domain.Response
	closed    bool
}

func newSession(id string, store *mapp.Store, hub *Hub, buffer int) *Session {
	return &Session{
		id:    id,
		store: store,
		hub:   hub,
		env:   asset.Production,
		subs:  make(map[domain.SubscriptionKey]domain.Subscription),
		out:   make(chan domain.Response, buffer),
	}
}

func (s *Session) ID() string   { return s.id }
func (s *Session) StoreID() int { return s.store.ID() }

// Messages carries pushed responses. It is closed when the session closes.
func (s *Session) Messages() <-chan domain.Response { return s.out }

// Environment is the default for requests that do not name one.
func (s *Session) Environment() asset.Environment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env
}

// DecisionsArmed reports whether the session subscribed to decisions.
func (s *Session) DecisionsArmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decisions
}

// Subscriptions returns the active price subscriptions.
func (s *Session) Subscriptions() []domain.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	slices.SortFunc(out, func(a, b domain.Subscription) int {
		if c := a.TokenA.Compare(b.TokenA); c != 0 {
			return c
		}
		return a.TokenB.Compare(b.TokenB)
	})
	return out
}

// HandleRequest parses raw and applies it. It always returns a response.
func (s *Session) HandleRequest(ctx context.Context, raw []byte) domain.Response {
	req, err := domain.ParseRequest(raw)
	if err != nil {
		topic := req.Topic
		if apperror.Is(err, apperror.CodeUnsupportedTopic) || topic == "" {
			topic = domain.TopicNone
		}
		s.hub.logger.Debug(ctx, "rejected request", "session", s.id, "error", err)
		return domain.Failure(topic, err)
	}

	s.hub.metrics.requests.Add(ctx, 1)

	switch req.Topic {
	case domain.TopicPriceData:
		return s.priceData(req)
	case domain.TopicDecision:
		return s.decision(req)
	case domain.TopicReset:
		return s.reset()
	case domain.TopicBuy:
		return domain.Failure(domain.TopicBuy, apperror.New(apperror.CodeBuyNotSupported))
	case domain.TopicEnvironment:
		s.mu.Lock()
		s.env = req.Env(asset.Production)
		s.mu.Unlock()
		return domain.Success(domain.TopicEnvironment)
	default:
		return domain.Success(domain.TopicNone)
	}
}

// priceData adds the subscription on subscribe; any other verb removes it.
// The pair leaves the store's graph once no session on the store holds it.
func (s *Session) priceData(req domain.Request) domain.Response {
	if req.Query == nil {
		return domain.Failure(domain.TopicPriceData, apperror.New(apperror.CodeMissingQuery))
	}

	q := *req.Query
	q.TokenA = s.hub.quoter.Normalize(q.TokenA)
	q.TokenB = s.hub.quoter.Normalize(q.TokenB)

	s.mu.Lock()
	env := req.Env(s.env)
	s.mu.Unlock()

	sub := domain.NewSubscription(q, env)

	if req.Type == domain.TypeSubscribe {
		if _, err := exdomain.Lookup(sub.Exchange, env); err != nil {
			return domain.Failure(domain.TopicPriceData, err)
		}
		if _, _, err := exdomain.SortTokens(sub.TokenA.Address, sub.TokenB.Address); err != nil {
			return domain.Failure(domain.TopicPriceData, err)
		}
		s.mu.Lock()
		s.subs[sub.Key()] = sub
		s.mu.Unlock()
		return domain.Success(domain.TopicPriceData)
	}

	s.mu.Lock()
	delete(s.subs, sub.Key())
	s.mu.Unlock()
	if !s.hub.pairHeld(s.store.ID(), sub.Key().Pair) {
		s.store.Graph().Remove(sub.Pair())
	}
	return domain.Success(domain.TopicPriceData)
}

func (s *Session) decision(req domain.Request) domain.Response {
	s.mu.Lock()
	s.decisions = req.Type == domain.TypeSubscribe
	s.mu.Unlock()
	return domain.Success(domain.TopicDecision)
}

// reset drops every subscription of the session. The graph keeps its pairs;
// they stop refreshing once nobody quotes them.
func (s *Session) reset() domain.Response {
	s.mu.Lock()
	s.subs = make(map[domain.SubscriptionKey]domain.Subscription)
	s.mu.Unlock()
	return domain.Success(domain.TopicReset)
}

func (s *Session) holds(pair mdomain.PairKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.subs {
		if key.Pair == pair {
			return true
		}
	}
	return false
}

// deliver queues resp without blocking. It reports false when the session
// is closed or its buffer is full.
func (s *Session) deliver(resp domain.Response) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.out <- resp:
		return true
	default:
		return false
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.out)
}
