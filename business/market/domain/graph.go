package domain

import (
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

// Graph maps canonical pairs to per-venue reserve records and keeps the
// sorted set of every token that appears in a stored pair.
type Graph struct {
	mu     sync.RWMutex
	tokens []asset.Token
	prices map[PairKey]map[string]ReserveFeeInfo
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{prices: make(map[PairKey]map[string]ReserveFeeInfo)}
}

// Insert records info for the a→b observation on info.Exchange. Repeat
// inserts merge: only the direction matching a→b is overwritten.
func (g *Graph) Insert(a, b asset.Token, info ReserveFeeInfo) {
	pair := NewTokenPair(a, b)
	info.TokenA, info.TokenB = pair.A, pair.B
	key := info.Exchange.Key()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.addToken(pair.A)
	g.addToken(pair.B)

	venues, ok := g.prices[pair.Key()]
	if !ok {
		venues = make(map[string]ReserveFeeInfo)
		g.prices[pair.Key()] = venues
	}

	prev, ok := venues[key]
	if !ok {
		venues[key] = info
		return
	}

	if a.Less(b) {
		if info.SpotAB != nil {
			prev.SpotAB = info.SpotAB
		}
	} else if info.SpotBA != nil {
		prev.SpotBA = info.SpotBA
	}
	if info.ReserveA != nil && info.ReserveB != nil {
		prev.ReserveA, prev.ReserveB = info.ReserveA, info.ReserveB
	}
	prev.Fee = info.Fee
	prev.Exchange = info.Exchange
	venues[key] = prev
}

// addToken sorted-inserts t. Caller holds the write lock.
func (g *Graph) addToken(t asset.Token) {
	i, found := slices.BinarySearchFunc(g.tokens, t, asset.Token.Compare)
	if found {
		return
	}
	g.tokens = slices.Insert(g.tokens, i, t)
}

// Remove drops every venue record of the pair. Tokens stay.
func (g *Graph) Remove(pair TokenPair) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.prices, pair.Key())
}

// Price is the best a→b rate across venues: 1 for a==b, +Inf when unknown.
func (g *Graph) Price(a, b asset.Token) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.price(a, b)
}

func (g *Graph) price(a, b asset.Token) float64 {
	if a.Equal(b) {
		return 1
	}
	venues, ok := g.prices[NewTokenPair(a, b).Key()]
	if !ok || len(venues) == 0 {
		return math.Inf(1)
	}

	best := 0.0
	for _, info := range venues {
		best = math.Max(best, info.Spot(a.Address))
	}
	return best
}

// Reserves returns the pair's records ordered by venue key, nil when none.
func (g *Graph) Reserves(a, b asset.Token) []ReserveFeeInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()

	venues := g.prices[NewTokenPair(a, b).Key()]
	if len(venues) == 0 {
		return nil
	}

	keys := make([]string, 0, len(venues))
	for k := range venues {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]ReserveFeeInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, venues[k])
	}
	return out
}

// Snapshot returns the flattened N×N price matrix (cell[i*N+j] is the
// tokens[i]→tokens[j] rate) with the token list it was built from.
func (g *Graph) Snapshot() ([]float64, []asset.Token) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := len(g.tokens)
	tokens := slices.Clone(g.tokens)
	cells := make([]float64, n*n)
	for i := range n {
		for j := range n {
			cells[i*n+j] = g.price(tokens[i], tokens[j])
		}
	}
	return cells, tokens
}

// Tokens returns a copy of the sorted token list.
func (g *Graph) Tokens() []asset.Token {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.tokens)
}

// PairCount is the number of pairs with at least one record.
func (g *Graph) PairCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.prices)
}
