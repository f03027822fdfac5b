package domain

import (
	"fmt"
	"math/big"

	mdomain "github.com/fd1az/cycle-arbitrage/business/market/domain"
	"github.com/fd1az/cycle-arbitrage/internal/apperror"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

// ReserveSource is the read side of the price graph used to build chains.
type ReserveSource interface {
	Reserves(a, b asset.Token) []mdomain.ReserveFeeInfo
}

// Hop is one swap of a chain. The head owns the whole list.
type Hop struct {
	TokenA     asset.Token
	TokenB     asset.Token
	Candidates []mdomain.ReserveFeeInfo
	Next       *Hop
}

// BuildChain links one hop per consecutive pair of path, indexing into the
// token list that came with the snapshot the path was found in.
func BuildChain(path []int, tokens []asset.Token, src ReserveSource) (*Hop, error) {
	if len(path) < 2 {
		return nil, ErrChainTooShort
	}
	for _, idx := range path {
		if idx < 0 || idx >= len(tokens) {
			return nil, apperror.New(apperror.CodeInvalidPath,
				apperror.WithContext(fmt.Sprintf("index %d outside %d tokens", idx, len(tokens))))
		}
	}

	var head, tail *Hop
	for i := 0; i < len(path)-1; i++ {
		a, b := tokens[path[i]], tokens[path[i+1]]
		h := &Hop{TokenA: a, TokenB: b, Candidates: src.Reserves(a, b)}
		if head == nil {
			head = h
		} else {
			tail.Next = h
		}
		tail = h
	}
	return head, nil
}

// Len counts the hops from h to the end.
func (h *Hop) Len() int {
	n := 0
	for cur := h; cur != nil; cur = cur.Next {
		n++
	}
	return n
}

// Last returns the final hop.
func (h *Hop) Last() *Hop {
	cur := h
	for cur.Next != nil {
		cur = cur.Next
	}
	return cur
}

// Tokens lists the route: TokenA of every hop, then the final TokenB.
func (h *Hop) Tokens() []asset.Token {
	var out []asset.Token
	for cur := h; cur != nil; cur = cur.Next {
		out = append(out, cur.TokenA)
	}
	return append(out, h.Last().TokenB)
}

// Price routes amountIn through the chain, taking the best venue per hop.
// Ties go to the first candidate.
func (h *Hop) Price(amountIn *big.Int) (*big.Int, []ExecutionStep, error) {
	if len(h.Candidates) == 0 {
		return nil, nil, apperror.New(apperror.CodeNoReserve,
			apperror.WithContext(fmt.Sprintf("%s -> %s", h.TokenA, h.TokenB)))
	}

	var (
		best    *big.Int
		winner  mdomain.ReserveFeeInfo
		lastErr error
	)
	for _, c := range h.Candidates {
		out, err := c.AmountOut(amountIn, h.TokenA)
		if err != nil {
			lastErr = err
			continue
		}
		if best == nil || out.Cmp(best) > 0 {
			best, winner = out, c
		}
	}
	if best == nil {
		return nil, nil, lastErr
	}

	var steps []ExecutionStep
	if ex := winner.Exchange; ex.Routable() {
		steps = append(steps, ExecutionStep{
			Intermediary: ex.Coordinator,
			Token:        h.TokenA.Address,
			TokenName:    h.TokenA.Name,
			RoutingData:  ex.Router,
			ExchangeName: ex.Name,
		})
		if h.Next == nil {
			steps = append(steps, ExecutionStep{
				Intermediary: ex.Coordinator,
				Token:        h.TokenB.Address,
				TokenName:    h.TokenB.Name,
				RoutingData:  ex.Router,
				ExchangeName: ex.Name,
			})
		}
	}

	if h.Next == nil {
		return best, steps, nil
	}

	out, rest, err := h.Next.Price(best)
	if err != nil {
		return nil, nil, err
	}
	return out, append(steps, rest...), nil
}
