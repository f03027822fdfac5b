// Package domain holds the price graph and the records stored in it.
package domain

import (
	"fmt"

	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

// TokenPair is an unordered pair kept in canonical order: A < B by address.
type TokenPair struct {
	A asset.Token
	B asset.Token
}

// NewTokenPair canonicalizes a and b.
func NewTokenPair(a, b asset.Token) TokenPair {
	if b.Less(a) {
		a, b = b, a
	}
	return TokenPair{A: a, B: b}
}

// Key is the map key of the pair; identity is the address only.
func (p TokenPair) Key() PairKey {
	return PairKey{A: p.A.Address, B: p.B.Address}
}

// Equal compares canonical forms.
func (p TokenPair) Equal(other TokenPair) bool {
	return p.Key() == other.Key()
}

func (p TokenPair) String() string {
	return fmt.Sprintf("%s/%s", p.A, p.B)
}
