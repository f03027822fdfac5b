package domain

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SortTokens returns the pair in pool order (token0 < token1).
func SortTokens(a, b common.Address) (common.Address, common.Address, error) {
	if a == b {
		return common.Address{}, common.Address{}, ErrIdenticalAddresses
	}
	token0, token1 := a, b
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		token0, token1 = b, a
	}
	if token0 == (common.Address{}) {
		return common.Address{}, common.Address{}, ErrZeroAddress
	}
	return token0, token1, nil
}

// PairFor derives the pool address without an RPC round trip:
// CREATE2(factory, keccak256(token0 ‖ token1), initCodeHash).
func PairFor(factory, a, b common.Address, initCodeHash common.Hash) (common.Address, error) {
	token0, token1, err := SortTokens(a, b)
	if err != nil {
		return common.Address{}, err
	}
	salt := crypto.Keccak256Hash(token0.Bytes(), token1.Bytes())
	return crypto.CreateAddress2(factory, salt, initCodeHash.Bytes()), nil
}
