// Package asset provides the token model shared by every bounded context.
// Identity and ordering are the contract address; name and decimals are metadata.
// The core uses big.Int for exact on-chain representation.
// decimal.Decimal is only used at boundaries (spot prices, display, parsing).
package asset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultDecimals applies when a token is declared without decimals.
const DefaultDecimals uint8 = 18

// Environment selects the network a token list or exchange belongs to.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// ParseEnvironment defaults to Production for empty or unknown values.
func ParseEnvironment(s string) Environment {
	if strings.EqualFold(s, string(Development)) {
		return Development
	}
	return Production
}

// Token is an ERC20 token.
type Token struct {
	Name     string
	Address  common.Address
	Decimals uint8
}

// NewToken creates a token from a hex address.
func NewToken(name, address string, decimals uint8) Token {
	return Token{Name: name, Address: common.HexToAddress(address), Decimals: decimals}
}

// Compare orders tokens by address bytes.
func (t Token) Compare(other Token) int {
	return bytes.Compare(t.Address.Bytes(), other.Address.Bytes())
}

// Less reports whether t sorts before other.
func (t Token) Less(other Token) bool {
	return t.Compare(other) < 0
}

// Equal compares identity only.
func (t Token) Equal(other Token) bool {
	return t.Address == other.Address
}

// IsZero reports whether the token has the zero address.
func (t Token) IsZero() bool {
	return t.Address == (common.Address{})
}

// Unit returns 10^decimals, the base-unit size of one whole token.
func (t Token) Unit() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(t.Decimals)), nil)
}

func (t Token) String() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Address.Hex()
}

type tokenJSON struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Decimals *uint8 `json:"decimals,omitempty"`
}

// MarshalJSON writes {name, address, decimals}.
func (t Token) MarshalJSON() ([]byte, error) {
	d := t.Decimals
	return json.Marshal(tokenJSON{Name: t.Name, Address: t.Address.Hex(), Decimals: &d})
}

// UnmarshalJSON accepts a missing decimals field and defaults it to 18.
func (t *Token) UnmarshalJSON(data []byte) error {
	var raw tokenJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Address != "" && !common.IsHexAddress(raw.Address) {
		return fmt.Errorf("asset: invalid token address %q", raw.Address)
	}

	t.Name = raw.Name
	t.Address = common.HexToAddress(raw.Address)
	t.Decimals = DefaultDecimals
	if raw.Decimals != nil {
		t.Decimals = *raw.Decimals
	}
	return nil
}
