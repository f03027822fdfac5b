package asset

import "github.com/ethereum/go-ethereum/common"

// Chain IDs
const (
	ChainIDEthereum   = 1
	ChainIDBSCTestnet = 97
)

// AddrWETHEthereum is the canonical mainnet WETH. The zero address in a
// request resolves to WETH, overridable through config.
var AddrWETHEthereum = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")

// Ethereum mainnet tokens
var (
	WETH = NewToken("ETH", AddrWETHEthereum.Hex(), 18)
	USDT = NewToken("Tether", "0xdAC17F958D2ee523a2206206994597C13D831ec7", 6)
	USDC = NewToken("USD Coin", "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", 6)
	AAVE = NewToken("Aave", "0x7Fc66500c84A76Ad7e9c93437bFc5Ac33E2DDaE9", 18)
)

// BSC testnet tokens used by the development environment
var (
	WETHBSCTestnet = NewToken("ETH", "0x272473bFB0C70e7316Ec04cFbae03EB3571A8D8F", 18)
	USDTBSCTestnet = NewToken("USDT", "0x0a1B8D7450F69d33803e8b084aBA9d2F858f6574", 18)
	TKABSCTestnet  = NewToken("TKA", "0x9c36c0a6FFD4322c647572CACfc1d5C475c854CD", 18)
	TKBBSCTestnet  = NewToken("TKB", "0xBf8C59a713927773f9Bf1BCcE21269f7bd95BC6c", 18)
)

// PairInfo names a tradable pair in the default lists.
type PairInfo struct {
	Symbol string
	TokenA Token
	TokenB Token
}

// DefaultPairs returns the pairs quoted out of the box for env.
func DefaultPairs(env Environment) []PairInfo {
	if env == Development {
		return []PairInfo{
			{Symbol: "ETH/USDT", TokenA: WETHBSCTestnet, TokenB: USDTBSCTestnet},
			{Symbol: "TKA/TKB", TokenA: TKABSCTestnet, TokenB: TKBBSCTestnet},
			{Symbol: "ETH/TKA", TokenA: WETHBSCTestnet, TokenB: TKABSCTestnet},
			{Symbol: "TKB/USDT", TokenA: TKBBSCTestnet, TokenB: USDTBSCTestnet},
		}
	}
	return []PairInfo{
		{Symbol: "ETH/USDT", TokenA: WETH, TokenB: USDT},
		{Symbol: "ETH/USDC", TokenA: WETH, TokenB: USDC},
		{Symbol: "AAVE/ETH", TokenA: AAVE, TokenB: WETH},
	}
}

// DefaultRegistry returns a registry pre-populated with the tokens of env.
func DefaultRegistry(env Environment) *Registry {
	r := NewRegistry()
	if env == Development {
		r.Register(WETHBSCTestnet)
		r.Register(USDTBSCTestnet)
		r.Register(TKABSCTestnet)
		r.Register(TKBBSCTestnet)
		return r
	}
	r.Register(WETH)
	r.Register(USDT)
	r.Register(USDC)
	r.Register(AAVE)
	return r
}
