// Package domain holds the DEX venue descriptors and constant-product math.
package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/cycle-arbitrage/internal/apperror"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

// Kind selects the pricing math of a venue.
type Kind string

const KindConstantProduct Kind = "constant-product"

// Exchange is a value descriptor of one DEX deployment.
type Exchange struct {
	Name         string
	Environment  asset.Environment
	Kind         Kind
	Fee          int64 // per mille
	Router       common.Address
	Factory      common.Address
	Coordinator  common.Address
	InitCodeHash common.Hash
}

// Key identifies the venue inside the price graph.
func (e Exchange) Key() string {
	return fmt.Sprintf("%s@%s", e.Name, e.Environment)
}

// Routable reports whether trades through this venue can be coordinated
// on chain: both a coordinator and a router are known.
func (e Exchange) Routable() bool {
	return e.Coordinator != (common.Address{}) && e.Router != (common.Address{})
}

// AmountOut dispatches to the venue's math.
func (e Exchange) AmountOut(amountIn, reserveIn, reserveOut *big.Int, fee int64) (*big.Int, error) {
	switch e.Kind {
	case KindConstantProduct, "":
		return GetAmountOut(amountIn, reserveIn, reserveOut, fee)
	default:
		return nil, apperror.New(apperror.CodeUnknownExchange,
			apperror.WithContext(fmt.Sprintf("no math for kind %q", e.Kind)))
	}
}

// PairAddress derives the pool address of a/b on this venue.
func (e Exchange) PairAddress(a, b common.Address) (common.Address, error) {
	return PairFor(e.Factory, a, b, e.InitCodeHash)
}

var (
	initCodeUniswap     = common.HexToHash("0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f")
	initCodePancakeswap = common.HexToHash("0xd0d4c4cd0848c93cb4fd1f498d7013ee6bfb25783ea21593d5834f5d250ece66")

	coordinator = common.HexToAddress("0x69FBa73a3D24A538f7E10eE0190B7Dc8Bb332fdF")
)

// Catalogue lists the venues deployed on env.
func Catalogue(env asset.Environment) []Exchange {
	if env == asset.Development {
		return []Exchange{
			{
				Name: "uniswap", Environment: env, Kind: KindConstantProduct, Fee: 3,
				Router:       common.HexToAddress("0xF76921660f6fcDb161A59c77d5daE6Be5ae89D20"),
				Factory:      common.HexToAddress("0xADf1687e201d1DCb466D902F350499D008811e84"),
				Coordinator:  coordinator,
				InitCodeHash: initCodeUniswap,
			},
			{
				Name: "pancakeswap", Environment: env, Kind: KindConstantProduct, Fee: 2,
				Router:       common.HexToAddress("0xD99D1c33F9fC3444f8101754aBC46c52416550D1"),
				Factory:      common.HexToAddress("0x6725F303b657a9451d8BA641348b6761A6CC7a17"),
				Coordinator:  coordinator,
				InitCodeHash: initCodePancakeswap,
			},
			{
				Name: "apeswap", Environment: env, Kind: KindConstantProduct, Fee: 3,
				Router:       common.HexToAddress("0x1c6f40e550421D4307f9D5a878a1628c50be0C5B"),
				Factory:      common.HexToAddress("0x5722F3b02b9fe2003b3045D73E9230684707B257"),
				Coordinator:  coordinator,
				InitCodeHash: initCodeUniswap,
			},
		}
	}
	return []Exchange{
		{
			Name: "uniswap", Environment: asset.Production, Kind: KindConstantProduct, Fee: 3,
			Router:       common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
			Factory:      common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"),
			Coordinator:  coordinator,
			InitCodeHash: initCodeUniswap,
		},
	}
}

// Lookup finds a venue by name (case-insensitive) on env.
func Lookup(name string, env asset.Environment) (Exchange, error) {
	for _, e := range Catalogue(env) {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return Exchange{}, apperror.New(apperror.CodeUnknownExchange,
		apperror.WithContext(fmt.Sprintf("%s on %s", name, env)))
}
