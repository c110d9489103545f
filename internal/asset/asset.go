// Package asset models on-chain tokens and exact fixed-point quantities of them.
// Reserve math runs on big.Int; decimal.Decimal only appears when parsing
// user input and rendering output.
package asset

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MaxDecimals bounds token precision; anything larger is treated as a misconfigured token.
const MaxDecimals = 36

// ID identifies an asset by chain and contract address. The zero address is
// the chain's gas coin. Symbols are display metadata, never identity.
type ID struct {
	ChainID uint64
	Address common.Address
}

// NativeID is the gas coin of a chain.
func NativeID(chainID uint64) ID {
	return ID{ChainID: chainID}
}

// TokenID is an ERC-20 contract. It panics on the zero address.
func TokenID(chainID uint64, addr common.Address) ID {
	if addr == (common.Address{}) {
		panic("asset: token address cannot be zero")
	}
	return ID{ChainID: chainID, Address: addr}
}

// IsNative reports whether id is a chain's gas coin.
func (id ID) IsNative() bool {
	return id.Address == (common.Address{})
}

func (id ID) String() string {
	if id.IsNative() {
		return fmt.Sprintf("chain:%d/native", id.ChainID)
	}
	return fmt.Sprintf("chain:%d/%s", id.ChainID, id.Address.Hex())
}

// Asset is a token's identity and scale. Pool tokens are built from the
// symbol(), name() and decimals() the contract reports.
type Asset struct {
	id       ID
	symbol   string
	name     string
	decimals uint8
	unit     *big.Int // 10^decimals, one whole token in raw units
}

// New creates an Asset. It panics on an empty symbol or absurd decimals.
func New(id ID, symbol, name string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > MaxDecimals {
		panic(fmt.Sprintf("asset: %s reports %d decimals", symbol, decimals))
	}
	return &Asset{
		id:       id,
		symbol:   symbol,
		name:     name,
		decimals: decimals,
		unit:     pow10(int64(decimals)),
	}
}

func (a *Asset) ID() ID {
	return a.id
}

// Symbol returns the ticker symbol (e.g., "TKA").
func (a *Asset) Symbol() string {
	return a.symbol
}

// Name returns the token name, falling back to the symbol.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

func (a *Asset) Decimals() uint8 {
	return a.decimals
}

// Unit returns 10^decimals. The result is a fresh copy.
func (a *Asset) Unit() *big.Int {
	return new(big.Int).Set(a.unit)
}

func (a *Asset) ChainID() uint64 {
	return a.id.ChainID
}

// Address returns the token contract address (zero for native coins).
func (a *Asset) Address() common.Address {
	return a.id.Address
}

func (a *Asset) IsNative() bool {
	return a.id.IsNative()
}

func (a *Asset) String() string {
	return a.symbol
}

// Equals compares two Assets by ID.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.id == other.id
}
