package asset

import "github.com/ethereum/go-ethereum/common"

// Chain IDs
const (
	ChainIDEthereum = 1
	ChainIDSepolia  = 11155111
	ChainIDLocal    = 31337 // hardhat / anvil
)

// DefaultTokenDecimals is what the pool's test tokens use.
const DefaultTokenDecimals = 18

// Native coins used for gas accounting.
var (
	SepoliaETH = New(NativeID(ChainIDSepolia), "ETH", "Sepolia Ether", 18)
	LocalETH   = New(NativeID(ChainIDLocal), "ETH", "Local Ether", 18)
)

// DefaultRegistry returns a registry with the native coins of the supported chains.
// Pool tokens are registered at startup once their metadata is read from chain.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(SepoliaETH)
	r.Register(LocalETH)
	return r
}

// MustNewToken creates an ERC20 token asset. It panics on a zero address.
func MustNewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	return New(TokenID(chainID, address), symbol, name, decimals)
}
