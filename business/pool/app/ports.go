// Package app contains the pool snapshot use cases and the ledger-reading port.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/amm-quoter/business/pool/domain"
)

// PoolReader reads raw pool state from the ledger. Every block-taking method
// must answer as of exactly that block.
type PoolReader interface {
	// Pair returns the pool's token metadata. It never changes, so implementations may cache it.
	Pair(ctx context.Context) (domain.Pair, error)

	LatestBlockNumber(ctx context.Context) (uint64, error)

	Reserves(ctx context.Context, block uint64) (reserveA, reserveB *big.Int, err error)

	LPTotalSupply(ctx context.Context, block uint64) (*big.Int, error)

	LPBalance(ctx context.Context, owner common.Address, block uint64) (*big.Int, error)

	TokenBalances(ctx context.Context, owner common.Address, block uint64) (balanceA, balanceB *big.Int, err error)
}
