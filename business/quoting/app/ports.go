// Package app contains the quoting use cases: each one takes a fresh pool
// snapshot, runs the pure engines over it and applies the safety policy.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	chaindomain "github.com/fd1az/amm-quoter/business/blockchain/domain"
	pooldomain "github.com/fd1az/amm-quoter/business/pool/domain"
	"github.com/fd1az/amm-quoter/business/quoting/domain"
)

// PoolSnapshotter reads block-pinned pool state. Implemented by the pool
// context's PoolService.
type PoolSnapshotter interface {
	Snapshot(ctx context.Context) (pooldomain.PoolState, error)
	SnapshotAt(ctx context.Context, block uint64) (pooldomain.PoolState, error)
	Holdings(ctx context.Context, owner common.Address) (pooldomain.Holdings, error)
	HoldingsAt(ctx context.Context, owner common.Address, block uint64) (pooldomain.Holdings, error)
}

// GasPricer prices a gas limit at the current gas price.
type GasPricer interface {
	EstimateCost(ctx context.Context, gasLimit uint64) (*chaindomain.GasEstimate, error)
}

// CallEncoder turns submission tuples into unsigned transactions.
type CallEncoder interface {
	HasRouter() bool
	Swap(s domain.SwapSubmission) ([]domain.Call, error)
	RouterSwap(s domain.SwapSubmission) ([]domain.Call, error)
	AddLiquidity(s domain.AddSubmission) ([]domain.Call, error)
	RemoveLiquidity(s domain.RemoveSubmission) ([]domain.Call, error)
}

// Reporter receives the watcher's per-block results.
type Reporter interface {
	Start(ctx context.Context) error
	Report(update *BlockUpdate)
	UpdateConnectionStatus(status chaindomain.ConnectionStatus)
	ReportError(err error)
	Stop() error
}
