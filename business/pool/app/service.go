package app

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/amm-quoter/business/pool/domain"
	"github.com/fd1az/amm-quoter/internal/apm"
	"github.com/fd1az/amm-quoter/internal/asset"
	"github.com/fd1az/amm-quoter/internal/logger"
)

// PoolService builds fresh snapshots. It keeps nothing between calls: every
// query pins a block and reads everything at it.
type PoolService struct {
	reader PoolReader
	logger logger.LoggerInterface
	tracer apm.Tracer
	now    func() time.Time
}

// NewPoolService creates a new PoolService.
func NewPoolService(reader PoolReader, log logger.LoggerInterface) *PoolService {
	return &PoolService{
		reader: reader,
		logger: log,
		tracer: apm.NewTracer("pool"),
		now:    time.Now,
	}
}

// Pair returns the pool's token metadata.
func (s *PoolService) Pair(ctx context.Context) (domain.Pair, error) {
	return s.reader.Pair(ctx)
}

// LatestBlock returns the head block number.
func (s *PoolService) LatestBlock(ctx context.Context) (uint64, error) {
	return s.reader.LatestBlockNumber(ctx)
}

// Snapshot reads the pool at the latest block.
func (s *PoolService) Snapshot(ctx context.Context) (domain.PoolState, error) {
	block, err := s.reader.LatestBlockNumber(ctx)
	if err != nil {
		return domain.PoolState{}, err
	}
	return s.SnapshotAt(ctx, block)
}

// SnapshotAt fans out the reserve and supply reads at block and joins them
// into one PoolState.
func (s *PoolService) SnapshotAt(ctx context.Context, block uint64) (state domain.PoolState, err error) {
	ctx, span := s.tracer.Start(ctx, "pool.snapshot", attribute.Int64("block", int64(block)))
	defer func() { span.Finish(err) }()

	pair, err := s.reader.Pair(ctx)
	if err != nil {
		return domain.PoolState{}, err
	}

	var reserveA, reserveB, supply *big.Int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reserveA, reserveB, err = s.reader.Reserves(gctx, block)
		return err
	})
	g.Go(func() error {
		var err error
		supply, err = s.reader.LPTotalSupply(gctx, block)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.PoolState{}, err
	}

	state, err = domain.NewPoolState(pair, reserveA, reserveB, supply, block, s.now())
	if err != nil {
		s.logger.Warn(ctx, "rejected pool snapshot", "block", block, "error", err)
		return domain.PoolState{}, err
	}

	s.logger.Debug(ctx, "pool snapshot",
		"block", block,
		"reserve_a", state.ReserveA.Raw().String(),
		"reserve_b", state.ReserveB.Raw().String(),
		"lp_supply", state.LPTotalSupply.Raw().String(),
	)
	return state, nil
}

// Holdings reads the pool and one owner's balances at the same block.
func (s *PoolService) Holdings(ctx context.Context, owner common.Address) (domain.Holdings, error) {
	block, err := s.reader.LatestBlockNumber(ctx)
	if err != nil {
		return domain.Holdings{}, err
	}
	return s.HoldingsAt(ctx, owner, block)
}

// HoldingsAt is Holdings pinned to block.
func (s *PoolService) HoldingsAt(ctx context.Context, owner common.Address, block uint64) (h domain.Holdings, err error) {
	ctx, span := s.tracer.Start(ctx, "pool.holdings",
		attribute.Int64("block", int64(block)),
		attribute.String("owner", owner.Hex()),
	)
	defer func() { span.Finish(err) }()

	var (
		state          domain.PoolState
		lp, balA, balB *big.Int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		state, err = s.SnapshotAt(gctx, block)
		return err
	})
	g.Go(func() error {
		var err error
		lp, err = s.reader.LPBalance(gctx, owner, block)
		return err
	})
	g.Go(func() error {
		var err error
		balA, balB, err = s.reader.TokenBalances(gctx, owner, block)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Holdings{}, err
	}

	h = domain.Holdings{State: state, Owner: owner}
	if h.LPBalance, err = asset.FromInteger(state.Pair.LPToken, lp); err != nil {
		return domain.Holdings{}, err
	}
	if h.BalanceA, err = asset.FromInteger(state.Pair.TokenA, balA); err != nil {
		return domain.Holdings{}, err
	}
	if h.BalanceB, err = asset.FromInteger(state.Pair.TokenB, balB); err != nil {
		return domain.Holdings{}, err
	}
	return h, nil
}
