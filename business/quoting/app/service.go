package app

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	chaindomain "github.com/fd1az/amm-quoter/business/blockchain/domain"
	pooldomain "github.com/fd1az/amm-quoter/business/pool/domain"
	"github.com/fd1az/amm-quoter/business/quoting/domain"
	safetyapp "github.com/fd1az/amm-quoter/business/safety/app"
	"github.com/fd1az/amm-quoter/internal/apm"
	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/asset"
	"github.com/fd1az/amm-quoter/internal/logger"
)

// Config holds the pool fee and the caller-facing defaults.
type Config struct {
	Fee                domain.Fee
	DefaultSlippagePct decimal.Decimal
}

// Service runs the quoting use cases. It holds no pool state; every call
// snapshots the pool first.
type Service struct {
	pools   PoolSnapshotter
	policy  *safetyapp.Policy
	encoder CallEncoder
	gas     GasPricer // optional
	config  Config
	logger  logger.LoggerInterface
	tracer  apm.Tracer
	now     func() time.Time
}

// NewService creates a new quoting Service. gas may be nil.
func NewService(
	pools PoolSnapshotter,
	policy *safetyapp.Policy,
	encoder CallEncoder,
	gas GasPricer,
	cfg Config,
	log logger.LoggerInterface,
) *Service {
	return &Service{
		pools:   pools,
		policy:  policy,
		encoder: encoder,
		gas:     gas,
		config:  cfg,
		logger:  log,
		tracer:  apm.NewTracer("quoting"),
		now:     time.Now,
	}
}

// Policy exposes the safety policy applied to swaps.
func (s *Service) Policy() *safetyapp.Policy {
	return s.policy
}

// SwapParams describes a swap to quote. Amount is in whole input-token units.
type SwapParams struct {
	Direction    pooldomain.Direction
	Amount       string
	SlippagePct  *decimal.Decimal // nil uses the configured default
	WithCalldata bool
	ViaRouter    bool
}

// SwapResult is a quote, the verdict on it and, when allowed and asked for,
// the transactions to submit.
type SwapResult struct {
	Pool     pooldomain.PoolState
	Quote    domain.SwapQuote
	Decision safetyapp.Decision
	Calls    []domain.Call
	Gas      *chaindomain.GasEstimate
}

// QuoteSwap quotes a swap at the latest block. A Blocked or expired trade is
// not an error: inspect Decision.Allowed.
func (s *Service) QuoteSwap(ctx context.Context, p SwapParams) (res SwapResult, err error) {
	ctx, span := s.tracer.Start(ctx, "quoting.swap", attribute.String("direction", p.Direction.String()))
	defer func() { span.Finish(err) }()

	pool, err := s.pools.Snapshot(ctx)
	if err != nil {
		return SwapResult{}, err
	}
	return s.quoteAt(ctx, pool, p)
}

func (s *Service) quoteAt(ctx context.Context, pool pooldomain.PoolState, p SwapParams) (SwapResult, error) {
	amountIn, err := asset.ParseString(pool.TokenIn(p.Direction), p.Amount)
	if err != nil {
		return SwapResult{}, err
	}

	slippage := s.config.DefaultSlippagePct
	if p.SlippagePct != nil {
		slippage = *p.SlippagePct
	}

	q, err := domain.QuoteSwap(pool, domain.SwapRequest{
		Direction:   p.Direction,
		AmountIn:    amountIn,
		Fee:         s.config.Fee,
		SlippagePct: slippage,
	})
	if err != nil {
		return SwapResult{}, err
	}

	now := s.now()
	res := SwapResult{
		Pool:     pool,
		Quote:    q,
		Decision: s.policy.Evaluate(pool.Pair.Address, q, now, s.policy.Deadline(now)),
	}

	s.logger.Debug(ctx, "swap quoted",
		"block", pool.BlockNumber,
		"direction", p.Direction.String(),
		"amount_in", q.AmountIn.ToDecimalString(),
		"amount_out", q.AmountOut.ToDecimalString(),
		"impact_pct", q.PriceImpactPct.StringFixed(4),
		"decision", res.Decision.Impact.String(),
	)

	if !res.Decision.Allowed || !p.WithCalldata {
		return res, nil
	}

	if p.ViaRouter {
		res.Calls, err = s.encoder.RouterSwap(*res.Decision.Submission)
	} else {
		res.Calls, err = s.encoder.Swap(*res.Decision.Submission)
	}
	if err != nil {
		return SwapResult{}, err
	}
	res.Gas = s.estimate(ctx, domain.SwapGasLimit, len(res.Calls)-1)
	return res, nil
}

// AddParams describes a liquidity contribution. Counterpart is only read when
// the pool is empty; otherwise it is derived from the reserves.
type AddParams struct {
	Side         pooldomain.Side
	Amount       string
	Counterpart  string
	WithCalldata bool
}

// AddResult is a proposed contribution. Submission is nil when there is
// nothing to submit (a cleared or one-sided proposal).
type AddResult struct {
	Pool         pooldomain.PoolState
	Contribution domain.Contribution
	Submission   *domain.AddSubmission
	Calls        []domain.Call
	Gas          *chaindomain.GasEstimate
}

// ProposeAdd derives the counterpart amount for an add-liquidity request.
func (s *Service) ProposeAdd(ctx context.Context, p AddParams) (res AddResult, err error) {
	ctx, span := s.tracer.Start(ctx, "quoting.add", attribute.String("side", p.Side.String()))
	defer func() { span.Finish(err) }()

	pool, err := s.pools.Snapshot(ctx)
	if err != nil {
		return AddResult{}, err
	}

	in := domain.ContributionInput{Edited: p.Side}
	if p.Amount != "" {
		if in.Entered, err = asset.ParseString(pool.Pair.Token(p.Side), p.Amount); err != nil {
			return AddResult{}, err
		}
	}
	if p.Counterpart != "" {
		if in.Counterpart, err = asset.ParseString(pool.Pair.Token(p.Side.Other()), p.Counterpart); err != nil {
			return AddResult{}, err
		}
	}

	c, err := domain.ProposeContribution(pool, in)
	if err != nil {
		return AddResult{}, err
	}

	res = AddResult{Pool: pool, Contribution: c}
	sub, ok := domain.NewAddSubmission(pool.Pair.Address, c)
	if !ok {
		return res, nil
	}
	res.Submission = &sub

	if p.WithCalldata {
		if res.Calls, err = s.encoder.AddLiquidity(sub); err != nil {
			return AddResult{}, err
		}
		res.Gas = s.estimate(ctx, domain.AddGasLimit, len(res.Calls)-1)
	}
	return res, nil
}

// RemoveParams describes a withdrawal: either an LP amount, or a percentage
// of Owner's LP balance.
type RemoveParams struct {
	LPAmount     string
	Percent      string
	Owner        common.Address
	WithCalldata bool
}

// RemoveResult is a proposed withdrawal and its submission tuple.
type RemoveResult struct {
	Pool       pooldomain.PoolState
	Withdrawal domain.Withdrawal
	Submission domain.RemoveSubmission
	Calls      []domain.Call
	Gas        *chaindomain.GasEstimate
}

// ProposeRemove computes the proportional payout of burning LP tokens.
func (s *Service) ProposeRemove(ctx context.Context, p RemoveParams) (res RemoveResult, err error) {
	ctx, span := s.tracer.Start(ctx, "quoting.remove")
	defer func() { span.Finish(err) }()

	if (p.LPAmount == "") == (p.Percent == "") {
		return RemoveResult{}, apperror.Validation(apperror.CodeInvalidInput, "give exactly one of an LP amount or a percentage")
	}

	var w domain.Withdrawal
	if p.Percent != "" {
		if p.Owner == (common.Address{}) {
			return RemoveResult{}, apperror.Validation(apperror.CodeInvalidInput, "a percentage needs the LP holder's address")
		}
		pct, perr := decimal.NewFromString(p.Percent)
		if perr != nil {
			return RemoveResult{}, apperror.New(apperror.CodeParseError,
				apperror.WithCause(perr), apperror.WithContextf("%q is not a percentage", p.Percent))
		}

		h, herr := s.pools.Holdings(ctx, p.Owner)
		if herr != nil {
			return RemoveResult{}, herr
		}
		res.Pool = h.State
		w, err = domain.WithdrawalFromPercent(h.State, h.LPBalance, pct)
	} else {
		if res.Pool, err = s.pools.Snapshot(ctx); err != nil {
			return RemoveResult{}, err
		}
		lp, perr := asset.ParseString(res.Pool.Pair.LPToken, p.LPAmount)
		if perr != nil {
			return RemoveResult{}, perr
		}
		w, err = domain.ProposeWithdrawal(res.Pool, lp)
	}
	if err != nil {
		return RemoveResult{}, err
	}

	res.Withdrawal = w
	res.Submission = domain.NewRemoveSubmission(res.Pool.Pair.Address, w)

	if p.WithCalldata {
		if res.Calls, err = s.encoder.RemoveLiquidity(res.Submission); err != nil {
			return RemoveResult{}, err
		}
		res.Gas = s.estimate(ctx, domain.RemoveGasLimit, len(res.Calls)-1)
	}
	return res, nil
}

// PositionResult is a holder's balances and LP position at one block.
type PositionResult struct {
	Holdings pooldomain.Holdings
	Position domain.LPPosition
}

// Position reads owner's LP position at the latest block.
func (s *Service) Position(ctx context.Context, owner common.Address) (PositionResult, error) {
	h, err := s.pools.Holdings(ctx, owner)
	if err != nil {
		return PositionResult{}, err
	}
	return positionOf(h)
}

func positionOf(h pooldomain.Holdings) (PositionResult, error) {
	pos, err := domain.ComputePosition(h.LPBalance, h.State.LPTotalSupply, h.State)
	if err != nil {
		return PositionResult{}, err
	}
	return PositionResult{Holdings: h, Position: pos}, nil
}

// ILParams describes an impermanent loss estimate. Without Current the pool's
// marginal price is used.
type ILParams struct {
	Entry   string
	Current string
	Quote   domain.PriceQuote
}

// ILResult is the estimate and, when the current price came from the pool,
// the snapshot it was read from.
type ILResult struct {
	Estimate domain.ILEstimate
	Pool     *pooldomain.PoolState
}

// ImpermanentLoss estimates the loss of an LP position versus holding.
func (s *Service) ImpermanentLoss(ctx context.Context, p ILParams) (ILResult, error) {
	entry, err := parsePrice("entry", p.Entry)
	if err != nil {
		return ILResult{}, err
	}

	if p.Current != "" {
		current, err := parsePrice("current", p.Current)
		if err != nil {
			return ILResult{}, err
		}
		est, err := domain.EstimateImpermanentLoss(entry, current)
		if err != nil {
			return ILResult{}, err
		}
		return ILResult{Estimate: est}, nil
	}

	pool, err := s.pools.Snapshot(ctx)
	if err != nil {
		return ILResult{}, err
	}
	est, err := domain.EstimatePoolImpermanentLoss(entry, pool, p.Quote)
	if err != nil {
		return ILResult{}, err
	}
	return ILResult{Estimate: est, Pool: &pool}, nil
}

func parsePrice(name, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, apperror.New(apperror.CodeParseError,
			apperror.WithCause(err), apperror.WithContextf("%s price %q", name, s))
	}
	return d, nil
}

// Overview is the pool at one block with its prices and the gas price.
type Overview struct {
	Pool      pooldomain.PoolState
	Prices    domain.PoolPrices
	HasPrices bool // false for an empty pool
	Fee       domain.Fee
	Gas       *chaindomain.GasEstimate // one swap at the current gas price; nil if unavailable
}

// Overview reads the pool at the latest block.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	pool, err := s.pools.Snapshot(ctx)
	if err != nil {
		return Overview{}, err
	}
	return s.overviewOf(ctx, pool), nil
}

func (s *Service) overviewOf(ctx context.Context, pool pooldomain.PoolState) Overview {
	o := Overview{Pool: pool, Fee: s.config.Fee}
	o.Prices, o.HasPrices = domain.Prices(pool)
	o.Gas = s.estimate(ctx, domain.SwapGasLimit, 0)
	return o
}

// estimate prices gasLimit plus a flat allowance per approval. Gas is
// informational, so failures are logged and yield nil.
func (s *Service) estimate(ctx context.Context, gasLimit uint64, approvals int) *chaindomain.GasEstimate {
	if s.gas == nil {
		return nil
	}
	est, err := s.gas.EstimateCost(ctx, gasLimit+uint64(approvals)*domain.ApproveGasLimit)
	if err != nil {
		s.logger.Warn(ctx, "gas price unavailable", "error", err)
		return nil
	}
	return est
}
