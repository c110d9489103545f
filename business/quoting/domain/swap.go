// Package domain contains the pure quoting engines: swap quotes, liquidity
// proposals, LP positions and impermanent loss. Nothing here reads the chain
// or keeps state between calls.
package domain

import (
	"math/big"

	"github.com/shopspring/decimal"

	pooldomain "github.com/fd1az/amm-quoter/business/pool/domain"
	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/asset"
)

// impactPrecision is the number of decimal places kept when dividing prices.
const impactPrecision = 18

var (
	hundred = decimal.NewFromInt(100)

	// DefaultFee is the pool's 0.3% swap fee.
	DefaultFee = Fee{Numerator: 997, Denominator: 1000}

	// DefaultSlippagePct is the default slippage tolerance.
	DefaultSlippagePct = decimal.NewFromInt(1)
)

// Fee is the share of the input that reaches the curve: amountIn*Numerator/Denominator.
type Fee struct {
	Numerator   int64
	Denominator int64
}

// Validate rejects a zero denominator, negative terms and fees above 100%.
func (f Fee) Validate() error {
	if f.Denominator <= 0 || f.Numerator < 0 || f.Numerator > f.Denominator {
		return apperror.New(apperror.CodeInvalidFee,
			apperror.WithContextf("%d/%d", f.Numerator, f.Denominator))
	}
	return nil
}

// Pct returns the fee charged, as a percentage (0.3 for 997/1000).
func (f Fee) Pct() decimal.Decimal {
	kept := decimal.NewFromInt(f.Numerator).DivRound(decimal.NewFromInt(f.Denominator), impactPrecision)
	return decimal.NewFromInt(1).Sub(kept).Mul(hundred)
}

// SwapRequest holds the caller's side of a quote.
type SwapRequest struct {
	Direction   pooldomain.Direction
	AmountIn    asset.Amount
	Fee         Fee
	SlippagePct decimal.Decimal
}

// SwapQuote is derived from exactly one PoolState and is only valid for it.
type SwapQuote struct {
	Direction       pooldomain.Direction
	AmountIn        asset.Amount
	AmountInWithFee asset.Amount
	AmountOut       asset.Amount
	MinimumReceived asset.Amount

	// Display prices, rounded to 18 decimals. Impact is not derived from them.
	SpotPrice      asset.Price // tokenOut per tokenIn, before the trade
	ExecutionPrice asset.Price // tokenOut per tokenIn, realised

	// PriceImpactPct compares the realised rate with spot, so the fee is
	// counted inside it. FeeFreeImpactPct measures the curve alone.
	PriceImpactPct   decimal.Decimal
	FeeFreeImpactPct decimal.Decimal

	SlippagePct decimal.Decimal
	Fee         Fee
	BlockNumber uint64
}

// Tier classifies the quote's price impact for display.
func (q SwapQuote) Tier() ImpactTier {
	return TierFor(q.PriceImpactPct)
}

// QuoteSwap prices a swap against the pool, reproducing the contract's
// integer arithmetic step for step:
//
//	amountInWithFee = floor(amountIn * feeNum / feeDen)
//	amountOut       = floor(reserveOut * amountInWithFee / (reserveIn + amountInWithFee))
//	minimumReceived = floor(amountOut * (100 - slippage) / 100)
func QuoteSwap(pool pooldomain.PoolState, req SwapRequest) (SwapQuote, error) {
	if err := req.Fee.Validate(); err != nil {
		return SwapQuote{}, err
	}
	if err := validateSlippage(req.SlippagePct); err != nil {
		return SwapQuote{}, err
	}

	reserveIn := pool.ReserveIn(req.Direction)
	reserveOut := pool.ReserveOut(req.Direction)

	if reserveIn.IsZero() || reserveOut.IsZero() {
		return SwapQuote{}, apperror.New(apperror.CodeEmptyPool,
			apperror.WithContextf("reserves %s / %s", reserveIn.ToDecimalString(), reserveOut.ToDecimalString()))
	}
	if req.AmountIn.Asset() == nil || !req.AmountIn.IsPositive() {
		return SwapQuote{}, apperror.Validation(apperror.CodeInvalidAmount, "amount in must be positive")
	}
	if !req.AmountIn.Asset().Equals(reserveIn.Asset()) {
		return SwapQuote{}, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithContextf("amount is %s, pool expects %s for %s",
				req.AmountIn.Asset().Symbol(), reserveIn.Asset().Symbol(), req.Direction))
	}

	amountInWithFee, err := req.AmountIn.MulDiv(big.NewInt(req.Fee.Numerator), big.NewInt(req.Fee.Denominator))
	if err != nil {
		return SwapQuote{}, err
	}

	amountOut, err := curveOut(reserveIn, reserveOut, amountInWithFee.Raw())
	if err != nil {
		return SwapQuote{}, err
	}

	minimumReceived, err := applySlippage(amountOut, req.SlippagePct)
	if err != nil {
		return SwapQuote{}, err
	}

	spot, err := asset.PriceOf(reserveIn, reserveOut)
	if err != nil {
		return SwapQuote{}, err
	}
	execution, err := asset.PriceOf(req.AmountIn, amountOut)
	if err != nil {
		return SwapQuote{}, err
	}

	impact, err := impactPct(req.AmountIn.Raw(), amountOut.Raw(), reserveIn.Raw(), reserveOut.Raw())
	if err != nil {
		return SwapQuote{}, err
	}

	// Curve-only impact: measured against the input that actually reached the curve.
	feeFreeImpact := hundred
	if amountInWithFee.IsPositive() {
		if feeFreeImpact, err = impactPct(amountInWithFee.Raw(), amountOut.Raw(), reserveIn.Raw(), reserveOut.Raw()); err != nil {
			return SwapQuote{}, err
		}
	}

	return SwapQuote{
		Direction:        req.Direction,
		AmountIn:         req.AmountIn,
		AmountInWithFee:  amountInWithFee,
		AmountOut:        amountOut,
		MinimumReceived:  minimumReceived,
		SpotPrice:        spot,
		ExecutionPrice:   execution,
		PriceImpactPct:   impact,
		FeeFreeImpactPct: feeFreeImpact,
		SlippagePct:      req.SlippagePct,
		Fee:              req.Fee,
		BlockNumber:      pool.BlockNumber,
	}, nil
}

// curveOut is the constant-product output for an input already net of fee.
func curveOut(reserveIn, reserveOut asset.Amount, netIn *big.Int) (asset.Amount, error) {
	den := new(big.Int).Add(reserveIn.Raw(), netIn)
	return reserveOut.MulDiv(netIn, den)
}

// impactPct is how far the realised rate out/in falls below the spot rate
// reserveOut/reserveIn, in percent:
//
//	(1 - out*reserveIn / (in*reserveOut)) * 100
//
// It works on the raw integers, so decimals cancel and nothing is rounded
// before the final division.
func impactPct(in, out, reserveIn, reserveOut *big.Int) (decimal.Decimal, error) {
	den := new(big.Int).Mul(in, reserveOut)
	if den.Sign() == 0 {
		return decimal.Zero, apperror.New(apperror.CodeDivisionByZero,
			apperror.WithContextf("price impact of %s in against reserve %s", in, reserveOut))
	}
	num := new(big.Int).Sub(den, new(big.Int).Mul(out, reserveIn))
	return decimal.NewFromBigRat(new(big.Rat).SetFrac(num, den), impactPrecision).Mul(hundred), nil
}

func validateSlippage(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThanOrEqual(hundred) {
		return apperror.New(apperror.CodeInvalidSlippage,
			apperror.WithContextf("%s%% is outside [0, 100)", pct.String()))
	}
	return nil
}

// applySlippage returns floor(amount * (100 - pct) / 100), exactly.
func applySlippage(amount asset.Amount, pct decimal.Decimal) (asset.Amount, error) {
	keep := hundred.Sub(pct).Rat()
	keep.Quo(keep, big.NewRat(100, 1))
	return amount.MulDiv(keep.Num(), keep.Denom())
}

// ImpactTier is the display bucket of a price impact.
type ImpactTier int

const (
	TierLow ImpactTier = iota
	TierMedium
	TierHigh
	TierSevere
)

var (
	tierMediumFrom = decimal.NewFromInt(1)
	tierHighFrom   = decimal.NewFromInt(5)
	tierSevereFrom = decimal.NewFromInt(15)
)

// TierFor buckets an impact: <1 low, <5 medium, <15 high, else severe.
func TierFor(pct decimal.Decimal) ImpactTier {
	switch {
	case pct.LessThan(tierMediumFrom):
		return TierLow
	case pct.LessThan(tierHighFrom):
		return TierMedium
	case pct.LessThan(tierSevereFrom):
		return TierHigh
	default:
		return TierSevere
	}
}

func (t ImpactTier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	case TierSevere:
		return "severe"
	default:
		return "unknown"
	}
}

// PoolPrices are the marginal prices of a non-empty pool.
type PoolPrices struct {
	AInB asset.Price // TokenB per TokenA
	BInA asset.Price // TokenA per TokenB
}

// Prices returns the pool's marginal prices. ok is false for an empty pool.
func Prices(pool pooldomain.PoolState) (prices PoolPrices, ok bool) {
	if pool.IsEmpty() {
		return PoolPrices{}, false
	}
	aInB, err := asset.PriceOf(pool.ReserveA, pool.ReserveB)
	if err != nil {
		return PoolPrices{}, false
	}
	bInA, err := asset.PriceOf(pool.ReserveB, pool.ReserveA)
	if err != nil {
		return PoolPrices{}, false
	}
	return PoolPrices{AInB: aInB, BInA: bInA}, true
}
