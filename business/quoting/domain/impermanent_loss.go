package domain

import (
	"math/big"

	"github.com/shopspring/decimal"

	pooldomain "github.com/fd1az/amm-quoter/business/pool/domain"
	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/asset"
)

const (
	sqrtPrecision = 256
	ilPlaces      = 18
)

// ILBand is the advisory severity of an impermanent loss.
type ILBand int

const (
	ILLow ILBand = iota
	ILModerate
	ILSevere
)

func (b ILBand) String() string {
	switch b {
	case ILLow:
		return "low"
	case ILModerate:
		return "moderate"
	case ILSevere:
		return "severe"
	default:
		return "unknown"
	}
}

var (
	ilModerateFrom = decimal.NewFromInt(1)
	ilSevereFrom   = decimal.NewFromInt(5)
)

// BandFor classifies |pct|: <1 low, <5 moderate, otherwise severe.
func BandFor(pct decimal.Decimal) ILBand {
	abs := pct.Abs()
	switch {
	case abs.LessThan(ilModerateFrom):
		return ILLow
	case abs.LessThan(ilSevereFrom):
		return ILModerate
	default:
		return ILSevere
	}
}

// ILEstimate compares an LP position against holding the two tokens.
type ILEstimate struct {
	EntryPrice   decimal.Decimal
	CurrentPrice decimal.Decimal
	PriceRatio   decimal.Decimal
	ILPercent    decimal.Decimal // zero or negative
	Band         ILBand
}

// EstimateImpermanentLoss returns 2*sqrt(r)/(1+r) - 1 as a percentage, with
// r = current/entry. Both prices must be quoted the same way round.
func EstimateImpermanentLoss(entry, current decimal.Decimal) (ILEstimate, error) {
	if !entry.IsPositive() || !current.IsPositive() {
		return ILEstimate{}, apperror.New(apperror.CodeInvalidPrice,
			apperror.WithContextf("entry %s, current %s", entry.String(), current.String()))
	}
	return estimateIL(entry, current, entry.Rat(), current.Rat())
}

// EstimatePoolImpermanentLoss is EstimateImpermanentLoss against the pool's
// marginal price, taken as an exact reserve ratio.
func EstimatePoolImpermanentLoss(entry decimal.Decimal, pool pooldomain.PoolState, quote PriceQuote) (ILEstimate, error) {
	if !entry.IsPositive() {
		return ILEstimate{}, apperror.New(apperror.CodeInvalidPrice,
			apperror.WithContextf("entry %s", entry.String()))
	}
	current, err := CurrentPrice(pool, quote)
	if err != nil {
		return ILEstimate{}, err
	}
	return estimateIL(entry, ratDecimal(current), entry.Rat(), current)
}

func estimateIL(entry, current decimal.Decimal, entryRat, currentRat *big.Rat) (ILEstimate, error) {
	ratio := new(big.Rat).Quo(currentRat, entryRat)

	r := new(big.Float).SetPrec(sqrtPrecision).SetRat(ratio)
	sqrtR := new(big.Float).SetPrec(sqrtPrecision).Sqrt(r)

	num := new(big.Float).SetPrec(sqrtPrecision).Mul(big.NewFloat(2), sqrtR)
	den := new(big.Float).SetPrec(sqrtPrecision).Add(big.NewFloat(1), r)
	il := new(big.Float).SetPrec(sqrtPrecision).Quo(num, den)
	il.Sub(il, big.NewFloat(1))
	il.Mul(il, big.NewFloat(100))

	pct, err := decimal.NewFromString(il.Text('f', ilPlaces+4))
	if err != nil {
		return ILEstimate{}, apperror.Internal(apperror.CodeInvalidPrice, "format IL", err)
	}
	pct = pct.Round(ilPlaces)

	return ILEstimate{
		EntryPrice:   entry,
		CurrentPrice: current,
		PriceRatio:   ratDecimal(ratio),
		ILPercent:    pct,
		Band:         BandFor(pct),
	}, nil
}

// ratDecimal renders r with ilPlaces significant digits, however small it is.
func ratDecimal(r *big.Rat) decimal.Decimal {
	f := new(big.Float).SetPrec(sqrtPrecision).SetRat(r)
	d, err := decimal.NewFromString(f.Text('e', ilPlaces))
	if err != nil {
		return decimal.NewFromBigRat(r, ilPlaces)
	}
	return d
}

// PriceQuote selects which way round a pool price is expressed.
type PriceQuote int

const (
	BPerA PriceQuote = iota // TokenB per TokenA
	APerB                   // TokenA per TokenB
)

func (q PriceQuote) String() string {
	if q == APerB {
		return "a-per-b"
	}
	return "b-per-a"
}

// ParsePriceQuote accepts "b-per-a" and "a-per-b".
func ParsePriceQuote(s string) (PriceQuote, error) {
	switch s {
	case "", "b-per-a":
		return BPerA, nil
	case "a-per-b":
		return APerB, nil
	default:
		return BPerA, apperror.Validation(apperror.CodeInvalidInput, "price quote must be b-per-a or a-per-b")
	}
}

// CurrentPrice is the pool's marginal price in the requested orientation:
// the decimals-adjusted reserve ratio, unrounded.
func CurrentPrice(pool pooldomain.PoolState, quote PriceQuote) (*big.Rat, error) {
	if pool.IsEmpty() {
		return nil, apperror.New(apperror.CodeEmptyPool,
			apperror.WithContext("no price on an empty pool"))
	}
	if quote == APerB {
		return asset.ExactRate(pool.ReserveB, pool.ReserveA)
	}
	return asset.ExactRate(pool.ReserveA, pool.ReserveB)
}
