package asset

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fd1az/amm-quoter/internal/apperror"
)

// PricePrecision is the number of decimals a Price rate carries.
const PricePrecision = 18

var pricePrecisionMultiplier = pow10(PricePrecision)

// Price is an exchange rate: how many whole quote tokens one whole base token is worth.
// Stored as a fixed-point integer with PricePrecision decimals, so a TKA/TKB
// price of 2.5 is held as 2500000000000000000.
type Price struct {
	rate  *big.Int
	base  *Asset
	quote *Asset
}

// NewPrice creates a price from a decimal rate. The rate is truncated to PricePrecision.
func NewPrice(base, quote *Asset, rate decimal.Decimal) (Price, error) {
	if base == nil || quote == nil {
		return Price{}, ErrNilAsset
	}
	if !rate.IsPositive() {
		return Price{}, apperror.New(apperror.CodeInvalidPrice,
			apperror.WithContextf("%s/%s rate %s", base.Symbol(), quote.Symbol(), rate))
	}
	return Price{
		rate:  rate.Shift(PricePrecision).BigInt(),
		base:  base,
		quote: quote,
	}, nil
}

// NewPriceFromBigInt creates a price from a raw fixed-point value.
func NewPriceFromBigInt(base, quote *Asset, rate *big.Int) Price {
	if base == nil || quote == nil {
		panic("asset: nil base or quote in price")
	}
	if rate == nil || rate.Sign() < 0 {
		panic("asset: nil or negative price rate")
	}

	return Price{
		rate:  new(big.Int).Set(rate),
		base:  base,
		quote: quote,
	}
}

// PriceOf returns the price of one base token implied by exchanging baseAmt for quoteAmt.
// Used for both reserve ratios (spot) and trade ratios (execution):
//
//	rate = quoteRaw * 10^18 * 10^baseDecimals / (baseRaw * 10^quoteDecimals)
func PriceOf(baseAmt, quoteAmt Amount) (Price, error) {
	if baseAmt.Asset() == nil || quoteAmt.Asset() == nil {
		return Price{}, ErrNilAsset
	}
	if baseAmt.IsZero() {
		return Price{}, apperror.New(apperror.CodeDivisionByZero,
			apperror.WithContextf("price of %s with zero base", baseAmt.Asset().Symbol()))
	}

	num := new(big.Int).Mul(quoteAmt.Raw(), pricePrecisionMultiplier)
	num.Mul(num, baseAmt.Asset().unit)
	den := new(big.Int).Mul(baseAmt.Raw(), quoteAmt.Asset().unit)

	return NewPriceFromBigInt(baseAmt.Asset(), quoteAmt.Asset(), num.Quo(num, den)), nil
}

// ExactRate is the same ratio as PriceOf with no rounding: quote per whole
// base token, decimals-adjusted. Use it where the value feeds further math.
func ExactRate(baseAmt, quoteAmt Amount) (*big.Rat, error) {
	if baseAmt.Asset() == nil || quoteAmt.Asset() == nil {
		return nil, ErrNilAsset
	}
	if baseAmt.IsZero() {
		return nil, apperror.New(apperror.CodeDivisionByZero,
			apperror.WithContextf("rate of %s with zero base", baseAmt.Asset().Symbol()))
	}
	num := new(big.Int).Mul(quoteAmt.Raw(), baseAmt.Asset().unit)
	den := new(big.Int).Mul(baseAmt.Raw(), quoteAmt.Asset().unit)
	return new(big.Rat).SetFrac(num, den), nil
}

// Rate returns the price rate as a decimal.
func (p Price) Rate() decimal.Decimal {
	if p.rate == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(p.rate, -PricePrecision)
}

// RateRaw returns the raw fixed-point rate.
func (p Price) RateRaw() *big.Int {
	if p.rate == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(p.rate)
}

func (p Price) Base() *Asset {
	return p.base
}

func (p Price) Quote() *Asset {
	return p.quote
}

// Pair returns the pair label (e.g., "TKA/TKB").
func (p Price) Pair() string {
	if p.base == nil || p.quote == nil {
		return "???/???"
	}
	return fmt.Sprintf("%s/%s", p.base.Symbol(), p.quote.Symbol())
}

// IsZero returns true if the price is zero.
func (p Price) IsZero() bool {
	return p.rate == nil || p.rate.Sign() == 0
}

// Invert returns the inverse price (TKA/TKB -> TKB/TKA). A zero price inverts to zero.
func (p Price) Invert() Price {
	inverted := big.NewInt(0)
	if !p.IsZero() {
		inverted.Mul(pricePrecisionMultiplier, pricePrecisionMultiplier)
		inverted.Quo(inverted, p.rate)
	}
	return Price{rate: inverted, base: p.quote, quote: p.base}
}

// Convert values an amount of the base asset in the quote asset, truncating.
func (p Price) Convert(amount Amount) (Amount, error) {
	if amount.Asset() == nil {
		return Amount{}, ErrNilAsset
	}
	if !amount.Asset().Equals(p.base) {
		return Amount{}, fmt.Errorf("%w: expected %s, got %s",
			ErrAssetMismatch, p.base.Symbol(), amount.Asset().Symbol())
	}

	// quoteRaw = baseRaw * rate * 10^quoteDecimals / (10^18 * 10^baseDecimals)
	num := new(big.Int).Mul(amount.Raw(), p.rate)
	num.Mul(num, p.quote.unit)
	den := new(big.Int).Mul(pricePrecisionMultiplier, p.base.unit)

	return NewAmount(p.quote, num.Quo(num, den)), nil
}

// String returns e.g. "1.0 TKA/TKB".
func (p Price) String() string {
	return fmt.Sprintf("%s %s", p.Rate().String(), p.Pair())
}

// StringFixed renders the rate truncated to the given places.
func (p Price) StringFixed(places int32) string {
	return p.Rate().Truncate(places).StringFixed(places)
}
