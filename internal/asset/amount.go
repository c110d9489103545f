package asset

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fd1az/amm-quoter/internal/apperror"
)

// Programming errors. Invalid user input is reported with apperror codes instead.
var (
	ErrNilAsset       = errors.New("asset: nil asset")
	ErrNilRaw         = errors.New("asset: nil raw value")
	ErrNegativeAmount = errors.New("asset: negative amount")
	ErrAssetMismatch  = errors.New("asset: cannot operate on different assets")
	ErrNegativeResult = errors.New("asset: operation would result in negative amount")
)

// FractionPrecision is the number of decimal places kept by Fraction.
const FractionPrecision = 18

// Amount is an immutable fixed-point quantity of one asset.
// The raw value is the integer on-chain representation (wei for an 18-decimal token);
// the asset's decimals are the scale.
type Amount struct {
	raw   *big.Int
	asset *Asset
}

// NewAmount creates an Amount from a raw value. It panics on nil or negative input;
// use FromInteger for values that come from outside the process.
func NewAmount(asset *Asset, raw *big.Int) Amount {
	if asset == nil {
		panic(ErrNilAsset)
	}
	if raw == nil {
		panic(ErrNilRaw)
	}
	if raw.Sign() < 0 {
		panic(ErrNegativeAmount)
	}

	return Amount{
		raw:   new(big.Int).Set(raw),
		asset: asset,
	}
}

// FromInteger creates an Amount from a raw on-chain integer.
func FromInteger(asset *Asset, raw *big.Int) (Amount, error) {
	if asset == nil {
		return Amount{}, ErrNilAsset
	}
	if raw == nil || raw.Sign() < 0 {
		return Amount{}, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithContextf("raw %s amount must be non-negative", asset.Symbol()))
	}
	return NewAmount(asset, raw), nil
}

// Zero creates a zero Amount for the given asset.
func Zero(asset *Asset) Amount {
	return NewAmount(asset, big.NewInt(0))
}

// NewAmountFromInt64 creates an Amount from an int64 raw value.
func NewAmountFromInt64(asset *Asset, raw int64) Amount {
	return NewAmount(asset, big.NewInt(raw))
}

// Raw returns a copy of the raw big.Int value.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(a.raw)
}

// Asset returns the asset this amount is denominated in.
func (a Amount) Asset() *Asset {
	return a.asset
}

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool {
	return a.raw == nil || a.raw.Sign() == 0
}

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool {
	return a.raw != nil && a.raw.Sign() > 0
}

// -----------------------------------------------------------------------------
// Arithmetic (same asset only, truncating like the EVM)
// -----------------------------------------------------------------------------

// Add adds two amounts of the same asset.
func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.checkSameAsset(b); err != nil {
		return Amount{}, err
	}
	return NewAmount(a.asset, new(big.Int).Add(a.raw, b.raw)), nil
}

// Sub subtracts b from a.
func (a Amount) Sub(b Amount) (Amount, error) {
	if err := a.checkSameAsset(b); err != nil {
		return Amount{}, err
	}
	if a.raw.Cmp(b.raw) < 0 {
		return Amount{}, ErrNegativeResult
	}
	return NewAmount(a.asset, new(big.Int).Sub(a.raw, b.raw)), nil
}

// MulBig multiplies the amount by a non-negative integer factor.
func (a Amount) MulBig(factor *big.Int) Amount {
	if factor.Sign() < 0 {
		panic(ErrNegativeAmount)
	}
	return NewAmount(a.asset, new(big.Int).Mul(a.raw, factor))
}

// DivBig divides the amount by an integer divisor, truncating toward zero.
func (a Amount) DivBig(divisor *big.Int) (Amount, error) {
	if divisor == nil || divisor.Sign() == 0 {
		return Amount{}, apperror.New(apperror.CodeDivisionByZero,
			apperror.WithContextf("dividing %s", a))
	}
	if divisor.Sign() < 0 {
		return Amount{}, ErrNegativeAmount
	}
	return NewAmount(a.asset, new(big.Int).Quo(a.raw, divisor)), nil
}

// Div divides the amount by an int64 divisor, truncating toward zero.
func (a Amount) Div(divisor int64) (Amount, error) {
	return a.DivBig(big.NewInt(divisor))
}

// MulDiv returns floor(a * num / den), multiplying before dividing so the result
// matches the contract's rounding.
func (a Amount) MulDiv(num, den *big.Int) (Amount, error) {
	if den == nil || den.Sign() == 0 {
		return Amount{}, apperror.New(apperror.CodeDivisionByZero,
			apperror.WithContextf("scaling %s", a))
	}
	if num.Sign() < 0 || den.Sign() < 0 {
		return Amount{}, ErrNegativeAmount
	}
	product := new(big.Int).Mul(a.raw, num)
	return NewAmount(a.asset, product.Quo(product, den)), nil
}

// Fraction returns a / b as a decimal with FractionPrecision places, truncated.
func (a Amount) Fraction(b Amount) (decimal.Decimal, error) {
	if err := a.checkSameAsset(b); err != nil {
		return decimal.Zero, err
	}
	if b.IsZero() {
		return decimal.Zero, apperror.New(apperror.CodeDivisionByZero,
			apperror.WithContextf("fraction of %s", b.asset.Symbol()))
	}
	scaled := new(big.Int).Mul(a.raw, pow10(FractionPrecision))
	scaled.Quo(scaled, b.raw)
	return decimal.NewFromBigInt(scaled, -FractionPrecision), nil
}

// -----------------------------------------------------------------------------
// Comparison
// -----------------------------------------------------------------------------

// Cmp compares two amounts of the same asset.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func (a Amount) Cmp(b Amount) (int, error) {
	if err := a.checkSameAsset(b); err != nil {
		return 0, err
	}
	return a.raw.Cmp(b.raw), nil
}

// Equals returns true if both amounts are equal (same asset and value).
func (a Amount) Equals(b Amount) bool {
	if a.asset == nil || b.asset == nil || a.asset.ID() != b.asset.ID() {
		return false
	}
	return a.Raw().Cmp(b.Raw()) == 0
}

// GreaterThan returns true if a > b.
func (a Amount) GreaterThan(b Amount) (bool, error) {
	cmp, err := a.Cmp(b)
	return cmp > 0, err
}

// LessThan returns true if a < b.
func (a Amount) LessThan(b Amount) (bool, error) {
	cmp, err := a.Cmp(b)
	return cmp < 0, err
}

// -----------------------------------------------------------------------------
// Boundary functions (parsing and display)
// -----------------------------------------------------------------------------

// ToDecimal converts the amount to a decimal in whole-token units.
// Use only at the boundary, never to feed further reserve math.
func (a Amount) ToDecimal() decimal.Decimal {
	if a.raw == nil || a.asset == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(a.raw, -int32(a.asset.Decimals()))
}

// ToDecimalString renders the exact value in whole-token units, e.g. "9.066108938801491315".
func (a Amount) ToDecimalString() string {
	return a.ToDecimal().String()
}

// ParseDecimal creates an Amount from a decimal number of whole tokens.
func ParseDecimal(asset *Asset, d decimal.Decimal) (Amount, error) {
	if asset == nil {
		return Amount{}, ErrNilAsset
	}
	if d.IsNegative() {
		return Amount{}, apperror.New(apperror.CodeParseError,
			apperror.WithContextf("negative %s amount %s", asset.Symbol(), d))
	}

	scaled := d.Shift(int32(asset.Decimals()))
	if !scaled.Equal(scaled.Truncate(0)) {
		return Amount{}, apperror.New(apperror.CodeParseError,
			apperror.WithContextf("%s has more than %d decimal places", d, asset.Decimals()))
	}

	return NewAmount(asset, scaled.BigInt()), nil
}

// ParseString parses a human-entered decimal string such as "10" or "0.25".
func ParseString(asset *Asset, s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, apperror.New(apperror.CodeParseError,
			apperror.WithCause(err),
			apperror.WithContextf("%q is not a decimal number", s))
	}
	return ParseDecimal(asset, d)
}

// String returns a human-readable representation (e.g., "1.5 TKA").
func (a Amount) String() string {
	if a.asset == nil {
		return "0 ???"
	}
	return fmt.Sprintf("%s %s", a.ToDecimal().String(), a.asset.Symbol())
}

// StringFixed returns the value truncated to a fixed number of places plus the symbol.
func (a Amount) StringFixed(places int32) string {
	if a.asset == nil {
		return "0 ???"
	}
	return fmt.Sprintf("%s %s", a.ToDecimal().Truncate(places).StringFixed(places), a.asset.Symbol())
}

func (a Amount) checkSameAsset(b Amount) error {
	if a.asset == nil || b.asset == nil {
		return ErrNilAsset
	}
	if a.asset.ID() != b.asset.ID() {
		return fmt.Errorf("%w: %s vs %s", ErrAssetMismatch, a.asset.Symbol(), b.asset.Symbol())
	}
	return nil
}

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}
