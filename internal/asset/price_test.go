package asset_test

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/asset"
)

func TestPriceOf(t *testing.T) {
	tests := []struct {
		name  string
		base  asset.Amount
		quote asset.Amount
		want  string
	}{
		{
			name:  "balanced_pool",
			base:  asset.NewAmount(tka, e18(100)),
			quote: asset.NewAmount(tkb, e18(100)),
			want:  "1",
		},
		{
			name:  "two_to_one",
			base:  asset.NewAmount(tka, e18(50)),
			quote: asset.NewAmount(tkb, e18(100)),
			want:  "2",
		},
		{
			name:  "mixed_decimals",
			base:  asset.NewAmount(tka, e18(1)),
			quote: asset.NewAmount(usd6, big.NewInt(2_500_000)),
			want:  "2.5",
		},
		{
			name:  "truncates_to_18_places",
			base:  asset.NewAmount(tka, e18(3)),
			quote: asset.NewAmount(tkb, e18(1)),
			want:  "0.333333333333333333",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := asset.PriceOf(tt.base, tt.quote)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !p.Rate().Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("rate = %s, want %s", p.Rate(), tt.want)
			}
		})
	}
}

func TestPriceOf_ZeroBase(t *testing.T) {
	_, err := asset.PriceOf(asset.Zero(tka), asset.NewAmount(tkb, e18(1)))
	if !apperror.HasCode(err, apperror.CodeDivisionByZero) {
		t.Errorf("err = %v, want DIVISION_BY_ZERO", err)
	}
}

func TestExactRate_KeepsRatesBelowPricePrecision(t *testing.T) {
	base := asset.NewAmount(tka, new(big.Int).Exp(big.NewInt(10), big.NewInt(33), nil))
	quote := asset.NewAmount(usd6, big.NewInt(1))

	rounded, err := asset.PriceOf(base, quote)
	if err != nil {
		t.Fatalf("PriceOf: %v", err)
	}
	if !rounded.Rate().IsZero() {
		t.Fatalf("rounded rate = %s, expected it to truncate to 0", rounded.Rate())
	}

	exact, err := asset.ExactRate(base, quote)
	if err != nil {
		t.Fatalf("ExactRate: %v", err)
	}
	want := new(big.Rat).SetFrac(big.NewInt(1), new(big.Int).Exp(big.NewInt(10), big.NewInt(21), nil))
	if exact.Cmp(want) != 0 {
		t.Errorf("exact rate = %s, want 1e-21", exact.RatString())
	}

	if _, err := asset.ExactRate(asset.Zero(tka), quote); !apperror.HasCode(err, apperror.CodeDivisionByZero) {
		t.Errorf("zero base err = %v, want DIVISION_BY_ZERO", err)
	}
}

func TestNewPrice_RejectsNonPositive(t *testing.T) {
	for _, rate := range []string{"0", "-1"} {
		if _, err := asset.NewPrice(tka, tkb, decimal.RequireFromString(rate)); !apperror.HasCode(err, apperror.CodeInvalidPrice) {
			t.Errorf("rate %s: err = %v, want INVALID_PRICE", rate, err)
		}
	}
}

func TestPrice_InvertAndConvert(t *testing.T) {
	p, err := asset.NewPrice(tka, usd6, decimal.NewFromInt(4))
	if err != nil {
		t.Fatalf("NewPrice: %v", err)
	}

	inv := p.Invert()
	if inv.Pair() != "USD6/TKA" {
		t.Errorf("pair = %s", inv.Pair())
	}
	if !inv.Rate().Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("inverted rate = %s, want 0.25", inv.Rate())
	}

	got, err := p.Convert(asset.NewAmount(tka, e18(3)))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got.Raw().Int64() != 12_000_000 {
		t.Errorf("3 TKA at 4 = %s raw, want 12000000", got.Raw())
	}

	if _, err := p.Convert(asset.NewAmount(tkb, e18(1))); err == nil {
		t.Error("expected asset mismatch converting quote-side amount")
	}
}
