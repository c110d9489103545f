package domain

import (
	"math/big"

	"github.com/shopspring/decimal"

	pooldomain "github.com/fd1az/amm-quoter/business/pool/domain"
	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/asset"
)

// ContributionInput is what the user typed: an amount on the side they edited
// last and, for a bootstrap deposit only, the amount they chose for the other side.
type ContributionInput struct {
	Edited      pooldomain.Side
	Entered     asset.Amount
	Counterpart asset.Amount
}

// Contribution is a paired deposit for addLiquidity.
type Contribution struct {
	AmountA     asset.Amount
	AmountB     asset.Amount
	IsBootstrap bool

	// Cleared is set when the entered amount was zero: both sides are zero
	// and the counterpart field should be emptied.
	Cleared bool

	// InitialPrice is TokenB per TokenA for a bootstrap deposit with both sides set.
	InitialPrice *asset.Price
}

// ProposeContribution resolves the opposite side of a deposit. On an empty
// pool the pair is taken as entered and defines the initial price; otherwise
// the counterpart is floor(entered * reserveOther / reserveEdited).
func ProposeContribution(pool pooldomain.PoolState, in ContributionInput) (Contribution, error) {
	edited := pool.Pair.Token(in.Edited)
	other := pool.Pair.Token(in.Edited.Other())

	entered, err := sideAmount(edited, in.Entered)
	if err != nil {
		return Contribution{}, err
	}

	bootstrap := pool.IsEmpty()

	if entered.IsZero() {
		return Contribution{
			AmountA:     asset.Zero(pool.Pair.TokenA),
			AmountB:     asset.Zero(pool.Pair.TokenB),
			IsBootstrap: bootstrap,
			Cleared:     true,
		}, nil
	}

	var counterpart asset.Amount
	if bootstrap {
		counterpart, err = sideAmount(other, in.Counterpart)
		if err != nil {
			return Contribution{}, err
		}
	} else {
		reserveEdited := pool.Reserve(in.Edited)
		reserveOther := pool.Reserve(in.Edited.Other())
		counterpart, err = reserveOther.MulDiv(entered.Raw(), reserveEdited.Raw())
		if err != nil {
			return Contribution{}, err
		}
	}

	c := Contribution{IsBootstrap: bootstrap}
	if in.Edited == pooldomain.SideA {
		c.AmountA, c.AmountB = entered, counterpart
	} else {
		c.AmountA, c.AmountB = counterpart, entered
	}

	if bootstrap && c.AmountA.IsPositive() && c.AmountB.IsPositive() {
		price, err := asset.PriceOf(c.AmountA, c.AmountB)
		if err != nil {
			return Contribution{}, err
		}
		c.InitialPrice = &price
	}

	return c, nil
}

// sideAmount checks amt belongs to token. The zero Amount reads as zero of token.
func sideAmount(token *asset.Asset, amt asset.Amount) (asset.Amount, error) {
	if amt.Asset() == nil {
		return asset.Zero(token), nil
	}
	if !amt.Asset().Equals(token) {
		return asset.Amount{}, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithContextf("got %s, want %s", amt.Asset().Symbol(), token.Symbol()))
	}
	return amt, nil
}

// Withdrawal is the proportional payout of burning LP tokens.
type Withdrawal struct {
	LPAmount      asset.Amount
	AmountA       asset.Amount
	AmountB       asset.Amount
	ShareFraction decimal.Decimal // share of the pool being withdrawn
}

// ProposeWithdrawal computes floor(reserve * lp / supply) for each side.
func ProposeWithdrawal(pool pooldomain.PoolState, lp asset.Amount) (Withdrawal, error) {
	lp, err := sideAmount(pool.Pair.LPToken, lp)
	if err != nil {
		return Withdrawal{}, err
	}
	if !lp.IsPositive() {
		return Withdrawal{}, apperror.Validation(apperror.CodeInvalidAmount, "LP amount must be positive")
	}

	supply := pool.LPTotalSupply
	if supply.IsZero() {
		return Withdrawal{}, apperror.New(apperror.CodeInsufficientSupply,
			apperror.WithContext("LP total supply is zero"))
	}
	if over, _ := lp.GreaterThan(supply); over {
		return Withdrawal{}, apperror.New(apperror.CodeInsufficientSupply,
			apperror.WithContextf("burning %s of %s", lp.ToDecimalString(), supply.ToDecimalString()))
	}

	amountA, err := pool.ReserveA.MulDiv(lp.Raw(), supply.Raw())
	if err != nil {
		return Withdrawal{}, err
	}
	amountB, err := pool.ReserveB.MulDiv(lp.Raw(), supply.Raw())
	if err != nil {
		return Withdrawal{}, err
	}
	share, err := lp.Fraction(supply)
	if err != nil {
		return Withdrawal{}, err
	}

	return Withdrawal{
		LPAmount:      lp,
		AmountA:       amountA,
		AmountB:       amountB,
		ShareFraction: share,
	}, nil
}

// WithdrawalFromPercent burns pct percent of balance, floored to whole units.
func WithdrawalFromPercent(pool pooldomain.PoolState, balance asset.Amount, pct decimal.Decimal) (Withdrawal, error) {
	if !pct.IsPositive() || pct.GreaterThan(hundred) {
		return Withdrawal{}, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithContextf("percent %s is outside (0, 100]", pct.String()))
	}

	share := pct.Rat()
	lp, err := balance.MulDiv(share.Num(), new(big.Int).Mul(share.Denom(), big.NewInt(100)))
	if err != nil {
		return Withdrawal{}, err
	}
	return ProposeWithdrawal(pool, lp)
}

// LPPosition is one holder's claim on the pool at the snapshot block.
type LPPosition struct {
	LPBalance     asset.Amount
	TotalSupply   asset.Amount
	ShareFraction decimal.Decimal
	SharePct      decimal.Decimal
	UnderlyingA   asset.Amount
	UnderlyingB   asset.Amount

	// Empty is set when the holder has no LP tokens or the pool has no supply;
	// the share and underlying amounts are then zero, never divided out.
	Empty bool
}

// ComputePosition derives the holder's share and underlying amounts.
func ComputePosition(lpBalance, totalSupply asset.Amount, pool pooldomain.PoolState) (LPPosition, error) {
	lpBalance, err := sideAmount(pool.Pair.LPToken, lpBalance)
	if err != nil {
		return LPPosition{}, err
	}
	totalSupply, err = sideAmount(pool.Pair.LPToken, totalSupply)
	if err != nil {
		return LPPosition{}, err
	}

	pos := LPPosition{
		LPBalance:   lpBalance,
		TotalSupply: totalSupply,
		UnderlyingA: asset.Zero(pool.Pair.TokenA),
		UnderlyingB: asset.Zero(pool.Pair.TokenB),
	}

	if totalSupply.IsZero() || lpBalance.IsZero() {
		pos.Empty = true
		return pos, nil
	}
	if over, _ := lpBalance.GreaterThan(totalSupply); over {
		return LPPosition{}, apperror.New(apperror.CodeInconsistentPool,
			apperror.WithContextf("balance %s exceeds supply %s", lpBalance.ToDecimalString(), totalSupply.ToDecimalString()))
	}

	if pos.UnderlyingA, err = pool.ReserveA.MulDiv(lpBalance.Raw(), totalSupply.Raw()); err != nil {
		return LPPosition{}, err
	}
	if pos.UnderlyingB, err = pool.ReserveB.MulDiv(lpBalance.Raw(), totalSupply.Raw()); err != nil {
		return LPPosition{}, err
	}
	if pos.ShareFraction, err = lpBalance.Fraction(totalSupply); err != nil {
		return LPPosition{}, err
	}
	pos.SharePct = pos.ShareFraction.Mul(hundred)

	return pos, nil
}
