package domain

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	pooldomain "github.com/fd1az/amm-quoter/business/pool/domain"
	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/asset"
)

func lpAmount(raw *big.Int) asset.Amount { return asset.NewAmount(lpt, raw) }

func TestProposeContribution(t *testing.T) {
	funded := mustPool(t, e18(100), e18(400), e18(200))
	empty := mustPool(t, big.NewInt(0), big.NewInt(0), big.NewInt(0))

	tests := []struct {
		name          string
		pool          pooldomain.PoolState
		in            ContributionInput
		wantA         string
		wantB         string
		wantBootstrap bool
		wantCleared   bool
		wantPrice     string
	}{
		{
			name:  "edit_a_derives_b",
			pool:  funded,
			in:    ContributionInput{Edited: pooldomain.SideA, Entered: amountA(e18(10))},
			wantA: "10", wantB: "40",
		},
		{
			name:  "edit_b_derives_a",
			pool:  funded,
			in:    ContributionInput{Edited: pooldomain.SideB, Entered: amountB(e18(10))},
			wantA: "2.5", wantB: "10",
		},
		{
			name:  "counterpart_ignored_on_funded_pool",
			pool:  funded,
			in:    ContributionInput{Edited: pooldomain.SideA, Entered: amountA(e18(1)), Counterpart: amountB(e18(999))},
			wantA: "1", wantB: "4",
		},
		{
			name:  "derived_side_floors",
			pool:  mustPool(t, big.NewInt(3), big.NewInt(10), big.NewInt(5)),
			in:    ContributionInput{Edited: pooldomain.SideA, Entered: amountA(big.NewInt(1))},
			wantA: "0.000000000000000001", wantB: "0.000000000000000003",
		},
		{
			name:          "bootstrap_takes_pair_as_entered",
			pool:          empty,
			in:            ContributionInput{Edited: pooldomain.SideA, Entered: amountA(e18(100)), Counterpart: amountB(e18(250))},
			wantA:         "100",
			wantB:         "250",
			wantBootstrap: true,
			wantPrice:     "2.5",
		},
		{
			name:          "bootstrap_without_counterpart",
			pool:          empty,
			in:            ContributionInput{Edited: pooldomain.SideB, Entered: amountB(e18(5))},
			wantA:         "0",
			wantB:         "5",
			wantBootstrap: true,
		},
		{
			name:        "zero_entered_clears",
			pool:        funded,
			in:          ContributionInput{Edited: pooldomain.SideA, Entered: asset.Zero(tka)},
			wantA:       "0",
			wantB:       "0",
			wantCleared: true,
		},
		{
			name:        "missing_entered_clears",
			pool:        funded,
			in:          ContributionInput{Edited: pooldomain.SideB},
			wantA:       "0",
			wantB:       "0",
			wantCleared: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ProposeContribution(tt.pool, tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := c.AmountA.ToDecimalString(); got != tt.wantA {
				t.Errorf("amountA = %s, want %s", got, tt.wantA)
			}
			if got := c.AmountB.ToDecimalString(); got != tt.wantB {
				t.Errorf("amountB = %s, want %s", got, tt.wantB)
			}
			if c.IsBootstrap != tt.wantBootstrap {
				t.Errorf("bootstrap = %v, want %v", c.IsBootstrap, tt.wantBootstrap)
			}
			if c.Cleared != tt.wantCleared {
				t.Errorf("cleared = %v, want %v", c.Cleared, tt.wantCleared)
			}
			switch {
			case tt.wantPrice == "" && c.InitialPrice != nil:
				t.Errorf("unexpected initial price %s", c.InitialPrice)
			case tt.wantPrice != "" && (c.InitialPrice == nil || !c.InitialPrice.Rate().Equal(decimal.RequireFromString(tt.wantPrice))):
				t.Errorf("initial price = %v, want %s", c.InitialPrice, tt.wantPrice)
			}
		})
	}
}

func TestProposeContribution_WrongToken(t *testing.T) {
	pool := mustPool(t, e18(1), e18(1), e18(1))

	_, err := ProposeContribution(pool, ContributionInput{Edited: pooldomain.SideA, Entered: amountB(e18(1))})
	if !apperror.HasCode(err, apperror.CodeInvalidAmount) {
		t.Errorf("err = %v, want INVALID_AMOUNT", err)
	}
}

func TestProposeContribution_PreservesRatio(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 300; i++ {
		ra := big.NewInt(rng.Int63n(1e15) + 1)
		rb := big.NewInt(rng.Int63n(1e15) + 1)
		pool := mustPool(t, ra, rb, big.NewInt(1))
		entered := big.NewInt(rng.Int63n(1e15) + 1)

		c, err := ProposeContribution(pool, ContributionInput{Edited: pooldomain.SideA, Entered: amountA(entered)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// amountB = floor(amountA*rb/ra), so amountA*rb - amountB*ra lies in [0, ra).
		lhs := new(big.Int).Mul(c.AmountA.Raw(), rb)
		rhs := new(big.Int).Mul(c.AmountB.Raw(), ra)
		diff := lhs.Sub(lhs, rhs)
		if diff.Sign() < 0 || diff.Cmp(ra) >= 0 {
			t.Fatalf("ratio drift: a=%s b=%s reserves %s/%s", c.AmountA.Raw(), c.AmountB.Raw(), ra, rb)
		}
	}
}

func TestProposeWithdrawal(t *testing.T) {
	pool := mustPool(t, e18(100), e18(400), e18(200))

	w, err := ProposeWithdrawal(pool, lpAmount(e18(50)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.AmountA.ToDecimalString() != "25" || w.AmountB.ToDecimalString() != "100" {
		t.Errorf("withdrawal = %s / %s, want 25 / 100", w.AmountA, w.AmountB)
	}
	if !w.ShareFraction.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("share = %s, want 0.25", w.ShareFraction)
	}

	all, err := ProposeWithdrawal(pool, lpAmount(e18(200)))
	if err != nil {
		t.Fatalf("full withdrawal: %v", err)
	}
	if !all.AmountA.Equals(pool.ReserveA) || !all.AmountB.Equals(pool.ReserveB) {
		t.Errorf("burning the whole supply must return both reserves")
	}
}

func TestProposeWithdrawal_Errors(t *testing.T) {
	pool := mustPool(t, e18(100), e18(400), e18(200))
	noSupply := mustPool(t, big.NewInt(0), big.NewInt(0), big.NewInt(0))

	tests := []struct {
		name     string
		pool     pooldomain.PoolState
		lp       asset.Amount
		wantCode apperror.Code
	}{
		{name: "zero_lp", pool: pool, lp: asset.Zero(lpt), wantCode: apperror.CodeInvalidAmount},
		{name: "missing_lp", pool: pool, wantCode: apperror.CodeInvalidAmount},
		{name: "wrong_token", pool: pool, lp: amountA(e18(1)), wantCode: apperror.CodeInvalidAmount},
		{name: "zero_supply", pool: noSupply, lp: lpAmount(e18(1)), wantCode: apperror.CodeInsufficientSupply},
		{name: "over_supply", pool: pool, lp: lpAmount(e18(201)), wantCode: apperror.CodeInsufficientSupply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ProposeWithdrawal(tt.pool, tt.lp)
			if !apperror.HasCode(err, tt.wantCode) {
				t.Errorf("err = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestWithdrawThenContributeRestoresReserves(t *testing.T) {
	pool := mustPool(t, e18(100), e18(400), e18(200))

	w, err := ProposeWithdrawal(pool, lpAmount(e18(40)))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	ra, _ := pool.ReserveA.Sub(w.AmountA)
	rb, _ := pool.ReserveB.Sub(w.AmountB)
	after := mustPool(t, ra.Raw(), rb.Raw(), e18(160))

	c, err := ProposeContribution(after, ContributionInput{Edited: pooldomain.SideA, Entered: w.AmountA})
	if err != nil {
		t.Fatalf("contribute: %v", err)
	}

	backA, _ := ra.Add(c.AmountA)
	backB, _ := rb.Add(c.AmountB)
	if !backA.Equals(pool.ReserveA) || !backB.Equals(pool.ReserveB) {
		t.Errorf("round trip = %s / %s, want %s / %s", backA, backB, pool.ReserveA, pool.ReserveB)
	}
}

func TestWithdrawalFromPercent(t *testing.T) {
	pool := mustPool(t, e18(100), e18(400), e18(200))
	balance := lpAmount(e18(80))

	w, err := WithdrawalFromPercent(pool, balance, decimal.NewFromInt(25))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.LPAmount.ToDecimalString() != "20" {
		t.Errorf("lp burned = %s, want 20", w.LPAmount.ToDecimalString())
	}
	if w.AmountA.ToDecimalString() != "10" {
		t.Errorf("amountA = %s, want 10", w.AmountA.ToDecimalString())
	}

	for _, pct := range []string{"0", "-5", "100.1"} {
		if _, err := WithdrawalFromPercent(pool, balance, decimal.RequireFromString(pct)); !apperror.HasCode(err, apperror.CodeInvalidAmount) {
			t.Errorf("percent %s: err = %v, want INVALID_AMOUNT", pct, err)
		}
	}
}

func TestComputePosition(t *testing.T) {
	pool := mustPool(t, e18(100), e18(400), e18(200))

	pos, err := ComputePosition(lpAmount(e18(50)), pool.LPTotalSupply, pool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos.Empty {
		t.Fatal("position should not be empty")
	}
	if !pos.SharePct.Equal(decimal.NewFromInt(25)) {
		t.Errorf("share = %s%%, want 25%%", pos.SharePct)
	}
	if pos.UnderlyingA.ToDecimalString() != "25" || pos.UnderlyingB.ToDecimalString() != "100" {
		t.Errorf("underlying = %s / %s", pos.UnderlyingA, pos.UnderlyingB)
	}
}

func TestComputePosition_EmptyStates(t *testing.T) {
	funded := mustPool(t, e18(100), e18(400), e18(200))
	empty := mustPool(t, big.NewInt(0), big.NewInt(0), big.NewInt(0))

	tests := []struct {
		name    string
		balance asset.Amount
		pool    pooldomain.PoolState
	}{
		{name: "zero_balance", balance: asset.Zero(lpt), pool: funded},
		{name: "zero_supply", balance: lpAmount(e18(1)), pool: empty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := ComputePosition(tt.balance, tt.pool.LPTotalSupply, tt.pool)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !pos.Empty {
				t.Error("expected the explicit empty position")
			}
			if !pos.UnderlyingA.IsZero() || !pos.UnderlyingB.IsZero() || !pos.SharePct.IsZero() {
				t.Errorf("empty position must report zeros, got %+v", pos)
			}
		})
	}
}

func TestComputePosition_BalanceAboveSupply(t *testing.T) {
	pool := mustPool(t, e18(1), e18(1), e18(1))

	_, err := ComputePosition(lpAmount(e18(2)), pool.LPTotalSupply, pool)
	if !apperror.HasCode(err, apperror.CodeInconsistentPool) {
		t.Errorf("err = %v, want INCONSISTENT_POOL", err)
	}
}
