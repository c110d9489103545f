package app

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pooldomain "github.com/fd1az/amm-quoter/business/pool/domain"
	quoting "github.com/fd1az/amm-quoter/business/quoting/domain"
	"github.com/fd1az/amm-quoter/business/safety/domain"
	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/asset"
	"github.com/fd1az/amm-quoter/internal/config"
)

var (
	tka  = asset.MustNewToken(asset.ChainIDSepolia, common.HexToAddress("0x1000000000000000000000000000000000000001"), "TKA", "Token A", 18)
	tkb  = asset.MustNewToken(asset.ChainIDSepolia, common.HexToAddress("0x1000000000000000000000000000000000000002"), "TKB", "Token B", 18)
	lpt  = asset.MustNewToken(asset.ChainIDSepolia, common.HexToAddress("0x1000000000000000000000000000000000000003"), "LP", "Pool LP", 18)
	pair = pooldomain.Pair{Address: common.HexToAddress("0xaa"), TokenA: tka, TokenB: tkb, LPToken: lpt}
	now  = time.Unix(1_700_000_000, 0)
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func quoteFor(t *testing.T, amountIn int64) quoting.SwapQuote {
	t.Helper()
	pool, err := pooldomain.NewPoolState(pair, e18(100), e18(100), e18(100), 1, now)
	require.NoError(t, err)

	q, err := quoting.QuoteSwap(pool, quoting.SwapRequest{
		Direction:   pooldomain.AToB,
		AmountIn:    asset.NewAmount(tka, e18(amountIn)),
		Fee:         quoting.DefaultFee,
		SlippagePct: quoting.DefaultSlippagePct,
	})
	require.NoError(t, err)
	return q
}

func TestPolicy_Deadline(t *testing.T) {
	p := NewPolicy(domain.DefaultThresholds, 0)
	assert.Equal(t, now.Add(60*time.Second), p.Deadline(now))

	p = NewPolicy(domain.DefaultThresholds, 5*time.Minute)
	assert.Equal(t, int64(1_700_000_300), p.Deadline(now.Add(400*time.Millisecond)).Unix())
}

func TestPolicy_Evaluate(t *testing.T) {
	p := NewPolicy(domain.DefaultThresholds, time.Minute)

	tests := []struct {
		name        string
		amountIn    int64
		now         time.Time
		wantImpact  domain.Impact
		wantAllowed bool
		wantCode    apperror.Code
		wantWarning bool
	}{
		{name: "small_trade_allowed", amountIn: 1, now: now, wantImpact: domain.Allowed, wantAllowed: true},
		{name: "scenario_trade_warned", amountIn: 10, now: now, wantImpact: domain.Warned, wantAllowed: true, wantWarning: true},
		{name: "large_trade_blocked", amountIn: 30, now: now, wantImpact: domain.Blocked, wantCode: apperror.CodePriceImpactBlocked},
		{name: "expired", amountIn: 1, now: now.Add(2 * time.Minute), wantImpact: domain.Allowed, wantCode: apperror.CodeDeadlineExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := quoteFor(t, tt.amountIn)
			deadline := p.Deadline(now)

			d := p.Evaluate(pair.Address, q, tt.now, deadline)

			assert.Equal(t, tt.wantImpact, d.Impact)
			assert.Equal(t, tt.wantAllowed, d.Allowed)
			assert.Equal(t, tt.wantWarning, d.Warning != "")

			if tt.wantCode != "" {
				assert.True(t, apperror.HasCode(d.Err, tt.wantCode), "got %v", d.Err)
				assert.Nil(t, d.Submission)
				assert.NotEmpty(t, d.Reason)
				return
			}

			require.NoError(t, d.Err)
			require.NotNil(t, d.Submission)
			assert.Equal(t, deadline.Unix(), d.Submission.Deadline)
			assert.Equal(t, q.MinimumReceived.Raw(), d.Submission.MinimumReceived)
		})
	}
}

func TestPolicy_SlippageGuardPassesMinimumThrough(t *testing.T) {
	p := NewPolicy(domain.DefaultThresholds, time.Minute)
	q := quoteFor(t, 10)

	assert.True(t, p.SlippageGuard(q).Equals(q.MinimumReceived))
}

func TestNewPolicyFromConfig(t *testing.T) {
	p := NewPolicyFromConfig(config.SafetyConfig{
		WarnImpactPct:  2,
		BlockImpactPct: 8,
		DeadlineWindow: 30 * time.Second,
	})

	assert.True(t, p.Thresholds().Warn.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, domain.Blocked, domain.ImpactDecision(decimal.RequireFromString("8.01"), p.Thresholds()))
	assert.Equal(t, now.Add(30*time.Second), p.Deadline(now))
}
