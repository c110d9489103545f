package app_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chaindomain "github.com/fd1az/amm-quoter/business/blockchain/domain"
	pooldomain "github.com/fd1az/amm-quoter/business/pool/domain"
	"github.com/fd1az/amm-quoter/business/quoting/app"
	"github.com/fd1az/amm-quoter/business/quoting/domain"
	"github.com/fd1az/amm-quoter/business/quoting/infra/calldata"
	safetyapp "github.com/fd1az/amm-quoter/business/safety/app"
	safetydomain "github.com/fd1az/amm-quoter/business/safety/domain"
	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/asset"
	"github.com/fd1az/amm-quoter/internal/logger"
)

var (
	tka  = asset.MustNewToken(asset.ChainIDSepolia, common.HexToAddress("0x1000000000000000000000000000000000000001"), "TKA", "Token A", 18)
	tkb  = asset.MustNewToken(asset.ChainIDSepolia, common.HexToAddress("0x1000000000000000000000000000000000000002"), "TKB", "Token B", 18)
	lpt  = asset.MustNewToken(asset.ChainIDSepolia, common.HexToAddress("0x1000000000000000000000000000000000000003"), "AMM-LP", "Pool LP", 18)
	pair = pooldomain.Pair{Address: common.HexToAddress("0xaa"), TokenA: tka, TokenB: tkb, LPToken: lpt}

	owner  = common.HexToAddress("0xd1")
	router = common.HexToAddress("0xbb")
	gwei   = big.NewInt(1_000_000_000)
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func mustPool(t testing.TB, a, b, supply int64, block uint64) pooldomain.PoolState {
	t.Helper()
	p, err := pooldomain.NewPoolState(pair, e18(a), e18(b), e18(supply), block, time.Unix(1_700_000_000, 0))
	require.NoError(t, err)
	return p
}

// fakePools serves one pool state at whatever block is asked for.
type fakePools struct {
	t        testing.TB
	reserves [3]int64 // a, b, supply
	lp       int64
	failWith error
	blocks   []uint64
}

func (f *fakePools) at(block uint64) pooldomain.PoolState {
	return mustPool(f.t, f.reserves[0], f.reserves[1], f.reserves[2], block)
}

func (f *fakePools) Snapshot(ctx context.Context) (pooldomain.PoolState, error) {
	return f.SnapshotAt(ctx, 100)
}

func (f *fakePools) SnapshotAt(_ context.Context, block uint64) (pooldomain.PoolState, error) {
	if f.failWith != nil {
		return pooldomain.PoolState{}, f.failWith
	}
	f.blocks = append(f.blocks, block)
	return f.at(block), nil
}

func (f *fakePools) Holdings(ctx context.Context, who common.Address) (pooldomain.Holdings, error) {
	return f.HoldingsAt(ctx, who, 100)
}

func (f *fakePools) HoldingsAt(ctx context.Context, who common.Address, block uint64) (pooldomain.Holdings, error) {
	state, err := f.SnapshotAt(ctx, block)
	if err != nil {
		return pooldomain.Holdings{}, err
	}
	return pooldomain.Holdings{
		State:     state,
		Owner:     who,
		LPBalance: asset.NewAmount(lpt, e18(f.lp)),
		BalanceA:  asset.NewAmount(tka, e18(1)),
		BalanceB:  asset.NewAmount(tkb, e18(2)),
	}, nil
}

type fakeGas struct{ failWith error }

func (f fakeGas) EstimateCost(_ context.Context, gasLimit uint64) (*chaindomain.GasEstimate, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return chaindomain.NewGasEstimate(gasLimit, chaindomain.NewGasPrice(gwei, time.Now())), nil
}

func newService(pools *fakePools, gas app.GasPricer, routerAddr common.Address) *app.Service {
	return app.NewService(
		pools,
		safetyapp.NewPolicy(safetydomain.DefaultThresholds, time.Minute),
		calldata.NewEncoder(routerAddr),
		gas,
		app.Config{Fee: domain.DefaultFee, DefaultSlippagePct: domain.DefaultSlippagePct},
		logger.NewNop(),
	)
}

func TestService_QuoteSwap(t *testing.T) {
	pools := &fakePools{t: t, reserves: [3]int64{100, 100, 100}}
	svc := newService(pools, fakeGas{}, common.Address{})

	res, err := svc.QuoteSwap(context.Background(), app.SwapParams{Direction: pooldomain.AToB, Amount: "10"})
	require.NoError(t, err)

	assert.Equal(t, "9066108938801491315", res.Quote.AmountOut.Raw().String())
	assert.Equal(t, "8975447849413476401", res.Quote.MinimumReceived.Raw().String())
	assert.Equal(t, uint64(100), res.Pool.BlockNumber)
	assert.Equal(t, safetydomain.Warned, res.Decision.Impact)
	assert.True(t, res.Decision.Allowed)
	assert.Empty(t, res.Calls, "calldata only on request")
	assert.Nil(t, res.Gas)
}

func TestService_QuoteSwap_Calldata(t *testing.T) {
	pools := &fakePools{t: t, reserves: [3]int64{100, 100, 100}}
	svc := newService(pools, fakeGas{}, router)

	slip := decimal.NewFromInt(5)
	res, err := svc.QuoteSwap(context.Background(), app.SwapParams{
		Direction:    pooldomain.AToB,
		Amount:       "1",
		SlippagePct:  &slip,
		WithCalldata: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Calls, 2)
	assert.Equal(t, "approve", res.Calls[0].Method)
	assert.Equal(t, "swap", res.Calls[1].Method)
	assert.True(t, res.Quote.SlippagePct.Equal(slip))

	require.NotNil(t, res.Gas)
	want := new(big.Int).Mul(gwei, big.NewInt(int64(domain.SwapGasLimit+domain.ApproveGasLimit)))
	assert.Equal(t, want, res.Gas.TotalWei)

	res, err = svc.QuoteSwap(context.Background(), app.SwapParams{
		Direction: pooldomain.BToA, Amount: "1", WithCalldata: true, ViaRouter: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Calls, 2)
	assert.Equal(t, router, res.Calls[1].To)
}

func TestService_QuoteSwap_Rejections(t *testing.T) {
	pools := &fakePools{t: t, reserves: [3]int64{100, 100, 100}}

	t.Run("blocked_trade_has_no_calls", func(t *testing.T) {
		res, err := newService(pools, fakeGas{}, router).QuoteSwap(context.Background(),
			app.SwapParams{Direction: pooldomain.AToB, Amount: "30", WithCalldata: true})
		require.NoError(t, err)
		assert.False(t, res.Decision.Allowed)
		assert.True(t, apperror.HasCode(res.Decision.Err, apperror.CodePriceImpactBlocked))
		assert.Empty(t, res.Calls)
	})

	t.Run("router_not_configured", func(t *testing.T) {
		_, err := newService(pools, nil, common.Address{}).QuoteSwap(context.Background(),
			app.SwapParams{Direction: pooldomain.AToB, Amount: "1", WithCalldata: true, ViaRouter: true})
		assert.True(t, apperror.HasCode(err, apperror.CodeConfigurationError), "got %v", err)
	})

	t.Run("malformed_amount", func(t *testing.T) {
		_, err := newService(pools, nil, common.Address{}).QuoteSwap(context.Background(),
			app.SwapParams{Direction: pooldomain.AToB, Amount: "ten"})
		assert.True(t, apperror.HasCode(err, apperror.CodeParseError), "got %v", err)
	})

	t.Run("snapshot_failure", func(t *testing.T) {
		broken := &fakePools{t: t, failWith: apperror.New(apperror.CodeEthereumRPCError)}
		_, err := newService(broken, nil, common.Address{}).QuoteSwap(context.Background(),
			app.SwapParams{Direction: pooldomain.AToB, Amount: "1"})
		assert.True(t, apperror.HasCode(err, apperror.CodeEthereumRPCError))
	})
}

func TestService_ProposeAdd(t *testing.T) {
	pools := &fakePools{t: t, reserves: [3]int64{100, 400, 200}}
	svc := newService(pools, fakeGas{}, common.Address{})

	res, err := svc.ProposeAdd(context.Background(), app.AddParams{Side: pooldomain.SideA, Amount: "1", WithCalldata: true})
	require.NoError(t, err)
	assert.Equal(t, e18(4), res.Contribution.AmountB.Raw())
	require.NotNil(t, res.Submission)
	assert.Len(t, res.Calls, 3)
	require.NotNil(t, res.Gas)
	assert.Equal(t, domain.AddGasLimit+2*domain.ApproveGasLimit, res.Gas.GasLimit)

	res, err = svc.ProposeAdd(context.Background(), app.AddParams{Side: pooldomain.SideB})
	require.NoError(t, err)
	assert.True(t, res.Contribution.Cleared)
	assert.Nil(t, res.Submission)
}

func TestService_ProposeAdd_Bootstrap(t *testing.T) {
	pools := &fakePools{t: t, reserves: [3]int64{0, 0, 0}}
	svc := newService(pools, nil, common.Address{})

	res, err := svc.ProposeAdd(context.Background(), app.AddParams{Side: pooldomain.SideA, Amount: "2", Counterpart: "8"})
	require.NoError(t, err)
	assert.True(t, res.Contribution.IsBootstrap)
	require.NotNil(t, res.Contribution.InitialPrice)
	assert.Equal(t, "4", res.Contribution.InitialPrice.Rate().String())
}

func TestService_ProposeRemove(t *testing.T) {
	pools := &fakePools{t: t, reserves: [3]int64{100, 100, 100}, lp: 10}
	svc := newService(pools, fakeGas{}, common.Address{})
	ctx := context.Background()

	res, err := svc.ProposeRemove(ctx, app.RemoveParams{LPAmount: "10", WithCalldata: true})
	require.NoError(t, err)
	assert.Equal(t, e18(10), res.Withdrawal.AmountA.Raw())
	assert.Equal(t, e18(10), res.Submission.LPAmountToBurn)
	assert.Len(t, res.Calls, 2)

	res, err = svc.ProposeRemove(ctx, app.RemoveParams{Percent: "50", Owner: owner})
	require.NoError(t, err)
	assert.Equal(t, e18(5), res.Withdrawal.LPAmount.Raw())
	assert.Equal(t, e18(5), res.Withdrawal.AmountB.Raw())

	tests := []struct {
		name string
		p    app.RemoveParams
		code apperror.Code
	}{
		{name: "neither", p: app.RemoveParams{}, code: apperror.CodeInvalidInput},
		{name: "both", p: app.RemoveParams{LPAmount: "1", Percent: "1", Owner: owner}, code: apperror.CodeInvalidInput},
		{name: "percent_without_owner", p: app.RemoveParams{Percent: "10"}, code: apperror.CodeInvalidInput},
		{name: "bad_percent", p: app.RemoveParams{Percent: "half", Owner: owner}, code: apperror.CodeParseError},
		{name: "over_supply", p: app.RemoveParams{LPAmount: "101"}, code: apperror.CodeInsufficientSupply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ProposeRemove(ctx, tt.p)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestService_Position(t *testing.T) {
	pools := &fakePools{t: t, reserves: [3]int64{100, 400, 100}, lp: 10}
	svc := newService(pools, nil, common.Address{})

	res, err := svc.Position(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, owner, res.Holdings.Owner)
	assert.False(t, res.Position.Empty)
	assert.True(t, res.Position.SharePct.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, e18(40), res.Position.UnderlyingB.Raw())

	pools.lp = 0
	res, err = svc.Position(context.Background(), owner)
	require.NoError(t, err)
	assert.True(t, res.Position.Empty)
}

func TestService_ImpermanentLoss(t *testing.T) {
	pools := &fakePools{t: t, reserves: [3]int64{100, 100, 100}}
	svc := newService(pools, nil, common.Address{})
	ctx := context.Background()

	res, err := svc.ImpermanentLoss(ctx, app.ILParams{Entry: "1", Current: "4"})
	require.NoError(t, err)
	assert.True(t, res.Estimate.ILPercent.Equal(decimal.NewFromInt(-20)))
	assert.Nil(t, res.Pool)

	res, err = svc.ImpermanentLoss(ctx, app.ILParams{Entry: "1"})
	require.NoError(t, err)
	require.NotNil(t, res.Pool)
	assert.True(t, res.Estimate.ILPercent.IsZero())

	_, err = svc.ImpermanentLoss(ctx, app.ILParams{Entry: "x"})
	assert.True(t, apperror.HasCode(err, apperror.CodeParseError))

	_, err = svc.ImpermanentLoss(ctx, app.ILParams{Entry: "0", Current: "1"})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidPrice))
}

func TestService_Overview(t *testing.T) {
	pools := &fakePools{t: t, reserves: [3]int64{100, 400, 200}}

	o, err := newService(pools, fakeGas{}, common.Address{}).Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, o.HasPrices)
	assert.Equal(t, "4", o.Prices.AInB.Rate().String())
	require.NotNil(t, o.Gas)

	o, err = newService(pools, fakeGas{failWith: errors.New("no gas")}, common.Address{}).Overview(context.Background())
	require.NoError(t, err, "gas is informational")
	assert.Nil(t, o.Gas)

	empty := &fakePools{t: t, reserves: [3]int64{0, 0, 0}}
	o, err = newService(empty, nil, common.Address{}).Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, o.HasPrices)
}
