package app_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/amm-quoter/business/pool/app"
	"github.com/fd1az/amm-quoter/business/pool/domain"
	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/asset"
	"github.com/fd1az/amm-quoter/internal/logger"
)

type fakeReader struct {
	mu       sync.Mutex
	pair     domain.Pair
	head     uint64
	reserves map[uint64][2]int64
	supply   map[uint64]int64
	lp       int64
	balances [2]int64
	failOn   string
	blocks   []uint64 // every block argument seen
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		pair: domain.Pair{
			Address: common.HexToAddress("0xaa"),
			TokenA:  asset.MustNewToken(asset.ChainIDSepolia, common.HexToAddress("0x01"), "TKA", "Token A", 18),
			TokenB:  asset.MustNewToken(asset.ChainIDSepolia, common.HexToAddress("0x02"), "TKB", "Token B", 18),
			LPToken: asset.MustNewToken(asset.ChainIDSepolia, common.HexToAddress("0x03"), "LP", "Pool LP", 18),
		},
		head:     101,
		reserves: map[uint64][2]int64{100: {50, 50}, 101: {100, 400}},
		supply:   map[uint64]int64{100: 50, 101: 200},
		lp:       20,
		balances: [2]int64{7, 9},
	}
}

func (f *fakeReader) seen(block uint64) {
	f.mu.Lock()
	f.blocks = append(f.blocks, block)
	f.mu.Unlock()
}

func (f *fakeReader) Pair(context.Context) (domain.Pair, error) { return f.pair, nil }

func (f *fakeReader) LatestBlockNumber(context.Context) (uint64, error) {
	if f.failOn == "head" {
		return 0, errors.New("node down")
	}
	return f.head, nil
}

func (f *fakeReader) Reserves(_ context.Context, block uint64) (*big.Int, *big.Int, error) {
	f.seen(block)
	if f.failOn == "reserves" {
		return nil, nil, apperror.New(apperror.CodeContractCallFailed)
	}
	r := f.reserves[block]
	return big.NewInt(r[0]), big.NewInt(r[1]), nil
}

func (f *fakeReader) LPTotalSupply(_ context.Context, block uint64) (*big.Int, error) {
	f.seen(block)
	return big.NewInt(f.supply[block]), nil
}

func (f *fakeReader) LPBalance(_ context.Context, _ common.Address, block uint64) (*big.Int, error) {
	f.seen(block)
	return big.NewInt(f.lp), nil
}

func (f *fakeReader) TokenBalances(_ context.Context, _ common.Address, block uint64) (*big.Int, *big.Int, error) {
	f.seen(block)
	return big.NewInt(f.balances[0]), big.NewInt(f.balances[1]), nil
}

func TestSnapshot_PinsLatestBlock(t *testing.T) {
	reader := newFakeReader()
	svc := app.NewPoolService(reader, logger.NewNop())

	state, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(101), state.BlockNumber)
	assert.Equal(t, int64(100), state.ReserveA.Raw().Int64())
	assert.Equal(t, int64(400), state.ReserveB.Raw().Int64())
	assert.Equal(t, int64(200), state.LPTotalSupply.Raw().Int64())
	for _, b := range reader.blocks {
		assert.Equal(t, uint64(101), b, "every read must use the pinned block")
	}
}

func TestSnapshotAt_UsesRequestedBlock(t *testing.T) {
	svc := app.NewPoolService(newFakeReader(), logger.NewNop())

	state, err := svc.SnapshotAt(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(50), state.ReserveA.Raw().Int64())
	assert.Equal(t, int64(50), state.LPTotalSupply.Raw().Int64())
}

func TestSnapshot_PropagatesReadFailure(t *testing.T) {
	reader := newFakeReader()
	reader.failOn = "reserves"
	svc := app.NewPoolService(reader, logger.NewNop())

	_, err := svc.Snapshot(context.Background())
	assert.True(t, apperror.HasCode(err, apperror.CodeContractCallFailed), "got %v", err)
}

func TestSnapshot_RejectsOneSidedPool(t *testing.T) {
	reader := newFakeReader()
	reader.reserves[101] = [2]int64{10, 0}
	svc := app.NewPoolService(reader, logger.NewNop())

	_, err := svc.Snapshot(context.Background())
	assert.True(t, apperror.HasCode(err, apperror.CodeInconsistentPool), "got %v", err)
}

func TestHoldings_ReadsEverythingAtOneBlock(t *testing.T) {
	reader := newFakeReader()
	svc := app.NewPoolService(reader, logger.NewNop())
	owner := common.HexToAddress("0xbeef")

	h, err := svc.Holdings(context.Background(), owner)
	require.NoError(t, err)

	assert.Equal(t, owner, h.Owner)
	assert.Equal(t, uint64(101), h.State.BlockNumber)
	assert.Equal(t, int64(20), h.LPBalance.Raw().Int64())
	assert.Equal(t, "TKA", h.BalanceA.Asset().Symbol())
	assert.Equal(t, int64(9), h.BalanceB.Raw().Int64())
	for _, b := range reader.blocks {
		assert.Equal(t, uint64(101), b)
	}
}
