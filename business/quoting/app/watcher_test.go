package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chaindomain "github.com/fd1az/amm-quoter/business/blockchain/domain"
	pooldomain "github.com/fd1az/amm-quoter/business/pool/domain"
	"github.com/fd1az/amm-quoter/business/quoting/app"
	safetydomain "github.com/fd1az/amm-quoter/business/safety/domain"
	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/logger"
)

type fakeBlocks struct {
	ch chan *chaindomain.Block
}

func (f *fakeBlocks) SubscribeBlocks(context.Context) (<-chan *chaindomain.Block, error) {
	return f.ch, nil
}

func (f *fakeBlocks) ConnectionStatus() chaindomain.ConnectionStatus {
	return chaindomain.ConnectionStatus{State: chaindomain.StateConnected}
}

type recordingReporter struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	updates  []*app.BlockUpdate
	errs     []error
	statuses int
}

func (r *recordingReporter) Start(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	return nil
}

func (r *recordingReporter) Report(u *app.BlockUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recordingReporter) UpdateConnectionStatus(chaindomain.ConnectionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses++
}

func (r *recordingReporter) ReportError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return nil
}

func TestWatcher_Recompute(t *testing.T) {
	pools := &fakePools{t: t, reserves: [3]int64{100, 100, 100}, lp: 10}
	w := app.NewWatcher(&fakeBlocks{}, newService(pools, fakeGas{}, common.Address{}), &recordingReporter{},
		app.WatcherConfig{ProbeSizes: []string{"1", "10", "0"}, Owner: owner}, logger.NewNop())

	u, err := w.Recompute(context.Background(), &chaindomain.Block{Number: 77})
	require.NoError(t, err)

	assert.Equal(t, uint64(77), u.Overview.Pool.BlockNumber)
	assert.Equal(t, []uint64{77}, pools.blocks, "one snapshot per block, pinned to it")
	require.Len(t, u.Probes, 6)

	first := u.Probes[0]
	assert.Equal(t, pooldomain.AToB, first.Direction)
	require.NotNil(t, first.Quote)
	assert.Equal(t, safetydomain.Allowed, first.Impact)

	assert.Equal(t, safetydomain.Warned, u.Probes[1].Impact)

	zero := u.Probes[2]
	assert.Nil(t, zero.Quote)
	assert.True(t, apperror.HasCode(zero.Err, apperror.CodeInvalidAmount), "got %v", zero.Err)

	assert.Equal(t, pooldomain.BToA, u.Probes[3].Direction)

	require.NotNil(t, u.Position)
	assert.Equal(t, owner, u.Position.Holdings.Owner)
	require.NotNil(t, u.Overview.Gas)
}

func TestWatcher_CoalescesQueuedBlocks(t *testing.T) {
	pools := &fakePools{t: t, reserves: [3]int64{100, 100, 100}}
	blocks := &fakeBlocks{ch: make(chan *chaindomain.Block, 4)}
	reporter := &recordingReporter{}

	for n := uint64(1); n <= 3; n++ {
		blocks.ch <- &chaindomain.Block{Number: n}
	}
	close(blocks.ch)

	w := app.NewWatcher(blocks, newService(pools, nil, common.Address{}), reporter,
		app.WatcherConfig{ProbeSizes: []string{"1"}}, logger.NewNop())

	require.NoError(t, w.Start(context.Background()))

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not exit after the stream closed")
	}
	require.NoError(t, w.Stop())

	reporter.mu.Lock()
	defer reporter.mu.Unlock()

	assert.True(t, reporter.started)
	assert.True(t, reporter.stopped)
	require.Len(t, reporter.updates, 1)
	assert.Equal(t, uint64(3), reporter.updates[0].Block.Number)
	assert.Equal(t, 2, reporter.updates[0].Skipped)
	assert.Nil(t, reporter.updates[0].Position)
	assert.Equal(t, []uint64{3}, pools.blocks)
}

func TestWatcher_ReportsSnapshotErrors(t *testing.T) {
	pools := &fakePools{t: t, failWith: apperror.New(apperror.CodeContractCallFailed)}
	blocks := &fakeBlocks{ch: make(chan *chaindomain.Block, 1)}
	reporter := &recordingReporter{}

	blocks.ch <- &chaindomain.Block{Number: 9}
	close(blocks.ch)

	w := app.NewWatcher(blocks, newService(pools, nil, common.Address{}), reporter,
		app.WatcherConfig{ProbeSizes: []string{"1"}}, logger.NewNop())
	require.NoError(t, w.Start(context.Background()))
	<-w.Done()

	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	assert.Empty(t, reporter.updates)
	require.Len(t, reporter.errs, 1)
	assert.True(t, apperror.HasCode(reporter.errs[0], apperror.CodeContractCallFailed))
}
