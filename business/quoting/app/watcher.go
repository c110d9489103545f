package app

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	chaindomain "github.com/fd1az/amm-quoter/business/blockchain/domain"
	pooldomain "github.com/fd1az/amm-quoter/business/pool/domain"
	"github.com/fd1az/amm-quoter/business/quoting/domain"
	safetydomain "github.com/fd1az/amm-quoter/business/safety/domain"
	"github.com/fd1az/amm-quoter/internal/logger"
)

// BlockSource streams chain heads. Implemented by the blockchain context's
// BlockchainService.
type BlockSource interface {
	SubscribeBlocks(ctx context.Context) (<-chan *chaindomain.Block, error)
	ConnectionStatus() chaindomain.ConnectionStatus
}

// WatcherConfig holds the probes recomputed on every block.
type WatcherConfig struct {
	ProbeSizes []string       // whole-token amounts, quoted in both directions
	Owner      common.Address // zero disables position tracking
}

// ProbeQuote is one probe's result. Quote is nil when Err is set.
type ProbeQuote struct {
	Size      string
	Direction pooldomain.Direction
	Quote     *domain.SwapQuote
	Impact    safetydomain.Impact
	Err       error
}

// BlockUpdate is everything recomputed for one block.
type BlockUpdate struct {
	Block    *chaindomain.Block
	Overview Overview
	Probes   []ProbeQuote
	Position *PositionResult // nil without an owner
	Skipped  int             // older heads dropped in favour of this one
	Elapsed  time.Duration
}

// Watcher recomputes quotes on every new head. Heads that arrive while a
// block is being processed are coalesced: only the newest is processed next.
type Watcher struct {
	blocks   BlockSource
	service  *Service
	reporter Reporter
	config   WatcherConfig
	logger   logger.LoggerInterface

	statusEvery time.Duration
	done        chan struct{}
}

// NewWatcher creates a new Watcher.
func NewWatcher(
	blocks BlockSource,
	service *Service,
	reporter Reporter,
	config WatcherConfig,
	log logger.LoggerInterface,
) *Watcher {
	return &Watcher{
		blocks:      blocks,
		service:     service,
		reporter:    reporter,
		config:      config,
		logger:      log,
		statusEvery: 5 * time.Second,
		done:        make(chan struct{}),
	}
}

// Start subscribes to new heads and starts the loop.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "starting watcher", "probes", w.config.ProbeSizes, "owner", w.config.Owner.Hex())

	blocks, err := w.blocks.SubscribeBlocks(ctx)
	if err != nil {
		return err
	}

	if err := w.reporter.Start(ctx); err != nil {
		return err
	}

	go w.run(ctx, blocks)
	return nil
}

// Done is closed when the loop exits.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) run(ctx context.Context, blocks <-chan *chaindomain.Block) {
	defer close(w.done)

	ticker := time.NewTicker(w.statusEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "watcher stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			w.reporter.UpdateConnectionStatus(w.blocks.ConnectionStatus())
		case block, ok := <-blocks:
			if !ok {
				w.logger.Warn(ctx, "block stream closed")
				w.reporter.UpdateConnectionStatus(w.blocks.ConnectionStatus())
				return
			}
			if block == nil {
				continue
			}
			block, skipped := latest(block, blocks)
			w.onNewBlock(ctx, block, skipped)
		}
	}
}

// latest drains whatever is already queued and returns the newest head.
func latest(block *chaindomain.Block, blocks <-chan *chaindomain.Block) (*chaindomain.Block, int) {
	skipped := 0
	for {
		select {
		case next, ok := <-blocks:
			if !ok || next == nil {
				return block, skipped
			}
			block = next
			skipped++
		default:
			return block, skipped
		}
	}
}

func (w *Watcher) onNewBlock(ctx context.Context, block *chaindomain.Block, skipped int) {
	update, err := w.Recompute(ctx, block)
	if err != nil {
		w.logger.Warn(ctx, "block recomputation failed", "block", block.Number, "error", err)
		w.reporter.ReportError(err)
		return
	}
	update.Skipped = skipped

	w.reporter.Report(update)
	w.reporter.UpdateConnectionStatus(w.blocks.ConnectionStatus())
}

// Recompute snapshots the pool at block and reruns every probe against it.
// Only a failed snapshot is an error; a failing probe is recorded on its row.
func (w *Watcher) Recompute(ctx context.Context, block *chaindomain.Block) (*BlockUpdate, error) {
	start := time.Now()

	var (
		pool     pooldomain.PoolState
		position *PositionResult
	)

	if w.config.Owner != (common.Address{}) {
		h, err := w.service.pools.HoldingsAt(ctx, w.config.Owner, block.Number)
		if err != nil {
			return nil, err
		}
		pool = h.State
		if pos, err := positionOf(h); err != nil {
			w.logger.Warn(ctx, "position unavailable", "owner", w.config.Owner.Hex(), "error", err)
		} else {
			position = &pos
		}
	} else {
		var err error
		if pool, err = w.service.pools.SnapshotAt(ctx, block.Number); err != nil {
			return nil, err
		}
	}

	update := &BlockUpdate{
		Block:    block,
		Overview: w.service.overviewOf(ctx, pool),
		Position: position,
		Probes:   make([]ProbeQuote, 0, 2*len(w.config.ProbeSizes)),
	}

	for _, dir := range []pooldomain.Direction{pooldomain.AToB, pooldomain.BToA} {
		for _, size := range w.config.ProbeSizes {
			probe := ProbeQuote{Size: size, Direction: dir}
			res, err := w.service.quoteAt(ctx, pool, SwapParams{Direction: dir, Amount: size})
			if err != nil {
				probe.Err = err
			} else {
				probe.Quote = &res.Quote
				probe.Impact = res.Decision.Impact
			}
			update.Probes = append(update.Probes, probe)
		}
	}

	update.Elapsed = time.Since(start)
	w.logger.Debug(ctx, "block processed",
		"number", block.Number,
		"probes", len(update.Probes),
		"elapsed_ms", update.Elapsed.Milliseconds())

	return update, nil
}

// Stop shuts down the reporter.
func (w *Watcher) Stop() error {
	w.logger.Info(context.Background(), "stopping watcher")
	return w.reporter.Stop()
}
