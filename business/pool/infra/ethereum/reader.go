// Package ethereum implements the PoolReader port with eth_call over go-ethereum.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/amm-quoter/business/pool/app"
	"github.com/fd1az/amm-quoter/business/pool/domain"
	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/asset"
	"github.com/fd1az/amm-quoter/internal/cache"
	"github.com/fd1az/amm-quoter/internal/circuitbreaker"
	"github.com/fd1az/amm-quoter/internal/contracts"
	"github.com/fd1az/amm-quoter/internal/logger"
	"github.com/fd1az/amm-quoter/internal/ratelimit"
)

const (
	tracerName = "pool-reader"
	meterName  = "pool-reader"
	pairKey    = "pair"
)

var _ app.PoolReader = (*Reader)(nil)

// ChainClient is the part of *ethclient.Client the reader uses.
type ChainClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ReaderConfig holds reader settings.
type ReaderConfig struct {
	Pool         common.Address
	ChainID      uint64
	RPCPerMinute int
	RPCTimeout   time.Duration
	MetadataTTL  time.Duration
}

type readerMetrics struct {
	callsTotal  metric.Int64Counter
	callErrors  metric.Int64Counter
	callLatency metric.Float64Histogram
	cacheHits   metric.Int64Counter
}

// Reader reads pool state with every call pinned to a block. Pair metadata is
// cached; reserves and supply never are.
type Reader struct {
	client   ChainClient
	config   ReaderConfig
	registry *asset.Registry
	logger   logger.LoggerInterface

	limiter   *ratelimit.Limiter
	cb        *circuitbreaker.CircuitBreaker[[]byte]
	pairCache *cache.Cache[string, domain.Pair]
	pairMu    sync.Mutex // one metadata load at a time

	tracer  trace.Tracer
	metrics *readerMetrics
}

// NewReader creates a new pool reader.
func NewReader(client ChainClient, cfg ReaderConfig, registry *asset.Registry, log logger.LoggerInterface) (*Reader, error) {
	r := &Reader{
		client:    client,
		config:    cfg,
		registry:  registry,
		logger:    log,
		limiter:   ratelimit.New(cfg.RPCPerMinute),
		pairCache: cache.New[string, domain.Pair](0),
		tracer:    otel.Tracer(tracerName),
	}

	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("pool-rpc")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		r.logger.Warn(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	r.cb = circuitbreaker.New[[]byte](cbCfg)

	return r, nil
}

func (r *Reader) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &readerMetrics{}

	r.metrics.callsTotal, err = meter.Int64Counter(
		"pool_rpc_calls_total",
		metric.WithDescription("eth_call requests issued by the pool reader"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	r.metrics.callErrors, err = meter.Int64Counter(
		"pool_rpc_errors_total",
		metric.WithDescription("Failed eth_call requests"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	r.metrics.callLatency, err = meter.Float64Histogram(
		"pool_rpc_latency_ms",
		metric.WithDescription("eth_call latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	r.metrics.cacheHits, err = meter.Int64Counter(
		"pool_metadata_cache_hits_total",
		metric.WithDescription("Pair metadata served from cache"),
		metric.WithUnit("{hit}"),
	)
	return err
}

// Pair loads the token addresses and their ERC-20 metadata, registering the
// assets. The result is cached for MetadataTTL.
func (r *Reader) Pair(ctx context.Context) (domain.Pair, error) {
	if pair, ok := r.pairCache.Get(ctx, pairKey); ok {
		r.metrics.cacheHits.Add(ctx, 1)
		return pair, nil
	}

	r.pairMu.Lock()
	defer r.pairMu.Unlock()

	if pair, ok := r.pairCache.Get(ctx, pairKey); ok {
		return pair, nil
	}

	ctx, span := r.tracer.Start(ctx, "pool.load_pair",
		trace.WithAttributes(attribute.String("pool", r.config.Pool.Hex())))
	defer span.End()

	pair, err := r.loadPair(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Pair{}, err
	}

	r.pairCache.Set(ctx, pairKey, pair, r.config.MetadataTTL)
	span.SetStatus(codes.Ok, "")

	r.logger.Info(ctx, "loaded pool metadata",
		"pool", pair.Address.Hex(),
		"token_a", pair.TokenA.Symbol(),
		"token_b", pair.TokenB.Symbol(),
		"lp_token", pair.LPToken.Address().Hex(),
	)
	return pair, nil
}

func (r *Reader) loadPair(ctx context.Context) (domain.Pair, error) {
	var addrA, addrB, addrLP common.Address

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { addrA, err = r.callAddress(gctx, r.config.Pool, "tokenA"); return })
	g.Go(func() (err error) { addrB, err = r.callAddress(gctx, r.config.Pool, "tokenB"); return })
	g.Go(func() (err error) { addrLP, err = r.callAddress(gctx, r.config.Pool, "lpToken"); return })
	if err := g.Wait(); err != nil {
		return domain.Pair{}, err
	}

	var tokenA, tokenB, lp *asset.Asset

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() (err error) { tokenA, err = r.loadToken(gctx, addrA); return })
	g.Go(func() (err error) { tokenB, err = r.loadToken(gctx, addrB); return })
	g.Go(func() (err error) { lp, err = r.loadToken(gctx, addrLP); return })
	if err := g.Wait(); err != nil {
		return domain.Pair{}, err
	}

	return domain.Pair{
		Address: r.config.Pool,
		TokenA:  tokenA,
		TokenB:  tokenB,
		LPToken: lp,
	}, nil
}

func (r *Reader) loadToken(ctx context.Context, addr common.Address) (*asset.Asset, error) {
	if a, ok := r.registry.GetToken(r.config.ChainID, addr); ok {
		return a, nil
	}

	var (
		symbol, name string
		decimals     uint8
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := r.call(gctx, addr, contracts.ERC20, "symbol", nil)
		if err != nil {
			return err
		}
		symbol, err = unpackOne[string](out, "symbol")
		return err
	})
	g.Go(func() error {
		out, err := r.call(gctx, addr, contracts.ERC20, "name", nil)
		if err != nil {
			return err
		}
		name, err = unpackOne[string](out, "name")
		return err
	})
	g.Go(func() error {
		out, err := r.call(gctx, addr, contracts.ERC20, "decimals", nil)
		if err != nil {
			return err
		}
		decimals, err = unpackOne[uint8](out, "decimals")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if symbol == "" {
		symbol = addr.Hex()[:8]
	}
	if decimals > asset.MaxDecimals {
		return nil, apperror.New(apperror.CodeABIDecodingFailed,
			apperror.WithContextf("token %s reports %d decimals", addr.Hex(), decimals))
	}

	return r.registry.Ensure(asset.MustNewToken(r.config.ChainID, addr, symbol, name, decimals)), nil
}

// LatestBlockNumber returns the chain head.
func (r *Reader) LatestBlockNumber(ctx context.Context) (uint64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	out, err := r.cb.Execute(func() ([]byte, error) {
		n, err := r.client.BlockNumber(ctx)
		if err != nil {
			return nil, err
		}
		return new(big.Int).SetUint64(n).Bytes(), nil
	})
	if err != nil {
		return 0, apperror.Wrap(err, apperror.CodeEthereumRPCError, "eth_blockNumber")
	}
	return new(big.Int).SetBytes(out).Uint64(), nil
}

// Reserves reads both reserves at block.
func (r *Reader) Reserves(ctx context.Context, block uint64) (*big.Int, *big.Int, error) {
	var reserveA, reserveB *big.Int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { reserveA, err = r.callUint(gctx, r.config.Pool, contracts.Pool, "reserveA", blockArg(block)); return })
	g.Go(func() (err error) { reserveB, err = r.callUint(gctx, r.config.Pool, contracts.Pool, "reserveB", blockArg(block)); return })
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return reserveA, reserveB, nil
}

// LPTotalSupply reads the LP token supply at block.
func (r *Reader) LPTotalSupply(ctx context.Context, block uint64) (*big.Int, error) {
	pair, err := r.Pair(ctx)
	if err != nil {
		return nil, err
	}
	return r.callUint(ctx, pair.LPToken.Address(), contracts.ERC20, "totalSupply", blockArg(block))
}

// LPBalance reads owner's LP balance at block.
func (r *Reader) LPBalance(ctx context.Context, owner common.Address, block uint64) (*big.Int, error) {
	pair, err := r.Pair(ctx)
	if err != nil {
		return nil, err
	}
	return r.callUint(ctx, pair.LPToken.Address(), contracts.ERC20, "balanceOf", blockArg(block), owner)
}

// TokenBalances reads owner's balance of both pool tokens at block.
func (r *Reader) TokenBalances(ctx context.Context, owner common.Address, block uint64) (*big.Int, *big.Int, error) {
	pair, err := r.Pair(ctx)
	if err != nil {
		return nil, nil, err
	}

	var balA, balB *big.Int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		balA, err = r.callUint(gctx, pair.TokenA.Address(), contracts.ERC20, "balanceOf", blockArg(block), owner)
		return
	})
	g.Go(func() (err error) {
		balB, err = r.callUint(gctx, pair.TokenB.Address(), contracts.ERC20, "balanceOf", blockArg(block), owner)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return balA, balB, nil
}

// Close stops the metadata cache janitor.
func (r *Reader) Close() {
	r.pairCache.Close()
}

func (r *Reader) callAddress(ctx context.Context, to common.Address, method string) (common.Address, error) {
	out, err := r.call(ctx, to, contracts.Pool, method, nil)
	if err != nil {
		return common.Address{}, err
	}
	return unpackOne[common.Address](out, method)
}

func (r *Reader) callUint(ctx context.Context, to common.Address, contract abi.ABI, method string, block *big.Int, args ...any) (*big.Int, error) {
	out, err := r.call(ctx, to, contract, method, block, args...)
	if err != nil {
		return nil, err
	}
	return unpackOne[*big.Int](out, method)
}

// call packs, executes and unpacks one eth_call. A nil block means latest.
func (r *Reader) call(ctx context.Context, to common.Address, contract abi.ABI, method string, block *big.Int, args ...any) ([]any, error) {
	attrs := metric.WithAttributes(attribute.String("method", method))
	start := time.Now()
	r.metrics.callsTotal.Add(ctx, 1, attrs)

	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, apperror.New(apperror.CodeABIEncodingFailed,
			apperror.WithCause(err), apperror.WithContext(method))
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	raw, err := r.cb.Execute(func() ([]byte, error) {
		return r.client.CallContract(callCtx, ethereum.CallMsg{To: &to, Data: data}, block)
	})
	r.metrics.callLatency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	if err != nil {
		r.metrics.callErrors.Add(ctx, 1, attrs)
		return nil, apperror.Wrap(err, apperror.CodeContractCallFailed,
			fmt.Sprintf("%s on %s at block %s", method, to.Hex(), blockLabel(block)))
	}

	out, err := contract.Unpack(method, raw)
	if err != nil {
		r.metrics.callErrors.Add(ctx, 1, attrs)
		return nil, apperror.New(apperror.CodeABIDecodingFailed,
			apperror.WithCause(err), apperror.WithContextf("%s on %s", method, to.Hex()))
	}
	return out, nil
}

func (r *Reader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.config.RPCTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.config.RPCTimeout)
}

func unpackOne[T any](out []any, method string) (T, error) {
	var zero T
	if len(out) != 1 {
		return zero, apperror.New(apperror.CodeABIDecodingFailed,
			apperror.WithContextf("%s returned %d values", method, len(out)))
	}
	v, ok := out[0].(T)
	if !ok {
		return zero, apperror.New(apperror.CodeABIDecodingFailed,
			apperror.WithContextf("%s returned %T", method, out[0]))
	}
	return v, nil
}

func blockArg(block uint64) *big.Int {
	return new(big.Int).SetUint64(block)
}

func blockLabel(block *big.Int) string {
	if block == nil {
		return "latest"
	}
	return block.String()
}
