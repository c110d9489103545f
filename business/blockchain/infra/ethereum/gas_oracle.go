package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/amm-quoter/business/blockchain/app"
	"github.com/fd1az/amm-quoter/business/blockchain/domain"
	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/cache"
	"github.com/fd1az/amm-quoter/internal/circuitbreaker"
	"github.com/fd1az/amm-quoter/internal/logger"
)

var _ app.GasPricer = (*GasOracle)(nil)

const (
	gasPriceKey = "current"
	lastGoodKey = "last"
)

// GasClient is the part of *ethclient.Client the oracle uses.
type GasClient interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// GasOracleConfig holds configuration for the gas oracle.
type GasOracleConfig struct {
	CacheTTL    time.Duration
	StaleTTL    time.Duration // how long the last good price covers a failing node; 0 disables
	MaxGasPrice *big.Int      // suggestions above this are clamped
}

// DefaultGasOracleConfig returns sensible defaults.
func DefaultGasOracleConfig() GasOracleConfig {
	maxGas, _ := new(big.Int).SetString("500000000000", 10) // 500 gwei

	return GasOracleConfig{
		CacheTTL:    15 * time.Second,
		StaleTTL:    2 * time.Minute,
		MaxGasPrice: maxGas,
	}
}

type gasOracleMetrics struct {
	gasPriceFetches metric.Int64Counter
	gasPriceGwei    metric.Float64Gauge
	cacheHits       metric.Int64Counter
	staleServed     metric.Int64Counter
}

// GasOracle serves the node's suggested gas price through a short-lived cache.
type GasOracle struct {
	config GasOracleConfig
	logger logger.LoggerInterface
	client GasClient

	priceCache *cache.Cache[string, *domain.GasPrice]
	cb         *circuitbreaker.CircuitBreaker[*big.Int]

	now func() time.Time

	tracer  trace.Tracer
	metrics *gasOracleMetrics
}

// NewGasOracle creates a new gas oracle.
func NewGasOracle(client GasClient, cfg GasOracleConfig, log logger.LoggerInterface) (*GasOracle, error) {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultGasOracleConfig().CacheTTL
	}

	g := &GasOracle{
		config:     cfg,
		logger:     log,
		client:     client,
		priceCache: cache.New[string, *domain.GasPrice](5 * time.Minute),
		cb:         circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("gas-oracle")),
		now:        time.Now,
		tracer:     otel.Tracer(tracerName),
	}

	if err := g.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return g, nil
}

func (g *GasOracle) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	g.metrics = &gasOracleMetrics{}

	g.metrics.gasPriceFetches, err = meter.Int64Counter(
		"gas_price_fetches_total",
		metric.WithDescription("Gas price fetches from the node"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	g.metrics.gasPriceGwei, err = meter.Float64Gauge(
		"gas_price_gwei",
		metric.WithDescription("Current gas price in gwei"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return err
	}

	g.metrics.cacheHits, err = meter.Int64Counter(
		"gas_cache_hits_total",
		metric.WithDescription("Gas price cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	g.metrics.staleServed, err = meter.Int64Counter(
		"gas_price_stale_served_total",
		metric.WithDescription("Failed fetches answered with the last good price"),
		metric.WithUnit("{fetch}"),
	)
	return err
}

// GasPrice returns the suggested gas price, cached for CacheTTL. When the
// node fails, the last good price is returned for up to StaleTTL.
func (g *GasOracle) GasPrice(ctx context.Context) (*domain.GasPrice, error) {
	ctx, span := g.tracer.Start(ctx, "gas.get_price")
	defer span.End()

	if price, found := g.priceCache.Get(ctx, gasPriceKey); found {
		g.metrics.cacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		return price, nil
	}

	g.metrics.gasPriceFetches.Add(ctx, 1)

	wei, err := g.cb.Execute(func() (*big.Int, error) {
		return g.client.SuggestGasPrice(ctx)
	})
	if err != nil {
		span.RecordError(err)
		if last, ok := g.priceCache.Get(ctx, lastGoodKey); ok {
			g.metrics.staleServed.Add(ctx, 1)
			g.logger.Warn(ctx, "gas price fetch failed, serving last good price",
				"error", err, "age", g.now().Sub(last.ObservedAt).Round(time.Second))
			span.AddEvent("stale_served")
			return last, nil
		}
		span.SetStatus(codes.Error, "fetch failed")
		return nil, apperror.Wrap(err, apperror.CodeEthereumRPCError, "suggest gas price")
	}

	if g.config.MaxGasPrice != nil && wei.Cmp(g.config.MaxGasPrice) > 0 {
		g.logger.Warn(ctx, "gas price exceeds max, clamping", "wei", wei.String())
		wei = g.config.MaxGasPrice
	}

	price := domain.NewGasPrice(wei, g.now())
	g.priceCache.Set(ctx, gasPriceKey, price, g.config.CacheTTL)
	if g.config.StaleTTL > 0 {
		g.priceCache.Set(ctx, lastGoodKey, price, g.config.StaleTTL)
	}

	gwei := price.Gwei().InexactFloat64()
	g.metrics.gasPriceGwei.Record(ctx, gwei)
	span.SetAttributes(attribute.Float64("gwei", gwei))
	span.SetStatus(codes.Ok, "fetched")

	return price, nil
}

// Close releases the price cache.
func (g *GasOracle) Close() error {
	g.priceCache.Close()
	return nil
}
