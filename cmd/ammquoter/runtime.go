package main

import (
	"context"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fd1az/amm-quoter/business/blockchain"
	blockchainDI "github.com/fd1az/amm-quoter/business/blockchain/di"
	"github.com/fd1az/amm-quoter/business/pool"
	poolDI "github.com/fd1az/amm-quoter/business/pool/di"
	"github.com/fd1az/amm-quoter/business/quoting"
	quotingApp "github.com/fd1az/amm-quoter/business/quoting/app"
	quotingDI "github.com/fd1az/amm-quoter/business/quoting/di"
	"github.com/fd1az/amm-quoter/internal/apm"
	"github.com/fd1az/amm-quoter/internal/config"
	"github.com/fd1az/amm-quoter/internal/di"
	"github.com/fd1az/amm-quoter/internal/health"
	"github.com/fd1az/amm-quoter/internal/logger"
	"github.com/fd1az/amm-quoter/internal/metrics"
	"github.com/fd1az/amm-quoter/internal/monolith"
)

type bootOptions struct {
	// quiet discards logs; the TUI owns the terminal.
	quiet bool
	// longRunning keeps the configured log level; one-shot commands default to warn.
	longRunning bool
	// register runs before the modules register, to override their defaults.
	register func(di.Container)
}

type runtime struct {
	cfg     *config.Config
	log     logger.LoggerInterface
	mono    *monolith.App
	started bool
	tracer  apm.TraceProvider
	meters  metrics.MetricProvider
}

// bootstrap loads config, sets up logging and telemetry, and starts the modules.
func bootstrap(cmd *cobra.Command, opts bootOptions) (*runtime, error) {
	ctx := cmd.Context()

	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath, cmd.Flags())
	if err != nil {
		return nil, err
	}

	level := logger.ParseLevel(cfg.App.LogLevel)
	if !opts.longRunning && !cmd.Flags().Changed("log-level") {
		level = logger.LevelWarn
	}
	var out io.Writer = os.Stderr
	if opts.quiet {
		out = io.Discard
	}
	cfg.App.TUIMode = opts.quiet
	log := logger.New(out, level, cfg.App.Name, nil)

	rt := &runtime{cfg: cfg, log: log, tracer: apm.NewTraceProvider(log)}

	if cfg.Telemetry.Enabled {
		rt.tracer = apm.NewTraceProvider(log,
			apm.WithServiceName(cfg.Telemetry.ServiceName),
			apm.WithEndpoint(cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.OTLPHeaders),
			apm.WithProvider(apm.Provider(cfg.Telemetry.TraceProvider)),
		)
		mopts := []metrics.OptionFn{metrics.WithServiceName(cfg.Telemetry.ServiceName), metrics.WithPrometheus()}
		if apm.Provider(cfg.Telemetry.TraceProvider) == apm.OTLPGRPCProvider && cfg.Telemetry.OTLPEndpoint != "" {
			mopts = append(mopts, metrics.WithOTLP(cfg.Telemetry.OTLPEndpoint, apm.ParseHeaders(cfg.Telemetry.OTLPHeaders)))
		}
		if rt.meters, err = metrics.NewMetricProvider(mopts...); err != nil {
			log.Warn(ctx, "metrics disabled", "error", err)
		}
	}

	rt.mono, err = monolith.New(ctx, cfg, log)
	if err != nil {
		rt.Close()
		return nil, err
	}

	if opts.register != nil {
		opts.register(rt.mono.Container())
	}

	modules := []monolith.Module{
		&blockchain.Module{},
		&pool.Module{},
		&quoting.Module{},
	}
	if err := rt.mono.RegisterModules(modules...); err != nil {
		rt.Close()
		return nil, err
	}
	if err := rt.mono.StartModules(ctx, modules...); err != nil {
		rt.Close()
		return nil, err
	}
	rt.started = true

	log.Info(ctx, "ammquoter started", "version", version, "environment", cfg.App.Environment, "pool", cfg.Pool.Address)
	return rt, nil
}

func (r *runtime) quoting() *quotingApp.Service {
	return quotingDI.GetService(r.mono.Services())
}

// healthChecks registers the dependency probes behind /health and /ready.
// A failing gas oracle only degrades: quotes still work without a cost.
func (r *runtime) healthChecks(hs *health.Server, withHeads bool) {
	pools := poolDI.GetPoolService(r.mono.Services())
	hs.RegisterCheck("ethereum", func(ctx context.Context) (bool, string) {
		block, err := pools.LatestBlock(ctx)
		if err != nil {
			return false, err.Error()
		}
		return true, "block " + strconv.FormatUint(block, 10)
	})

	chain := blockchainDI.GetBlockchainService(r.mono.Services())
	hs.RegisterOptional("gas", func(ctx context.Context) (bool, string) {
		gp, err := chain.GasPrice(ctx)
		if err != nil {
			return false, err.Error()
		}
		return true, gp.Gwei().StringFixed(2) + " gwei"
	})

	if withHeads {
		hs.RegisterCheck("heads", func(context.Context) (bool, string) {
			s := chain.ConnectionStatus()
			return s.LastBlock > 0, string(s.State)
		})
	}
}

// Close releases everything bootstrap acquired. Safe on a partial runtime.
func (r *runtime) Close() {
	ctx := context.Background()
	if r.mono != nil {
		if r.started {
			if err := blockchainDI.GetBlockchainService(r.mono.Services()).Close(); err != nil {
				r.log.Warn(ctx, "closing head subscription", "error", err)
			}
		}
		_ = r.mono.Close()
	}
	if r.meters != nil {
		_ = r.meters.Shutdown(ctx)
	}
	if r.tracer != nil {
		_ = r.tracer.Stop()
	}
}
