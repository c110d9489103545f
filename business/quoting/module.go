// Package quoting implements the quoting bounded context: swap, liquidity
// and impermanent-loss proposals checked against the trade safety policy.
package quoting

import (
	"context"

	blockchainDI "github.com/fd1az/amm-quoter/business/blockchain/di"
	poolDI "github.com/fd1az/amm-quoter/business/pool/di"
	"github.com/fd1az/amm-quoter/business/quoting/app"
	quotingDI "github.com/fd1az/amm-quoter/business/quoting/di"
	"github.com/fd1az/amm-quoter/business/quoting/domain"
	"github.com/fd1az/amm-quoter/business/quoting/infra/calldata"
	"github.com/fd1az/amm-quoter/business/quoting/infra/reporter"
	safetyapp "github.com/fd1az/amm-quoter/business/safety/app"
	"github.com/fd1az/amm-quoter/internal/di"
	"github.com/fd1az/amm-quoter/internal/monolith"
)

// Module implements the quoting bounded context. It depends on the pool and
// blockchain modules being registered in the same container.
type Module struct{}

// RegisterServices registers all quoting services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, quotingDI.Policy, func(sr di.ServiceRegistry) *safetyapp.Policy {
		return safetyapp.NewPolicyFromConfig(monolith.GetConfig(sr).Safety)
	})

	di.RegisterToken(c, quotingDI.Encoder, func(sr di.ServiceRegistry) app.CallEncoder {
		return calldata.NewEncoder(monolith.GetConfig(sr).Pool.RouterAddressHex())
	})

	di.RegisterToken(c, quotingDI.Service, func(sr di.ServiceRegistry) *app.Service {
		cfg := monolith.GetConfig(sr)

		return app.NewService(
			poolDI.GetPoolService(sr),
			quotingDI.GetPolicy(sr),
			quotingDI.GetEncoder(sr),
			blockchainDI.GetBlockchainService(sr),
			app.Config{
				Fee: domain.Fee{
					Numerator:   cfg.Pool.FeeNumerator,
					Denominator: cfg.Pool.FeeDenominator,
				},
				DefaultSlippagePct: cfg.Safety.DefaultSlippageDecimal(),
			},
			monolith.GetLogger(sr),
		)
	})

	if !c.Has(quotingDI.Reporter.Key()) {
		di.RegisterToken(c, quotingDI.Reporter, func(di.ServiceRegistry) app.Reporter {
			return reporter.NewConsoleReporter(nil)
		})
	}

	di.RegisterToken(c, quotingDI.Watcher, func(sr di.ServiceRegistry) *app.Watcher {
		cfg := monolith.GetConfig(sr)

		return app.NewWatcher(
			blockchainDI.GetBlockchainService(sr),
			quotingDI.GetService(sr),
			quotingDI.GetReporter(sr),
			app.WatcherConfig{
				ProbeSizes: cfg.Watch.ProbeSizes,
				Owner:      cfg.Watch.OwnerHex(),
			},
			monolith.GetLogger(sr),
		)
	})

	return nil
}

// Startup validates the configured fee and logs the active thresholds.
// The watcher is started by the command that needs it.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()

	fee := domain.Fee{Numerator: cfg.Pool.FeeNumerator, Denominator: cfg.Pool.FeeDenominator}
	if err := fee.Validate(); err != nil {
		return err
	}

	th := quotingDI.GetPolicy(mono.Services()).Thresholds()
	mono.Logger().Info(ctx, "quoting module started",
		"fee_pct", fee.Pct().String(),
		"warn_impact_pct", th.Warn.String(),
		"block_impact_pct", th.Block.String(),
		"deadline_window", cfg.Safety.DeadlineWindow.String(),
	)
	return nil
}
