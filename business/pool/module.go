// Package pool implements the pool bounded context: block-pinned snapshots of
// the constant-product pool and its LP token.
package pool

import (
	"context"
	"time"

	"github.com/fd1az/amm-quoter/business/pool/app"
	poolDI "github.com/fd1az/amm-quoter/business/pool/di"
	"github.com/fd1az/amm-quoter/business/pool/infra/ethereum"
	"github.com/fd1az/amm-quoter/internal/di"
	"github.com/fd1az/amm-quoter/internal/monolith"
)

// Module implements the pool bounded context.
type Module struct{}

// RegisterServices registers all pool services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, poolDI.PoolReader, func(sr di.ServiceRegistry) app.PoolReader {
		cfg := monolith.GetConfig(sr)

		reader, err := ethereum.NewReader(monolith.GetEthClient(sr), ethereum.ReaderConfig{
			Pool:         cfg.Pool.AddressHex(),
			ChainID:      cfg.Ethereum.ChainID,
			RPCPerMinute: cfg.Ethereum.RPCPerMinute,
			RPCTimeout:   cfg.Ethereum.RPCTimeout,
			MetadataTTL:  cfg.Ethereum.MetadataTTL,
		}, monolith.GetAssetRegistry(sr), monolith.GetLogger(sr))
		if err != nil {
			panic("failed to create pool reader: " + err.Error())
		}
		return reader
	})

	di.RegisterToken(c, poolDI.PoolService, func(sr di.ServiceRegistry) *app.PoolService {
		return app.NewPoolService(poolDI.GetPoolReader(sr), monolith.GetLogger(sr))
	})

	return nil
}

// Startup warms the pair metadata so the first quote does not pay for it.
// A failure is logged, not fatal: Pair is retried on demand.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	svc := poolDI.GetPoolService(mono.Services())

	warmCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if _, err := svc.Pair(warmCtx); err != nil {
		log.Warn(ctx, "pool metadata not loaded, will retry on first request", "error", err)
	}

	log.Info(ctx, "pool module started", "pool", mono.Config().Pool.Address)
	return nil
}
