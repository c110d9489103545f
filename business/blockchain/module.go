// Package blockchain implements the chain-head and gas pricing context.
package blockchain

import (
	"context"

	"github.com/fd1az/amm-quoter/business/blockchain/app"
	blockchainDI "github.com/fd1az/amm-quoter/business/blockchain/di"
	"github.com/fd1az/amm-quoter/business/blockchain/infra/ethereum"
	"github.com/fd1az/amm-quoter/internal/di"
	"github.com/fd1az/amm-quoter/internal/monolith"
)

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers all blockchain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, blockchainDI.Heads, func(sr di.ServiceRegistry) app.HeadSource {
		cfg := monolith.GetConfig(sr)

		subCfg := ethereum.DefaultSubscriberConfig(cfg.Ethereum.WebSocketURL, cfg.Ethereum.HTTPURL)
		subCfg.PollInterval = cfg.Ethereum.PollInterval
		subCfg.InitialBackoff = cfg.Ethereum.InitialBackoff
		subCfg.MaxBackoff = cfg.Ethereum.MaxBackoff
		subCfg.MaxReconnects = cfg.Ethereum.MaxReconnects

		sub, err := ethereum.NewSubscriber(subCfg, nil, monolith.GetLogger(sr))
		if err != nil {
			panic("failed to create subscriber: " + err.Error())
		}
		return sub
	})

	di.RegisterToken(c, blockchainDI.GasPricer, func(sr di.ServiceRegistry) app.GasPricer {
		cfg := monolith.GetConfig(sr)

		oracleCfg := ethereum.DefaultGasOracleConfig()
		oracleCfg.CacheTTL = cfg.Ethereum.GasPriceTTL

		oracle, err := ethereum.NewGasOracle(monolith.GetEthClient(sr), oracleCfg, monolith.GetLogger(sr))
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	di.RegisterToken(c, blockchainDI.BlockchainService, func(sr di.ServiceRegistry) *app.BlockchainService {
		return app.NewBlockchainService(di.GetToken(sr, blockchainDI.Heads), di.GetToken(sr, blockchainDI.GasPricer))
	})

	return nil
}

// Startup resolves the services eagerly so misconfiguration fails at boot.
// The subscription itself starts when a watcher asks for it.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	svc := blockchainDI.GetBlockchainService(mono.Services())

	mono.Logger().Info(ctx, "blockchain module started", "state", svc.ConnectionStatus().State)
	return nil
}
