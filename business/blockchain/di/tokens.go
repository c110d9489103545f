// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	"github.com/fd1az/amm-quoter/business/blockchain/app"
	"github.com/fd1az/amm-quoter/internal/di"
)

// BlockchainService is resolved by the pool and quoting modules and by the CLI.
var BlockchainService = di.NewToken[*app.BlockchainService]("blockchain.BlockchainService")

// Adapters behind the service's ports; only this module resolves them.
var (
	Heads     = di.NewToken[app.HeadSource]("blockchain:heads")
	GasPricer = di.NewToken[app.GasPricer]("blockchain:gasPricer")
)

func GetBlockchainService(c di.ServiceRegistry) *app.BlockchainService {
	return di.GetToken(c, BlockchainService)
}
