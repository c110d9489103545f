// Package di contains dependency injection tokens for the pool context.
package di

import (
	"github.com/fd1az/amm-quoter/business/pool/app"
	"github.com/fd1az/amm-quoter/internal/di"
)

// Public service tokens.
var (
	PoolService = di.NewToken[*app.PoolService]("pool.PoolService")
)

// Private dependency tokens.
var (
	PoolReader = di.NewToken[app.PoolReader]("pool:poolReader")
)

func GetPoolService(c di.ServiceRegistry) *app.PoolService {
	return di.GetToken(c, PoolService)
}

func GetPoolReader(c di.ServiceRegistry) app.PoolReader {
	return di.GetToken(c, PoolReader)
}
