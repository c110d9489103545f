// Package app contains application services and port definitions for the blockchain context.
package app

import (
	"context"

	"github.com/fd1az/amm-quoter/business/blockchain/domain"
)

// HeadSource streams new chain heads to the block watcher.
type HeadSource interface {
	// Subscribe starts listening. The channel only ever holds the newest
	// heads; stale ones are dropped when the consumer lags.
	Subscribe(ctx context.Context) (<-chan *domain.Block, error)
	Status() domain.ConnectionStatus
	Close() error
}

// GasPricer reports the node's suggested gas price. Quotes use it for an
// informational cost only.
type GasPricer interface {
	GasPrice(ctx context.Context) (*domain.GasPrice, error)
}
