package app

import (
	"context"

	"github.com/fd1az/amm-quoter/business/blockchain/domain"
)

// BlockchainService is the blockchain context's facade: heads for the
// watcher, gas prices for cost estimates.
type BlockchainService struct {
	heads HeadSource
	gas   GasPricer
}

// NewBlockchainService creates a new BlockchainService.
func NewBlockchainService(heads HeadSource, gas GasPricer) *BlockchainService {
	return &BlockchainService{heads: heads, gas: gas}
}

// SubscribeBlocks starts the head subscription.
func (s *BlockchainService) SubscribeBlocks(ctx context.Context) (<-chan *domain.Block, error) {
	return s.heads.Subscribe(ctx)
}

// GasPrice returns the current gas price.
func (s *BlockchainService) GasPrice(ctx context.Context) (*domain.GasPrice, error) {
	return s.gas.GasPrice(ctx)
}

// EstimateCost prices gasLimit units at the current gas price.
func (s *BlockchainService) EstimateCost(ctx context.Context, gasLimit uint64) (*domain.GasEstimate, error) {
	price, err := s.gas.GasPrice(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewGasEstimate(gasLimit, price), nil
}

// ConnectionStatus reports the head subscription's state and counters.
func (s *BlockchainService) ConnectionStatus() domain.ConnectionStatus {
	return s.heads.Status()
}

// Close stops the head subscription.
func (s *BlockchainService) Close() error {
	return s.heads.Close()
}
