package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// GasPrice is a suggested legacy gas price observed at a point in time.
type GasPrice struct {
	Wei        *big.Int
	ObservedAt time.Time
}

// NewGasPrice creates a GasPrice from wei.
func NewGasPrice(wei *big.Int, observedAt time.Time) *GasPrice {
	return &GasPrice{Wei: new(big.Int).Set(wei), ObservedAt: observedAt}
}

// Gwei returns the price in gwei.
func (g *GasPrice) Gwei() decimal.Decimal {
	return decimal.NewFromBigInt(g.Wei, -9)
}

// GasEstimate is the cost of one transaction at a gas price.
type GasEstimate struct {
	GasLimit uint64
	GasPrice *GasPrice
	TotalWei *big.Int
}

// NewGasEstimate computes gasLimit * gasPrice.
func NewGasEstimate(gasLimit uint64, price *GasPrice) *GasEstimate {
	return &GasEstimate{
		GasLimit: gasLimit,
		GasPrice: price,
		TotalWei: new(big.Int).Mul(price.Wei, new(big.Int).SetUint64(gasLimit)),
	}
}

// TotalGwei is the total cost in gwei.
func (e *GasEstimate) TotalGwei() decimal.Decimal {
	return decimal.NewFromBigInt(e.TotalWei, -9)
}

// TotalETH is the total cost in ether.
func (e *GasEstimate) TotalETH() decimal.Decimal {
	return decimal.NewFromBigInt(e.TotalWei, -18)
}
