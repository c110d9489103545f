package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// The submission tuples are handed to whatever signs and sends the
// transaction. Every integer is already in on-chain units.

// SwapSubmission carries the arguments of Pool.swap.
type SwapSubmission struct {
	Pool            common.Address
	TokenIn         common.Address
	AmountIn        *big.Int
	MinimumReceived *big.Int
	Deadline        int64 // unix seconds
}

// NewSwapSubmission builds the tuple for a quote that passed the safety checks.
func NewSwapSubmission(pool common.Address, q SwapQuote, deadline time.Time) SwapSubmission {
	return SwapSubmission{
		Pool:            pool,
		TokenIn:         q.AmountIn.Asset().Address(),
		AmountIn:        q.AmountIn.Raw(),
		MinimumReceived: q.MinimumReceived.Raw(),
		Deadline:        deadline.Unix(),
	}
}

// DeadlineBig is the deadline as the uint256 the contract expects.
func (s SwapSubmission) DeadlineBig() *big.Int {
	return big.NewInt(s.Deadline)
}

// AddSubmission carries the arguments of Pool.addLiquidity.
type AddSubmission struct {
	Pool    common.Address
	TokenA  common.Address
	TokenB  common.Address
	AmountA *big.Int
	AmountB *big.Int
}

// NewAddSubmission returns false for a cleared or one-sided contribution.
func NewAddSubmission(pool common.Address, c Contribution) (AddSubmission, bool) {
	if c.Cleared || !c.AmountA.IsPositive() || !c.AmountB.IsPositive() {
		return AddSubmission{}, false
	}
	return AddSubmission{
		Pool:    pool,
		TokenA:  c.AmountA.Asset().Address(),
		TokenB:  c.AmountB.Asset().Address(),
		AmountA: c.AmountA.Raw(),
		AmountB: c.AmountB.Raw(),
	}, true
}

// RemoveSubmission carries the argument of Pool.removeLiquidity.
type RemoveSubmission struct {
	Pool           common.Address
	LPToken        common.Address
	LPAmountToBurn *big.Int
}

// NewRemoveSubmission builds the tuple for a withdrawal.
func NewRemoveSubmission(pool common.Address, w Withdrawal) RemoveSubmission {
	return RemoveSubmission{
		Pool:           pool,
		LPToken:        w.LPAmount.Asset().Address(),
		LPAmountToBurn: w.LPAmount.Raw(),
	}
}

// Typical gas used by each pool entry point, approvals excluded.
const (
	SwapGasLimit    uint64 = 120_000
	AddGasLimit     uint64 = 180_000
	RemoveGasLimit  uint64 = 150_000
	ApproveGasLimit uint64 = 46_000
)

// Call is one unsigned transaction an external wallet would send.
type Call struct {
	Method string         `json:"method"`
	To     common.Address `json:"to"`
	Data   hexutil.Bytes  `json:"data"`
}
