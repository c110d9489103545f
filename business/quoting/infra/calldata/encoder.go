// Package calldata ABI-encodes submission tuples into the transactions an
// external wallet would send. Nothing is signed or broadcast here.
package calldata

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/amm-quoter/business/quoting/domain"
	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/contracts"
)

// Encoder builds call sequences, approvals first. The router address is
// optional; without it only direct pool swaps can be encoded.
type Encoder struct {
	router common.Address
}

func NewEncoder(router common.Address) *Encoder {
	return &Encoder{router: router}
}

// HasRouter reports whether router swaps can be encoded.
func (e *Encoder) HasRouter() bool {
	return e.router != (common.Address{})
}

// Swap encodes approve(pool, amountIn) then Pool.swap.
func (e *Encoder) Swap(s domain.SwapSubmission) ([]domain.Call, error) {
	approve, err := e.Approve(s.TokenIn, s.Pool, s.AmountIn)
	if err != nil {
		return nil, err
	}
	swap, err := pack(contracts.Pool, s.Pool, "swap", s.TokenIn, s.AmountIn, s.MinimumReceived, s.DeadlineBig())
	if err != nil {
		return nil, err
	}
	return []domain.Call{approve, swap}, nil
}

// RouterSwap encodes approve(router, amountIn) then Router.swapExactTokensForTokens.
func (e *Encoder) RouterSwap(s domain.SwapSubmission) ([]domain.Call, error) {
	if !e.HasRouter() {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("router address is not configured"))
	}

	approve, err := e.Approve(s.TokenIn, e.router, s.AmountIn)
	if err != nil {
		return nil, err
	}
	swap, err := pack(contracts.Router, e.router, "swapExactTokensForTokens",
		s.Pool, s.TokenIn, s.AmountIn, s.MinimumReceived, s.DeadlineBig())
	if err != nil {
		return nil, err
	}
	return []domain.Call{approve, swap}, nil
}

// AddLiquidity encodes both approvals then Pool.addLiquidity.
func (e *Encoder) AddLiquidity(s domain.AddSubmission) ([]domain.Call, error) {
	approveA, err := e.Approve(s.TokenA, s.Pool, s.AmountA)
	if err != nil {
		return nil, err
	}
	approveB, err := e.Approve(s.TokenB, s.Pool, s.AmountB)
	if err != nil {
		return nil, err
	}
	add, err := pack(contracts.Pool, s.Pool, "addLiquidity", s.AmountA, s.AmountB)
	if err != nil {
		return nil, err
	}
	return []domain.Call{approveA, approveB, add}, nil
}

// RemoveLiquidity encodes the LP approval then Pool.removeLiquidity.
func (e *Encoder) RemoveLiquidity(s domain.RemoveSubmission) ([]domain.Call, error) {
	approve, err := e.Approve(s.LPToken, s.Pool, s.LPAmountToBurn)
	if err != nil {
		return nil, err
	}
	remove, err := pack(contracts.Pool, s.Pool, "removeLiquidity", s.LPAmountToBurn)
	if err != nil {
		return nil, err
	}
	return []domain.Call{approve, remove}, nil
}

// Approve encodes ERC20.approve(spender, amount) on token.
func (e *Encoder) Approve(token, spender common.Address, amount *big.Int) (domain.Call, error) {
	return pack(contracts.ERC20, token, "approve", spender, amount)
}

func pack(contract abi.ABI, to common.Address, method string, args ...any) (domain.Call, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return domain.Call{}, apperror.New(apperror.CodeABIEncodingFailed,
			apperror.WithCause(err), apperror.WithContext(method))
	}
	return domain.Call{Method: method, To: to, Data: data}, nil
}
