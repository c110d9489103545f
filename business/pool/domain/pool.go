// Package domain holds the pool snapshot model: the pair, the reserves and the
// LP supply observed at one block.
package domain

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/asset"
)

// Pair is the pool's immutable identity: its address, the two tokens and the LP token.
type Pair struct {
	Address common.Address
	TokenA  *asset.Asset
	TokenB  *asset.Asset
	LPToken *asset.Asset
}

// Token returns the asset on the given side.
func (p Pair) Token(side Side) *asset.Asset {
	if side == SideB {
		return p.TokenB
	}
	return p.TokenA
}

func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.TokenA.Symbol(), p.TokenB.Symbol())
}

// Direction says which token goes in on a swap.
type Direction int

const (
	AToB Direction = iota
	BToA
)

func (d Direction) String() string {
	if d == BToA {
		return "b-to-a"
	}
	return "a-to-b"
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == AToB {
		return BToA
	}
	return AToB
}

// InSide is the side the input token comes from.
func (d Direction) InSide() Side {
	if d == BToA {
		return SideB
	}
	return SideA
}

// ParseDirection accepts "a-to-b", "b-to-a" and the short forms "ab", "ba".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a-to-b", "atob", "ab":
		return AToB, nil
	case "b-to-a", "btoa", "ba":
		return BToA, nil
	}
	return AToB, apperror.Validation(apperror.CodeInvalidInput, fmt.Sprintf("unknown direction %q", s))
}

// Side names one of the two pool tokens.
type Side int

const (
	SideA Side = iota
	SideB
)

func (s Side) String() string {
	if s == SideB {
		return "b"
	}
	return "a"
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// ParseSide accepts "a" or "b", case-insensitive.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a":
		return SideA, nil
	case "b":
		return SideB, nil
	}
	return SideA, apperror.Validation(apperror.CodeInvalidInput, fmt.Sprintf("unknown side %q", s))
}

// PoolState is an immutable snapshot of the pool at one block.
// Quotes derived from it are valid for that snapshot only.
type PoolState struct {
	Pair          Pair
	ReserveA      asset.Amount
	ReserveB      asset.Amount
	LPTotalSupply asset.Amount
	BlockNumber   uint64
	ObservedAt    time.Time
}

// NewPoolState validates raw reads and builds a snapshot.
// Reserves must be both zero or both positive.
func NewPoolState(pair Pair, reserveA, reserveB, lpSupply *big.Int, block uint64, observedAt time.Time) (PoolState, error) {
	ra, err := asset.FromInteger(pair.TokenA, reserveA)
	if err != nil {
		return PoolState{}, err
	}
	rb, err := asset.FromInteger(pair.TokenB, reserveB)
	if err != nil {
		return PoolState{}, err
	}
	supply, err := asset.FromInteger(pair.LPToken, lpSupply)
	if err != nil {
		return PoolState{}, err
	}

	if ra.IsZero() != rb.IsZero() {
		return PoolState{}, apperror.New(apperror.CodeInconsistentPool,
			apperror.WithContextf("block %d: reserveA=%s reserveB=%s", block, ra.Raw(), rb.Raw()))
	}

	return PoolState{
		Pair:          pair,
		ReserveA:      ra,
		ReserveB:      rb,
		LPTotalSupply: supply,
		BlockNumber:   block,
		ObservedAt:    observedAt,
	}, nil
}

// IsEmpty reports whether the pool has not been bootstrapped yet.
func (s PoolState) IsEmpty() bool {
	return s.ReserveA.IsZero() && s.ReserveB.IsZero()
}

// Reserve returns the reserve on the given side.
func (s PoolState) Reserve(side Side) asset.Amount {
	if side == SideB {
		return s.ReserveB
	}
	return s.ReserveA
}

// ReserveIn returns the reserve of the token being sold.
func (s PoolState) ReserveIn(d Direction) asset.Amount {
	return s.Reserve(d.InSide())
}

// ReserveOut returns the reserve of the token being bought.
func (s PoolState) ReserveOut(d Direction) asset.Amount {
	return s.Reserve(d.InSide().Other())
}

// TokenIn returns the asset being sold.
func (s PoolState) TokenIn(d Direction) *asset.Asset {
	return s.Pair.Token(d.InSide())
}

// TokenOut returns the asset being bought.
func (s PoolState) TokenOut(d Direction) *asset.Asset {
	return s.Pair.Token(d.InSide().Other())
}

// Holdings is one address's balances read at the same block as State.
type Holdings struct {
	State     PoolState
	Owner     common.Address
	LPBalance asset.Amount
	BalanceA  asset.Amount
	BalanceB  asset.Amount
}
