package calldata

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/amm-quoter/business/quoting/domain"
	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/contracts"
)

var (
	pool   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	router = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	tokenA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	tokenB = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	lp     = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

func swapSubmission() domain.SwapSubmission {
	return domain.SwapSubmission{
		Pool:            pool,
		TokenIn:         tokenA,
		AmountIn:        big.NewInt(10_000),
		MinimumReceived: big.NewInt(9_772),
		Deadline:        1_700_000_060,
	}
}

func TestEncoder_Swap(t *testing.T) {
	calls, err := NewEncoder(common.Address{}).Swap(swapSubmission())
	require.NoError(t, err)
	require.Len(t, calls, 2)

	assert.Equal(t, "approve", calls[0].Method)
	assert.Equal(t, tokenA, calls[0].To)

	approveArgs, err := contracts.ERC20.Methods["approve"].Inputs.Unpack(calls[0].Data[4:])
	require.NoError(t, err)
	assert.Equal(t, pool, approveArgs[0])
	assert.Equal(t, int64(10_000), approveArgs[1].(*big.Int).Int64())

	assert.Equal(t, "swap", calls[1].Method)
	assert.Equal(t, pool, calls[1].To)
	assert.Equal(t, contracts.Pool.Methods["swap"].ID, []byte(calls[1].Data[:4]))

	args, err := contracts.Pool.Methods["swap"].Inputs.Unpack(calls[1].Data[4:])
	require.NoError(t, err)
	assert.Equal(t, tokenA, args[0])
	assert.Equal(t, int64(10_000), args[1].(*big.Int).Int64())
	assert.Equal(t, int64(9_772), args[2].(*big.Int).Int64())
	assert.Equal(t, int64(1_700_000_060), args[3].(*big.Int).Int64())
}

func TestEncoder_RouterSwap(t *testing.T) {
	_, err := NewEncoder(common.Address{}).RouterSwap(swapSubmission())
	assert.True(t, apperror.HasCode(err, apperror.CodeConfigurationError), "got %v", err)

	calls, err := NewEncoder(router).RouterSwap(swapSubmission())
	require.NoError(t, err)
	require.Len(t, calls, 2)

	args, err := contracts.ERC20.Methods["approve"].Inputs.Unpack(calls[0].Data[4:])
	require.NoError(t, err)
	assert.Equal(t, router, args[0], "router must be the spender")

	assert.Equal(t, router, calls[1].To)
	swapArgs, err := contracts.Router.Methods["swapExactTokensForTokens"].Inputs.Unpack(calls[1].Data[4:])
	require.NoError(t, err)
	assert.Equal(t, pool, swapArgs[0])
	assert.Equal(t, tokenA, swapArgs[1])
}

func TestEncoder_AddLiquidity(t *testing.T) {
	calls, err := NewEncoder(router).AddLiquidity(domain.AddSubmission{
		Pool:    pool,
		TokenA:  tokenA,
		TokenB:  tokenB,
		AmountA: big.NewInt(1),
		AmountB: big.NewInt(4),
	})
	require.NoError(t, err)
	require.Len(t, calls, 3)

	assert.Equal(t, tokenA, calls[0].To)
	assert.Equal(t, tokenB, calls[1].To)
	assert.Equal(t, "addLiquidity", calls[2].Method)

	args, err := contracts.Pool.Methods["addLiquidity"].Inputs.Unpack(calls[2].Data[4:])
	require.NoError(t, err)
	assert.Equal(t, int64(1), args[0].(*big.Int).Int64())
	assert.Equal(t, int64(4), args[1].(*big.Int).Int64())
}

func TestEncoder_RemoveLiquidity(t *testing.T) {
	calls, err := NewEncoder(router).RemoveLiquidity(domain.RemoveSubmission{
		Pool:           pool,
		LPToken:        lp,
		LPAmountToBurn: big.NewInt(50),
	})
	require.NoError(t, err)
	require.Len(t, calls, 2)

	assert.Equal(t, lp, calls[0].To)
	assert.Equal(t, "removeLiquidity", calls[1].Method)

	args, err := contracts.Pool.Methods["removeLiquidity"].Inputs.Unpack(calls[1].Data[4:])
	require.NoError(t, err)
	assert.Equal(t, int64(50), args[0].(*big.Int).Int64())
}

func TestPack_ArgumentMismatch(t *testing.T) {
	_, err := pack(contracts.Pool, pool, "removeLiquidity")
	assert.True(t, apperror.HasCode(err, apperror.CodeABIEncodingFailed), "got %v", err)
}
