package main

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pooldomain "github.com/fd1az/amm-quoter/business/pool/domain"
	"github.com/fd1az/amm-quoter/business/quoting/app"
	"github.com/fd1az/amm-quoter/business/quoting/domain"
	"github.com/fd1az/amm-quoter/internal/asset"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(errTradeBlocked))
	assert.Equal(t, 2, exitCode(fmt.Errorf("quote: %w", errTradeBlocked)))
	assert.Equal(t, 1, exitCode(errors.New("rpc down")))
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ammquoter dev"), out)
}

func TestFlagValidationRunsBeforeBoot(t *testing.T) {
	_, err := execute(t, "quote")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"amount"`)

	_, err = execute(t, "remove", "--lp", "1", "--percent", "50")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")

	_, err = execute(t, "il")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"entry"`)
}

func TestQuoteRejectsBadDirection(t *testing.T) {
	_, err := execute(t, "quote", "--amount", "1", "--direction", "sideways")
	require.Error(t, err)
}

func testSwap(t *testing.T, amountIn int64) app.SwapResult {
	t.Helper()
	e18 := func(n int64) *big.Int {
		return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	}
	pair := pooldomain.Pair{
		Address: common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		TokenA:  asset.MustNewToken(asset.ChainIDSepolia, common.HexToAddress("0x1000000000000000000000000000000000000001"), "TKA", "Token A", 18),
		TokenB:  asset.MustNewToken(asset.ChainIDSepolia, common.HexToAddress("0x1000000000000000000000000000000000000002"), "TKB", "Token B", 18),
		LPToken: asset.MustNewToken(asset.ChainIDSepolia, common.HexToAddress("0x1000000000000000000000000000000000000003"), "AMM-LP", "Pool LP", 18),
	}
	pool, err := pooldomain.NewPoolState(pair, e18(100), e18(100), e18(100), 12, time.Now())
	require.NoError(t, err)

	q, err := domain.QuoteSwap(pool, domain.SwapRequest{
		Direction:   pooldomain.AToB,
		AmountIn:    asset.NewAmount(pair.TokenA, e18(amountIn)),
		Fee:         domain.DefaultFee,
		SlippagePct: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	return app.SwapResult{Pool: pool, Quote: q}
}

func TestPrinter_SwapJSON(t *testing.T) {
	var out bytes.Buffer
	p := &printer{out: &out, json: true}
	require.NoError(t, p.swap(testSwap(t, 10)))

	assert.Contains(t, out.String(), `"raw": "9066108938801491315"`)
	assert.Contains(t, out.String(), `"minimumReceived"`)
	assert.Contains(t, out.String(), `"blockNumber": 12`)
}

func TestPrinter_SwapText(t *testing.T) {
	var out bytes.Buffer
	p := &printer{out: &out}
	require.NoError(t, p.swap(testSwap(t, 10)))

	text := out.String()
	assert.Contains(t, text, "block #12")
	assert.Contains(t, text, "9.066108938801491315 TKB")
	assert.Contains(t, text, "a-to-b")
}

func TestNewPrinter_ReadsJSONFlag(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().Bool("json", false, "")
	require.NoError(t, cmd.Flags().Set("json", "true"))
	assert.True(t, newPrinter(cmd).json)
}
