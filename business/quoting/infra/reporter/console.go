// Package reporter renders watcher updates to a terminal.
package reporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	chaindomain "github.com/fd1az/amm-quoter/business/blockchain/domain"
	"github.com/fd1az/amm-quoter/business/quoting/app"
)

const rule = "--------------------------------------------------------------------------------"

// ConsoleReporter implements app.Reporter with plain line output.
type ConsoleReporter struct {
	mu        sync.Mutex
	out       io.Writer
	lastState chaindomain.ConnectionState
}

// NewConsoleReporter creates a ConsoleReporter writing to out, or stdout when nil.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out}
}

// Start prints the banner.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "AMM Quoter watching")
	fmt.Fprintln(r.out, "===================")
	return nil
}

// Report prints one block's recomputation.
func (r *ConsoleReporter) Report(u *app.BlockUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pool := u.Overview.Pool

	fmt.Fprintln(r.out, "")
	fmt.Fprintf(r.out, "Block #%d  %s", u.Block.Number, pool.Pair.String())
	if u.Skipped > 0 {
		fmt.Fprintf(r.out, "  (%d superseded)", u.Skipped)
	}
	fmt.Fprintf(r.out, "  %dms\n", u.Elapsed.Milliseconds())
	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, "Reserves:  %s / %s\n", pool.ReserveA.StringFixed(6), pool.ReserveB.StringFixed(6))
	fmt.Fprintf(r.out, "LP supply: %s\n", pool.LPTotalSupply.StringFixed(6))
	if u.Overview.HasPrices {
		fmt.Fprintf(r.out, "Price:     1 %s = %s %s\n",
			pool.Pair.TokenA.Symbol(), u.Overview.Prices.AInB.StringFixed(6), pool.Pair.TokenB.Symbol())
	} else {
		fmt.Fprintln(r.out, "Price:     n/a (empty pool)")
	}
	if u.Overview.Gas != nil {
		fmt.Fprintf(r.out, "Swap gas:  %s gwei x %d = %s ETH\n",
			u.Overview.Gas.GasPrice.Gwei().StringFixed(2),
			u.Overview.Gas.GasLimit,
			u.Overview.Gas.TotalETH().StringFixed(8))
	}

	fmt.Fprintln(r.out, rule)
	for _, p := range u.Probes {
		in := pool.TokenIn(p.Direction).Symbol()
		if p.Err != nil {
			fmt.Fprintf(r.out, "  %8s %-6s -> error: %v\n", p.Size, in, p.Err)
			continue
		}
		fmt.Fprintf(r.out, "  %8s %-6s -> %s (min %s)  impact %s%% [%s, %s]\n",
			p.Size, in,
			p.Quote.AmountOut.StringFixed(6),
			p.Quote.MinimumReceived.StringFixed(6),
			p.Quote.PriceImpactPct.StringFixed(3),
			p.Quote.Tier(), p.Impact)
	}

	if u.Position != nil {
		pos := u.Position.Position
		fmt.Fprintln(r.out, rule)
		fmt.Fprintf(r.out, "Position %s\n", u.Position.Holdings.Owner.Hex())
		if pos.Empty {
			fmt.Fprintln(r.out, "  no liquidity")
		} else {
			fmt.Fprintf(r.out, "  LP %s  share %s%%\n", pos.LPBalance.StringFixed(6), pos.SharePct.StringFixed(4))
			fmt.Fprintf(r.out, "  underlying %s + %s\n", pos.UnderlyingA.StringFixed(6), pos.UnderlyingB.StringFixed(6))
		}
	}
}

// UpdateConnectionStatus prints state transitions only.
func (r *ConsoleReporter) UpdateConnectionStatus(s chaindomain.ConnectionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.State == r.lastState {
		return
	}
	r.lastState = s.State

	transport := "ws"
	if s.UsingHTTP {
		transport = "http"
	}
	fmt.Fprintf(r.out, "[%s] chain: %s via %s (reconnects %d)\n",
		time.Now().Format("15:04:05"), s.State, transport, s.Reconnects)
}

// ReportError prints a failed block.
func (r *ConsoleReporter) ReportError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%s] error: %v\n", time.Now().Format("15:04:05"), err)
}

// Stop prints the footer.
func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "AMM Quoter stopped")
	return nil
}
