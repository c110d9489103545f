package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/fd1az/amm-quoter/business/quoting/app"
	"github.com/fd1az/amm-quoter/business/quoting/domain"
	"github.com/fd1az/amm-quoter/pkg/api"
	"github.com/fd1az/amm-quoter/pkg/ui"
)

// printer renders command results either as the HTTP API's JSON bodies or
// as styled text.
type printer struct {
	out  io.Writer
	json bool
}

func newPrinter(cmd *cobra.Command) *printer {
	asJSON, _ := cmd.Flags().GetBool("json")
	return &printer{out: cmd.OutOrStdout(), json: asJSON}
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var labelStyle = lipgloss.NewStyle().Foreground(ui.ColorMuted).Width(18)

func (p *printer) header(title string, block uint64) {
	fmt.Fprintln(p.out, ui.HeaderStyle.Render(title)+ui.MutedValue.Render(fmt.Sprintf("block #%d", block)))
}

func (p *printer) row(label, value string) {
	fmt.Fprintln(p.out, "  "+labelStyle.Render(label)+value)
}

func amountText(a api.Amount) string {
	return a.Value + " " + a.Symbol
}

func (p *printer) gas(g *api.Gas) {
	if g == nil {
		return
	}
	p.row("gas", fmt.Sprintf("%d units, %s ETH", g.GasLimit, g.TotalETH))
}

func (p *printer) calls(calls []domain.Call) {
	if len(calls) == 0 {
		return
	}
	b, err := json.MarshalIndent(calls, "  ", "  ")
	if err != nil {
		return
	}
	fmt.Fprintln(p.out, "  "+ui.MutedValue.Render("calls"))
	fmt.Fprintln(p.out, "  "+string(b))
}

func (p *printer) swap(res app.SwapResult) error {
	r := api.NewSwapResponse(res)
	if p.json {
		return p.encode(r)
	}

	p.header("Swap quote", r.BlockNumber)
	p.row("direction", r.Direction)
	p.row("amount in", amountText(r.AmountIn))
	p.row("after fee", amountText(r.AmountInWithFee))
	p.row("amount out", ui.PositiveValue.Render(amountText(r.AmountOut)))
	p.row("minimum received", fmt.Sprintf("%s (slippage %s%%)", amountText(r.MinimumReceived), r.SlippagePct))
	p.row("spot price", r.SpotPrice)
	p.row("execution price", r.ExecutionPrice)
	p.row("price impact", fmt.Sprintf("%s%% (%s without fee), %s", r.PriceImpactPct, r.FeeFreeImpactPct, r.Tier))
	p.row("decision", ui.DecisionStyle(r.Decision).Render(strings.ToUpper(r.Decision)))
	if r.Reason != "" {
		p.row("reason", ui.NegativeValue.Render(r.Reason))
	}
	if r.Warning != "" {
		p.row("warning", ui.WarningValue.Render(r.Warning))
	}
	if r.Allowed {
		p.row("deadline", r.Deadline.Format("2006-01-02 15:04:05 MST"))
	}
	if s := r.Submission; s != nil {
		p.row("submission", fmt.Sprintf("%s in=%s min=%s deadline=%d", s.TokenIn, s.AmountIn, s.MinimumReceived, s.Deadline))
	}
	p.gas(r.Gas)
	p.calls(r.Calls)
	return nil
}

func (p *printer) add(res app.AddResult) error {
	r := api.NewAddResponse(res)
	if p.json {
		return p.encode(r)
	}

	p.header("Add liquidity", r.BlockNumber)
	p.row("token A", amountText(r.AmountA))
	p.row("token B", amountText(r.AmountB))
	switch {
	case r.Cleared:
		p.row("note", ui.MutedValue.Render("amount is zero, nothing to deposit"))
	case r.IsBootstrap:
		p.row("note", ui.WarningValue.Render("empty pool: these amounts set the initial price"))
		if r.InitialPrice != nil {
			p.row("initial price", *r.InitialPrice)
		}
	}
	p.gas(r.Gas)
	p.calls(r.Calls)
	return nil
}

func (p *printer) remove(res app.RemoveResult) error {
	r := api.NewRemoveResponse(res)
	if p.json {
		return p.encode(r)
	}

	p.header("Remove liquidity", r.BlockNumber)
	p.row("burn", amountText(r.LPAmount))
	p.row("share of pool", r.ShareFraction)
	p.row("receive A", ui.PositiveValue.Render(amountText(r.AmountA)))
	p.row("receive B", ui.PositiveValue.Render(amountText(r.AmountB)))
	p.gas(r.Gas)
	p.calls(r.Calls)
	return nil
}

func (p *printer) position(res app.PositionResult) error {
	r := api.NewPositionResponse(res)
	if p.json {
		return p.encode(r)
	}

	p.header("Position", r.BlockNumber)
	p.row("owner", r.Owner)
	if r.Empty {
		p.row("LP balance", ui.MutedValue.Render("none"))
	} else {
		p.row("LP balance", amountText(r.LPBalance))
		p.row("pool share", r.SharePct+"%")
		p.row("underlying A", amountText(r.UnderlyingA))
		p.row("underlying B", amountText(r.UnderlyingB))
	}
	p.row("wallet A", amountText(r.BalanceA))
	p.row("wallet B", amountText(r.BalanceB))
	return nil
}

func (p *printer) il(res app.ILResult) error {
	r := api.NewILResponse(res)
	if p.json {
		return p.encode(r)
	}

	var block uint64
	if r.BlockNumber != nil {
		block = *r.BlockNumber
	}
	p.header("Impermanent loss", block)
	p.row("entry price", r.EntryPrice)
	p.row("current price", r.CurrentPrice)
	p.row("price ratio", r.PriceRatio)

	p.row("loss vs holding", ui.BandStyle(r.Band).Render(r.ILPercent+"%")+" "+ui.MutedValue.Render("("+r.Band+")"))
	return nil
}

func (p *printer) pool(o app.Overview) error {
	r := api.NewPoolResponse(o)
	if p.json {
		return p.encode(r)
	}

	p.header("Pool "+r.Pool.Address, r.Pool.BlockNumber)
	p.row("reserve A", amountText(r.Pool.ReserveA))
	p.row("reserve B", amountText(r.Pool.ReserveB))
	p.row("LP supply", amountText(r.Pool.LPTotalSupply))
	if r.PriceBA == nil {
		p.row("price", ui.MutedValue.Render("empty pool"))
	} else {
		p.row("1 A in B", *r.PriceBA)
		p.row("1 B in A", *r.PriceAB)
	}
	p.row("fee", r.FeePct+"%")
	if g := o.Gas; g != nil {
		p.row("swap gas", fmt.Sprintf("%s gwei, %s ETH", g.GasPrice.Gwei().StringFixed(2), g.TotalETH().String()))
	}
	return nil
}
