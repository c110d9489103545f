package ui

import (
	"fmt"

	chaindomain "github.com/fd1az/amm-quoter/business/blockchain/domain"
	pooldomain "github.com/fd1az/amm-quoter/business/pool/domain"
	quotingapp "github.com/fd1az/amm-quoter/business/quoting/app"
	"github.com/fd1az/amm-quoter/pkg/ui/components"
)

const displayPlaces = 6

// probeRows flattens the probes of u into table rows.
func probeRows(u *quotingapp.BlockUpdate) []components.ProbeRow {
	pool := u.Overview.Pool
	rows := make([]components.ProbeRow, 0, len(u.Probes))

	for _, p := range u.Probes {
		row := components.ProbeRow{
			Direction: p.Direction.String(),
			Size:      fmt.Sprintf("%s %s", p.Size, pool.TokenIn(p.Direction).Symbol()),
		}
		if p.Err != nil {
			row.Err = p.Err.Error()
			rows = append(rows, row)
			continue
		}
		row.AmountOut = p.Quote.AmountOut.StringFixed(displayPlaces)
		row.MinOut = p.Quote.MinimumReceived.StringFixed(displayPlaces)
		row.ImpactPct = p.Quote.PriceImpactPct.InexactFloat64()
		row.Tier = p.Quote.Tier().String()
		row.Decision = p.Impact.String()
		rows = append(rows, row)
	}
	return rows
}

// blockedProbes counts the probes the safety policy would refuse.
func blockedProbes(rows []components.ProbeRow) int {
	n := 0
	for _, r := range rows {
		if r.Decision == "blocked" {
			n++
		}
	}
	return n
}

// probeFilter selects which swap direction the quote table shows.
type probeFilter int

const (
	showBoth probeFilter = iota
	showAToB
	showBToA
)

func (f probeFilter) next() probeFilter {
	return (f + 1) % 3
}

func (f probeFilter) String() string {
	switch f {
	case showAToB:
		return "a-to-b"
	case showBToA:
		return "b-to-a"
	default:
		return "both"
	}
}

func (f probeFilter) apply(rows []components.ProbeRow) []components.ProbeRow {
	if f == showBoth {
		return rows
	}
	out := make([]components.ProbeRow, 0, len(rows))
	for _, r := range rows {
		if r.Direction == f.String() {
			out = append(out, r)
		}
	}
	return out
}

func positionView(u *quotingapp.BlockUpdate) *components.Position {
	if u.Position == nil {
		return nil
	}
	pos := u.Position.Position
	return &components.Position{
		Owner:       u.Position.Holdings.Owner.Hex(),
		LPBalance:   pos.LPBalance.StringFixed(displayPlaces),
		SharePct:    pos.SharePct.StringFixed(4),
		UnderlyingA: pos.UnderlyingA.StringFixed(displayPlaces),
		UnderlyingB: pos.UnderlyingB.StringFixed(displayPlaces),
		Empty:       pos.Empty,
	}
}

func statusView(s chaindomain.ConnectionStatus) components.ConnectionStatus {
	transport := "ws"
	if s.UsingHTTP {
		transport = "http"
	}
	return components.ConnectionStatus{
		State:      string(s.State),
		Transport:  transport,
		LastBlock:  s.LastBlock,
		Reconnects: s.Reconnects,
	}
}

// poolSummary is the one-line reserve and price summary.
func poolSummary(o quotingapp.Overview) string {
	pool := o.Pool
	line := fmt.Sprintf("%s  reserves %s / %s  LP supply %s",
		pool.Pair.String(),
		pool.ReserveA.StringFixed(4),
		pool.ReserveB.StringFixed(4),
		pool.LPTotalSupply.StringFixed(4),
	)
	if !o.HasPrices {
		return line + "  (empty pool)"
	}
	return line + fmt.Sprintf("  1 %s = %s %s",
		pool.Pair.TokenA.Symbol(), o.Prices.AInB.StringFixed(displayPlaces), pool.Pair.TokenB.Symbol())
}

func probeTitle(pool pooldomain.PoolState) string {
	return fmt.Sprintf("QUOTES (%s, block #%d)", pool.Pair.String(), pool.BlockNumber)
}
