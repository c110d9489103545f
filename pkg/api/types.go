package api

import (
	"time"

	chaindomain "github.com/fd1az/amm-quoter/business/blockchain/domain"
	pooldomain "github.com/fd1az/amm-quoter/business/pool/domain"
	"github.com/fd1az/amm-quoter/business/quoting/app"
	"github.com/fd1az/amm-quoter/business/quoting/domain"
	"github.com/fd1az/amm-quoter/internal/asset"
)

// Amount is a token amount in both on-chain and display units.
type Amount struct {
	Raw    string `json:"raw"`
	Value  string `json:"value"`
	Symbol string `json:"symbol"`
}

func amountOf(a asset.Amount) Amount {
	out := Amount{Raw: a.Raw().String(), Value: a.ToDecimalString()}
	if a.Asset() != nil {
		out.Symbol = a.Asset().Symbol()
	}
	return out
}

// Pool is a block-pinned snapshot.
type Pool struct {
	Address       string    `json:"address"`
	TokenA        string    `json:"tokenA"`
	TokenB        string    `json:"tokenB"`
	ReserveA      Amount    `json:"reserveA"`
	ReserveB      Amount    `json:"reserveB"`
	LPTotalSupply Amount    `json:"lpTotalSupply"`
	BlockNumber   uint64    `json:"blockNumber"`
	ObservedAt    time.Time `json:"observedAt"`
}

func poolOf(p pooldomain.PoolState) Pool {
	return Pool{
		Address:       p.Pair.Address.Hex(),
		TokenA:        p.Pair.TokenA.Address().Hex(),
		TokenB:        p.Pair.TokenB.Address().Hex(),
		ReserveA:      amountOf(p.ReserveA),
		ReserveB:      amountOf(p.ReserveB),
		LPTotalSupply: amountOf(p.LPTotalSupply),
		BlockNumber:   p.BlockNumber,
		ObservedAt:    p.ObservedAt,
	}
}

// Gas is an informational cost estimate.
type Gas struct {
	GasLimit    uint64 `json:"gasLimit"`
	GasPriceWei string `json:"gasPriceWei"`
	TotalWei    string `json:"totalWei"`
	TotalETH    string `json:"totalEth"`
}

func gasOf(g *chaindomain.GasEstimate) *Gas {
	if g == nil {
		return nil
	}
	return &Gas{
		GasLimit:    g.GasLimit,
		GasPriceWei: g.GasPrice.Wei.String(),
		TotalWei:    g.TotalWei.String(),
		TotalETH:    g.TotalETH().String(),
	}
}

// PoolResponse is returned by GET /v1/pool.
type PoolResponse struct {
	Pool    Pool    `json:"pool"`
	PriceBA *string `json:"priceBPerA"` // null for an empty pool
	PriceAB *string `json:"priceAPerB"`
	FeePct  string  `json:"feePct"`
	SwapGas *Gas    `json:"swapGas,omitempty"`
}

// NewPoolResponse converts an overview.
func NewPoolResponse(o app.Overview) PoolResponse {
	resp := PoolResponse{
		Pool:    poolOf(o.Pool),
		FeePct:  o.Fee.Pct().String(),
		SwapGas: gasOf(o.Gas),
	}
	if o.HasPrices {
		ba := o.Prices.AInB.Rate().String()
		ab := o.Prices.BInA.Rate().String()
		resp.PriceBA, resp.PriceAB = &ba, &ab
	}
	return resp
}

// SwapSubmission is the tuple handed to a signer.
type SwapSubmission struct {
	Pool            string `json:"pool"`
	TokenIn         string `json:"tokenIn"`
	AmountIn        string `json:"amountIn"`
	MinimumReceived string `json:"minimumReceived"`
	Deadline        int64  `json:"deadline"`
}

// SwapResponse is returned by GET /v1/quote. A blocked trade is a normal
// response with allowed=false.
type SwapResponse struct {
	BlockNumber      uint64          `json:"blockNumber"`
	Direction        string          `json:"direction"`
	AmountIn         Amount          `json:"amountIn"`
	AmountInWithFee  Amount          `json:"amountInWithFee"`
	AmountOut        Amount          `json:"amountOut"`
	MinimumReceived  Amount          `json:"minimumReceived"`
	SpotPrice        string          `json:"spotPrice"`
	ExecutionPrice   string          `json:"executionPrice"`
	PriceImpactPct   string          `json:"priceImpactPct"`
	FeeFreeImpactPct string          `json:"feeFreeImpactPct"`
	SlippagePct      string          `json:"slippagePct"`
	Tier             string          `json:"tier"`
	Decision         string          `json:"decision"`
	Allowed          bool            `json:"allowed"`
	Reason           string          `json:"reason,omitempty"`
	Warning          string          `json:"warning,omitempty"`
	Deadline         time.Time       `json:"deadline"`
	Submission       *SwapSubmission `json:"submission,omitempty"`
	Calls            []domain.Call   `json:"calls,omitempty"`
	Gas              *Gas            `json:"gas,omitempty"`
}

// NewSwapResponse converts a swap result.
func NewSwapResponse(r app.SwapResult) SwapResponse {
	q, d := r.Quote, r.Decision
	resp := SwapResponse{
		BlockNumber:      r.Pool.BlockNumber,
		Direction:        q.Direction.String(),
		AmountIn:         amountOf(q.AmountIn),
		AmountInWithFee:  amountOf(q.AmountInWithFee),
		AmountOut:        amountOf(q.AmountOut),
		MinimumReceived:  amountOf(q.MinimumReceived),
		SpotPrice:        q.SpotPrice.Rate().String(),
		ExecutionPrice:   q.ExecutionPrice.Rate().String(),
		PriceImpactPct:   q.PriceImpactPct.String(),
		FeeFreeImpactPct: q.FeeFreeImpactPct.String(),
		SlippagePct:      q.SlippagePct.String(),
		Tier:             d.Tier.String(),
		Decision:         d.Impact.String(),
		Allowed:          d.Allowed,
		Reason:           d.Reason,
		Warning:          d.Warning,
		Deadline:         d.Deadline.UTC(),
		Calls:            r.Calls,
		Gas:              gasOf(r.Gas),
	}
	if s := d.Submission; s != nil {
		resp.Submission = &SwapSubmission{
			Pool:            s.Pool.Hex(),
			TokenIn:         s.TokenIn.Hex(),
			AmountIn:        s.AmountIn.String(),
			MinimumReceived: s.MinimumReceived.String(),
			Deadline:        s.Deadline,
		}
	}
	return resp
}

// AddResponse is returned by GET /v1/liquidity/add.
type AddResponse struct {
	BlockNumber  uint64        `json:"blockNumber"`
	AmountA      Amount        `json:"amountA"`
	AmountB      Amount        `json:"amountB"`
	IsBootstrap  bool          `json:"isBootstrap"`
	Cleared      bool          `json:"cleared"`
	InitialPrice *string       `json:"initialPrice,omitempty"`
	Submittable  bool          `json:"submittable"`
	Calls        []domain.Call `json:"calls,omitempty"`
	Gas          *Gas          `json:"gas,omitempty"`
}

// NewAddResponse converts an add-liquidity proposal.
func NewAddResponse(r app.AddResult) AddResponse {
	c := r.Contribution
	resp := AddResponse{
		BlockNumber: r.Pool.BlockNumber,
		AmountA:     amountOf(c.AmountA),
		AmountB:     amountOf(c.AmountB),
		IsBootstrap: c.IsBootstrap,
		Cleared:     c.Cleared,
		Submittable: r.Submission != nil,
		Calls:       r.Calls,
		Gas:         gasOf(r.Gas),
	}
	if c.InitialPrice != nil {
		p := c.InitialPrice.Rate().String()
		resp.InitialPrice = &p
	}
	return resp
}

// RemoveResponse is returned by GET /v1/liquidity/remove.
type RemoveResponse struct {
	BlockNumber   uint64        `json:"blockNumber"`
	LPAmount      Amount        `json:"lpAmount"`
	AmountA       Amount        `json:"amountA"`
	AmountB       Amount        `json:"amountB"`
	ShareFraction string        `json:"shareFraction"`
	Calls         []domain.Call `json:"calls,omitempty"`
	Gas           *Gas          `json:"gas,omitempty"`
}

// NewRemoveResponse converts a withdrawal proposal.
func NewRemoveResponse(r app.RemoveResult) RemoveResponse {
	w := r.Withdrawal
	return RemoveResponse{
		BlockNumber:   r.Pool.BlockNumber,
		LPAmount:      amountOf(w.LPAmount),
		AmountA:       amountOf(w.AmountA),
		AmountB:       amountOf(w.AmountB),
		ShareFraction: w.ShareFraction.String(),
		Calls:         r.Calls,
		Gas:           gasOf(r.Gas),
	}
}

// PositionResponse is returned by GET /v1/position/:owner.
type PositionResponse struct {
	BlockNumber uint64 `json:"blockNumber"`
	Owner       string `json:"owner"`
	LPBalance   Amount `json:"lpBalance"`
	SharePct    string `json:"sharePct"`
	UnderlyingA Amount `json:"underlyingA"`
	UnderlyingB Amount `json:"underlyingB"`
	BalanceA    Amount `json:"balanceA"`
	BalanceB    Amount `json:"balanceB"`
	Empty       bool   `json:"empty"`
}

// NewPositionResponse converts a position.
func NewPositionResponse(r app.PositionResult) PositionResponse {
	h, p := r.Holdings, r.Position
	return PositionResponse{
		BlockNumber: h.State.BlockNumber,
		Owner:       h.Owner.Hex(),
		LPBalance:   amountOf(p.LPBalance),
		SharePct:    p.SharePct.String(),
		UnderlyingA: amountOf(p.UnderlyingA),
		UnderlyingB: amountOf(p.UnderlyingB),
		BalanceA:    amountOf(h.BalanceA),
		BalanceB:    amountOf(h.BalanceB),
		Empty:       p.Empty,
	}
}

// ILResponse is returned by GET /v1/il.
type ILResponse struct {
	EntryPrice   string  `json:"entryPrice"`
	CurrentPrice string  `json:"currentPrice"`
	PriceRatio   string  `json:"priceRatio"`
	ILPercent    string  `json:"ilPercent"`
	Band         string  `json:"band"`
	BlockNumber  *uint64 `json:"blockNumber,omitempty"` // set when the current price came from the pool
}

// NewILResponse converts an impermanent loss estimate.
func NewILResponse(r app.ILResult) ILResponse {
	e := r.Estimate
	resp := ILResponse{
		EntryPrice:   e.EntryPrice.String(),
		CurrentPrice: e.CurrentPrice.String(),
		PriceRatio:   e.PriceRatio.String(),
		ILPercent:    e.ILPercent.String(),
		Band:         e.Band.String(),
	}
	if r.Pool != nil {
		n := r.Pool.BlockNumber
		resp.BlockNumber = &n
	}
	return resp
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody mirrors apperror.AppError's public fields.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
	TraceID string `json:"traceId,omitempty"`
}
