package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	pooldomain "github.com/fd1az/amm-quoter/business/pool/domain"
	"github.com/fd1az/amm-quoter/business/quoting/app"
	"github.com/fd1az/amm-quoter/business/quoting/domain"
	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/logger"
)

// Quoter is the use-case surface the API exposes. Implemented by
// quoting/app.Service.
type Quoter interface {
	Overview(ctx context.Context) (app.Overview, error)
	QuoteSwap(ctx context.Context, p app.SwapParams) (app.SwapResult, error)
	ProposeAdd(ctx context.Context, p app.AddParams) (app.AddResult, error)
	ProposeRemove(ctx context.Context, p app.RemoveParams) (app.RemoveResult, error)
	Position(ctx context.Context, owner common.Address) (app.PositionResult, error)
	ImpermanentLoss(ctx context.Context, p app.ILParams) (app.ILResult, error)
}

var _ Quoter = (*app.Service)(nil)

// Handlers contains the endpoint handlers.
type Handlers struct {
	Quoter Quoter
	Logger logger.LoggerInterface
}

// Pool returns reserves, prices and the swap gas estimate at the latest block.
func (h *Handlers) Pool(c echo.Context) error {
	o, err := h.Quoter.Overview(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewPoolResponse(o))
}

// Quote prices a swap: ?direction=a-to-b&amount=10[&slippage=1][&calldata=true][&router=true]
func (h *Handlers) Quote(c echo.Context) error {
	dir, err := pooldomain.ParseDirection(queryOr(c, "direction", "a-to-b"))
	if err != nil {
		return err
	}
	amount, err := required(c, "amount")
	if err != nil {
		return err
	}

	p := app.SwapParams{Direction: dir, Amount: amount}
	if s := c.QueryParam("slippage"); s != "" {
		pct, err := decimal.NewFromString(s)
		if err != nil {
			return apperror.New(apperror.CodeInvalidSlippage, apperror.WithCause(err), apperror.WithContextf("slippage %q", s))
		}
		p.SlippagePct = &pct
	}
	if p.WithCalldata, err = flag(c, "calldata"); err != nil {
		return err
	}
	if p.ViaRouter, err = flag(c, "router"); err != nil {
		return err
	}

	res, err := h.Quoter.QuoteSwap(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewSwapResponse(res))
}

// AddLiquidity proposes a deposit: ?side=a&amount=1[&counterpart=4][&calldata=true]
func (h *Handlers) AddLiquidity(c echo.Context) error {
	side, err := pooldomain.ParseSide(queryOr(c, "side", "a"))
	if err != nil {
		return err
	}

	p := app.AddParams{
		Side:        side,
		Amount:      c.QueryParam("amount"),
		Counterpart: c.QueryParam("counterpart"),
	}
	if p.WithCalldata, err = flag(c, "calldata"); err != nil {
		return err
	}

	res, err := h.Quoter.ProposeAdd(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewAddResponse(res))
}

// RemoveLiquidity proposes a withdrawal: ?lp=5 or ?percent=50&owner=0x..
func (h *Handlers) RemoveLiquidity(c echo.Context) error {
	p := app.RemoveParams{
		LPAmount: c.QueryParam("lp"),
		Percent:  c.QueryParam("percent"),
	}
	if o := c.QueryParam("owner"); o != "" {
		owner, err := address(o)
		if err != nil {
			return err
		}
		p.Owner = owner
	}
	var err error
	if p.WithCalldata, err = flag(c, "calldata"); err != nil {
		return err
	}

	res, err := h.Quoter.ProposeRemove(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewRemoveResponse(res))
}

// Position returns an address's LP position.
func (h *Handlers) Position(c echo.Context) error {
	owner, err := address(c.Param("owner"))
	if err != nil {
		return err
	}

	res, err := h.Quoter.Position(c.Request().Context(), owner)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewPositionResponse(res))
}

// ImpermanentLoss estimates IL: ?entry=2[&current=3][&quote=b-per-a]
func (h *Handlers) ImpermanentLoss(c echo.Context) error {
	entry, err := required(c, "entry")
	if err != nil {
		return err
	}
	quote, err := domain.ParsePriceQuote(c.QueryParam("quote"))
	if err != nil {
		return err
	}

	res, err := h.Quoter.ImpermanentLoss(c.Request().Context(), app.ILParams{
		Entry:   entry,
		Current: c.QueryParam("current"),
		Quote:   quote,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NewILResponse(res))
}

func queryOr(c echo.Context, name, def string) string {
	if v := strings.TrimSpace(c.QueryParam(name)); v != "" {
		return v
	}
	return def
}

func required(c echo.Context, name string) (string, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return "", apperror.Validation(apperror.CodeInvalidInput, name+" is required")
	}
	return v, nil
}

func flag(c echo.Context, name string) (bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperror.Validation(apperror.CodeInvalidInput, name+" must be a boolean")
	}
	return b, nil
}

func address(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, apperror.Validation(apperror.CodeInvalidInput, "not an address: "+s)
	}
	return common.HexToAddress(s), nil
}
