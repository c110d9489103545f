package main

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	pooldomain "github.com/fd1az/amm-quoter/business/pool/domain"
	"github.com/fd1az/amm-quoter/business/quoting/app"
	"github.com/fd1az/amm-quoter/business/quoting/domain"
	"github.com/fd1az/amm-quoter/internal/apperror"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap against the latest pool state",
		Args:  cobra.NoArgs,
		RunE:  runQuote,
	}
	f := cmd.Flags()
	f.String("direction", "a-to-b", "a-to-b or b-to-a")
	f.String("amount", "", "input amount in whole tokens")
	f.String("slippage", "", "slippage tolerance in percent (default from config)")
	f.Bool("calldata", false, "encode the transactions to submit")
	f.Bool("via-router", false, "route the swap through the configured router")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	dirFlag, _ := f.GetString("direction")
	dir, err := pooldomain.ParseDirection(dirFlag)
	if err != nil {
		return err
	}

	p := app.SwapParams{Direction: dir}
	p.Amount, _ = f.GetString("amount")
	p.WithCalldata, _ = f.GetBool("calldata")
	p.ViaRouter, _ = f.GetBool("via-router")
	if s, _ := f.GetString("slippage"); s != "" {
		pct, err := decimal.NewFromString(s)
		if err != nil {
			return apperror.New(apperror.CodeInvalidSlippage, apperror.WithCause(err), apperror.WithContextf("slippage %q", s))
		}
		p.SlippagePct = &pct
	}

	rt, err := bootstrap(cmd, bootOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.quoting().QuoteSwap(cmd.Context(), p)
	if err != nil {
		return err
	}
	if err := newPrinter(cmd).swap(res); err != nil {
		return err
	}
	if !res.Decision.Allowed {
		return errTradeBlocked
	}
	return nil
}

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Propose an add-liquidity deposit",
		Args:  cobra.NoArgs,
		RunE:  runAdd,
	}
	f := cmd.Flags()
	f.String("side", "a", "side the amount is entered on: a or b")
	f.String("amount", "", "amount in whole tokens")
	f.String("counterpart", "", "other side's amount; only read for an empty pool")
	f.Bool("calldata", false, "encode the transactions to submit")
	return cmd
}

func runAdd(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	sideFlag, _ := f.GetString("side")
	side, err := pooldomain.ParseSide(sideFlag)
	if err != nil {
		return err
	}

	p := app.AddParams{Side: side}
	p.Amount, _ = f.GetString("amount")
	p.Counterpart, _ = f.GetString("counterpart")
	p.WithCalldata, _ = f.GetBool("calldata")

	rt, err := bootstrap(cmd, bootOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.quoting().ProposeAdd(cmd.Context(), p)
	if err != nil {
		return err
	}
	return newPrinter(cmd).add(res)
}

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Propose a remove-liquidity withdrawal",
		Args:  cobra.NoArgs,
		RunE:  runRemove,
	}
	f := cmd.Flags()
	f.String("lp", "", "LP tokens to burn")
	f.String("percent", "", "percentage of the owner's LP balance to burn")
	f.String("owner", "", "LP holder, required with --percent")
	f.Bool("calldata", false, "encode the transactions to submit")
	cmd.MarkFlagsMutuallyExclusive("lp", "percent")
	cmd.MarkFlagsOneRequired("lp", "percent")
	return cmd
}

func runRemove(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	var p app.RemoveParams
	p.LPAmount, _ = f.GetString("lp")
	p.Percent, _ = f.GetString("percent")
	p.WithCalldata, _ = f.GetBool("calldata")

	rt, err := bootstrap(cmd, bootOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	// --owner is bound to watch.owner, so AMM_WATCH_OWNER works too
	p.Owner = rt.cfg.Watch.OwnerHex()

	res, err := rt.quoting().ProposeRemove(cmd.Context(), p)
	if err != nil {
		return err
	}
	return newPrinter(cmd).remove(res)
}

func newPositionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Show an address's LP position and token balances",
		Args:  cobra.NoArgs,
		RunE:  runPosition,
	}
	cmd.Flags().String("owner", "", "LP holder address")
	return cmd
}

func runPosition(cmd *cobra.Command, _ []string) error {
	rt, err := bootstrap(cmd, bootOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	owner := rt.cfg.Watch.OwnerHex()
	if owner == (common.Address{}) {
		return apperror.Validation(apperror.CodeInvalidInput, "--owner is required")
	}

	res, err := rt.quoting().Position(cmd.Context(), owner)
	if err != nil {
		return err
	}
	return newPrinter(cmd).position(res)
}

func newILCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "il",
		Short: "Estimate impermanent loss against holding",
		Args:  cobra.NoArgs,
		RunE:  runIL,
	}
	f := cmd.Flags()
	f.String("entry", "", "price when liquidity was added")
	f.String("current", "", "current price (default: the pool's marginal price)")
	f.String("quote", "b-per-a", "price orientation: b-per-a or a-per-b")
	_ = cmd.MarkFlagRequired("entry")
	return cmd
}

func runIL(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	var p app.ILParams
	p.Entry, _ = f.GetString("entry")
	p.Current, _ = f.GetString("current")

	quoteFlag, _ := f.GetString("quote")
	quote, err := domain.ParsePriceQuote(quoteFlag)
	if err != nil {
		return err
	}
	p.Quote = quote

	rt, err := bootstrap(cmd, bootOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.quoting().ImpermanentLoss(cmd.Context(), p)
	if err != nil {
		return err
	}
	return newPrinter(cmd).il(res)
}

func newPoolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pool",
		Short: "Show reserves, prices, LP supply and gas price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd, bootOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			o, err := rt.quoting().Overview(cmd.Context())
			if err != nil {
				return err
			}
			return newPrinter(cmd).pool(o)
		},
	}
}
