// Package main is the entry point for the AMM quoter CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fd1az/amm-quoter/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// errTradeBlocked is returned after a refused quote has been printed.
var errTradeBlocked = errors.New("trade refused by the safety policy")

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err == nil {
		return
	}

	if !errors.Is(err, errTradeBlocked) {
		fmt.Fprintln(os.Stderr, ui.NegativeValue.Render("error:"), err)
	}
	stop()
	os.Exit(exitCode(err))
}

// exitCode is 2 for a refused trade and 1 for any other failure.
func exitCode(err error) int {
	if errors.Is(err, errTradeBlocked) {
		return 2
	}
	return 1
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ammquoter",
		Short:         "Off-chain quoting for a constant-product AMM pool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file path")
	pf.String("rpc", "", "Ethereum HTTP RPC URL")
	pf.String("ws", "", "Ethereum WebSocket URL")
	pf.String("pool", "", "pool contract address")
	pf.String("router", "", "router contract address")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.Bool("json", false, "print JSON instead of text")

	root.AddCommand(
		newQuoteCmd(),
		newAddCmd(),
		newRemoveCmd(),
		newPositionCmd(),
		newILCmd(),
		newPoolCmd(),
		newWatchCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ammquoter %s (commit: %s, built: %s)\n", version, commit, buildDate)
		},
	}
}
