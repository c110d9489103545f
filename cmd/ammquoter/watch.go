package main

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	quotingApp "github.com/fd1az/amm-quoter/business/quoting/app"
	quotingDI "github.com/fd1az/amm-quoter/business/quoting/di"
	"github.com/fd1az/amm-quoter/business/quoting/infra/reporter"
	"github.com/fd1az/amm-quoter/internal/di"
	"github.com/fd1az/amm-quoter/internal/health"
	"github.com/fd1az/amm-quoter/internal/metrics"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompute probe quotes on every new block",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	f := cmd.Flags()
	f.Bool("cli", false, "print plain lines instead of the dashboard")
	f.String("owner", "", "also track this address's LP position")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	plain, _ := cmd.Flags().GetBool("cli")

	var tui *reporter.TUIReporter
	opts := bootOptions{longRunning: true}
	if !plain {
		tui = reporter.NewTUIReporter()
		opts.quiet = true
		opts.register = func(c di.Container) {
			di.RegisterToken(c, quotingDI.Reporter, func(di.ServiceRegistry) quotingApp.Reporter { return tui })
		}
	}

	rt, err := bootstrap(cmd, opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if rt.cfg.Telemetry.Enabled {
		go func() {
			if err := metrics.ServePrometheusMetrics(ctx, rt.cfg.Telemetry.PrometheusPort, rt.log); err != nil {
				rt.log.Warn(ctx, "metrics server stopped", "error", err)
			}
		}()
	}

	hs := health.NewServer(rt.cfg.Server.HealthPort, version, rt.log)
	rt.healthChecks(hs, true)
	hs.Start()
	defer func() { _ = hs.Stop(context.Background()) }()

	w := quotingDI.GetWatcher(rt.mono.Services())
	if err := w.Start(ctx); err != nil {
		return err
	}

	var tuiDone <-chan struct{}
	if tui != nil {
		tuiDone = tui.Done()
	}

	select {
	case <-ctx.Done():
	case <-tuiDone:
	case <-w.Done():
	}
	cancel()

	if err := w.Stop(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
