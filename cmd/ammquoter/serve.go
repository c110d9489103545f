package main

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/fd1az/amm-quoter/internal/health"
	"github.com/fd1az/amm-quoter/internal/metrics"
	"github.com/fd1az/amm-quoter/pkg/api"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve quotes over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "listen address (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := bootstrap(cmd, bootOptions{longRunning: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()

	// mounted on the API router, never started on its own port
	hs := health.NewServer(rt.cfg.Server.HealthPort, version, rt.log)
	rt.healthChecks(hs, false)

	var metricsHandler http.Handler
	if rt.cfg.Telemetry.Enabled {
		metricsHandler = metrics.Handler()
	}

	srv := api.NewServer(api.Config{
		Addr:         rt.cfg.Server.Addr,
		ReadTimeout:  rt.cfg.Server.ReadTimeout,
		WriteTimeout: rt.cfg.Server.WriteTimeout,
		RatePerSec:   20,
		Burst:        40,
	}, api.Deps{
		Quoter:  rt.quoting(),
		Health:  hs.Handler(),
		Metrics: metricsHandler,
		Logger:  rt.log,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	rt.log.Info(ctx, "shutting down api")
	if err := srv.Shutdown(context.Background()); err != nil {
		return err
	}
	return <-errCh
}
