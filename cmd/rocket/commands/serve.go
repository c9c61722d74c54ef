package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/rocketscience/rocketscience/pkg/api"
	"github.com/rocketscience/rocketscience/pkg/config"
	"github.com/rocketscience/rocketscience/pkg/dashboard"
)

func newServeCommand() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Long: `Start the HTTP server exposing the dashboard state, health and metrics.

Endpoints:
  GET  /healthz
  GET  /metrics
  GET  /v1/dashboard
  POST /v1/dashboard/filter
  POST /v1/dashboard/refresh`,
		Example: `  # Serve on the configured address
  rocket serve

  # Serve on all interfaces
  rocket serve --address 0.0.0.0:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(ctx) }()
			ctx = a.tel.WithContext(ctx)

			if address == "" {
				address = a.cfg.Server.ListenAddress
			}

			vm := dashboard.NewViewModel(a.repo, a.tel.Logger)
			defer vm.Close()
			vm.SetFilter(a.cfg.Filter)
			go func() { _ = vm.Load(ctx) }()

			if a.loader.ConfigFile() != "" {
				err := a.loader.Watch(ctx, func(cfg *config.Config) {
					go func() { _ = vm.ApplyFilter(ctx, cfg.Filter) }()
				})
				if err != nil {
					a.tel.Logger.WithError(err).Warn("config watch disabled")
				}
			}

			router := api.NewServer(vm, a.store,
				api.WithLogger(a.tel.Logger),
				api.WithMetrics(a.tel.Metrics),
				api.WithBaseContext(ctx),
			)

			srv := &http.Server{
				Addr:              address,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.tel.Logger.WithField("address", address).Info("HTTP server listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
			defer cancel()

			a.tel.Logger.Info("shutting down HTTP server")
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down server: %w", err)
			}
			// Spans of the last requests are exported before the store closes.
			if err := a.tel.Flush(shutdownCtx); err != nil {
				a.tel.Logger.WithError(err).Warn("failed to flush spans")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address (default from config)")

	return cmd
}
