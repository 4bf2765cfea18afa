package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/nexusmind/internal/cli"
	httpAdapter "github.com/aretw0/nexusmind/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes the engine as a JSON API over HTTP, with per-session progress
streamed as Server-Sent Events and Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}

		streams := httpAdapter.NewStreamManager(logger)
		res, err := cli.CreateEngine(sc, cfg, logger, streams.Hooks())
		if err != nil {
			return err
		}
		defer res.Close()

		opts := []httpAdapter.Option{
			httpAdapter.WithStreams(streams),
			httpAdapter.WithLogger(logger),
		}
		if res.Metrics != nil {
			opts = append(opts, httpAdapter.WithMetricsHandler(promhttp.HandlerFor(res.Metrics, promhttp.HandlerOpts{})))
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           httpAdapter.NewHandler(res.Engine, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting NexusMind server", "address", srv.Addr, "store", cfg.Store.Kind)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-sc.Done():
			logger.Info("Start shutdown", "signal", sc.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("NexusMind server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides server.port)")
}
