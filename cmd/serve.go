package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxcook/internal/config"
	"github.com/teemow/inboxcook/internal/instrumentation"
	"github.com/teemow/inboxcook/internal/logging"
	"github.com/teemow/inboxcook/internal/server"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// startupTimeout bounds how long a listener may take to come up.
const startupTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var (
		httpAddr       string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the handler over HTTP",
		Long: `Serve the invocation handler over plain HTTP for local development and
container deployments.

Endpoints:
  GET /               the handler (OAuth redirect, code exchange, enrichment)
  /healthz, /readyz   liveness and readiness probes
  /healthz/detailed   uptime, version and LLM provider

Prometheus metrics are served on a dedicated port (--metrics-addr) when
instrumentation is enabled with the prometheus exporter.

The Google OAuth redirect URI in the client secret file must point at this
server for the code exchange to reach it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("http-addr") {
				if addr := os.Getenv("HTTP_ADDR"); addr != "" {
					httpAddr = addr
				}
			}
			if !cmd.Flags().Changed("metrics-enabled") {
				if env := os.Getenv("METRICS_ENABLED"); env != "" {
					metricsEnabled = env == "true"
				}
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					metricsAddr = addr
				}
			}

			return runServe(cmd, cfg, httpAddr, MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			})
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http-addr", server.DefaultAppAddr, "HTTP server address. Can also use HTTP_ADDR env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config, httpAddr string, metricsConfig MetricsConfig) error {
	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(cmd)

	instrConfig := instrumentation.DefaultConfig(true)
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	h, err := newHandler(ctx, cfg, provider.Metrics(), logger)
	if err != nil {
		return err
	}

	var metricsServer *server.MetricsServer
	if metricsConfig.Enabled && provider.Enabled() && provider.MetricsExporter() == instrumentation.ExporterPrometheus {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			Path:                    instrConfig.PrometheusEndpoint,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		if err := startAndWait(metricsServer.StartWithReadySignal); err != nil {
			return fmt.Errorf("metrics server failed to start: %w", err)
		}
		defer shutdownServer(logger, "metrics", metricsServer.Shutdown)
	}

	health := server.NewHealthChecker(version, cfg.LLMProvider)
	app := server.NewAppServer(server.AppServerConfig{
		Addr:    httpAddr,
		Handler: h,
		Health:  health,
		Logger:  logger,
	})

	serverDone := make(chan error, 1)
	ready := make(chan struct{})
	go func() {
		defer close(serverDone)
		if err := app.StartWithReadySignal(ready); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ready:
		logger.Info("inboxcook serving", "addr", app.Addr(), "version", version)
	case err := <-serverDone:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(startupTimeout):
		return fmt.Errorf("HTTP server startup timed out")
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownServer(logger, "app", app.Shutdown)
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}

// startAndWait runs start in the background and waits until it signals
// readiness or fails.
func startAndWait(start func(chan<- struct{}) error) error {
	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		if err := start(ready); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ready:
		return nil
	case err := <-errCh:
		return err
	case <-time.After(startupTimeout):
		return fmt.Errorf("startup timed out")
	}
}

func shutdownServer(logger *slog.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Warn("error during server shutdown", "server", name, logging.Err(err))
	}
}
