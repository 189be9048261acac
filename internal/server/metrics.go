package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teemow/inboxcook/internal/instrumentation"
)

const (
	// DefaultMetricsAddr is the default address for the metrics server.
	DefaultMetricsAddr = ":9090"

	// DefaultMetricsReadTimeout is the default read timeout for the metrics server.
	DefaultMetricsReadTimeout = 10 * time.Second

	// DefaultMetricsWriteTimeout is the default write timeout for the metrics server.
	DefaultMetricsWriteTimeout = 10 * time.Second

	// DefaultMetricsIdleTimeout is the default idle timeout for the metrics server.
	DefaultMetricsIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful server shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)

// MetricsServerConfig holds configuration for the metrics server.
type MetricsServerConfig struct {
	// Addr is the address to bind the metrics server to (e.g., ":9090").
	Addr string

	// Path is where the scrape endpoint is mounted (default "/metrics").
	Path string

	// InstrumentationProvider must be enabled with the prometheus exporter.
	InstrumentationProvider *instrumentation.Provider

	Logger *slog.Logger
}

// MetricsServer serves Prometheus metrics on a dedicated port.
type MetricsServer struct {
	httpServer *http.Server
	addr       string
	logger     *slog.Logger
}

// NewMetricsServer creates a metrics server. The OpenTelemetry prometheus
// exporter registers with the default Prometheus registry, which
// promhttp.Handler exposes.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.Addr == "" {
		config.Addr = DefaultMetricsAddr
	}
	if config.Path == "" {
		config.Path = "/metrics"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	if config.InstrumentationProvider == nil {
		return nil, fmt.Errorf("instrumentation provider is required for metrics server")
	}
	if !config.InstrumentationProvider.Enabled() {
		return nil, fmt.Errorf("instrumentation provider is not enabled")
	}
	if exp := config.InstrumentationProvider.MetricsExporter(); exp != "" && exp != instrumentation.ExporterPrometheus {
		return nil, fmt.Errorf("metrics server requires the prometheus exporter, got %q", exp)
	}

	mux := http.NewServeMux()
	mux.Handle(config.Path, promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &MetricsServer{
		addr:   config.Addr,
		logger: config.Logger,
		httpServer: &http.Server{
			Addr:              config.Addr,
			Handler:           mux,
			ReadHeaderTimeout: DefaultMetricsReadTimeout,
			WriteTimeout:      DefaultMetricsWriteTimeout,
			IdleTimeout:       DefaultMetricsIdleTimeout,
		},
	}, nil
}

// Start serves until Shutdown. It blocks.
func (s *MetricsServer) Start() error {
	return s.StartWithReadySignal(nil)
}

// StartWithReadySignal binds the listener, closes ready once it accepts
// connections and then serves until Shutdown. It blocks.
func (s *MetricsServer) StartWithReadySignal(ready chan<- struct{}) error {
	return serve(s.httpServer, s.logger.With("server", "metrics"), ready, func(addr string) {
		s.addr = addr
	})
}

// Shutdown gracefully shuts down the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the bound address once started, the configured one before.
func (s *MetricsServer) Addr() string {
	return s.addr
}

// serve listens on srv.Addr, reports the bound address, signals ready and
// serves until the server is shut down.
func serve(srv *http.Server, logger *slog.Logger, ready chan<- struct{}, bound func(string)) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}
	bound(ln.Addr().String())
	logger.Info("server listening", "addr", ln.Addr().String())
	if ready != nil {
		close(ready)
	}
	return srv.Serve(ln)
}
