package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultAppAddr is the default listen address of the app server.
	DefaultAppAddr = ":8080"

	// DefaultAppWriteTimeout covers a full invocation: up to ten model
	// calls plus the Gmail round trips.
	DefaultAppWriteTimeout = 2 * time.Minute
)

// AppServerConfig holds configuration for the app server.
type AppServerConfig struct {
	Addr string

	// Handler serves invocations at GET "/". Other paths are 404.
	Handler http.Handler

	// Health, when set, adds /healthz, /readyz and /healthz/detailed.
	Health *HealthChecker

	Logger *slog.Logger
}

// AppServer serves the invocation handler over plain HTTP.
type AppServer struct {
	httpServer *http.Server
	health     *HealthChecker
	addr       string
	logger     *slog.Logger
}

// NewAppServer creates an AppServer.
func NewAppServer(config AppServerConfig) *AppServer {
	if config.Addr == "" {
		config.Addr = DefaultAppAddr
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	mux := http.NewServeMux()
	if config.Health != nil {
		config.Health.RegisterHealthEndpoints(mux)
	}
	mux.Handle("GET /{$}", config.Handler)

	return &AppServer{
		addr:   config.Addr,
		health: config.Health,
		logger: config.Logger,
		httpServer: &http.Server{
			Addr:              config.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      DefaultAppWriteTimeout,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Start serves until Shutdown. It blocks.
func (s *AppServer) Start() error {
	return s.StartWithReadySignal(nil)
}

// StartWithReadySignal binds the listener, closes ready once it accepts
// connections and then serves until Shutdown. It blocks.
func (s *AppServer) StartWithReadySignal(ready chan<- struct{}) error {
	return serve(s.httpServer, s.logger.With("server", "app"), ready, func(addr string) {
		s.addr = addr
	})
}

// Shutdown fails readiness, then drains in-flight requests.
func (s *AppServer) Shutdown(ctx context.Context) error {
	if s.health != nil {
		s.health.SetShuttingDown()
	}
	s.logger.Info("shutting down app server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the bound address once started, the configured one before.
func (s *AppServer) Addr() string {
	return s.addr
}
