package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
)

// HealthChecker serves liveness and readiness probes.
type HealthChecker struct {
	ready        atomic.Bool
	shuttingDown atomic.Bool
	startTime    time.Time

	version  string
	provider string
}

// NewHealthChecker creates a HealthChecker that starts out ready. version
// and provider are reported by the detailed endpoint.
func NewHealthChecker(version, provider string) *HealthChecker {
	h := &HealthChecker{
		startTime: time.Now(),
		version:   version,
		provider:  provider,
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the server accepts traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load() && !h.shuttingDown.Load()
}

// SetShuttingDown marks the server as draining. Readiness fails from then on.
func (h *HealthChecker) SetShuttingDown() {
	h.shuttingDown.Store(true)
}

// HealthResponse is the body of the probe endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	Version     string `json:"version,omitempty"`
	LLMProvider string `json:"llm_provider,omitempty"`
}

// LivenessHandler answers /healthz. It succeeds as long as the process
// serves requests.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler answers /readyz.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks := map[string]string{
			"ready":    healthStatusOK,
			"shutdown": healthStatusOK,
		}
		if !h.ready.Load() {
			checks["ready"] = healthStatusNotReady
		}
		if h.shuttingDown.Load() {
			checks["shutdown"] = healthStatusShuttingDown
		}

		if h.IsReady() {
			writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK, Checks: checks})
			return
		}
		writeHealth(w, http.StatusServiceUnavailable, HealthResponse{Status: healthStatusNotReady, Checks: checks})
	})
}

// DetailedHealthHandler answers /healthz/detailed.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response := DetailedHealthResponse{
			Status:      healthStatusOK,
			Uptime:      time.Since(h.startTime).Truncate(time.Second).String(),
			Version:     h.version,
			LLMProvider: h.provider,
		}

		status := http.StatusOK
		switch {
		case h.shuttingDown.Load():
			response.Status = healthStatusShuttingDown
			status = http.StatusServiceUnavailable
		case !h.ready.Load():
			response.Status = healthStatusNotReady
			status = http.StatusServiceUnavailable
		}
		writeHealth(w, status, response)
	})
}

// RegisterHealthEndpoints registers the probe endpoints on mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

func writeHealth(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
