// Package server runs inboxcook as a long-lived HTTP process for local
// development and container deployments.
//
// AppServer mounts the invocation handler at "/" next to the liveness and
// readiness probes of HealthChecker. MetricsServer exposes the Prometheus
// scrape endpoint on its own port so operational metrics stay off the
// public listener.
package server
