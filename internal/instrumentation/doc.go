// Package instrumentation provides OpenTelemetry metrics and tracing for
// inboxcook.
//
// # Metrics
//
// Request Metrics:
//   - http_requests_total, http_request_duration_seconds
//
// Google API Metrics:
//   - google_api_operations_total: by service, operation, status
//   - google_api_operation_duration_seconds
//
// OAuth Metrics:
//   - oauth_auth_total: credential resolution by result (success, failure, redirect)
//   - oauth_token_refresh_total: refresh attempts by result
//
// Enrichment Metrics:
//   - action_extractions_total, action_extraction_duration_seconds: by provider and result
//   - action_items_per_message
//   - messages_processed_total: enriched or skipped
//   - labels_applied_total: applied or failed
//
// # Tracing
//
// Spans are created per invocation (inboxcook.handle), per Google API call
// (google.<service>.<operation>) and per model call (llm.<provider>.complete).
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: enable/disable instrumentation
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: service name (default: inboxcook)
//
// Inside AWS Lambda the scrape-based prometheus exporter is of little use;
// configure otlp and rely on Provider.ForceFlush at the end of each
// invocation.
package instrumentation
