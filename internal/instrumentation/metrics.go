package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrProvider  = "provider"
)

// Metrics records the service's metrics. The zero value is a valid
// recorder that drops everything.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	oauthAuthTotal         metric.Int64Counter
	oauthTokenRefreshTotal metric.Int64Counter

	extractionsTotal   metric.Int64Counter
	extractionDuration metric.Float64Histogram
	actionItems        metric.Int64Histogram

	messagesProcessedTotal metric.Int64Counter
	labelsAppliedTotal     metric.Int64Counter
}

// NewMetrics creates all instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of handled requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	if m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("Request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	if m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	if m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	); err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	if m.oauthAuthTotal, err = meter.Int64Counter(
		"oauth_auth_total",
		metric.WithDescription("Total number of credential resolutions by result"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create oauth_auth_total counter: %w", err)
	}

	if m.oauthTokenRefreshTotal, err = meter.Int64Counter(
		"oauth_token_refresh_total",
		metric.WithDescription("Total number of OAuth token refresh attempts"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create oauth_token_refresh_total counter: %w", err)
	}

	if m.extractionsTotal, err = meter.Int64Counter(
		"action_extractions_total",
		metric.WithDescription("Total number of action item extractions by provider and result"),
		metric.WithUnit("{extraction}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create action_extractions_total counter: %w", err)
	}

	if m.extractionDuration, err = meter.Float64Histogram(
		"action_extraction_duration_seconds",
		metric.WithDescription("Model call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 20.0, 40.0),
	); err != nil {
		return nil, fmt.Errorf("failed to create action_extraction_duration_seconds histogram: %w", err)
	}

	if m.actionItems, err = meter.Int64Histogram(
		"action_items_per_message",
		metric.WithDescription("Number of action items extracted per message"),
		metric.WithUnit("{item}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 5, 8, 13),
	); err != nil {
		return nil, fmt.Errorf("failed to create action_items_per_message histogram: %w", err)
	}

	if m.messagesProcessedTotal, err = meter.Int64Counter(
		"messages_processed_total",
		metric.WithDescription("Messages seen by the enrichment loop, by result (enriched or skipped)"),
		metric.WithUnit("{message}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create messages_processed_total counter: %w", err)
	}

	if m.labelsAppliedTotal, err = meter.Int64Counter(
		"labels_applied_total",
		metric.WithDescription("Marker label applications by result"),
		metric.WithUnit("{label}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create labels_applied_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records a handled request. route must be a fixed route
// pattern, never the raw request path.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, route),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGoogleAPIOperation records one Google API call.
//
// Parameters:
//   - service: Google service name (gmail)
//   - operation: API method (messages.list, labels.create, ...)
//   - status: "success" or "error"
//   - duration: time taken for the call
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.googleAPIOperationsTotal.Add(ctx, 1, attrs)
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordOAuthAuth records how credentials were resolved for a request.
// Result should be one of: "success", "failure", "redirect"
func (m *Metrics) RecordOAuthAuth(ctx context.Context, result string) {
	if m == nil || m.oauthAuthTotal == nil {
		return
	}
	m.oauthAuthTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordOAuthTokenRefresh records a token refresh attempt.
// Result should be one of: "success", "failure"
func (m *Metrics) RecordOAuthTokenRefresh(ctx context.Context, result string) {
	if m == nil || m.oauthTokenRefreshTotal == nil {
		return
	}
	m.oauthTokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordExtraction records one model call and the number of items it yielded.
// Result should be one of: "parsed", "invalid", "error"
func (m *Metrics) RecordExtraction(ctx context.Context, provider, result string, items int, duration time.Duration) {
	if m == nil || m.extractionsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrProvider, provider),
		attribute.String(attrResult, result),
	)
	m.extractionsTotal.Add(ctx, 1, attrs)
	m.extractionDuration.Record(ctx, duration.Seconds(), attrs)
	if result == ExtractionResultParsed {
		m.actionItems.Record(ctx, int64(items), metric.WithAttributes(attribute.String(attrProvider, provider)))
	}
}

// RecordMessageProcessed counts a message passing through enrichment.
func (m *Metrics) RecordMessageProcessed(ctx context.Context, enriched bool) {
	if m == nil || m.messagesProcessedTotal == nil {
		return
	}
	result := "skipped"
	if enriched {
		result = "enriched"
	}
	m.messagesProcessedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordLabelApplied records a marker label application.
// Result should be one of: "applied", "failed"
func (m *Metrics) RecordLabelApplied(ctx context.Context, result string) {
	if m == nil || m.labelsAppliedTotal == nil {
		return
	}
	m.labelsAppliedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}
