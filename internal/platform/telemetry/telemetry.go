package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// ShutdownFunc releases telemetry resources.
type ShutdownFunc func(ctx context.Context) error

// Setup initializes OpenTelemetry with a Prometheus exporter.
// Returns a shutdown function that must be called on exit.
func Setup(ctx context.Context, serviceName string) (ShutdownFunc, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// MetricsHandler returns an http.Handler that serves Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Metrics holds all OTel instruments for the service.
type Metrics struct {
	httpRequestsTotal       otelmetric.Int64Counter
	httpRequestDuration     otelmetric.Float64Histogram
	authzDecisionsTotal     otelmetric.Int64Counter
	principalLoadsTotal     otelmetric.Int64Counter
	jwksRefreshesTotal      otelmetric.Int64Counter
	rateLimitDecisionsTotal otelmetric.Int64Counter
	auditDropsTotal         otelmetric.Int64Counter
}

// NewMetrics creates and registers all service metrics.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("classhub")
	m := &Metrics{}
	var err error

	latencyBuckets := otelmetric.WithExplicitBucketBoundaries(
		0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0,
	)

	if m.httpRequestsTotal, err = meter.Int64Counter("classhub_http_requests_total",
		otelmetric.WithDescription("Total HTTP requests")); err != nil {
		return nil, fmt.Errorf("creating http_requests_total: %w", err)
	}
	if m.httpRequestDuration, err = meter.Float64Histogram("classhub_http_request_duration_seconds",
		otelmetric.WithDescription("HTTP request duration"), latencyBuckets); err != nil {
		return nil, fmt.Errorf("creating http_request_duration: %w", err)
	}
	if m.authzDecisionsTotal, err = meter.Int64Counter("classhub_authz_decisions_total",
		otelmetric.WithDescription("Request guard outcomes per operation")); err != nil {
		return nil, fmt.Errorf("creating authz_decisions_total: %w", err)
	}
	if m.principalLoadsTotal, err = meter.Int64Counter("classhub_principal_loads_total",
		otelmetric.WithDescription("Principal resolution attempts")); err != nil {
		return nil, fmt.Errorf("creating principal_loads_total: %w", err)
	}
	if m.jwksRefreshesTotal, err = meter.Int64Counter("classhub_jwks_refreshes_total",
		otelmetric.WithDescription("Total JWKS refreshes")); err != nil {
		return nil, fmt.Errorf("creating jwks_refreshes_total: %w", err)
	}
	if m.rateLimitDecisionsTotal, err = meter.Int64Counter("classhub_ratelimit_decisions_total",
		otelmetric.WithDescription("Total rate limit decisions")); err != nil {
		return nil, fmt.Errorf("creating ratelimit_decisions_total: %w", err)
	}
	if m.auditDropsTotal, err = meter.Int64Counter("classhub_audit_drops_total",
		otelmetric.WithDescription("Audit records dropped because the queue was full")); err != nil {
		return nil, fmt.Errorf("creating audit_drops_total: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request metric.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, durationSec float64) {
	attrs := otelmetric.WithAttributes(
		methodAttr(method),
		pathAttr(path),
		statusAttr(status),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, durationSec, attrs)
}

// RecordAuthzDecision records a request guard outcome for an operation.
func (m *Metrics) RecordAuthzDecision(ctx context.Context, operation, outcome string) {
	m.authzDecisionsTotal.Add(ctx, 1, otelmetric.WithAttributes(
		operationAttr(operation),
		outcomeAttr(outcome),
	))
}

// RecordPrincipalLoad records a principal resolution result.
func (m *Metrics) RecordPrincipalLoad(ctx context.Context, result string) {
	m.principalLoadsTotal.Add(ctx, 1, otelmetric.WithAttributes(resultAttr(result)))
}

// RecordJWKSRefresh records a JWKS refresh attempt.
func (m *Metrics) RecordJWKSRefresh(ctx context.Context, result string) {
	m.jwksRefreshesTotal.Add(ctx, 1, otelmetric.WithAttributes(resultAttr(result)))
}

// RecordRateLimitDecision records a rate limit decision.
func (m *Metrics) RecordRateLimitDecision(ctx context.Context, layer, result string) {
	m.rateLimitDecisionsTotal.Add(ctx, 1, otelmetric.WithAttributes(
		layerAttr(layer),
		resultAttr(result),
	))
}

// RecordAuditDrop records a dropped audit record.
func (m *Metrics) RecordAuditDrop(ctx context.Context) {
	m.auditDropsTotal.Add(ctx, 1)
}
