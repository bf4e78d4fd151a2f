// Package observability provides optional OpenTelemetry tracing.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"

	"github.com/menezmethod/macrofx/internal/config"
	"github.com/menezmethod/macrofx/internal/middleware"
	"github.com/menezmethod/macrofx/internal/version"
)

// TracerProvider holds the SDK TracerProvider for shutdown.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
}

// Setup installs a global tracer provider when cfg.OTelEnabled is set.
// It returns nil, nil when tracing is disabled; Shutdown on a nil provider
// is a no-op.
func Setup(ctx context.Context, cfg config.Observability) (*TracerProvider, error) {
	if !cfg.OTelEnabled {
		return nil, nil
	}
	exporter, err := newExporter(ctx, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}
	return NewTracerProvider(cfg.OTelServiceName, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
}

// newExporter exports spans via OTLP HTTP to endpoint (e.g.
// http://localhost:4318). TLS is used for https; http is sent insecure.
func newExporter(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = "http://localhost:4318"
	}
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(endpoint),
	}
	if u, err := url.Parse(endpoint); err == nil && u.Scheme == "http" {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

// NewTracerProvider builds a provider for serviceName with the given span
// pipeline and installs it, with W3C trace-context propagation, as the
// global default.
func NewTracerProvider(serviceName string, opts ...sdktrace.TracerProviderOption) (*TracerProvider, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version.Version),
		),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(append(opts, sdktrace.WithResource(res))...)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return &TracerProvider{provider: provider}, nil
}

// Shutdown flushes and stops the TracerProvider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp == nil || tp.provider == nil {
		return nil
	}
	return tp.provider.Shutdown(ctx)
}

// HTTPHandler wraps h with OpenTelemetry HTTP tracing. Spans are named
// "<METHOD> <path>" with the path bounded by middleware.NormalizePath, so
// unmatched paths share the "/other" name.
func HTTPHandler(h http.Handler, operation string, opts ...otelhttp.Option) http.Handler {
	opts = append([]otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + middleware.NormalizePath(r.URL.Path)
		}),
	}, opts...)
	return otelhttp.NewHandler(h, operation, opts...)
}
