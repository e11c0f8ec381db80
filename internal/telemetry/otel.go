// Package telemetry configures OpenTelemetry tracing for the API and worker.
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName is the base resource name; components append a suffix.
const ServiceName = "askdev"

// Options configures the tracer provider.
type Options struct {
	ServiceName    string
	ServiceVersion string
	// Endpoint is host:port (plain HTTP) or a full http(s):// URL.
	Endpoint string
	// SampleRatio outside (0,1) samples everything.
	SampleRatio float64
}

// InitTracer installs a global tracer provider that exports spans over OTLP/HTTP.
func InitTracer(ctx context.Context, opts Options) (*sdktrace.TracerProvider, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("otlp endpoint is required")
	}
	if opts.ServiceName == "" {
		opts.ServiceName = ServiceName
	}

	exporter, err := otlptracehttp.New(ctx, exporterOptions(opts.Endpoint)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	attrs := []resource.Option{
		resource.WithAttributes(semconv.ServiceName(opts.ServiceName)),
	}
	if opts.ServiceVersion != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(opts.ServiceVersion)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(opts.SampleRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}

func exporterOptions(endpoint string) []otlptracehttp.Option {
	if strings.Contains(endpoint, "://") {
		return []otlptracehttp.Option{otlptracehttp.WithEndpointURL(endpoint)}
	}
	return []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	}
}

func samplerFor(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// Tracer returns a named tracer from the global provider. Without InitTracer
// it is a no-op.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(ServiceName + "/" + name)
}

// Shutdown flushes and stops the tracer provider. A nil provider is a no-op.
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}
