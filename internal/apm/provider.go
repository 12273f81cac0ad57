package apm

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

// Exporter names a span exporter.
type Exporter string

const (
	ExporterZipkin  Exporter = "zipkin"
	ExporterOTLP    Exporter = "otlp"
	ExporterConsole Exporter = "console"
	ExporterNone    Exporter = "none"
)

// ParseExporter maps a config value to an Exporter. Unknown names disable tracing.
func ParseExporter(name string) Exporter {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "zipkin", "":
		return ExporterZipkin
	case "otlp", "otlp/grpc", "otlp/http":
		return ExporterOTLP
	case "console", "stdout":
		return ExporterConsole
	default:
		return ExporterNone
	}
}

// Config selects the exporter and its endpoint.
type Config struct {
	ServiceName string
	Exporter    Exporter
	Endpoint    string
	// Headers is "k1=v1,k2=v2", sent with OTLP exports.
	Headers string
	// HTTP switches OTLP from gRPC to http/protobuf.
	HTTP bool
}

// ShutdownFunc flushes and stops the exporter.
type ShutdownFunc func(context.Context) error

// Setup installs the global tracer provider and propagators.
func Setup(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	exp, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("trace exporter %s: %w", cfg.Exporter, err)
	}
	if exp == nil {
		return func(context.Context) error { return nil }, nil
	}

	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
			attribute.String("otel.exporter", string(cfg.Exporter)),
		))
	if err != nil {
		rsrc = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case ExporterZipkin:
		return zipkin.New(cfg.Endpoint)
	case ExporterConsole:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ExporterOTLP:
		headers, err := ParseHeaders(cfg.Headers)
		if err != nil {
			return nil, err
		}
		if cfg.HTTP {
			return otlptracehttp.New(ctx,
				otlptracehttp.WithEndpointURL(cfg.Endpoint),
				otlptracehttp.WithHeaders(headers))
		}
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(cfg.Endpoint),
			otlptracegrpc.WithHeaders(headers))
	default:
		return nil, nil
	}
}

// ParseHeaders parses "k1=v1,k2=v2". Empty input yields an empty map.
func ParseHeaders(raw string) (map[string]string, error) {
	headers := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return headers, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("header %q: expected key=value", pair)
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers, nil
}
