// Package apm configures OpenTelemetry tracing for the process.
package apm

import (
	"context"
	"strings"
	"time"

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

	"github.com/fd1az/amm-quoter/internal/logger"
)

type Provider string

const (
	ZipkinProvider   Provider = "ZIPKIN_PROVIDER"
	OTLPGRPCProvider Provider = "OTLP_GRPC_PROVIDER"
	OTLPHTTPProvider Provider = "OTLP_HTTP_PROVIDER"
	ConsoleProvider  Provider = "CONSOLE_PROVIDER"
	EmptyProvider    Provider = "EMPTY_PROVIDER"
)

// TraceProvider flushes and stops tracing on shutdown.
type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type emptyTraceProvider struct{}

func (emptyTraceProvider) Stop() error { return nil }

// TracerOptions is filled in by TracerOption functions.
type TracerOptions struct {
	serviceName string
	endpoint    string
	headers     map[string]string
	provider    Provider
	exporter    sdktrace.SpanExporter
	exporterErr error
	useEmpty    bool
}

type TracerOption func(*TracerOptions)

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) TracerOption {
	return func(o *TracerOptions) { o.serviceName = name }
}

// WithEndpoint sets the collector endpoint and optional "k=v,k2=v2" headers.
func WithEndpoint(endpoint, headers string) TracerOption {
	return func(o *TracerOptions) {
		o.endpoint = endpoint
		o.headers = ParseHeaders(headers)
	}
}

// WithProvider selects the exporter. Unknown providers fall back to no tracing.
func WithProvider(provider Provider) TracerOption {
	return func(o *TracerOptions) { o.provider = provider }
}

// ParseHeaders splits "k=v,k2=v2" collector headers.
func ParseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && k != "" {
			headers[k] = v
		}
	}
	return headers
}

func buildExporter(o *TracerOptions) {
	ctx := context.Background()

	switch o.provider {
	case ZipkinProvider:
		o.exporter, o.exporterErr = zipkin.New(o.endpoint)
	case OTLPGRPCProvider:
		o.exporter, o.exporterErr = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(o.endpoint),
			otlptracegrpc.WithHeaders(o.headers),
		)
	case OTLPHTTPProvider:
		o.exporter, o.exporterErr = otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(o.endpoint),
			otlptracehttp.WithHeaders(o.headers),
		)
	case ConsoleProvider:
		o.exporter, o.exporterErr = stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		o.useEmpty = true
	}
}

// NewTraceProvider installs a global tracer provider and propagator.
// Exporter failures are logged and tracing is disabled rather than aborting startup.
func NewTraceProvider(log logger.LoggerInterface, options ...TracerOption) TraceProvider {
	opts := &TracerOptions{provider: EmptyProvider}
	for _, opt := range options {
		opt(opts)
	}
	buildExporter(opts)

	if opts.exporterErr != nil {
		log.Error(context.Background(), "trace exporter init failed, tracing disabled",
			"provider", string(opts.provider), "error", opts.exporterErr)
		return emptyTraceProvider{}
	}
	if opts.useEmpty {
		if opts.provider != EmptyProvider {
			log.Warn(context.Background(), "unknown trace provider, tracing disabled", "provider", string(opts.provider))
		}
		return emptyTraceProvider{}
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.serviceName),
			attribute.String("otel.provider", string(opts.provider)),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(opts.exporter),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info(context.Background(), "tracing enabled", "provider", string(opts.provider), "endpoint", opts.endpoint)

	return &traceProvider{tp}
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return o.tp.Shutdown(ctx)
}
