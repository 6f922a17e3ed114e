// Package tracing configures OpenTelemetry tracing for the blueprint
// server. A disabled config yields a provider whose tracers are no-ops,
// so call sites never branch on whether tracing is on.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config controls how the tracer provider is built.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Exporter selects the span exporter: "stdout", "otlp" or "jaeger".
	// Empty defaults to "stdout".
	Exporter string
	Endpoint string
	Insecure bool

	// SampleRate is the trace ID ratio in [0, 1]. Zero defaults to 0.1.
	SampleRate float64
}

// Provider owns the tracer provider and its exporters.
type Provider struct {
	tp         *sdktrace.TracerProvider
	propagator propagation.TextMapPropagator
	shutdown   []func(context.Context) error
}

// New builds a Provider from config. When cfg.Enabled is false the
// returned Provider hands out no-op tracers and Shutdown does nothing.
func New(cfg Config) (*Provider, error) {
	p := &Provider{
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}

	if !cfg.Enabled {
		return p, nil
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("create trace resource: %w", err)
	}

	exporter, err := p.newExporter(cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", exporterName(cfg), err)
	}

	rate := cfg.SampleRate
	if rate == 0 {
		rate = 0.1
	}

	p.tp = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)),
	)

	return p, nil
}

func newResource(cfg Config) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	), nil
}

func exporterName(cfg Config) string {
	if cfg.Exporter == "" {
		return "stdout"
	}
	return cfg.Exporter
}

func (p *Provider) newExporter(cfg Config) (sdktrace.SpanExporter, error) {
	switch exporterName(cfg) {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		p.shutdown = append(p.shutdown, exporter.Shutdown)
		return exporter, nil

	case "otlp":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("otlp endpoint is required")
		}
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(context.Background(), opts...)
		if err != nil {
			return nil, err
		}
		p.shutdown = append(p.shutdown, exporter.Shutdown)
		return exporter, nil

	case "jaeger":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("jaeger collector endpoint is required")
		}
		exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Endpoint)))
		if err != nil {
			return nil, err
		}
		p.shutdown = append(p.shutdown, exporter.Shutdown)
		return exporter, nil

	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.Exporter)
	}
}

// Tracer returns a tracer scoped to the given instrumentation name.
func (p *Provider) Tracer(name string) oteltrace.Tracer {
	if p.tp == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return p.tp.Tracer(name)
}

// Propagator returns the composite text map propagator used for
// inbound and outbound context propagation.
func (p *Provider) Propagator() propagation.TextMapPropagator {
	return p.propagator
}

// SetGlobal installs this provider as the process-wide default.
func (p *Provider) SetGlobal() {
	if p.tp != nil {
		otel.SetTracerProvider(p.tp)
	}
	otel.SetTextMapPropagator(p.propagator)
}

// Shutdown flushes pending spans and releases exporter resources.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}

	var errs []error
	if err := p.tp.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, fn := range p.shutdown {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("tracing shutdown: %v", errs)
	}
	return nil
}
