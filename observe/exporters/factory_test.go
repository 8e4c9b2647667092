package exporters

import (
	"context"
	"errors"
	"testing"
)

func TestNewTracingExporter(t *testing.T) {
	ctx := context.Background()

	for _, name := range []string{"stdout", "none", ""} {
		exp, err := NewTracingExporter(ctx, name)
		if err != nil || exp == nil {
			t.Errorf("NewTracingExporter(%q) = %v, %v", name, exp, err)
		}
	}

	if _, err := NewTracingExporter(ctx, "zipkin"); !errors.Is(err, ErrUnknownExporter) {
		t.Fatalf("unknown name err = %v", err)
	}
}

func TestNewTracingExporter_MissingEndpoints(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_JAEGER_ENDPOINT", "")

	if _, err := NewTracingExporter(context.Background(), "otlp"); err == nil {
		t.Fatal("otlp without endpoint must error")
	}
	if _, err := NewTracingExporter(context.Background(), "jaeger"); err == nil {
		t.Fatal("jaeger without endpoint must error")
	}
}

func TestNewTracingExporter_OTLPWithEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4317")

	exp, err := NewTracingExporter(context.Background(), "otlp")
	if err != nil || exp == nil {
		t.Fatalf("otlp with endpoint = %v, %v", exp, err)
	}
}

func TestNewMetricsReader(t *testing.T) {
	ctx := context.Background()

	for _, name := range []string{"stdout", "prometheus", "none", ""} {
		reader, err := NewMetricsReader(ctx, name)
		if err != nil || reader == nil {
			t.Errorf("NewMetricsReader(%q) = %v, %v", name, reader, err)
		}
	}

	if _, err := NewMetricsReader(ctx, "statsd"); !errors.Is(err, ErrUnknownExporter) {
		t.Fatalf("unknown name err = %v", err)
	}

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")
	if _, err := NewMetricsReader(ctx, "otlp"); err == nil {
		t.Fatal("otlp without endpoint must error")
	}
}
