package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records cache activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordRequest records an intercepted request: the strategy it was
	// routed to, the source that answered it, and the total duration.
	RecordRequest(ctx context.Context, strategy, source string, duration time.Duration)

	// RecordPrecache records the outcome of a pre-cache batch.
	RecordPrecache(ctx context.Context, stored, failed int)

	// RecordUpdateCheck records an update-check invocation.
	RecordUpdateCheck(ctx context.Context, updated bool, duration time.Duration, err error)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter           metric.Meter
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	precacheStored  metric.Int64Counter
	precacheFailed  metric.Int64Counter
	updateCount     metric.Int64Counter
	updateErrors    metric.Int64Counter
	updateDuration  metric.Float64Histogram
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m := &metricsImpl{meter: meter}

	var err error
	if m.requestCount, err = meter.Int64Counter(
		"cache.request.total",
		metric.WithDescription("Total intercepted requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}

	if m.requestDuration, err = meter.Float64Histogram(
		"cache.request.duration_ms",
		metric.WithDescription("Request handling duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.precacheStored, err = meter.Int64Counter(
		"cache.precache.stored",
		metric.WithDescription("Resources stored by pre-cache batches"),
		metric.WithUnit("{resource}"),
	); err != nil {
		return nil, err
	}

	if m.precacheFailed, err = meter.Int64Counter(
		"cache.precache.failed",
		metric.WithDescription("Resources skipped by pre-cache batches"),
		metric.WithUnit("{resource}"),
	); err != nil {
		return nil, err
	}

	if m.updateCount, err = meter.Int64Counter(
		"cache.update.total",
		metric.WithDescription("Update-check invocations"),
		metric.WithUnit("{check}"),
	); err != nil {
		return nil, err
	}

	if m.updateErrors, err = meter.Int64Counter(
		"cache.update.errors",
		metric.WithDescription("Update-check failures"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if m.updateDuration, err = meter.Float64Histogram(
		"cache.update.duration_ms",
		metric.WithDescription("Update-check duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRequest records metrics for an intercepted request.
func (m *metricsImpl) RecordRequest(ctx context.Context, strategy, source string, duration time.Duration) {
	opt := metric.WithAttributes(
		attribute.String("cache.strategy", strategy),
		attribute.String("cache.source", source),
	)
	m.requestCount.Add(ctx, 1, opt)
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordPrecache records the outcome of a pre-cache batch.
func (m *metricsImpl) RecordPrecache(ctx context.Context, stored, failed int) {
	if stored > 0 {
		m.precacheStored.Add(ctx, int64(stored))
	}
	if failed > 0 {
		m.precacheFailed.Add(ctx, int64(failed))
	}
}

// RecordUpdateCheck records an update-check invocation.
func (m *metricsImpl) RecordUpdateCheck(ctx context.Context, updated bool, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.Bool("cache.updated", updated))
	m.updateCount.Add(ctx, 1, opt)
	if err != nil {
		m.updateErrors.Add(ctx, 1)
	}
	m.updateDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

// NopMetrics returns a Metrics implementation that does nothing.
func NopMetrics() Metrics { return &noopMetrics{} }

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordRequest(context.Context, string, string, time.Duration) {}
func (m *noopMetrics) RecordPrecache(context.Context, int, int) {}
func (m *noopMetrics) RecordUpdateCheck(context.Context, bool, time.Duration, error) {}

// Ensure implementations satisfy Metrics
var (
	_ Metrics = (*metricsImpl)(nil)
	_ Metrics = (*noopMetrics)(nil)
)
