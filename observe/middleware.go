package observe

import (
	"context"
	"time"
)

// Middleware wraps cache operations with observability (tracing,
// metrics, logging).
//
// Contract:
//   - Concurrency: Run is safe for concurrent use.
//   - Context: propagates context through tracing spans.
//   - Errors: errors from the wrapped operation are recorded and
//     propagated unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware from the given components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// NopMiddleware returns a Middleware whose components all discard.
func NopMiddleware() *Middleware {
	return NewMiddleware(NewNoopTracer(), NopMetrics(), NopLogger())
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger { return m.logger }

// Metrics returns the middleware's metrics.
func (m *Middleware) Metrics() Metrics { return m.metrics }

// Run executes a cache lifecycle operation inside a span, logging its
// outcome and recording its duration.
func (m *Middleware) Run(ctx context.Context, meta WorkerMeta, fn func(context.Context) error) error {
	if meta.Op == "" {
		return ErrMissingOp
	}

	ctx, span := m.tracer.StartSpan(ctx, meta)
	start := time.Now()

	err := fn(ctx)

	duration := time.Since(start)
	m.tracer.EndSpan(span, err)

	logger := m.logger.WithWorker(meta)
	fields := []Field{
		{Key: "duration_ms", Value: float64(duration.Milliseconds())},
	}
	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err.Error()})
		logger.Error(ctx, meta.Op+" failed", fields...)
	} else {
		logger.Debug(ctx, meta.Op+" completed", fields...)
	}

	return err
}
