package observe

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

type recordingMetrics struct {
	requests int
	updates  int
}

func (m *recordingMetrics) RecordRequest(context.Context, string, string, time.Duration) {
	m.requests++
}
func (m *recordingMetrics) RecordPrecache(context.Context, int, int) {}
func (m *recordingMetrics) RecordUpdateCheck(context.Context, bool, time.Duration, error) {
	m.updates++
}

func TestMiddleware_Run(t *testing.T) {
	var buf bytes.Buffer
	mw := NewMiddleware(NewNoopTracer(), NopMetrics(), NewLoggerWithWriter("debug", &buf))

	var ran bool
	err := mw.Run(context.Background(), WorkerMeta{Op: "install"}, func(context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !ran {
		t.Error("operation did not run")
	}
	if buf.Len() == 0 {
		t.Error("expected completion log")
	}
}

func TestMiddleware_Run_PropagatesError(t *testing.T) {
	mw := NopMiddleware()

	wantErr := errors.New("boom")
	err := mw.Run(context.Background(), WorkerMeta{Op: "update-check"}, func(context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Run = %v, want %v", err, wantErr)
	}
}

func TestMiddleware_Run_RequiresOp(t *testing.T) {
	mw := NopMiddleware()

	err := mw.Run(context.Background(), WorkerMeta{}, func(context.Context) error { return nil })
	if !errors.Is(err, ErrMissingOp) {
		t.Errorf("Run = %v, want ErrMissingOp", err)
	}
}

func TestMiddlewareFromObserver(t *testing.T) {
	if _, err := MiddlewareFromObserver(nil); !errors.Is(err, ErrNilObserver) {
		t.Errorf("nil observer error = %v", err)
	}

	obs, err := NewObserver(context.Background(), Config{ServiceName: "offlinecache"})
	if err != nil {
		t.Fatal(err)
	}
	defer obs.Shutdown(context.Background())

	mw, err := MiddlewareFromObserver(obs)
	if err != nil {
		t.Fatalf("MiddlewareFromObserver: %v", err)
	}
	if mw.Logger() == nil || mw.Metrics() == nil {
		t.Error("middleware components missing")
	}
}

// Compile check for the Metrics contract.
var _ Metrics = (*recordingMetrics)(nil)
