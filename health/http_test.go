package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("liveness = %d %q", rec.Code, rec.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		code   int
		body   string
	}{
		{"healthy", StatusHealthy, http.StatusOK, "OK"},
		{"degraded still ready", StatusDegraded, http.StatusOK, "DEGRADED"},
		{"unhealthy", StatusUnhealthy, http.StatusServiceUnavailable, "UNHEALTHY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator()
			agg.Register("c", staticChecker("c", tt.status))

			rec := httptest.NewRecorder()
			ReadinessHandler(agg)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rec.Code != tt.code || rec.Body.String() != tt.body {
				t.Fatalf("readiness = %d %q, want %d %q", rec.Code, rec.Body.String(), tt.code, tt.body)
			}
		})
	}
}

func TestDetailedHandler(t *testing.T) {
	agg := NewAggregator()
	agg.Register("ok", staticChecker("ok", StatusHealthy))
	agg.Register("broken", NewCheckerFunc("broken", func(context.Context) Result {
		return Unhealthy("backing store lost", errors.New("disk gone"))
	}))

	rec := httptest.NewRecorder()
	DetailedHandler(agg)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d", rec.Code)
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.Checks["broken"].Error != "disk gone" {
		t.Fatalf("checks = %+v", resp.Checks)
	}
	if resp.Checks["ok"].Status != "healthy" {
		t.Fatalf("checks = %+v", resp.Checks)
	}
}

func TestMount(t *testing.T) {
	agg := NewAggregator()
	agg.Register("c", staticChecker("c", StatusHealthy))

	router := chi.NewRouter()
	Mount(router, agg)

	for _, path := range []string{"/healthz", "/readyz", "/health"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s = %d", path, rec.Code)
		}
	}
}
