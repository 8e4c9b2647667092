package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/offlinecache/store"
)

type failingStore struct {
	store.Store
}

func (failingStore) Namespaces(context.Context) ([]store.Key, error) {
	return nil, errors.New("disk gone")
}

func TestStoreChecker(t *testing.T) {
	ctx := context.Background()

	st := store.NewMemory()
	key := store.Key{Prefix: "app", Version: "1", Role: store.RoleFundamentals}
	if err := st.EnsureNamespace(ctx, key); err != nil {
		t.Fatalf("EnsureNamespace: %v", err)
	}

	result := NewStoreChecker(st).Check(ctx)
	if result.Status != StatusHealthy {
		t.Fatalf("status = %v, want healthy", result.Status)
	}
	if got := result.Details["namespaces"]; got != 1 {
		t.Fatalf("namespaces detail = %v", got)
	}

	result = NewStoreChecker(failingStore{}).Check(ctx)
	if result.Status != StatusUnhealthy {
		t.Fatalf("status = %v, want unhealthy", result.Status)
	}
	if result.Error == nil {
		t.Fatal("unhealthy result must carry the error")
	}
}

func TestUpdateRecencyChecker(t *testing.T) {
	tests := []struct {
		name string
		last time.Time
		want Status
	}{
		{"never checked", time.Time{}, StatusDegraded},
		{"fresh", time.Now().Add(-time.Minute), StatusHealthy},
		{"stale", time.Now().Add(-2 * time.Hour), StatusDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewUpdateRecencyChecker(func() time.Time { return tt.last }, time.Hour)
			if got := c.Check(context.Background()).Status; got != tt.want {
				t.Fatalf("status = %v, want %v", got, tt.want)
			}
		})
	}
}
