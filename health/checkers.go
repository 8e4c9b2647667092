package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/offlinecache/store"
)

// StoreChecker verifies the resource store answers queries.
type StoreChecker struct {
	store store.Store
}

// NewStoreChecker creates a checker over the given store.
func NewStoreChecker(st store.Store) *StoreChecker {
	return &StoreChecker{store: st}
}

func (c *StoreChecker) Name() string { return "store" }

// Check lists namespaces as a liveness probe for the backing store.
func (c *StoreChecker) Check(ctx context.Context) Result {
	names, err := c.store.Namespaces(ctx)
	if err != nil {
		return Unhealthy("store is not answering", err)
	}
	return Healthy("store reachable").WithDetails(map[string]any{
		"namespaces": len(names),
	})
}

// UpdateRecencyChecker degrades when the last successful update check
// is older than maxAge. A worker that has never completed a check is
// degraded, not unhealthy: that is the normal state right after boot.
type UpdateRecencyChecker struct {
	lastCheck func() time.Time
	maxAge    time.Duration
}

// NewUpdateRecencyChecker creates a checker over a last-check clock,
// typically Worker.LastCheck.
func NewUpdateRecencyChecker(lastCheck func() time.Time, maxAge time.Duration) *UpdateRecencyChecker {
	return &UpdateRecencyChecker{lastCheck: lastCheck, maxAge: maxAge}
}

func (c *UpdateRecencyChecker) Name() string { return "updates" }

func (c *UpdateRecencyChecker) Check(ctx context.Context) Result {
	last := c.lastCheck()
	if last.IsZero() {
		return Degraded("no completed update check yet")
	}
	age := time.Since(last)
	details := map[string]any{
		"last_check": last.UTC().Format(time.RFC3339),
		"age":        age.String(),
	}
	if age > c.maxAge {
		return Degraded(fmt.Sprintf("last update check is %s old", age.Round(time.Second))).
			WithDetails(details)
	}
	return Healthy("update checks current").WithDetails(details)
}

// Ensure implementations satisfy Checker
var (
	_ Checker = (*StoreChecker)(nil)
	_ Checker = (*UpdateRecencyChecker)(nil)
	_ Checker = (*CheckerFunc)(nil)
)
