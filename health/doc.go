// Package health reports the cache daemon's operational state.
//
// A Checker probes one component and returns a Result with a Status of
// Healthy, Degraded, or Unhealthy. The Aggregator fans out over the
// registered checkers and folds their results into an overall status.
//
// Two domain checkers are provided: StoreChecker verifies the resource
// store answers queries, and UpdateRecencyChecker degrades when the
// last successful update check is older than a configured age.
//
//	agg := health.NewAggregator()
//	agg.Register("store", health.NewStoreChecker(st))
//	agg.Register("updates", health.NewUpdateRecencyChecker(w.LastCheck, time.Hour))
//	health.Mount(router, agg)
//
// Mount exposes /healthz (liveness), /readyz (readiness) and /health
// (detailed JSON).
package health
