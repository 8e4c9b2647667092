// Package worker implements the versioned cache lifecycle and
// request-routing protocol: pre-caching at install, stale-namespace
// garbage collection at activation, per-request strategy dispatch
// (network-first and cache-first-then-refresh), update checking, and
// update notification.
//
// The worker exposes a fixed set of entry points (Install, Activate,
// HandleRequest, HandleMessage) that an external host invokes. Entry
// points may leave tracked background work behind; hosts must wait on
// Tasks before recycling the worker.
package worker
