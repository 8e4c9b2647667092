// Package host runs the worker behind an HTTP server.
//
// The host intercepts inbound requests through the worker's dispatch
// and reverse-proxies everything the worker declines to an upstream
// origin. Control endpoints live under /_offline: POST /_offline/message
// accepts worker control messages, GET /_offline/events streams update
// notifications as server-sent events, GET /_offline/version reports
// the installed cache version, and the health endpoints are mounted at
// /_offline/healthz, /_offline/readyz and /_offline/health.
package host
