// Package observe provides telemetry for the offline cache: an
// OpenTelemetry tracer and meter, a structured JSON logger, and a
// middleware that wraps cache operations with all three.
package observe
