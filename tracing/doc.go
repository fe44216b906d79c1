// Package tracing is a thin wrapper around OpenTelemetry so the rest of the
// code base can start and finish spans without importing the upstream
// packages directly. Applications that do not need tracing simply never call
// Init and all spans become no-ops.
package tracing
