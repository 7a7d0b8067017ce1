// Package telemetry provides OpenTelemetry integration for distributed
// tracing and Prometheus metrics. It enables observability for pipeline
// execution with support for:
//   - Distributed tracing with span context propagation across an
//     execution and its operations
//   - Prometheus metrics for execution and operation statistics
//   - A TelemetryObserver that drives both from pkg/observer events
package telemetry
