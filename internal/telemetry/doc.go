// Package telemetry configures OpenTelemetry tracing for the media streamer.
//
// Tracing is off unless OTEL_EXPORTER_OTLP_ENDPOINT is set, in which case
// spans are exported over OTLP/HTTP with a parent-based ratio sampler
// (OTEL_TRACE_SAMPLE_RATE, default 0.1).
package telemetry
