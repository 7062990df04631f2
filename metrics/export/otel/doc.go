// Package otel binds quizClient counters and histograms to OpenTelemetry instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter for each counter and an
// Int64ObservableGauge per histogram bucket. A single callback reads
// [quizClient.Manager.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate session state.
package otel
