// Package otel binds codeAuth engine metrics to an OpenTelemetry Meter.
//
// [NewExporter] registers one Int64ObservableCounter per counter and one
// Int64ObservableGauge per histogram bucket, all fed by a single callback
// that snapshots the engine. The caller owns the MeterProvider.
package otel
