// Package metrics provides observability hooks for the build pipeline.
//
// The package follows the Null Object pattern: components receive a Recorder
// by injection and default to NoopRecorder, so pipeline code records metrics
// unconditionally and never checks for nil. The serve command swaps in
// PrometheusRecorder and mounts HTTPHandler at /metrics; one-shot builds keep
// the no-op and pay nothing.
package metrics
