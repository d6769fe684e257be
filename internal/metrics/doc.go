// Package metrics provides build and page metrics for sitegen.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection needs no nil checks at call sites:
//
//	builder := site.NewBuilder(opts)                      // NoopRecorder
//	builder.WithRecorder(metrics.NewPrometheusRecorder(reg)) // Prometheus
//
// The daemon exposes the Prometheus registry over HTTP via HTTPHandler.
package metrics
