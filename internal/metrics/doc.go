// Package metrics provides build metrics for docpipe.
//
// Components receive a Recorder and default to NoopRecorder, so metrics cost
// nothing unless a PrometheusRecorder is injected:
//
//	reg := prometheus.NewRegistry()
//	svc := build.NewService(cfg, pre, build.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//	http.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
