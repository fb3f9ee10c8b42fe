package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docpipe"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	fileResults   *prom.CounterVec
	buildOutcome  *prom.CounterVec
	snippets      *prom.CounterVec
	unresolved    *prom.CounterVec
	retries       *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		fileResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "file_results_total",
			Help:      "Per-file build results by output variant",
		}, []string{"variant", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		snippets: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "snippets_exported_total",
			Help:      "Code snippets written for external linting",
		}, []string{"language"}),
		unresolved: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "unresolved_tokens_total",
			Help:      "Cross-reference and constant tokens left unresolved",
		}, []string{"kind"}),
		retries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retried operations after transient failures",
		}, []string{"stage"}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.fileResults, pr.buildOutcome, pr.snippets, pr.unresolved, pr.retries)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncFileResult(variant string, result ResultLabel) {
	p.fileResults.WithLabelValues(variant, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddSnippetsExported(language string, n int) {
	p.snippets.WithLabelValues(language).Add(float64(n))
}

func (p *PrometheusRecorder) IncUnresolved(kind string) {
	p.unresolved.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncRetry(stage string) {
	p.retries.WithLabelValues(stage).Inc()
}
