package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	issues        *prom.CounterVec
	pagesRendered prom.Counter
	cacheHits     prom.Counter
}

// NewPrometheusRecorder constructs and registers the build metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "elyse",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "elyse",
			Name:      "build_duration_seconds",
			Help:      "Total build pass duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "elyse",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "elyse",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		issues: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "elyse",
			Name:      "build_issues_total",
			Help:      "Structured build issues by code, stage and severity",
		}, []string{"code", "stage", "severity"}),
		pagesRendered: prom.NewCounter(prom.CounterOpts{
			Namespace: "elyse",
			Name:      "pages_rendered_total",
			Help:      "Markdown pages rendered and written",
		}),
		cacheHits: prom.NewCounter(prom.CounterOpts{
			Namespace: "elyse",
			Name:      "render_cache_hits_total",
			Help:      "Render passes satisfied from the fragment cache",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome, pr.issues, pr.pagesRendered, pr.cacheHits)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncIssue(code, stage, severity string) {
	if p == nil || p.issues == nil {
		return
	}
	p.issues.WithLabelValues(code, stage, severity).Inc()
}

func (p *PrometheusRecorder) AddPagesRendered(n int) {
	if p == nil || p.pagesRendered == nil || n <= 0 {
		return
	}
	p.pagesRendered.Add(float64(n))
}

func (p *PrometheusRecorder) AddCacheHits(n int) {
	if p == nil || p.cacheHits == nil || n <= 0 {
		return
	}
	p.cacheHits.Add(float64(n))
}

// HTTPHandler returns an http.Handler serving the registry in the Prometheus
// exposition format. The preview server mounts it at /metrics.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
