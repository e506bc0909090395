package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	pageRender    prom.Histogram
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
	pagesRendered prom.Gauge
	linkProbe     *prom.HistogramVec
	linkResults   *prom.CounterVec
	reloadsSent   prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil registry gets a fresh private one, which keeps tests isolated.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		pageRender: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "bookbinder",
			Name:      "page_render_duration_seconds",
			Help:      "Duration of individual page renders",
			Buckets:   prom.DefBuckets,
		}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "bookbinder",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bookbinder",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		pagesRendered: prom.NewGauge(prom.GaugeOpts{
			Namespace: "bookbinder",
			Name:      "pages_rendered",
			Help:      "Pages rendered by the last build",
		}),
		linkProbe: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "bookbinder",
			Name:      "link_probe_duration_seconds",
			Help:      "Duration of external link probes",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		linkResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bookbinder",
			Name:      "link_results_total",
			Help:      "Checked links by result",
		}, []string{"result"}),
		reloadsSent: prom.NewCounter(prom.CounterOpts{
			Namespace: "bookbinder",
			Name:      "livereload_broadcasts_total",
			Help:      "Reload notifications broadcast to preview clients",
		}),
	}
	reg.MustRegister(pr.pageRender, pr.buildDuration, pr.buildOutcome, pr.pagesRendered, pr.linkProbe, pr.linkResults, pr.reloadsSent)
	return pr
}

func (p *PrometheusRecorder) ObservePageRender(d time.Duration) {
	if p == nil || p.pageRender == nil {
		return
	}
	p.pageRender.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome OutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetPagesRendered(n int) {
	if p == nil || p.pagesRendered == nil {
		return
	}
	p.pagesRendered.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveLinkProbe(d time.Duration, ok bool) {
	if p == nil || p.linkProbe == nil {
		return
	}
	p.linkProbe.WithLabelValues(resultLabel(ok)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncLinkResult(ok bool) {
	if p == nil || p.linkResults == nil {
		return
	}
	p.linkResults.WithLabelValues(resultLabel(ok)).Inc()
}

func (p *PrometheusRecorder) IncReloadBroadcast() {
	if p == nil || p.reloadsSent == nil {
		return
	}
	p.reloadsSent.Inc()
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failed"
}
