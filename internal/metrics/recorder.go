package metrics

import "time"

// OutcomeLabel enumerates build outcome categories for counters.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines observability hooks for build, render, and link-check
// metrics. Implementations may forward to Prometheus, OpenTelemetry, etc.
// All methods must be safe on a nil *PrometheusRecorder so injection stays
// optional.
type Recorder interface {
	ObservePageRender(d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome OutcomeLabel)
	SetPagesRendered(n int)
	ObserveLinkProbe(d time.Duration, ok bool)
	IncLinkResult(ok bool)
	IncReloadBroadcast()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePageRender(time.Duration)      {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)   {}
func (NoopRecorder) IncBuildOutcome(OutcomeLabel)         {}
func (NoopRecorder) SetPagesRendered(int)                 {}
func (NoopRecorder) ObserveLinkProbe(time.Duration, bool) {}
func (NoopRecorder) IncLinkResult(bool)                   {}
func (NoopRecorder) IncReloadBroadcast()                  {}
