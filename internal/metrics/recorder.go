package metrics

import "time"

// ResultLabel enumerates per-file result categories for counters.
type ResultLabel string

const (
	ResultBuilt   ResultLabel = "built"
	ResultSkipped ResultLabel = "skipped"
	ResultFailed  ResultLabel = "failed"
)

// BuildOutcomeLabel is the final status of a build run.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// Unresolved token kinds.
const (
	UnresolvedReference = "reference"
	UnresolvedConstant  = "constant"
)

// Recorder defines observability hooks for build, snippet and download metrics.
// All methods must be safe to call concurrently.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncFileResult(variant string, result ResultLabel)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	AddSnippetsExported(language string, n int)
	IncUnresolved(kind string)
	IncRetry(stage string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncFileResult(string, ResultLabel)          {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)          {}
func (NoopRecorder) AddSnippetsExported(string, int)            {}
func (NoopRecorder) IncUnresolved(string)                       {}
func (NoopRecorder) IncRetry(string)                            {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
