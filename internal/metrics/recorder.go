package metrics

import "time"

// ResultLabel enumerates build result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// CheckLabel enumerates reference check results.
type CheckLabel string

const (
	CheckValid     CheckLabel = "valid"
	CheckInvalid   CheckLabel = "invalid"
	CheckTransient CheckLabel = "transient"
	CheckSkipped   CheckLabel = "skipped"
)

// Recorder defines observability hooks for builds and reference checks.
type Recorder interface {
	ObserveBuildDuration(variant, mode string, d time.Duration)
	IncBuildResult(variant, mode string, result ResultLabel)
	SetArtifactSize(variant, mode string, sizeBytes, estimatedTokens int)
	ObserveCheckDuration(d time.Duration)
	IncCheckResult(result CheckLabel)
	IncCheckRetry()
	IncLedgerWrite(success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(string, string, time.Duration) {}
func (NoopRecorder) IncBuildResult(string, string, ResultLabel)         {}
func (NoopRecorder) SetArtifactSize(string, string, int, int)           {}
func (NoopRecorder) ObserveCheckDuration(time.Duration)                 {}
func (NoopRecorder) IncCheckResult(CheckLabel)                          {}
func (NoopRecorder) IncCheckRetry()                                     {}
func (NoopRecorder) IncLedgerWrite(bool)                                {}
