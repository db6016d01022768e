package metrics

import (
	"time"
)

type testRecorder struct {
	builds   map[string]int
	results  map[ResultLabel]int
	checks   map[CheckLabel]int
	retries  int
	writes   int
	failures int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{builds: map[string]int{}, results: map[ResultLabel]int{}, checks: map[CheckLabel]int{}}
}

func (t *testRecorder) ObserveBuildDuration(variant, mode string, _ time.Duration) {
	t.builds[variant+"/"+mode]++
}
func (t *testRecorder) IncBuildResult(_, _ string, r ResultLabel) { t.results[r]++ }
func (t *testRecorder) SetArtifactSize(string, string, int, int)  {}
func (t *testRecorder) ObserveCheckDuration(time.Duration)        {}
func (t *testRecorder) IncCheckResult(r CheckLabel)               { t.checks[r]++ }
func (t *testRecorder) IncCheckRetry()                            { t.retries++ }
func (t *testRecorder) IncLedgerWrite(ok bool) {
	if ok {
		t.writes++
		return
	}
	t.failures++
}

var (
	_ Recorder = (*testRecorder)(nil)
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)
