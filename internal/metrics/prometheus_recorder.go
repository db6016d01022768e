package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "promptkit"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	buildDuration  *prom.HistogramVec
	buildResults   *prom.CounterVec
	artifactBytes  *prom.GaugeVec
	artifactTokens *prom.GaugeVec
	checkDuration  prom.Histogram
	checkResults   *prom.CounterVec
	checkRetries   prom.Counter
	ledgerWrites   *prom.CounterVec
	registry       *prom.Registry
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg, or on a
// fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of a single variant/mode assembly",
			Buckets:   prom.DefBuckets,
		}, []string{"variant", "mode"}),
		buildResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_results_total",
			Help:      "Variant/mode build results by outcome",
		}, []string{"variant", "mode", "result"}),
		artifactBytes: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_size_bytes",
			Help:      "Size of the last assembled artifact",
		}, []string{"variant", "mode"}),
		artifactTokens: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_estimated_tokens",
			Help:      "Estimated token count of the last assembled artifact",
		}, []string{"variant", "mode"}),
		checkDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "reference_check_duration_seconds",
			Help:      "Duration of individual reference URL checks",
			Buckets:   prom.DefBuckets,
		}),
		checkResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reference_checks_total",
			Help:      "Reference URL checks by result",
		}, []string{"result"}),
		checkRetries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reference_check_retries_total",
			Help:      "Retries scheduled after transient failures",
		}),
		ledgerWrites: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_writes_total",
			Help:      "Failure ledger writes by result",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.buildDuration, pr.buildResults, pr.artifactBytes, pr.artifactTokens,
		pr.checkDuration, pr.checkResults, pr.checkRetries, pr.ledgerWrites)
	return pr
}

// Registry returns the registry the collectors are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

func (p *PrometheusRecorder) ObserveBuildDuration(variant, mode string, d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.WithLabelValues(variant, mode).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildResult(variant, mode string, result ResultLabel) {
	if p == nil {
		return
	}
	p.buildResults.WithLabelValues(variant, mode, string(result)).Inc()
}

func (p *PrometheusRecorder) SetArtifactSize(variant, mode string, sizeBytes, estimatedTokens int) {
	if p == nil {
		return
	}
	p.artifactBytes.WithLabelValues(variant, mode).Set(float64(sizeBytes))
	p.artifactTokens.WithLabelValues(variant, mode).Set(float64(estimatedTokens))
}

func (p *PrometheusRecorder) ObserveCheckDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.checkDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCheckResult(result CheckLabel) {
	if p == nil {
		return
	}
	p.checkResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncCheckRetry() {
	if p == nil {
		return
	}
	p.checkRetries.Inc()
}

func (p *PrometheusRecorder) IncLedgerWrite(success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.ledgerWrites.WithLabelValues(res).Inc()
}
