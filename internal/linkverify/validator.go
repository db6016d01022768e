// Package linkverify checks the URLs collected from reference tables against
// live endpoints and keeps the failure ledger current.
package linkverify

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"git.home.luguber.info/inful/promptkit/internal/config"
	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
	"git.home.luguber.info/inful/promptkit/internal/ledger"
	"git.home.luguber.info/inful/promptkit/internal/logfields"
	"git.home.luguber.info/inful/promptkit/internal/metrics"
	"git.home.luguber.info/inful/promptkit/internal/refextract"
	"git.home.luguber.info/inful/promptkit/internal/retry"
)

const (
	msgDeadline = "run deadline exceeded"
	msgCanceled = "run canceled"
)

// RunOptions select which URLs a run checks.
type RunOptions struct {
	// Force checks URLs even when the ledger holds a fresh Valid outcome.
	Force bool
	// RetryFailedOnly restricts the run to URLs the ledger records as Invalid or TransientError.
	RetryFailedOnly bool
}

// Validator checks reference URLs with a bounded worker pool.
type Validator struct {
	store      ledger.Store
	checker    *checker
	policy     retry.Policy
	workers    int
	freshness  time.Duration
	pruneAge   time.Duration
	runTimeout time.Duration
	recorder   metrics.Recorder
	publisher  ledger.Publisher
	now        func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithHTTPClient replaces the HTTP client used for checks.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Validator) {
		if c != nil {
			v.checker.client = c
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(v *Validator) {
		if r != nil {
			v.recorder = r
		}
	}
}

// WithPublisher sets where broken link events go. A store that is itself a
// Publisher is used by default.
func WithPublisher(p ledger.Publisher) Option {
	return func(v *Validator) { v.publisher = p }
}

// WithPolicy overrides the retry policy derived from configuration.
func WithPolicy(p retry.Policy) Option {
	return func(v *Validator) { v.policy = p }
}

// WithClock sets the time source used for freshness and timestamps.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// New creates a Validator from the validation section of cfg.
func New(cfg *config.Config, store ledger.Store, opts ...Option) (*Validator, error) {
	if store == nil {
		return nil, errors.InternalError("validator requires a ledger store").Build()
	}
	vc := cfg.Validation

	userAgent := vc.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	var limiter *rate.Limiter
	if vc.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(vc.RateLimit), int(math.Max(1, math.Ceil(vc.RateLimit))))
	}

	v := &Validator{
		store: store,
		checker: &checker{
			client:    newHTTPClient(),
			userAgent: userAgent,
			timeout:   vc.RequestTimeoutDuration(),
			limiter:   limiter,
		},
		policy:     retry.FromConfig(vc),
		workers:    max(1, vc.Concurrency),
		freshness:  vc.FreshnessWindow(),
		pruneAge:   vc.PruneAge(),
		runTimeout: vc.RunTimeoutDuration(),
		recorder:   metrics.NoopRecorder{},
		now:        time.Now,
	}
	if p, ok := store.(ledger.Publisher); ok {
		v.publisher = p
	}
	for _, opt := range opts {
		opt(v)
	}
	if err := v.policy.Validate(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid retry policy").Build()
	}
	return v, nil
}

// Run checks every unique URL referenced by records and reports an outcome per record.
//
// A failing URL never aborts the run. The returned error is non-nil only when
// the ledger cannot be read or written; the report is still returned when
// ledger writes fail.
func (v *Validator) Run(ctx context.Context, records []refextract.Record, opts RunOptions) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), StartedAt: v.now().UTC()}
	logger := slog.With(logfields.RunID(report.RunID))

	urls := uniqueURLs(records)
	prev := make(map[string]*ledger.Outcome, len(urls))
	for _, u := range urls {
		o, err := v.store.Get(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("load ledger: %w", err)
		}
		prev[u] = o
	}

	if opts.RetryFailedOnly {
		urls = slices.DeleteFunc(urls, func(u string) bool {
			return prev[u] == nil || !prev[u].Status.Failed()
		})
		keep := make(map[string]bool, len(urls))
		for _, u := range urls {
			keep[u] = true
		}
		records = slices.DeleteFunc(slices.Clone(records), func(r refextract.Record) bool {
			return !keep[r.TargetURL]
		})
	}

	logger.Info("Reference validation started",
		slog.Int("records", len(records)),
		slog.Int("urls", len(urls)),
		slog.Bool("force", opts.Force),
		slog.Bool("retry_failed", opts.RetryFailedOnly))

	w := startWriter(ctx, v.store, prev, v.recorder, len(urls))
	outcomes := make(map[string]ledger.Outcome, len(urls))
	fresh := make(map[string]bool)
	var pending []string
	for _, u := range urls {
		if !opts.Force && prev[u].Fresh(report.StartedAt, v.freshness) {
			outcomes[u] = *prev[u]
			fresh[u] = true
			report.Fresh++
			v.recorder.IncCheckResult(metrics.CheckSkipped)
			continue
		}
		if msg := refextract.CheckURL(u); msg != "" {
			o := ledger.Outcome{URL: u, Status: ledger.StatusInvalid, Error: msg, LastCheckedAt: report.StartedAt, RetryCount: 1}
			outcomes[u] = o
			v.recorder.IncCheckResult(metrics.CheckInvalid)
			w.write(o)
			continue
		}
		pending = append(pending, u)
	}
	report.Checked = len(pending)

	checked, interrupted := v.runPool(ctx, pending, w, report)
	for u, o := range checked {
		outcomes[u] = o
	}
	report.DeadlineExceeded = interrupted

	merged, writeErr := w.close()

	report.Results = make([]RecordResult, 0, len(records))
	for _, r := range records {
		report.Results = append(report.Results, RecordResult{
			Record:  r,
			Outcome: outcomes[r.TargetURL],
			Fresh:   fresh[r.TargetURL],
		})
	}
	report.FinishedAt = v.now().UTC()

	failures := report.Failures()
	for _, f := range failures {
		logger.Warn("Reference check failed",
			logfields.URL(f.URL),
			slog.String("result", string(f.Status)),
			logfields.Status(f.HTTPStatus),
			slog.String("error", f.Error),
			logfields.Count(f.Records))
	}
	v.publish(ctx, report, merged)

	if err := v.store.RecordRun(context.WithoutCancel(ctx), ledger.Run{
		ID:         report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Checked:    report.Checked,
		Failed:     len(failures),
	}); err != nil && writeErr == nil {
		writeErr = err
	}
	if v.pruneAge > 0 {
		removed, err := v.store.Prune(context.WithoutCancel(ctx), report.FinishedAt.Add(-v.pruneAge))
		if err != nil {
			logger.Warn("Failed to prune ledger", logfields.Error(err))
		} else if removed > 0 {
			logger.Debug("Pruned ledger", logfields.Count(removed))
		}
	}

	logger.Info("Reference validation finished",
		slog.Int("checked", report.Checked),
		slog.Int("attempts", report.Attempts),
		slog.Int("fresh", report.Fresh),
		slog.Int("failed_urls", len(failures)),
		logfields.DurationMS(float64(report.FinishedAt.Sub(report.StartedAt).Microseconds())/1000))

	if writeErr != nil {
		return report, fmt.Errorf("update ledger: %w", writeErr)
	}
	return report, nil
}

type task struct {
	url      string
	failures int
}

type attempt struct {
	task       task
	httpStatus int
	err        error
	status     ledger.Status
	at         time.Time
}

// runPool checks urls with the worker pool. Transient failures with budget
// left are re-queued by timers so no worker waits out a backoff. The second
// result is true when the run stopped before every URL was terminal.
func (v *Validator) runPool(ctx context.Context, urls []string, w *writer, report *Report) (map[string]ledger.Outcome, bool) {
	results := make(map[string]ledger.Outcome, len(urls))
	if len(urls) == 0 {
		return results, false
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if v.runTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, v.runTimeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	jobs := make(chan task)
	done := make(chan attempt)
	retries := make(chan task)

	var wg sync.WaitGroup
	for range min(v.workers, len(urls)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.work(runCtx, jobs, done)
		}()
	}

	queue := make([]task, 0, len(urls))
	for _, u := range urls {
		queue = append(queue, task{url: u})
	}
	failures := make(map[string]int, len(urls))
	var timers []*time.Timer
	inflight, waiting := 0, 0
	interrupted := false

loop:
	for len(queue) > 0 || inflight > 0 || waiting > 0 {
		var send chan<- task
		var next task
		if len(queue) > 0 {
			send = jobs
			next = queue[0]
		}

		select {
		case send <- next:
			queue = queue[1:]
			inflight++

		case a := <-done:
			inflight--
			report.Attempts++
			t := a.task
			if a.status != ledger.StatusValid {
				t.failures++
			}
			failures[t.url] = t.failures
			if a.status == ledger.StatusTransient && runCtx.Err() != nil {
				interrupted = true
				break loop
			}
			if a.status == ledger.StatusTransient && v.policy.Allows(t.failures) {
				delay := v.policy.Delay(t.failures)
				slog.Debug("Retrying reference check",
					logfields.URL(t.url),
					logfields.Attempt(t.failures+1),
					logfields.Status(a.httpStatus),
					slog.Duration("delay", delay))
				v.recorder.IncCheckRetry()
				waiting++
				timers = append(timers, time.AfterFunc(delay, func() {
					select {
					case retries <- t:
					case <-runCtx.Done():
					}
				}))
				continue
			}
			o := ledger.Outcome{
				URL:           t.url,
				Status:        a.status,
				HTTPStatus:    a.httpStatus,
				Error:         describe(a.httpStatus, a.err),
				LastCheckedAt: a.at,
				RetryCount:    t.failures,
			}
			results[t.url] = o
			v.recorder.IncCheckResult(checkLabel(o.Status))
			w.write(o)

		case t := <-retries:
			waiting--
			queue = append(queue, t)

		case <-runCtx.Done():
			interrupted = true
			break loop
		}
	}

	close(jobs)
	cancel()
	for _, t := range timers {
		t.Stop()
	}
	wg.Wait()

	if interrupted {
		msg := msgDeadline
		if ctx.Err() == context.Canceled {
			msg = msgCanceled
		}
		at := v.now().UTC()
		for _, u := range urls {
			if _, ok := results[u]; ok {
				continue
			}
			o := ledger.Outcome{URL: u, Status: ledger.StatusTransient, Error: msg, LastCheckedAt: at, RetryCount: failures[u]}
			results[u] = o
			v.recorder.IncCheckResult(metrics.CheckTransient)
			w.write(o)
		}
	}
	return results, interrupted
}

func (v *Validator) work(ctx context.Context, jobs <-chan task, done chan<- attempt) {
	for t := range jobs {
		start := time.Now()
		status, err := v.checker.check(ctx, t.url)
		v.recorder.ObserveCheckDuration(time.Since(start))

		a := attempt{task: t, httpStatus: status, err: err, status: Classify(status, err), at: v.now().UTC()}
		select {
		case done <- a:
		case <-ctx.Done():
			return
		}
	}
}

func (v *Validator) publish(ctx context.Context, report *Report, merged map[string]ledger.Outcome) {
	if v.publisher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, res := range report.Results {
		if !res.Failed() {
			continue
		}
		o := res.Outcome
		event := &ledger.BrokenLinkEvent{
			URL:         o.URL,
			Status:      o.Status,
			HTTPStatus:  o.HTTPStatus,
			Error:       o.Error,
			SourceFile:  res.Record.SourceFile,
			Category:    res.Record.Category,
			Class:       res.Record.Class,
			Kind:        string(res.Record.Kind),
			Line:        res.Record.Line,
			RunID:       report.RunID,
			LastChecked: o.LastCheckedAt,
		}
		if m, ok := merged[o.URL]; ok {
			event.FailureCount = m.RetryCount
			event.FirstFailedAt = m.FirstFailedAt
		}
		if err := v.publisher.PublishBrokenLink(ctx, event); err != nil {
			slog.Error("Failed to publish broken link event",
				logfields.URL(o.URL),
				logfields.File(res.Record.SourceFile),
				logfields.Error(err))
		}
	}
}

func uniqueURLs(records []refextract.Record) []string {
	seen := make(map[string]bool, len(records))
	urls := make([]string, 0, len(records))
	for _, r := range records {
		if seen[r.TargetURL] {
			continue
		}
		seen[r.TargetURL] = true
		urls = append(urls, r.TargetURL)
	}
	return urls
}

func checkLabel(s ledger.Status) metrics.CheckLabel {
	switch s {
	case ledger.StatusValid:
		return metrics.CheckValid
	case ledger.StatusInvalid:
		return metrics.CheckInvalid
	default:
		return metrics.CheckTransient
	}
}
