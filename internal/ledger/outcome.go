// Package ledger persists per-URL validation outcomes across validator runs.
//
// The ledger is keyed by target URL. Writing an outcome for a URL that is
// already present replaces the previous record, so a store never holds two
// records for the same URL.
package ledger

import (
	"context"
	"time"
)

// Status is the lifecycle state of a URL check.
type Status string

const (
	StatusUnchecked Status = "unchecked"
	StatusValid     Status = "valid"
	StatusInvalid   Status = "invalid"
	StatusTransient Status = "transient_error"
)

// Failed reports whether the status counts as an unresolved failure.
func (s Status) Failed() bool {
	return s == StatusInvalid || s == StatusTransient
}

// Outcome is the persisted result of checking one URL.
type Outcome struct {
	URL           string    `json:"url"`
	Status        Status    `json:"status"`
	HTTPStatus    int       `json:"http_status,omitempty"`
	Error         string    `json:"error,omitempty"`
	LastCheckedAt time.Time `json:"last_checked_at"`
	RetryCount    int       `json:"retry_count"`
	FirstFailedAt time.Time `json:"first_failed_at,omitzero"`
}

// Fresh reports whether o is a Valid outcome checked within window of now.
func (o *Outcome) Fresh(now time.Time, window time.Duration) bool {
	if o == nil || o.Status != StatusValid || window <= 0 {
		return false
	}
	return now.Sub(o.LastCheckedAt) < window
}

// Merge folds the outcome of a run into the previous ledger record.
// A valid result clears the failure history; a failure adds the run's failed
// attempts to the stored retry count and keeps the first failure time.
func Merge(prev *Outcome, run Outcome) Outcome {
	merged := run
	if !run.Status.Failed() {
		merged.RetryCount = 0
		merged.FirstFailedAt = time.Time{}
		return merged
	}
	if merged.RetryCount < 1 {
		merged.RetryCount = 1
	}
	if merged.FirstFailedAt.IsZero() {
		merged.FirstFailedAt = run.LastCheckedAt
	}
	if prev != nil && prev.Status.Failed() {
		merged.RetryCount += prev.RetryCount
		if !prev.FirstFailedAt.IsZero() {
			merged.FirstFailedAt = prev.FirstFailedAt
		}
	}
	return merged
}

// Run summarizes one validator run.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Checked    int       `json:"checked"`
	Failed     int       `json:"failed"`
}

// Store defines the interface for persisting validation outcomes.
type Store interface {
	// Get returns the outcome for url, or nil when the URL has never been recorded.
	Get(ctx context.Context, url string) (*Outcome, error)

	// Upsert inserts or replaces the outcome for o.URL.
	Upsert(ctx context.Context, o Outcome) error

	// List returns outcomes ordered by URL, restricted to statuses when any are given.
	List(ctx context.Context, statuses ...Status) ([]Outcome, error)

	// Prune deletes Valid outcomes last checked before olderThan and returns how many were removed.
	Prune(ctx context.Context, olderThan time.Time) (int, error)

	// RecordRun appends a run summary.
	RecordRun(ctx context.Context, run Run) error

	// Runs returns recorded runs, oldest first.
	Runs(ctx context.Context) ([]Run, error)

	// Close closes the store and releases resources.
	Close() error
}

// normalize truncates timestamps to the precision every store keeps.
func normalize(o Outcome) Outcome {
	o.LastCheckedAt = truncate(o.LastCheckedAt)
	o.FirstFailedAt = truncate(o.FirstFailedAt)
	return o
}

func truncate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Millisecond)
}
