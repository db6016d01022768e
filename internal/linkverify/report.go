package linkverify

import (
	"sort"
	"time"

	"git.home.luguber.info/inful/promptkit/internal/ledger"
	"git.home.luguber.info/inful/promptkit/internal/refextract"
)

// RecordResult pairs a reference record with the outcome of its URL.
type RecordResult struct {
	Record  refextract.Record `json:"record"`
	Outcome ledger.Outcome    `json:"outcome"`
	// Fresh is set when the outcome was reused from the ledger without a check.
	Fresh bool `json:"fresh,omitempty"`
}

// Failed reports whether the record ended the run unresolved.
func (r RecordResult) Failed() bool { return r.Outcome.Status.Failed() }

// URLFailure groups every record that points at one failing URL.
type URLFailure struct {
	URL           string        `json:"url"`
	Status        ledger.Status `json:"status"`
	HTTPStatus    int           `json:"http_status,omitempty"`
	Error         string        `json:"error,omitempty"`
	RetryCount    int           `json:"retry_count"`
	LastCheckedAt time.Time     `json:"last_checked_at"`
	Records       int           `json:"records"`
	Sources       []string      `json:"sources"`
}

// Report is the result of one validator run.
type Report struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Results    []RecordResult `json:"results"`
	// Checked counts URLs that went to the network; Attempts counts requests including retries.
	Checked  int `json:"checked"`
	Attempts int `json:"attempts"`
	Fresh    int `json:"fresh"`
	// DeadlineExceeded is set when the run stopped before every URL reached a terminal status.
	DeadlineExceeded bool `json:"deadline_exceeded,omitempty"`
}

// OK is true when no record is Invalid or TransientError.
func (r *Report) OK() bool {
	for _, res := range r.Results {
		if res.Failed() {
			return false
		}
	}
	return true
}

// FailedRecords counts records that ended unresolved.
func (r *Report) FailedRecords() int {
	n := 0
	for _, res := range r.Results {
		if res.Failed() {
			n++
		}
	}
	return n
}

// Failures groups failed records by URL, ordered by URL.
func (r *Report) Failures() []URLFailure {
	byURL := make(map[string]*URLFailure)
	for _, res := range r.Results {
		if !res.Failed() {
			continue
		}
		f, ok := byURL[res.Outcome.URL]
		if !ok {
			o := res.Outcome
			f = &URLFailure{
				URL:           o.URL,
				Status:        o.Status,
				HTTPStatus:    o.HTTPStatus,
				Error:         o.Error,
				RetryCount:    o.RetryCount,
				LastCheckedAt: o.LastCheckedAt,
			}
			byURL[o.URL] = f
		}
		f.Records++
		f.Sources = appendUnique(f.Sources, res.Record.SourceFile)
	}

	out := make([]URLFailure, 0, len(byURL))
	for _, f := range byURL {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
