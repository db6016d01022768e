package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
	"git.home.luguber.info/inful/promptkit/internal/ledger"
	"git.home.luguber.info/inful/promptkit/internal/linkverify"
	"git.home.luguber.info/inful/promptkit/internal/logfields"
	"git.home.luguber.info/inful/promptkit/internal/metrics"
	"git.home.luguber.info/inful/promptkit/internal/refextract"
	"git.home.luguber.info/inful/promptkit/internal/schedule"
)

// CheckReferencesCmd implements the 'check-references' command.
type CheckReferencesCmd struct {
	CheckURLs   bool          `name:"check-urls" help:"Verify every extracted URL over HTTP"`
	RetryFailed bool          `name:"retry-failed" help:"Only re-check URLs the ledger records as failed (implies --check-urls)"`
	Force       bool          `help:"Ignore the freshness window and re-check every URL"`
	Schedule    time.Duration `help:"Repeat the check at this interval until interrupted (e.g. 6h)"`
	Format      string        `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
}

// checkOutput is the JSON document printed with --format json.
type checkOutput struct {
	Tables   int                     `json:"tables"`
	Records  int                     `json:"records"`
	Issues   []refextract.Issue      `json:"issues"`
	Report   *linkverify.Report      `json:"report,omitempty"`
	Failures []linkverify.URLFailure `json:"failures,omitempty"`
	OK       bool                    `json:"ok"`
}

func (c *CheckReferencesCmd) Run(g *Global, root *CLI) error {
	if c.RetryFailed {
		c.CheckURLs = true
	}
	ctx := g.context()
	if c.Schedule <= 0 {
		return c.runOnce(ctx, g.out(), root)
	}

	s, err := schedule.New()
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to create scheduler").Build()
	}
	if _, err := s.Every(ctx, "check-references", c.Schedule, func(ctx context.Context) {
		if err := c.runOnce(ctx, g.out(), root); err != nil {
			slog.Warn("Scheduled reference check did not pass", logfields.Error(err))
		}
	}); err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "invalid --schedule interval").Build()
	}
	fmt.Fprintf(g.out(), "Checking references every %s (Ctrl+C to stop)\n", c.Schedule)
	return s.Run(ctx)
}

func (c *CheckReferencesCmd) runOnce(ctx context.Context, out io.Writer, root *CLI) error {
	recorder, flush := newRecorder(root)
	defer flush()

	p, err := loadProject(root)
	if err != nil {
		return err
	}
	store, err := p.openStore()
	if err != nil {
		return err
	}
	extracted := refextract.Extract(store)
	for _, issue := range extracted.Issues {
		slog.Warn("Reference table issue", logfields.File(issue.File), slog.Int("line", issue.Line), slog.String("issue", issue.Message))
	}

	var (
		report *linkverify.Report
		runErr error
	)
	if c.CheckURLs {
		report, runErr = c.verify(ctx, p, extracted.Records, recorder)
		if report == nil && runErr != nil {
			return runErr
		}
	}

	result := checkOutput{
		Tables:  extracted.Tables,
		Records: len(extracted.Records),
		Issues:  extracted.Issues,
		Report:  report,
		OK:      len(extracted.Issues) == 0 && (report == nil || report.OK()),
	}
	if report != nil {
		result.Failures = report.Failures()
	}
	if c.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return errors.WrapError(err, errors.CategoryInternal, "failed to encode report").Build()
		}
	} else {
		printCheckText(out, result)
	}

	switch {
	case runErr != nil:
		return runErr
	case len(extracted.Issues) > 0:
		return errors.ValidationError("reference tables have structural issues").
			WithContext("issues", len(extracted.Issues)).Build()
	case report != nil && !report.OK():
		return errors.ReferencesError("unresolved reference failures").
			WithContext("urls", len(result.Failures)).
			WithContext("records", report.FailedRecords()).Build()
	}
	return nil
}

func (c *CheckReferencesCmd) verify(ctx context.Context, p *project, records []refextract.Record, recorder metrics.Recorder) (*linkverify.Report, error) {
	store, err := openLedger(p)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close ledger", logfields.Error(err))
		}
	}()

	v, err := linkverify.New(p.cfg, store, linkverify.WithRecorder(recorder))
	if err != nil {
		return nil, err
	}
	return v.Run(ctx, records, linkverify.RunOptions{Force: c.Force, RetryFailedOnly: c.RetryFailed})
}

// openLedger opens the SQLite ledger and, when NATS is configured, mirrors it.
// An unreachable NATS server only disables the mirror.
func openLedger(p *project) (ledger.Store, error) {
	path := p.path(p.cfg.Validation.LedgerPath)
	sqlite, err := ledger.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("Ledger opened", logfields.Path(path))
	if p.cfg.Validation.NATS.URL == "" {
		return sqlite, nil
	}
	mirror, err := ledger.NewNATSMirror(sqlite, p.cfg.Validation.NATS)
	if err != nil {
		slog.Warn("NATS mirror unavailable; using local ledger only",
			logfields.URL(p.cfg.Validation.NATS.URL), logfields.Error(err))
		return sqlite, nil
	}
	return mirror, nil
}

func printCheckText(out io.Writer, r checkOutput) {
	fmt.Fprintf(out, "Reference tables: %d, records: %d\n", r.Tables, r.Records)
	if len(r.Issues) > 0 {
		fmt.Fprintf(out, "Structural issues (%d):\n", len(r.Issues))
		for _, issue := range r.Issues {
			fmt.Fprintf(out, "  %s\n", issue)
		}
	}
	if r.Report != nil {
		rep := r.Report
		fmt.Fprintf(out, "URLs checked: %d (%d requests, %d fresh from ledger)\n", rep.Checked, rep.Attempts, rep.Fresh)
		if rep.DeadlineExceeded {
			fmt.Fprintln(out, "Run deadline exceeded; unfinished URLs are reported as transient errors")
		}
		if len(r.Failures) > 0 {
			fmt.Fprintf(out, "Unresolved URLs (%d):\n", len(r.Failures))
			for _, f := range r.Failures {
				fmt.Fprintf(out, "  ✗ %s [%s] %s\n", f.URL, f.Status, f.Error)
				fmt.Fprintf(out, "    records: %d, retries: %d, last checked: %s\n",
					f.Records, f.RetryCount, f.LastCheckedAt.Format(time.RFC3339))
				for _, src := range f.Sources {
					fmt.Fprintf(out, "    in %s\n", src)
				}
			}
		}
	}
	if r.OK {
		fmt.Fprintln(out, "✓ All references passed")
	}
}
