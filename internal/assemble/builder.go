package assemble

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/promptkit/internal/config"
	"git.home.luguber.info/inful/promptkit/internal/docstore"
	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
	"git.home.luguber.info/inful/promptkit/internal/links"
	"git.home.luguber.info/inful/promptkit/internal/logfields"
	"git.home.luguber.info/inful/promptkit/internal/manifest"
	"git.home.luguber.info/inful/promptkit/internal/metrics"
	"git.home.luguber.info/inful/promptkit/internal/planner"
)

// Outcome is the result of building one variant and mode. Exactly one of Result
// and Err is set.
type Outcome struct {
	Spec     config.VariantSpec
	Result   *Result
	File     string
	Err      error
	Duration time.Duration
}

// Report summarizes a build across all variants and modes.
type Report struct {
	Outcomes     []Outcome
	Manifest     *manifest.BuildManifest
	ManifestPath string
}

// Failed returns the outcomes that did not produce an artifact.
func (r *Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// OK reports whether every variant and mode was built.
func (r *Report) OK() bool { return len(r.Failed()) == 0 }

// Builder runs the planner and assembler for every variant and mode of a config.
type Builder struct {
	cfg       *config.Config
	store     *docstore.Store
	resolver  *links.Resolver
	outputDir string
	recorder  metrics.Recorder
	now       func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithOutputDir overrides the configured output directory.
func WithOutputDir(dir string) Option {
	return func(b *Builder) { b.outputDir = dir }
}

// NewBuilder creates a Builder over a loaded store.
func NewBuilder(cfg *config.Config, store *docstore.Store, resolver *links.Resolver, opts ...Option) *Builder {
	b := &Builder{
		cfg:       cfg,
		store:     store,
		resolver:  resolver,
		outputDir: cfg.Output.Directory,
		recorder:  metrics.NoopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type plannedSpec struct {
	spec    config.VariantSpec
	actions []planner.Action
	err     error
}

// Build plans every variant and mode, then assembles and writes them in parallel.
// Configuration errors abort the build before anything is written. Missing
// documents and assembly failures only fail the affected variant.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	started := b.now()
	if err := config.CheckCorpus(b.cfg, b.store); err != nil {
		return nil, err
	}

	specs := b.cfg.VariantSpecs()
	planned := make([]plannedSpec, len(specs))
	for i, spec := range specs {
		actions, err := planner.Plan(b.cfg, b.store, spec)
		if errors.HasCategory(err, errors.CategoryConfig) {
			return nil, err
		}
		planned[i] = plannedSpec{spec: spec, actions: actions, err: err}
		if err == nil {
			s := planner.Summarize(actions)
			slog.Debug("Planned variant", logfields.Variant(spec.Name), logfields.Mode(string(spec.Mode)),
				slog.Int("full", s.Full), slog.Int("reference", s.Reference), slog.Int("skip", s.Skip))
		}
	}

	asm := New(b.cfg, b.resolver)
	outcomes := make([]Outcome, len(planned))
	// Failures are recorded per outcome and never cancel sibling builds; only the
	// caller's context stops them.
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range planned {
		g.Go(func() error {
			outcomes[i] = b.buildOne(ctx, asm, p)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{Outcomes: outcomes}
	report.Manifest = b.manifest(started, outcomes)
	path, err := report.Manifest.Write(b.outputDir)
	if err != nil {
		return report, errors.WrapError(err, errors.CategoryFileSystem, "failed to write build manifest").
			WithContext("dir", b.outputDir).Build()
	}
	report.ManifestPath = path
	return report, nil
}

func (b *Builder) buildOne(ctx context.Context, asm *Assembler, p plannedSpec) Outcome {
	start := b.now()
	out := Outcome{Spec: p.spec, Err: p.err}
	variant, mode := p.spec.Name, string(p.spec.Mode)

	if out.Err == nil {
		out.Err = ctx.Err()
	}
	if out.Err == nil {
		out.Result, out.Err = asm.Assemble(p.spec, p.actions)
	}
	if out.Err == nil {
		out.File, out.Err = Write(b.outputDir, b.cfg.Output.Pattern, out.Result)
	}
	out.Duration = b.now().Sub(start)
	b.recorder.ObserveBuildDuration(variant, mode, out.Duration)

	if out.Err != nil {
		out.Result = nil
		result := metrics.ResultFailed
		if ctx.Err() != nil {
			result = metrics.ResultCanceled
		}
		b.recorder.IncBuildResult(variant, mode, result)
		slog.Error("Variant build failed", logfields.Variant(variant), logfields.Mode(mode), logfields.Error(out.Err))
		return out
	}

	b.recorder.IncBuildResult(variant, mode, metrics.ResultSuccess)
	b.recorder.SetArtifactSize(variant, mode, out.Result.SizeBytes, out.Result.EstimatedTokens)
	slog.Info("Variant built",
		logfields.Variant(variant),
		logfields.Mode(mode),
		logfields.Path(out.File),
		logfields.Bytes(out.Result.SizeBytes),
		logfields.Tokens(out.Result.EstimatedTokens),
		logfields.DurationMS(float64(out.Duration.Microseconds())/1000))
	return out
}

func (b *Builder) manifest(started time.Time, outcomes []Outcome) *manifest.BuildManifest {
	m := manifest.New(b.resolver.Ref, started)
	for _, o := range outcomes {
		if o.Err != nil {
			m.AddFailure(o.Spec.Name, string(o.Spec.Mode), o.Err.Error())
			continue
		}
		rel, err := filepath.Rel(b.outputDir, o.File)
		if err != nil {
			rel = o.File
		}
		m.AddArtifact(o.Result.Variant, string(o.Result.Mode), filepath.ToSlash(rel), []byte(o.Result.Content), o.Result.EstimatedTokens)
		for _, d := range o.Result.Documents {
			m.AddDocument(d.Path, d.Fingerprint)
		}
	}
	m.Finish(b.now())
	return m
}
