package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/promptkit/internal/assemble"
	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
	"git.home.luguber.info/inful/promptkit/internal/logfields"
	"git.home.luguber.info/inful/promptkit/internal/metrics"
	"git.home.luguber.info/inful/promptkit/internal/watch"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory (overrides output.directory)"`
	Watch  bool   `short:"w" help:"Rebuild when documents or the configuration change"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	recorder, flush := newRecorder(root)
	defer flush()

	ctx := g.context()
	if !b.Watch {
		return RunBuild(ctx, g.out(), root, b.Output, recorder)
	}

	p, err := loadProject(root)
	if err != nil {
		return err
	}
	if err := RunBuild(ctx, g.out(), root, b.Output, recorder); err != nil {
		slog.Warn("Initial build failed; waiting for changes", logfields.Error(err))
	}
	w, err := watch.New(p.docsRoot(), p.configPath, func(ctx context.Context) error {
		err := RunBuild(ctx, g.out(), root, b.Output, recorder)
		flush()
		return err
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to start watcher").Build()
	}
	fmt.Fprintln(g.out(), "Watching for changes (Ctrl+C to stop)")
	return w.Run(ctx)
}

// RunBuild loads the project, assembles every variant and mode, and prints one
// line per artifact. It returns an error when any variant failed.
func RunBuild(ctx context.Context, out io.Writer, root *CLI, outputOverride string, recorder metrics.Recorder) error {
	p, err := loadProject(root)
	if err != nil {
		return err
	}
	store, err := p.openStore()
	if err != nil {
		return err
	}

	outputDir := p.outputDir(outputOverride)
	builder := assemble.NewBuilder(p.cfg, store, p.resolver(),
		assemble.WithRecorder(recorder),
		assemble.WithOutputDir(outputDir))

	slog.Info("Starting prompt build", logfields.Path(outputDir), logfields.Count(store.Len()))
	report, err := builder.Build(ctx)
	if report != nil {
		printBuildReport(out, report, outputDir)
	}
	if err != nil {
		return err
	}

	failed := report.Failed()
	if len(failed) == 0 {
		return nil
	}
	first := failed[0].Err
	return errors.WrapError(first, errors.GetCategory(first),
		fmt.Sprintf("%d of %d builds failed", len(failed), len(report.Outcomes))).
		WithContext("variant", failed[0].Spec.Name).
		WithContext("mode", string(failed[0].Spec.Mode)).
		Build()
}

func printBuildReport(out io.Writer, report *assemble.Report, outputDir string) {
	for _, o := range report.Outcomes {
		name := o.Spec.Name + "/" + string(o.Spec.Mode)
		if o.Err != nil {
			fmt.Fprintf(out, "✗ %-24s %v\n", name, o.Err)
			continue
		}
		file := o.File
		if rel, err := filepath.Rel(outputDir, o.File); err == nil {
			file = rel
		}
		fmt.Fprintf(out, "✓ %-24s %s (%d lines, %d bytes, ~%d tokens)\n", name, file,
			o.Result.Lines, o.Result.SizeBytes, o.Result.EstimatedTokens)
	}
	if report.ManifestPath != "" {
		fmt.Fprintf(out, "Manifest: %s\n", report.ManifestPath)
	}
}
