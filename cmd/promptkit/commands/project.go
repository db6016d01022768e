package commands

import (
	"log/slog"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/promptkit/internal/config"
	"git.home.luguber.info/inful/promptkit/internal/docstore"
	"git.home.luguber.info/inful/promptkit/internal/gitref"
	"git.home.luguber.info/inful/promptkit/internal/links"
	"git.home.luguber.info/inful/promptkit/internal/logfields"
	"git.home.luguber.info/inful/promptkit/internal/metrics"
)

// project is a loaded configuration anchored at the project root. Relative
// paths in the configuration are resolved against root.
type project struct {
	root       string
	configPath string
	cfg        *config.Config
}

// ConfigPath resolves the --config flag against --root.
func (c *CLI) ConfigPath() string {
	if filepath.IsAbs(c.Config) {
		return c.Config
	}
	return filepath.Join(c.Root, c.Config)
}

func loadProject(root *CLI) (*project, error) {
	configPath := root.ConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	root.configureLogging(cfg)
	slog.Debug("Configuration loaded", logfields.File(configPath), slog.Int("variants", len(cfg.Variants)))
	return &project{root: root.Root, configPath: configPath, cfg: cfg}, nil
}

func (p *project) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.root, rel)
}

func (p *project) docsRoot() string { return p.path(p.cfg.DocsRoot) }

func (p *project) outputDir(override string) string {
	if override != "" {
		return override
	}
	return p.path(p.cfg.Output.Directory)
}

func (p *project) openStore() (*docstore.Store, error) {
	return docstore.Open(p.docsRoot(), p.cfg)
}

func (p *project) resolver() *links.Resolver {
	return links.New(p.cfg, gitref.Resolve(p.root, p.cfg.Links.Ref))
}

// newRecorder returns the metrics recorder for a command and a flush function
// writing the textfile snapshot when --metrics-file is set.
func newRecorder(root *CLI) (metrics.Recorder, func()) {
	if root.MetricsFile == "" {
		return metrics.NoopRecorder{}, func() {}
	}
	recorder := metrics.NewPrometheusRecorder(prom.NewRegistry())
	return recorder, func() {
		if err := metrics.WriteTextfile(root.MetricsFile, recorder.Registry()); err != nil {
			slog.Warn("Failed to write metrics textfile", logfields.File(root.MetricsFile), logfields.Error(err))
			return
		}
		slog.Debug("Metrics textfile written", logfields.File(root.MetricsFile))
	}
}
