package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/promptkit/internal/config"
)

// EnvLogLevel overrides logging.level from the configuration file.
const EnvLogLevel = "PROMPTKIT_LOG_LEVEL"

// Global carries state shared by every subcommand.
type Global struct {
	Ctx context.Context
	// Out receives user facing output. Logs always go to stderr.
	Out io.Writer
}

func (g *Global) context() context.Context {
	if g == nil || g.Ctx == nil {
		return context.Background()
	}
	return g.Ctx
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Root        string           `help:"Project root directory" default:"." env:"PROMPTKIT_ROOT"`
	Config      string           `short:"c" help:"Configuration file path, relative to --root" default:"docs/prompt_config.yaml" env:"PROMPTKIT_CONFIG"`
	Verbose     bool             `short:"v" help:"Enable verbose logging"`
	LogFormat   string           `name:"log-format" help:"Log format (text or json); defaults to logging.format" env:"PROMPTKIT_LOG_FORMAT"`
	MetricsFile string           `name:"metrics-file" help:"Write a Prometheus textfile snapshot after the command" env:"PROMPTKIT_METRICS_FILE"`
	Version     kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build           BuildCmd           `cmd:"" help:"Assemble every prompt variant and output mode"`
	CheckReferences CheckReferencesCmd `cmd:"" name:"check-references" help:"Validate class reference tables and optionally their URLs"`
	Topics          TopicsCmd          `cmd:"" help:"List documents and sample applications of the corpus"`
	Init            InitCmd            `cmd:"" help:"Initialize a new prompt configuration file"`
}

// AfterApply runs after flag parsing; setup logging once. The configuration
// file may lower or raise the level later when neither --verbose nor the
// environment decided it.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	c.configureLogging(nil)
	return nil
}

// configureLogging installs the default slog handler on stderr. Precedence is
// --verbose, then PROMPTKIT_LOG_LEVEL, then cfg.
func (c *CLI) configureLogging(cfg *config.Config) {
	level := slog.LevelInfo
	format := config.NormalizeLogFormat(c.LogFormat)
	if cfg != nil {
		level = cfg.Logging.Level.SlogLevel()
		if format == "" {
			format = cfg.Logging.Format
		}
	}
	if env := config.NormalizeLogLevel(os.Getenv(EnvLogLevel)); env != "" {
		level = env.SlogLevel()
	}
	if c.Verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
