package config

import (
	"log/slog"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
)

// SupportedVersion is the only configuration schema version understood by Load.
const SupportedVersion = "1"

// DefaultPath is where the prompt configuration lives inside a project.
const DefaultPath = "docs/prompt_config.yaml"

// Config is the prompt build configuration. It must be treated as read-only
// once Load returns.
type Config struct {
	Version      string            `yaml:"version"`
	Title        string            `yaml:"title"`
	Description  string            `yaml:"description"`
	DocsRoot     string            `yaml:"docs_root"`
	Output       OutputConfig      `yaml:"output"`
	Links        LinksConfig       `yaml:"links"`
	Placeholders PlaceholderConfig `yaml:"placeholders,omitempty"`
	Categories   []Category        `yaml:"categories"`
	Exclude      []string          `yaml:"exclude,omitempty"`
	Variants     []Variant         `yaml:"variants"`
	Tokens       TokensConfig      `yaml:"tokens"`
	Samples      []Sample          `yaml:"samples,omitempty"`
	Validation   ValidationConfig  `yaml:"validation"`
	Logging      LoggingConfig     `yaml:"logging"`
}

// OutputConfig controls where artifacts are written and how they are named.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	// Pattern supports the {variant} and {mode} tokens.
	Pattern string `yaml:"pattern"`
	Modes   []Mode `yaml:"modes,omitempty"`
}

// LinksConfig describes how logical document paths become absolute URLs in online mode.
type LinksConfig struct {
	RepoURL string `yaml:"repo_url"`
	// Ref is a branch, tag or commit. "auto" resolves the project repository HEAD.
	Ref string `yaml:"ref"`
	// URLTemplate supports {repo}, {ref} and {path}.
	URLTemplate string `yaml:"url_template"`
	// RawTemplate is used for asset links; falls back to URLTemplate.
	RawTemplate string `yaml:"raw_template,omitempty"`
}

// PlaceholderValues overrides the derived value of a placeholder token. Nil means derive.
type PlaceholderValues struct {
	AssetPrefix  *string `yaml:"asset_prefix,omitempty"`
	DocsPrefix   *string `yaml:"docs_prefix,omitempty"`
	DocsSuffix   *string `yaml:"docs_suffix,omitempty"`
	GithubPrefix *string `yaml:"github_prefix,omitempty"`
}

// PlaceholderConfig holds per-mode placeholder overrides.
type PlaceholderConfig struct {
	Online  PlaceholderValues `yaml:"online,omitempty"`
	Offline PlaceholderValues `yaml:"offline,omitempty"`
}

// For returns the overrides for a mode.
func (p PlaceholderConfig) For(m Mode) PlaceholderValues {
	if m == ModeOnline {
		return p.Online
	}
	return p.Offline
}

// Category is an ordered group of documents sharing a corpus directory.
type Category struct {
	Name  string      `yaml:"name"`
	Dir   string      `yaml:"dir,omitempty"`
	Files []FileEntry `yaml:"files,omitempty"`
}

// FileEntry names a document in explicit order, optionally with the summary used
// when the document is included by reference only.
type FileEntry struct {
	File    string `yaml:"file"`
	Summary string `yaml:"summary,omitempty"`
}

// UnmarshalYAML accepts both the short form ("a.md") and the mapping form.
func (f *FileEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		f.File = node.Value
		return nil
	}
	type plain FileEntry
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*f = FileEntry(p)
	return nil
}

// LogicalPath returns the corpus-relative path of a listed file.
func (c Category) LogicalPath(file string) string {
	return path.Clean(path.Join(c.Dir, file))
}

// Variant declares which categories a named output includes fully or by reference.
type Variant struct {
	Name      string   `yaml:"name"`
	Include   []string `yaml:"include"`
	Reference []string `yaml:"reference,omitempty"`
}

// TokensConfig configures the token estimate heuristic.
type TokensConfig struct {
	CharsPerToken float64 `yaml:"chars_per_token"`
}

// Sample describes an example application listed in the topic index.
type Sample struct {
	Name    string   `yaml:"name" json:"name"`
	Path    string   `yaml:"path" json:"path"`
	Tags    []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Summary string   `yaml:"summary,omitempty" json:"summary,omitempty"`
}

// ValidationConfig configures the reference validator.
type ValidationConfig struct {
	Concurrency       int              `yaml:"concurrency"`
	RequestTimeout    string           `yaml:"request_timeout"`
	RunTimeout        string           `yaml:"run_timeout"`
	MaxRetries        int              `yaml:"max_retries"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitialDelay string           `yaml:"retry_initial_delay"`
	RetryMaxDelay     string           `yaml:"retry_max_delay"`
	Freshness         string           `yaml:"freshness"`
	PruneAfter        string           `yaml:"prune_after"`
	RateLimit         float64          `yaml:"rate_limit"`
	UserAgent         string           `yaml:"user_agent"`
	LedgerPath        string           `yaml:"ledger_path"`
	NATS              NATSConfig       `yaml:"nats,omitempty"`

	maxRetriesSpecified bool
}

// UnmarshalYAML records whether max_retries was set so an explicit 0 survives defaults.
func (v *ValidationConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain ValidationConfig
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*v = ValidationConfig(p)
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "max_retries" {
			v.maxRetriesSpecified = true
		}
	}
	return nil
}

// NATSConfig enables mirroring ledger outcomes into a JetStream KV bucket and
// publishing broken link events. Empty URL disables it.
type NATSConfig struct {
	URL      string `yaml:"url"`
	KVBucket string `yaml:"kv_bucket"`
	Subject  string `yaml:"subject"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Durations parsed from ValidationConfig. Validation guarantees they parse.
func (v ValidationConfig) RequestTimeoutDuration() time.Duration { return mustDuration(v.RequestTimeout) }
func (v ValidationConfig) RunTimeoutDuration() time.Duration     { return mustDuration(v.RunTimeout) }
func (v ValidationConfig) InitialDelay() time.Duration           { return mustDuration(v.RetryInitialDelay) }
func (v ValidationConfig) MaxDelay() time.Duration               { return mustDuration(v.RetryMaxDelay) }
func (v ValidationConfig) FreshnessWindow() time.Duration        { return mustDuration(v.Freshness) }
func (v ValidationConfig) PruneAge() time.Duration               { return mustDuration(v.PruneAfter) }

func mustDuration(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}

// Load reads, normalizes, defaults and validates a configuration file.
func Load(configPath string) (*Config, error) {
	if loaded, err := loadEnvFile(); err == nil {
		slog.Debug("Loaded environment file", "file", loaded)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").WithContext("file", configPath).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			Fatal().WithContext("file", configPath).Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		if classified, ok := errors.AsClassified(err); ok {
			return nil, classified.WithContext("file", configPath)
		}
		return nil, err
	}
	return cfg, nil
}

// Parse builds a configuration from raw YAML, expanding environment variables first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration").Fatal().Build()
	}

	if cfg.Version != SupportedVersion {
		return nil, errors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).
			WithContext("expected", SupportedVersion).
			Build()
	}

	res := Normalize(&cfg)
	for _, w := range res.Warnings {
		slog.Warn("Config normalization", slog.String("warning", w))
	}
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Category looks up a category by name.
func (c *Config) Category(name string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return Category{}, false
}

// CategoryNames returns category names in configured (priority) order.
func (c *Config) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	return names
}

// Summary returns the author supplied summary for a logical document path.
func (c *Config) Summary(logicalPath string) (string, bool) {
	for _, cat := range c.Categories {
		for _, f := range cat.Files {
			if cat.LogicalPath(f.File) == logicalPath && f.Summary != "" {
				return f.Summary, true
			}
		}
	}
	return "", false
}

// IsExcluded reports whether a logical path matches an exclusion glob. Patterns are
// matched against the base name and the full logical path.
func (c *Config) IsExcluded(logicalPath string) bool {
	base := path.Base(logicalPath)
	for _, pattern := range c.Exclude {
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
		if ok, _ := path.Match(pattern, logicalPath); ok {
			return true
		}
	}
	return false
}

// VariantSpecs returns one spec per variant and output mode, variants in declared
// order and online before offline.
func (c *Config) VariantSpecs() []VariantSpec {
	specs := make([]VariantSpec, 0, len(c.Variants)*len(c.Output.Modes))
	for _, v := range c.Variants {
		for _, m := range c.Output.Modes {
			specs = append(specs, NewVariantSpec(v, m))
		}
	}
	return specs
}
