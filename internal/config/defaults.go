package config

// Default values applied when the configuration leaves a field empty.
const (
	DefaultDocsRoot          = "docs"
	DefaultOutputDir         = "output"
	DefaultOutputPattern     = "prompt_{variant}_{mode}.md"
	DefaultRef               = "main"
	DefaultURLTemplate       = "{repo}/blob/{ref}/{path}"
	DefaultCharsPerToken     = 4.0
	DefaultConcurrency       = 12
	DefaultRequestTimeout    = "10s"
	DefaultRunTimeout        = "10m"
	DefaultMaxRetries        = 2
	DefaultRetryInitialDelay = "1s"
	DefaultRetryMaxDelay     = "30s"
	DefaultFreshness         = "24h"
	DefaultPruneAfter        = "720h"
	DefaultUserAgent         = "promptkit-linkcheck/1.0"
	DefaultLedgerPath        = ".promptkit/ledger.db"
	DefaultKVBucket          = "promptkit_links"
	DefaultSubject           = "promptkit.links.broken"
)

// defaultApplier applies defaults for one configuration domain.
type defaultApplier interface {
	apply(cfg *Config)
}

type outputDefaults struct{}

func (outputDefaults) apply(cfg *Config) {
	if cfg.DocsRoot == "" {
		cfg.DocsRoot = DefaultDocsRoot
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}
	if cfg.Output.Pattern == "" {
		cfg.Output.Pattern = DefaultOutputPattern
	}
	if len(cfg.Output.Modes) == 0 {
		cfg.Output.Modes = append([]Mode(nil), AllModes...)
	}
	if cfg.Tokens.CharsPerToken == 0 {
		cfg.Tokens.CharsPerToken = DefaultCharsPerToken
	}
	for i := range cfg.Categories {
		if cfg.Categories[i].Dir == "" {
			cfg.Categories[i].Dir = cfg.Categories[i].Name
		}
	}
}

type linkDefaults struct{}

func (linkDefaults) apply(cfg *Config) {
	if cfg.Links.Ref == "" {
		cfg.Links.Ref = DefaultRef
	}
	if cfg.Links.URLTemplate == "" {
		cfg.Links.URLTemplate = DefaultURLTemplate
	}
	if cfg.Links.RawTemplate == "" {
		cfg.Links.RawTemplate = cfg.Links.URLTemplate
	}
}

type validationDefaults struct{}

func (validationDefaults) apply(cfg *Config) {
	v := &cfg.Validation
	if v.Concurrency == 0 {
		v.Concurrency = DefaultConcurrency
	}
	if v.RequestTimeout == "" {
		v.RequestTimeout = DefaultRequestTimeout
	}
	if v.RunTimeout == "" {
		v.RunTimeout = DefaultRunTimeout
	}
	if !v.maxRetriesSpecified && v.MaxRetries == 0 {
		v.MaxRetries = DefaultMaxRetries
	}
	if v.RetryBackoff == "" {
		v.RetryBackoff = RetryBackoffExponential
	}
	if v.RetryInitialDelay == "" {
		v.RetryInitialDelay = DefaultRetryInitialDelay
	}
	if v.RetryMaxDelay == "" {
		v.RetryMaxDelay = DefaultRetryMaxDelay
	}
	if v.Freshness == "" {
		v.Freshness = DefaultFreshness
	}
	if v.PruneAfter == "" {
		v.PruneAfter = DefaultPruneAfter
	}
	if v.UserAgent == "" {
		v.UserAgent = DefaultUserAgent
	}
	if v.LedgerPath == "" {
		v.LedgerPath = DefaultLedgerPath
	}
	if v.NATS.URL != "" {
		if v.NATS.KVBucket == "" {
			v.NATS.KVBucket = DefaultKVBucket
		}
		if v.NATS.Subject == "" {
			v.NATS.Subject = DefaultSubject
		}
	}
}

type loggingDefaults struct{}

func (loggingDefaults) apply(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}

var defaultAppliers = []defaultApplier{
	outputDefaults{},
	linkDefaults{},
	validationDefaults{},
	loggingDefaults{},
}

// applyDefaults runs every domain applier in order.
func applyDefaults(cfg *Config) {
	for _, a := range defaultAppliers {
		a.apply(cfg)
	}
}
