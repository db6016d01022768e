package config

import (
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
)

// Validate checks the structural consistency of a configuration. All failures are
// ConfigErrors; the first one found is returned.
func Validate(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	for _, step := range []func() error{
		v.validateCategories,
		v.validateExclusions,
		v.validateVariants,
		v.validateOutput,
		v.validateTokens,
		v.validateValidation,
	} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// configurationValidator coordinates validation across configuration domains.
type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validateCategories() error {
	if len(cv.config.Categories) == 0 {
		return errors.ConfigError("at least one category must be configured").Build()
	}
	names := make(map[string]bool, len(cv.config.Categories))
	for _, cat := range cv.config.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return errors.ConfigError("category name cannot be empty").Build()
		}
		if names[cat.Name] {
			return errors.ConfigError("duplicate category name").WithContext("category", cat.Name).Build()
		}
		names[cat.Name] = true

		if path.IsAbs(cat.Dir) || escapesRoot(cat.Dir) {
			return errors.ConfigError("category directory must stay inside the docs root").
				WithContext("category", cat.Name).WithContext("dir", cat.Dir).Build()
		}

		files := make(map[string]bool, len(cat.Files))
		for _, f := range cat.Files {
			if strings.TrimSpace(f.File) == "" {
				return errors.ConfigError("file entry without a file name").WithContext("category", cat.Name).Build()
			}
			if escapesRoot(cat.LogicalPath(f.File)) {
				return errors.ConfigError("file entry must stay inside the docs root").
					WithContext("category", cat.Name).WithContext("file", f.File).Build()
			}
			if files[f.File] {
				return errors.ConfigError("file listed twice in category").
					WithContext("category", cat.Name).WithContext("file", f.File).Build()
			}
			files[f.File] = true
		}
	}
	return nil
}

func (cv *configurationValidator) validateExclusions() error {
	for _, pattern := range cv.config.Exclude {
		if _, err := path.Match(pattern, ""); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "invalid exclusion pattern").
				Fatal().WithContext("pattern", pattern).Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateVariants() error {
	if len(cv.config.Variants) == 0 {
		return errors.ConfigError("at least one variant must be configured").Build()
	}
	known := make(map[string]bool, len(cv.config.Categories))
	for _, cat := range cv.config.Categories {
		known[cat.Name] = true
	}
	names := make(map[string]bool, len(cv.config.Variants))
	for _, variant := range cv.config.Variants {
		if strings.TrimSpace(variant.Name) == "" {
			return errors.ConfigError("variant name cannot be empty").Build()
		}
		if names[variant.Name] {
			return errors.ConfigError("duplicate variant name").WithContext("variant", variant.Name).Build()
		}
		names[variant.Name] = true

		seen := make(map[string]string)
		check := func(category, role string) error {
			if !known[category] {
				return errors.ConfigError("variant declares unknown category").
					WithContext("variant", variant.Name).WithContext("category", category).Build()
			}
			if prev, dup := seen[category]; dup {
				return errors.ConfigError("category declared twice in variant").
					WithContext("variant", variant.Name).WithContext("category", category).
					WithContext("roles", prev+","+role).Build()
			}
			seen[category] = role
			return nil
		}
		for _, c := range variant.Include {
			if err := check(c, "include"); err != nil {
				return err
			}
		}
		for _, c := range variant.Reference {
			if err := check(c, "reference"); err != nil {
				return err
			}
		}
	}
	return nil
}

func (cv *configurationValidator) validateOutput() error {
	if len(cv.config.Output.Modes) == 0 {
		return errors.ConfigError("no valid output modes configured").Build()
	}
	if !strings.Contains(cv.config.Output.Pattern, "{variant}") || !strings.Contains(cv.config.Output.Pattern, "{mode}") {
		return errors.ConfigError("output pattern must contain {variant} and {mode}").
			WithContext("pattern", cv.config.Output.Pattern).Build()
	}
	if !strings.Contains(cv.config.Links.URLTemplate, "{path}") {
		return errors.ConfigError("links.url_template must contain {path}").
			WithContext("template", cv.config.Links.URLTemplate).Build()
	}
	return nil
}

func (cv *configurationValidator) validateTokens() error {
	if cv.config.Tokens.CharsPerToken <= 0 {
		return errors.ConfigError("tokens.chars_per_token must be positive").
			WithContext("value", cv.config.Tokens.CharsPerToken).Build()
	}
	return nil
}

func (cv *configurationValidator) validateValidation() error {
	v := cv.config.Validation
	durations := map[string]string{
		"validation.request_timeout":     v.RequestTimeout,
		"validation.run_timeout":         v.RunTimeout,
		"validation.retry_initial_delay": v.RetryInitialDelay,
		"validation.retry_max_delay":     v.RetryMaxDelay,
		"validation.freshness":           v.Freshness,
		"validation.prune_after":         v.PruneAfter,
	}
	for _, field := range []string{
		"validation.request_timeout",
		"validation.run_timeout",
		"validation.retry_initial_delay",
		"validation.retry_max_delay",
		"validation.freshness",
		"validation.prune_after",
	} {
		d, err := time.ParseDuration(durations[field])
		if err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "invalid duration").
				Fatal().WithContext("field", field).Build()
		}
		if d < 0 {
			return errors.ConfigError("duration cannot be negative").WithContext("field", field).Build()
		}
	}
	if v.MaxRetries < 0 {
		return errors.ConfigError("validation.max_retries cannot be negative").Build()
	}
	return nil
}

// escapesRoot reports whether a slash path climbs above its root.
func escapesRoot(p string) bool {
	rel := path.Clean(p)
	return rel == ".." || strings.HasPrefix(rel, "../")
}
