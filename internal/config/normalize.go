package config

import (
	"fmt"
	"strings"
)

// enumNormalizer maps case-insensitive user input onto typed enumeration values.
type enumNormalizer[T ~string] struct {
	values map[string]T
}

func newEnumNormalizer[T ~string](values map[string]T) *enumNormalizer[T] {
	n := &enumNormalizer[T]{values: make(map[string]T, len(values))}
	for k, v := range values {
		n.values[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return n
}

// normalize returns the typed value or "" when the input is unknown.
func (n *enumNormalizer[T]) normalize(raw string) T {
	return n.values[strings.ToLower(strings.TrimSpace(raw))]
}

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// Normalize canonicalizes enumerated and bounded fields prior to default application.
// Unknown enumeration values are cleared (so defaults apply) and reported as warnings.
func Normalize(c *Config) *NormalizationResult {
	res := &NormalizationResult{}

	modes := make([]Mode, 0, len(c.Output.Modes))
	for _, m := range c.Output.Modes {
		nm := NormalizeMode(string(m))
		if nm == "" {
			res.Warnings = append(res.Warnings, warnUnknown("output.modes", string(m), "dropped"))
			continue
		}
		modes = append(modes, nm)
	}
	c.Output.Modes = modes

	v := &c.Validation
	if raw := string(v.RetryBackoff); strings.TrimSpace(raw) != "" {
		if rb := NormalizeRetryBackoff(raw); rb == "" {
			res.Warnings = append(res.Warnings, warnUnknown("validation.retry_backoff", raw, string(RetryBackoffExponential)))
			v.RetryBackoff = ""
		} else {
			v.RetryBackoff = rb
		}
	}
	if v.Concurrency < 0 {
		v.Concurrency = 0
	}
	if v.RateLimit < 0 {
		v.RateLimit = 0
	}

	if raw := string(c.Logging.Level); strings.TrimSpace(raw) != "" {
		if lvl := NormalizeLogLevel(raw); lvl == "" {
			res.Warnings = append(res.Warnings, warnUnknown("logging.level", raw, string(LogLevelInfo)))
			c.Logging.Level = ""
		} else {
			c.Logging.Level = lvl
		}
	}
	if raw := string(c.Logging.Format); strings.TrimSpace(raw) != "" {
		if f := NormalizeLogFormat(raw); f == "" {
			res.Warnings = append(res.Warnings, warnUnknown("logging.format", raw, string(LogFormatText)))
			c.Logging.Format = ""
		} else {
			c.Logging.Format = f
		}
	}
	return res
}

func warnUnknown(field, value, fallback string) string {
	return fmt.Sprintf("unknown %s %q, using %s", field, value, fallback)
}
