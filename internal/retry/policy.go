// Package retry computes backoff delays for transient reference check failures.
package retry

import (
	"time"

	"git.home.luguber.info/inful/promptkit/internal/config"
	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
)

// Policy decides whether a URL that failed transiently is checked again and
// after how long. The zero value is not usable; build one with New or FromConfig.
type Policy struct {
	Mode       config.RetryBackoffMode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int // retries after the first failure
}

var defaultPolicy = Policy{
	Mode:       config.RetryBackoffExponential,
	Initial:    time.Second,
	Max:        30 * time.Second,
	MaxRetries: config.DefaultMaxRetries,
}

// DefaultPolicy doubles from 1s up to 30s and allows two retries.
func DefaultPolicy() Policy { return defaultPolicy }

// New fills unset or unknown fields from DefaultPolicy and clamps Initial to Max.
// A negative maxRetries keeps the default; zero disables retries.
func New(mode config.RetryBackoffMode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := defaultPolicy
	if config.NormalizeRetryBackoff(string(mode)) != "" {
		p.Mode = config.NormalizeRetryBackoff(string(mode))
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	p.Initial = min(p.Initial, p.Max)
	return p
}

// FromConfig builds the validator policy from the validation section.
func FromConfig(v config.ValidationConfig) Policy {
	return New(v.RetryBackoff, v.InitialDelay(), v.MaxDelay(), v.MaxRetries)
}

// Delay is the wait before retry n, where n counts failures so far (n >= 1).
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case config.RetryBackoffFixed:
		d = p.Initial
	case config.RetryBackoffLinear:
		d = p.Initial * time.Duration(n)
	default:
		d = p.Initial
		for i := 1; i < n && d < p.Max; i++ {
			d *= 2
		}
	}
	return min(d, p.Max)
}

// Allows reports whether a URL with the given number of failed attempts may be retried.
func (p Policy) Allows(failures int) bool {
	return failures <= p.MaxRetries
}

// Validate rejects policies that cannot schedule a retry.
func (p Policy) Validate() error {
	switch {
	case p.Initial <= 0 || p.Max <= 0:
		return errors.ConfigError("retry delays must be positive").
			WithContext("initial", p.Initial).WithContext("max", p.Max).Build()
	case p.MaxRetries < 0:
		return errors.ConfigError("max retries cannot be negative").Build()
	}
	return nil
}
