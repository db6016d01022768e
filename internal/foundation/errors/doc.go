// Package errors provides the classified errors used across promptkit.
//
// A ClassifiedError carries a category, a severity and structured context. The
// category decides the process exit code through CLIErrorAdapter; the context
// is rendered in key order so messages are stable across runs.
//
//	err := errors.ConfigError("variant references unknown category").
//		WithContext("variant", v.Name).
//		WithContext("category", name).
//		Build()
package errors
