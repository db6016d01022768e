package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyVariant    = "variant"
	KeyMode       = "mode"
	KeyCategory   = "category"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyURL        = "url"
	KeyStatus     = "status"
	KeyAttempt    = "attempt"
	KeyRunID      = "run_id"
	KeyBuildID    = "build_id"
	KeyDurationMS = "duration_ms"
	KeyBytes      = "size_bytes"
	KeyTokens     = "estimated_tokens"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Variant(name string) slog.Attr   { return slog.String(KeyVariant, name) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Bytes(n int) slog.Attr           { return slog.Int(KeyBytes, n) }
func Tokens(n int) slog.Attr          { return slog.Int(KeyTokens, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
