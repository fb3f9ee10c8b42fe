package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyFile       = "file"
	KeyPath       = "path"
	KeyScope      = "scope"
	KeyLanguage   = "language"
	KeyVariant    = "variant"
	KeyLabel      = "label"
	KeyConstant   = "constant"
	KeyHost       = "host"
	KeyURL        = "url"
	KeyCount      = "count"
	KeyExitCode   = "exit_code"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr       { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr       { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func File(path string) slog.Attr        { return slog.String(KeyFile, path) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Scope(s string) slog.Attr          { return slog.String(KeyScope, s) }
func Language(l string) slog.Attr       { return slog.String(KeyLanguage, l) }
func Variant(v string) slog.Attr        { return slog.String(KeyVariant, v) }
func Label(l string) slog.Attr          { return slog.String(KeyLabel, l) }
func Constant(name string) slog.Attr    { return slog.String(KeyConstant, name) }
func Host(h string) slog.Attr           { return slog.String(KeyHost, h) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func Count(n int) slog.Attr             { return slog.Int(KeyCount, n) }
func ExitCode(code int) slog.Attr       { return slog.Int(KeyExitCode, code) }
func Elapsed(d time.Duration) slog.Attr { return DurationMS(float64(d) / float64(time.Millisecond)) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
