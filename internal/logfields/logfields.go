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
	KeyPath       = "path"
	KeySection    = "section"
	KeyTemplate   = "template"
	KeyCount      = "count"
	KeyOutcome    = "outcome"
	KeyAddr       = "addr"
	KeyURL        = "url"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Section(s string) slog.Attr      { return slog.String(KeySection, s) }
func Template(t string) slog.Attr     { return slog.String(KeyTemplate, t) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Addr(a string) slog.Attr         { return slog.String(KeyAddr, a) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }

// Duration renders a time.Duration under the canonical milliseconds key.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Milliseconds()))
}

func Error(err error) slog.Attr {
	if err == nil { return slog.String(KeyError, "") }
	return slog.String(KeyError, err.Error())
}
