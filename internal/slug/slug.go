// Package slug derives stable, URL-safe ASCII identifiers from document
// titles. Make is idempotent, so a value that is already a slug maps to
// itself and derived output paths stay stable across rebuilds.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9]+`)
	multiDash = regexp.MustCompile(`-+`)
)

// latinFolds maps Latin letters that have no combining-mark decomposition,
// so accent stripping alone cannot reduce them to ASCII.
var latinFolds = strings.NewReplacer(
	"æ", "ae", "Æ", "ae",
	"œ", "oe", "Œ", "oe",
	"ø", "o", "Ø", "o",
	"ß", "ss",
	"đ", "d", "Đ", "d",
	"ð", "d", "Ð", "d",
	"þ", "th", "Þ", "th",
	"ł", "l", "Ł", "l",
)

// Make converts a title into a lowercase ASCII slug. Accented characters are
// transliterated, everything else outside [a-z0-9] collapses into single
// hyphens. The empty string is returned when nothing survives, and the
// caller picks a fallback.
func Make(s string) string {
	s = latinFolds.Replace(s)
	s = removeAccents(s)
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	s = multiDash.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// removeAccents strips diacritical marks from a string.
func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}
