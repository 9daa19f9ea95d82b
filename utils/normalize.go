package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize turns a free-text name into a join key: uppercase, without
// diacritics and surrounding whitespace. "  São Gabriel da Cachoeira "
// becomes "SAO GABRIEL DA CACHOEIRA".
func Normalize(s string) string {
	// some letters only gain an uppercase form once their mark is gone
	// ("ǰ" -> "j" -> "J"), so marks are stripped on both sides of ToUpper
	s = strings.ToUpper(stripMarks(s))
	return strings.TrimSpace(stripMarks(s))
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeValue is Normalize for cells of unknown type. Anything that is
// not a string (nil, numbers, bools) yields an empty key.
func NormalizeValue(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return Normalize(s)
}
