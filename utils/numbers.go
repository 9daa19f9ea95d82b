package utils

import (
	"math"
	"strconv"
	"strings"
)

// noData lists the placeholder tokens IBGE tables use for missing cells.
var noData = map[string]bool{
	"-":   true,
	"":    true,
	"X":   true,
	"..":  true,
	"...": true,
}

// IsNoData reports whether a cleaned cell holds one of the "no data" tokens.
func IsNoData(s string) bool {
	return noData[s]
}

// ParseIndicatorNumber parses a spreadsheet cell that may use a decimal comma.
// The second result is false for placeholders and anything that does not
// parse, so callers skip the field instead of recording a zero.
func ParseIndicatorNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if IsNoData(s) {
		return 0, false
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, false
	}
	return val, true
}

// CoerceInt converts a census cell to an integer. Missing or malformed
// values become 0; values written as floats ("12.0") are truncated.
func CoerceInt(raw string) int64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(f)
}

// ParseCode is CoerceInt for identifier columns, where a missing value must
// be told apart from a zero.
func ParseCode(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

// Ratio returns part/total, or 0 when total is 0.
func Ratio(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total
}
