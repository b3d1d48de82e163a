package core

// convert.go turns raw cell text into the values the normalizer works with.
//
// Spreadsheets and CSV exports disagree about how a cell is written: numbers
// may arrive as "3", " 3.80 " or "3.8000000000000003", and Excel text exports
// wrap values as ="S100" to stop leading zeros being dropped. These helpers
// absorb that variation and never fail; unusable input becomes "" or 0.

import (
	"math"
	"strconv"
	"strings"
)

// CleanCell trims whitespace and unwraps the Excel text formula ="value".
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}

// ToNumber coerces a cell to a float64. Empty, non-numeric and non-finite
// input all coerce to 0.
func ToNumber(s string) float64 {
	s = CleanCell(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ToSemesterNumber coerces a cell to a semester index, truncating toward zero.
// A result of 0 means the semester is missing.
func ToSemesterNumber(s string) int {
	f := math.Trunc(ToNumber(s))
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}

// FormatNumber renders f without trailing zeros, for logs and numeric columns.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
