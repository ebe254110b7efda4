package schema

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var numberCleaner = strings.NewReplacer("R$", "", " ", "", "\u00a0", "", "%", "")

// ParseNumber reads a locale-agnostic decimal. Both "1.234,56" and
// "1,234.56" yield 1234.56; anything unparsable yields NaN.
func ParseNumber(s string) float64 {
	s = numberCleaner.Replace(strings.TrimSpace(s))
	if s == "" {
		return math.NaN()
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// isNumeric reports whether s parses as a number.
func isNumeric(s string) bool {
	return !math.IsNaN(ParseNumber(s))
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05.000",
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006/01/02",
	"02-01-2006",
	"2006-01",
	"01-2006",
	"01/2006",
}

// ParseDate tries the supported layouts in order; the zero time means failure.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
