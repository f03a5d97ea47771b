package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseCents converts decimal string amounts (dollars) to cents (int64).
// Examples: "99.00" → 9900, "1234.56" → 123456, "" → 0
func ParseCents(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return ToCents(f)
}

// ToCents converts a major-unit amount to cents, rounding half away from zero.
func ToCents(f float64) int64 {
	return int64(math.Round(f * 100))
}

// FromCents converts cents back to a major-unit amount.
func FromCents(c int64) float64 {
	return float64(c) / 100
}

// FormatCents renders cents as a dollar amount, e.g. 12345 → "$123.45".
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%d.%02d", sign, c/100, c%100)
}
