package models

import (
	"strconv"
	"strings"
)

// ParseYearCode splits a composite "{year}-{trimId}" code on the first "-".
// A code without "-" is a bare year. When the year part is not a number
// the result is defaultYear with no trim. It never fails.
func ParseYearCode(code string, defaultYear int) (year int, trimID string) {
	yearPart, trimPart, hasTrim := strings.Cut(strings.TrimSpace(code), "-")

	y, err := strconv.Atoi(yearPart)
	if err != nil {
		return defaultYear, ""
	}
	if !hasTrim {
		return y, ""
	}
	return y, trimPart
}

// FormatYearCode is the inverse of ParseYearCode.
func FormatYearCode(year int, trimID string) string {
	if trimID == "" {
		return strconv.Itoa(year)
	}
	return strconv.Itoa(year) + "-" + trimID
}
