package util

import (
	"fmt"
	"strings"
	"time"
)

// ParseDate parses a date token under a fixed Go layout. Separators - and .
// are folded to the layout's separator first, and single-digit day/month
// values are accepted. Ambiguous values always follow the layout; 03/04/2025
// is March 4 under the default MM/DD/YYYY convention, never April 3.
func ParseDate(input, layout string) (time.Time, error) {
	token := strings.TrimSpace(input)
	if token == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	sep := layoutSeparator(layout)
	if sep != "" {
		token = strings.ReplaceAll(token, "-", sep)
		token = strings.ReplaceAll(token, ".", sep)
	}

	for _, l := range layoutVariants(layout) {
		if parsed, err := time.Parse(l, token); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date: %q", input)
}

func layoutSeparator(layout string) string {
	for _, sep := range []string{"/", "-", "."} {
		if strings.Contains(layout, sep) {
			return sep
		}
	}
	return ""
}

func layoutVariants(layout string) []string {
	variants := []string{layout}

	short := strings.ReplaceAll(strings.ReplaceAll(layout, "01", "1"), "02", "2")
	if short != layout {
		variants = append(variants, short)
	}
	for _, v := range []string{layout, short} {
		if strings.Contains(v, "2006") {
			variants = append(variants, strings.ReplaceAll(v, "2006", "06"))
		}
	}
	return variants
}
