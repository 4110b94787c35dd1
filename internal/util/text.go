package util

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`\s+`)

func CollapseSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// NormalizeVendor folds case and whitespace so that "Acme Corp " and
// "ACME  CORP" land in the same vendor bucket.
func NormalizeVendor(input string) string {
	s := strings.ToLower(CollapseSpaces(input))
	s = strings.Trim(s, ".,:;")
	return strings.TrimSpace(s)
}

func StringPtr(v string) *string { return &v }

func FloatPtr(v float64) *float64 { return &v }

func IntPtr(v int) *int { return &v }
