package util

import (
	"regexp"
	"strconv"
	"strings"
)

var currencyBySymbol = []struct {
	symbol string
	code   string
}{
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
}

var (
	reThousandDot   = regexp.MustCompile(`^-?\d{1,3}(?:\.\d{3})+(?:,\d+)?$`)
	reThousandComma = regexp.MustCompile(`^-?\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
)

type ParsedAmount struct {
	Value    *float64
	Currency string
	Raw      string
}

// ParseAmount pulls a monetary value out of a token like "$1,250.00" or
// "1.250,00 €". Currency is empty when no known symbol is present, and
// Value is nil when the numeric part does not convert.
func ParseAmount(input string) ParsedAmount {
	raw := strings.TrimSpace(strings.ReplaceAll(input, " ", " "))
	out := ParsedAmount{Raw: raw}

	token := raw
	for _, c := range currencyBySymbol {
		if strings.Contains(token, c.symbol) {
			out.Currency = c.code
			token = strings.ReplaceAll(token, c.symbol, "")
			break
		}
	}

	token = strings.ReplaceAll(token, " ", "")
	token = normalizeNumericToken(token)
	if token == "" {
		return out
	}

	parsed, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return out
	}
	out.Value = FloatPtr(parsed)
	return out
}

func normalizeNumericToken(token string) string {
	if reThousandDot.MatchString(token) {
		token = strings.ReplaceAll(token, ".", "")
		return strings.ReplaceAll(token, ",", ".")
	}
	if reThousandComma.MatchString(token) {
		return strings.ReplaceAll(token, ",", "")
	}
	if strings.Contains(token, ",") && !strings.Contains(token, ".") {
		return strings.ReplaceAll(token, ",", ".")
	}
	return token
}
