package util

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		want     float64
		currency string
	}{
		{name: "dollar thousands", input: "$1,250.00", want: 1250, currency: "USD"},
		{name: "euro suffix", input: "1.250,00 €", want: 1250, currency: "EUR"},
		{name: "pound plain", input: "£99", want: 99, currency: "GBP"},
		{name: "yen", input: "¥10,000", want: 10000, currency: "JPY"},
		{name: "bare decimal comma", input: "1,5", want: 1.5, currency: ""},
		{name: "bare plain", input: "42.50", want: 42.5, currency: ""},
		{name: "negative", input: "-50.00", want: -50, currency: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed := ParseAmount(tc.input)
			if parsed.Value == nil {
				t.Fatalf("value is nil")
			}
			if *parsed.Value != tc.want {
				t.Fatalf("got %v want %v", *parsed.Value, tc.want)
			}
			if parsed.Currency != tc.currency {
				t.Fatalf("currency got %q want %q", parsed.Currency, tc.currency)
			}
		})
	}
}

func TestParseAmountGarbage(t *testing.T) {
	for _, input := range []string{"", "N/A", "call us"} {
		if parsed := ParseAmount(input); parsed.Value != nil {
			t.Fatalf("expected nil for %q, got %v", input, *parsed.Value)
		}
	}
}
