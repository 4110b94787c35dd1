package pipeline

import "testing"

func TestNormalizeText(t *testing.T) {
	raw := "Invoice\x00 #42\r\n\r\n\r\n  Total:   $10.00\t\r\nThanks"
	got := NormalizeText(raw)
	want := "Invoice #42\n\nTotal: $10.00\nThanks"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNormalizeTextEmpty(t *testing.T) {
	if NormalizeText("") != "" {
		t.Fatal("empty input must yield empty output")
	}
	if NormalizeText("\n\n\n") != "" {
		t.Fatal("blank input must yield empty output")
	}
}
