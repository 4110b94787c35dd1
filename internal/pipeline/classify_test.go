package pipeline

import "testing"

const invoiceText = `Invoice Number: INV-2201
Invoice Date: 02/01/2025
Bill To: Initech LLC
Total Amount Due: $4,500.00
Payment Terms: Net 30`

func TestClassifyAcceptsInvoice(t *testing.T) {
	res := Classify(invoiceText, 0.45)
	if !res.IsInvoice {
		t.Fatalf("expected invoice, score=%v", res.Score)
	}
}

func TestClassifyRejectsProse(t *testing.T) {
	res := Classify("Meeting notes from Tuesday. We discussed the roadmap and agreed to follow up next week.", 0.45)
	if res.IsInvoice {
		t.Fatalf("expected reject, score=%v", res.Score)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	a := Classify(invoiceText, 0.45)
	for i := 0; i < 10; i++ {
		b := Classify(invoiceText, 0.45)
		if a != b {
			t.Fatalf("classification not deterministic: %+v vs %+v", a, b)
		}
	}
}
