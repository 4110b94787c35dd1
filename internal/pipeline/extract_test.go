package pipeline

import (
	"strings"
	"testing"
	"time"

	"driveinvoice/internal"
	"driveinvoice/internal/config"
)

func testExtractor() *Extractor {
	return NewExtractor(config.Config{DateLayout: "01/02/2006", DefaultCurrency: "USD"})
}

func TestExtractInlineInvoice(t *testing.T) {
	rec := testExtractor().Extract("Invoice #1009, Vendor: Acme Corp, Total: $1,250.00, Due: 03/15/2025")

	if rec.VendorName != "Acme Corp" {
		t.Fatalf("vendor got %q", rec.VendorName)
	}
	if rec.InvoiceNumber == nil || *rec.InvoiceNumber != "1009" {
		t.Fatalf("invoiceNumber got %v", rec.InvoiceNumber)
	}
	if rec.TotalAmount == nil || *rec.TotalAmount != 1250 {
		t.Fatalf("totalAmount got %v", rec.TotalAmount)
	}
	if rec.Currency != "USD" {
		t.Fatalf("currency got %q", rec.Currency)
	}
	want := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	if rec.DueDate == nil || !rec.DueDate.Equal(want) {
		t.Fatalf("dueDate got %v", rec.DueDate)
	}
	if rec.Confidence != internal.ConfidenceHigh {
		t.Fatalf("confidence got %v", rec.Confidence)
	}
}

func TestExtractPartialDowngradesConfidence(t *testing.T) {
	text := `Invoice Number: INV-77
Invoice Date: 02/01/2025
From: Globex Software
123 Main St
Springfield

Bill To: Initech LLC`
	rec := testExtractor().Extract(text)

	if rec.VendorName != "Globex Software" {
		t.Fatalf("vendor got %q", rec.VendorName)
	}
	if rec.VendorAddress == nil || *rec.VendorAddress != "123 Main St\nSpringfield" {
		t.Fatalf("vendorAddress got %v", rec.VendorAddress)
	}
	if rec.BilledTo == nil || *rec.BilledTo != "Initech LLC" {
		t.Fatalf("billedTo got %v", rec.BilledTo)
	}
	if rec.InvoiceDate == nil {
		t.Fatal("invoiceDate missing")
	}
	if rec.TotalAmount != nil {
		t.Fatalf("totalAmount should be nil, got %v", *rec.TotalAmount)
	}
	if rec.Confidence != internal.ConfidenceLow {
		t.Fatalf("confidence got %v", rec.Confidence)
	}
	if !hasNote(rec.Notes, "totalAmount") {
		t.Fatalf("expected totalAmount note, got %v", rec.Notes)
	}
}

func TestExtractUnknownVendor(t *testing.T) {
	rec := testExtractor().Extract("Invoice #5\nTotal: $10.00\nDue: 01/01/2025")
	if rec.VendorName != internal.UnknownVendor {
		t.Fatalf("vendor got %q", rec.VendorName)
	}
	if rec.Confidence != internal.ConfidenceMedium {
		t.Fatalf("confidence got %v", rec.Confidence)
	}
}

func TestExtractNegativeTotalDropped(t *testing.T) {
	rec := testExtractor().Extract("Invoice #13\nVendor: Acme Corp\nTotal: -$50.00\nDue: 03/15/2025")
	if rec.TotalAmount != nil {
		t.Fatalf("negative total kept: %v", *rec.TotalAmount)
	}
	if !hasNote(rec.Notes, "negative") {
		t.Fatalf("expected negative-total note, got %v", rec.Notes)
	}
	if rec.Confidence != internal.ConfidenceLow {
		t.Fatalf("confidence got %v", rec.Confidence)
	}
}

func TestExtractLineItemsAndTotals(t *testing.T) {
	text := `Invoice #1200
From: Acme Corp

Description Qty Amount
Widget maintenance 2 x $100.00 $200.00
Support retainer $350.00
Subtotal: $550.00
Tax: $55.00
Total: $605.00`
	rec := testExtractor().Extract(text)

	if len(rec.LineItems) != 2 {
		t.Fatalf("lineItems got %d: %+v", len(rec.LineItems), rec.LineItems)
	}
	first := rec.LineItems[0]
	if first.Description != "Widget maintenance" || first.Quantity == nil || *first.Quantity != 2 {
		t.Fatalf("first item got %+v", first)
	}
	if first.UnitPrice == nil || *first.UnitPrice != 100 || first.Amount == nil || *first.Amount != 200 {
		t.Fatalf("first item amounts got %+v", first)
	}
	second := rec.LineItems[1]
	if second.Description != "Support retainer" || second.Amount == nil || *second.Amount != 350 {
		t.Fatalf("second item got %+v", second)
	}

	if rec.Subtotal == nil || *rec.Subtotal != 550 {
		t.Fatalf("subtotal got %v", rec.Subtotal)
	}
	if rec.TaxAmount == nil || *rec.TaxAmount != 55 {
		t.Fatalf("taxAmount got %v", rec.TaxAmount)
	}
	if rec.TotalAmount == nil || *rec.TotalAmount != 605 {
		t.Fatalf("totalAmount got %v", rec.TotalAmount)
	}
}

func TestExtractLicenseBlock(t *testing.T) {
	text := `Invoice #900
Vendor: SoftCo
Total Due: $5,000.00
Subscription to DataPlatform Pro
250 seats
License Period: 01/01/2025 - 12/31/2025
Payment Terms: Net 45`
	rec := testExtractor().Extract(text)

	if rec.License == nil {
		t.Fatal("license block missing")
	}
	if rec.License.ProductName != "DataPlatform Pro" {
		t.Fatalf("productName got %q", rec.License.ProductName)
	}
	if rec.License.SeatCount == nil || *rec.License.SeatCount != 250 {
		t.Fatalf("seatCount got %v", rec.License.SeatCount)
	}
	wantEnd := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	if rec.License.PeriodEnd == nil || !rec.License.PeriodEnd.Equal(wantEnd) {
		t.Fatalf("periodEnd got %v", rec.License.PeriodEnd)
	}
	if rec.NetDays == nil || *rec.NetDays != 45 {
		t.Fatalf("netDays got %v", rec.NetDays)
	}
}

func TestExtractNoLicenseWithoutSignal(t *testing.T) {
	rec := testExtractor().Extract("Invoice #1\nVendor: Acme Corp\nTotal: $10.00")
	if rec.License != nil {
		t.Fatalf("unexpected license block: %+v", rec.License)
	}
}

func hasNote(notes []string, substr string) bool {
	for _, n := range notes {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}
