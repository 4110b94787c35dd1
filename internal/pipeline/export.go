package pipeline

import (
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"driveinvoice/internal"
)

// ExportRecordsToXLSX writes stored invoice records as a spreadsheet, one
// row per record in store order.
func ExportRecordsToXLSX(records []internal.InvoiceRecord, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"id", "vendor", "invoice_number", "po_number", "invoice_date", "due_date",
		"subtotal", "tax", "total", "currency", "payment_terms", "net_days",
		"license_product", "license_seats", "confidence", "source_file",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, rec := range records {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, rec.ID)
		set(2, rec.VendorName)
		set(3, derefString(rec.InvoiceNumber))
		set(4, derefString(rec.PONumber))
		set(5, formatDate(rec.InvoiceDate))
		set(6, formatDate(rec.DueDate))
		set(7, derefFloat(rec.Subtotal))
		set(8, derefFloat(rec.TaxAmount))
		set(9, derefFloat(rec.TotalAmount))
		set(10, rec.Currency)
		set(11, derefString(rec.PaymentTerms))
		set(12, derefInt(rec.NetDays))
		if rec.License != nil {
			set(13, rec.License.ProductName)
			set(14, derefInt(rec.License.SeatCount))
		}
		set(15, string(rec.Confidence))
		set(16, rec.Source.FileName)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func derefInt(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}

func formatDate(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format("2006-01-02")
}
