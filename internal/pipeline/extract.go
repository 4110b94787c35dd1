package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"driveinvoice/internal"
	"driveinvoice/internal/config"
	"driveinvoice/internal/util"
)

// Extractor pulls structured fields out of classified invoice text. Every
// field has its own ordered list of patterns; the first match wins and a
// miss on one field never blocks the others.
type Extractor struct {
	dateLayout      string
	defaultCurrency string
}

func NewExtractor(cfg config.Config) *Extractor {
	return &Extractor{dateLayout: cfg.DateLayout, defaultCurrency: cfg.DefaultCurrency}
}

const (
	datePat   = `(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`
	amountPat = `(-?\s*[$€£¥]?\s*-?\d{1,3}(?:[,.\s]\d{3})*(?:[.,]\d{1,2})?)`
)

var (
	invoiceNumberPats = []*regexp.Regexp{
		regexp.MustCompile(`(?i)invoice\s*(?:#|no\.?|num(?:ber)?|nbr)[:.\s]*([A-Za-z0-9][A-Za-z0-9-]*)`),
		regexp.MustCompile(`(?i)\binv\.?\s*#\s*([A-Za-z0-9][A-Za-z0-9-]*)`),
	}
	invoiceDatePats = []*regexp.Regexp{
		regexp.MustCompile(`(?i)invoice\s*date[:.\s]*` + datePat),
		regexp.MustCompile(`(?i)date\s*of\s*issue[:.\s]*` + datePat),
		regexp.MustCompile(`(?im)^date[:.\s]*` + datePat),
	}
	dueDatePats = []*regexp.Regexp{
		regexp.MustCompile(`(?i)due\s*date[:.\s]*` + datePat),
		regexp.MustCompile(`(?i)payment\s*due[:.\s]*` + datePat),
		regexp.MustCompile(`(?i)\bdue[:.\s]*` + datePat),
	}
	totalPats = []*regexp.Regexp{
		regexp.MustCompile(`(?i)total\s*(?:amount)?\s*due[:.\s]*` + amountPat),
		regexp.MustCompile(`(?i)grand\s*total[:.\s]*` + amountPat),
		regexp.MustCompile(`(?i)amount\s*due[:.\s]*` + amountPat),
		regexp.MustCompile(`(?i)\btotal(?:\s*amount)?[:.\s]*` + amountPat),
	}
	subtotalPats = []*regexp.Regexp{
		regexp.MustCompile(`(?i)sub\s*-?\s*total[:.\s]*` + amountPat),
	}
	taxPats = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:sales\s*)?tax(?:\s*\(\s*\d+(?:\.\d+)?\s*%\s*\))?[:.\s]*` + amountPat),
		regexp.MustCompile(`(?i)\bvat[:.\s]*` + amountPat),
		regexp.MustCompile(`(?i)\bgst[:.\s]*` + amountPat),
	}
	vendorBlockPats = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^from[:\s]+(.+)$`),
		regexp.MustCompile(`(?im)^vendor[:\s]+(.+)$`),
		regexp.MustCompile(`(?i)\bvendor[:\s]+([^,\n]+)`),
		regexp.MustCompile(`(?im)^sold\s+by[:\s]+(.+)$`),
		regexp.MustCompile(`(?im)^remit\s+to[:\s]+(.+)$`),
	}
	billedToPats = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^bill(?:ed)?\s*to[:\s]+(.+)$`),
	}
	paymentTermsPats = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^payment\s*terms[:.\s]+(.+)$`),
		regexp.MustCompile(`(?im)^terms[:.\s]+(.+)$`),
	}
	paymentMethodPats = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^payment\s*method[:.\s]+(.+)$`),
	}
	poNumberPats = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bp\.?o\.?\s*(?:#|number|no\.?)[:.\s]*([A-Za-z0-9][A-Za-z0-9-]*)`),
		regexp.MustCompile(`(?i)\bpurchase\s+order[:.\s]*([A-Za-z0-9][A-Za-z0-9-]*)`),
	}
	licenseProductPats = []*regexp.Regexp{
		regexp.MustCompile(`(?i)licen[sc]e\s*(?:for|of)[:\s]*([^\n]+)`),
		regexp.MustCompile(`(?i)subscription\s*(?:to|for)[:\s]*([^\n]+)`),
		regexp.MustCompile(`(?im)^product[:\s]+(.+)$`),
	}
	licenseSeatsPat  = regexp.MustCompile(`(?i)\b(\d{1,6})\s*(?:seats?|users?|licen[sc]es?)\b`)
	licensePeriodPat = regexp.MustCompile(`(?i)(?:licen[sc]e|subscription|service)\s*period[:.\s]*` + datePat + `\s*(?:-|–|to|through)\s*` + datePat)
	netDaysPat       = regexp.MustCompile(`(?i)\bnet\s*-?\s*(\d{1,3})\b`)

	itemHeaderPat = regexp.MustCompile(`(?i)^(?:description|item|line\s*items?)\b`)
	itemStopPat   = regexp.MustCompile(`(?i)^(?:sub\s*-?\s*total|total|tax|vat|gst|amount\s*due|balance)`)
	itemQtyPat    = regexp.MustCompile(`^(.*\S)\s+(\d+(?:\.\d+)?)\s*(?:x|@)\s*([$€£¥]?[\d,.]+)\s+([$€£¥]?[\d,.]+)$`)
	itemAmtPat    = regexp.MustCompile(`^(.*[A-Za-z].*?)\s+([$€£¥]\s?\d[\d,.]*|\d[\d,.]*\.\d{2})$`)
)

// Extract populates a record from normalized text. ID, Seq, Source and
// IngestedAt are filled in by the coordinator. Field failures are collected
// as notes on the record, never returned as errors.
func (e *Extractor) Extract(text string) internal.InvoiceRecord {
	rec := internal.InvoiceRecord{
		VendorName: internal.UnknownVendor,
		Currency:   e.defaultCurrency,
		RawText:    text,
	}
	var notes []string

	if v, ok := firstGroup(text, invoiceNumberPats); ok {
		rec.InvoiceNumber = util.StringPtr(v)
	}
	if v, ok := firstGroup(text, poNumberPats); ok {
		rec.PONumber = util.StringPtr(v)
	}

	rec.InvoiceDate, notes = e.parseDateField("invoiceDate", text, invoiceDatePats, notes)
	rec.DueDate, notes = e.parseDateField("dueDate", text, dueDatePats, notes)

	currency := ""
	if v, ok := firstGroup(text, totalPats); ok {
		parsed := util.ParseAmount(v)
		switch {
		case parsed.Value == nil:
			notes = append(notes, fmt.Sprintf("totalAmount: unparseable %q", v))
		case *parsed.Value < 0:
			notes = append(notes, fmt.Sprintf("totalAmount: negative value %g dropped", *parsed.Value))
		default:
			rec.TotalAmount = parsed.Value
			currency = parsed.Currency
		}
	} else {
		notes = append(notes, "totalAmount: no match")
	}
	rec.Subtotal, currency, notes = parseAmountField("subtotal", text, subtotalPats, currency, notes)
	rec.TaxAmount, currency, notes = parseAmountField("taxAmount", text, taxPats, currency, notes)
	if currency != "" {
		rec.Currency = currency
	}

	if name, address, ok := extractVendorBlock(text); ok {
		rec.VendorName = name
		if address != "" {
			rec.VendorAddress = util.StringPtr(address)
		}
	} else {
		notes = append(notes, "vendorName: no match")
	}

	if v, ok := firstGroup(text, billedToPats); ok {
		rec.BilledTo = util.StringPtr(v)
	}
	if v, ok := firstGroup(text, paymentMethodPats); ok {
		rec.PaymentMethod = util.StringPtr(v)
	}
	if v, ok := firstGroup(text, paymentTermsPats); ok {
		rec.PaymentTerms = util.StringPtr(v)
	}
	if m := netDaysPat.FindStringSubmatch(text); len(m) > 1 {
		if days, err := strconv.Atoi(m[1]); err == nil {
			rec.NetDays = util.IntPtr(days)
		}
	}

	rec.LineItems = extractLineItems(text)
	rec.License, notes = e.extractLicense(text, notes)

	rec.Confidence = confidenceFor(rec)
	rec.Notes = notes
	return rec
}

func confidenceFor(rec internal.InvoiceRecord) internal.Confidence {
	// No usable total caps the record at low, regardless of what else parsed.
	if rec.TotalAmount == nil {
		return internal.ConfidenceLow
	}

	required := 1
	if rec.VendorName != internal.UnknownVendor {
		required++
	}
	// The date requirement accepts the due date when no invoice date was
	// printed; many invoices carry only one of the two.
	if rec.InvoiceDate != nil || rec.DueDate != nil {
		required++
	}
	switch required {
	case 3:
		return internal.ConfidenceHigh
	case 2:
		return internal.ConfidenceMedium
	default:
		return internal.ConfidenceLow
	}
}

func firstGroup(text string, patterns []*regexp.Regexp) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			v := util.CollapseSpaces(m[1])
			if v != "" {
				return v, true
			}
		}
	}
	return "", false
}

func (e *Extractor) parseDateField(field, text string, patterns []*regexp.Regexp, notes []string) (*time.Time, []string) {
	v, ok := firstGroup(text, patterns)
	if !ok {
		return nil, append(notes, field+": no match")
	}
	parsed, err := util.ParseDate(v, e.dateLayout)
	if err != nil {
		return nil, append(notes, fmt.Sprintf("%s: %v", field, err))
	}
	return &parsed, notes
}

func parseAmountField(field, text string, patterns []*regexp.Regexp, currency string, notes []string) (*float64, string, []string) {
	v, ok := firstGroup(text, patterns)
	if !ok {
		return nil, currency, notes
	}
	parsed := util.ParseAmount(v)
	if parsed.Value == nil {
		return nil, currency, append(notes, fmt.Sprintf("%s: unparseable %q", field, v))
	}
	if currency == "" {
		currency = parsed.Currency
	}
	return parsed.Value, currency, notes
}

// extractVendorBlock finds a "From:"-style block: the first line names the
// vendor and the lines until the next blank line or labeled field form the
// address.
func extractVendorBlock(text string) (name, address string, ok bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		for _, re := range vendorBlockPats {
			m := re.FindStringSubmatch(line)
			if len(m) < 2 {
				continue
			}
			name = util.CollapseSpaces(m[1])
			if name == "" {
				continue
			}
			var addr []string
			for _, next := range lines[i+1:] {
				next = strings.TrimSpace(next)
				if next == "" || strings.Contains(next, ":") {
					break
				}
				addr = append(addr, next)
				if len(addr) >= 4 {
					break
				}
			}
			return name, strings.Join(addr, "\n"), true
		}
	}
	return "", "", false
}

func extractLineItems(text string) []internal.LineItem {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if itemHeaderPat.MatchString(line) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	var out []internal.LineItem
	for _, line := range lines[start:] {
		line = strings.TrimSpace(line)
		if line == "" || itemStopPat.MatchString(line) {
			break
		}
		if m := itemQtyPat.FindStringSubmatch(line); len(m) == 5 {
			item := internal.LineItem{Description: util.CollapseSpaces(m[1])}
			if qty, err := strconv.ParseFloat(m[2], 64); err == nil {
				item.Quantity = util.FloatPtr(qty)
			}
			item.UnitPrice = util.ParseAmount(m[3]).Value
			item.Amount = util.ParseAmount(m[4]).Value
			out = append(out, item)
			continue
		}
		if m := itemAmtPat.FindStringSubmatch(line); len(m) == 3 {
			out = append(out, internal.LineItem{
				Description: util.CollapseSpaces(m[1]),
				Amount:      util.ParseAmount(m[2]).Value,
			})
		}
	}
	return out
}

// extractLicense collects license metadata for software invoices. The block
// is only attached when at least one license signal is present.
func (e *Extractor) extractLicense(text string, notes []string) (*internal.LicenseInfo, []string) {
	info := internal.LicenseInfo{}
	found := false

	if v, ok := firstGroup(text, licenseProductPats); ok {
		info.ProductName = v
		found = true
	}
	if m := licenseSeatsPat.FindStringSubmatch(text); len(m) > 1 {
		if seats, err := strconv.Atoi(m[1]); err == nil {
			info.SeatCount = util.IntPtr(seats)
			found = true
		}
	}
	if m := licensePeriodPat.FindStringSubmatch(text); len(m) > 2 {
		if start, err := util.ParseDate(m[1], e.dateLayout); err == nil {
			info.PeriodStart = &start
		} else {
			notes = append(notes, fmt.Sprintf("license.periodStart: %v", err))
		}
		if end, err := util.ParseDate(m[2], e.dateLayout); err == nil {
			info.PeriodEnd = &end
		} else {
			notes = append(notes, fmt.Sprintf("license.periodEnd: %v", err))
		}
		found = found || info.PeriodStart != nil || info.PeriodEnd != nil
	}

	if !found {
		return nil, notes
	}
	if info.ProductName == "" {
		info.ProductName = "unspecified"
		notes = append(notes, "license.productName: no match")
	}
	return &info, notes
}
