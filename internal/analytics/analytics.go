package analytics

import (
	"sort"
	"strings"
	"time"

	"driveinvoice/internal"
	"driveinvoice/internal/store"
	"driveinvoice/internal/util"
)

// Engine answers read-only queries over a snapshot of the invoice store.
// Every method is a pure function of store contents at call time; "now" is
// always a parameter so results are reproducible.
type Engine struct {
	store *store.Store
}

func NewEngine(st *store.Store) *Engine {
	return &Engine{store: st}
}

func (e *Engine) SpendByVendor() []internal.VendorSummary {
	return SpendByVendor(e.store.ListAll())
}

func (e *Engine) Summary() Summary {
	return Summarize(e.store.ListAll())
}

func (e *Engine) LicenseUtilization(now time.Time, window time.Duration) []LicenseUsage {
	return LicenseUtilization(e.store.ListAll(), now, window)
}

func (e *Engine) PaymentTerms() []VendorTerms {
	return PaymentTerms(e.store.ListAll())
}

func (e *Engine) UpcomingPayments(now time.Time, withinDays int) []PaymentDue {
	return UpcomingPayments(e.store.ListAll(), now, withinDays)
}

func (e *Engine) Search(criteria internal.SearchCriteria) []internal.InvoiceRecord {
	return Search(e.store.ListAll(), criteria)
}

// SpendByVendor groups by normalized vendor name and sums totals, descending
// by spend. Records without a parsed total still count toward the bucket.
func SpendByVendor(records []internal.InvoiceRecord) []internal.VendorSummary {
	buckets := map[string]*internal.VendorSummary{}
	for _, rec := range records {
		vendor := util.NormalizeVendor(rec.VendorName)
		if vendor == "" {
			vendor = internal.UnknownVendor
		}
		s, ok := buckets[vendor]
		if !ok {
			s = &internal.VendorSummary{Vendor: vendor}
			buckets[vendor] = s
		}
		s.InvoiceCount++
		if rec.TotalAmount != nil {
			s.TotalSpend += *rec.TotalAmount
		}
		if rec.InvoiceDate != nil {
			if s.Earliest == nil || rec.InvoiceDate.Before(*s.Earliest) {
				s.Earliest = rec.InvoiceDate
			}
			if s.Latest == nil || rec.InvoiceDate.After(*s.Latest) {
				s.Latest = rec.InvoiceDate
			}
		}
	}

	out := make([]internal.VendorSummary, 0, len(buckets))
	for _, s := range buckets {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSpend != out[j].TotalSpend {
			return out[i].TotalSpend > out[j].TotalSpend
		}
		return out[i].Vendor < out[j].Vendor
	})
	return out
}

type Summary struct {
	TotalInvoices   int                `json:"totalInvoices"`
	VendorCount     int                `json:"vendorCount"`
	Vendors         []string           `json:"vendors"`
	TotalByCurrency map[string]float64 `json:"totalByCurrency"`
	EarliestDate    *time.Time         `json:"earliestDate,omitempty"`
	LatestDate      *time.Time         `json:"latestDate,omitempty"`
}

func Summarize(records []internal.InvoiceRecord) Summary {
	out := Summary{
		TotalInvoices:   len(records),
		TotalByCurrency: map[string]float64{},
	}
	vendors := map[string]struct{}{}
	for _, rec := range records {
		vendor := util.NormalizeVendor(rec.VendorName)
		if vendor != "" && vendor != internal.UnknownVendor {
			vendors[vendor] = struct{}{}
		}
		if rec.TotalAmount != nil {
			out.TotalByCurrency[rec.Currency] += *rec.TotalAmount
		}
		if rec.InvoiceDate != nil {
			if out.EarliestDate == nil || rec.InvoiceDate.Before(*out.EarliestDate) {
				out.EarliestDate = rec.InvoiceDate
			}
			if out.LatestDate == nil || rec.InvoiceDate.After(*out.LatestDate) {
				out.LatestDate = rec.InvoiceDate
			}
		}
	}
	out.VendorCount = len(vendors)
	out.Vendors = make([]string, 0, len(vendors))
	for v := range vendors {
		out.Vendors = append(out.Vendors, v)
	}
	sort.Strings(out.Vendors)
	return out
}

type LicenseStatus string

const (
	LicenseActive   LicenseStatus = "active"
	LicenseExpiring LicenseStatus = "expiring"
	LicenseExpired  LicenseStatus = "expired"
	LicenseUnknown  LicenseStatus = "unknown"
)

type LicenseUsage struct {
	InvoiceID   string        `json:"invoiceId"`
	Vendor      string        `json:"vendor"`
	ProductName string        `json:"productName"`
	SeatCount   *int          `json:"seatCount,omitempty"`
	PeriodStart *time.Time    `json:"periodStart,omitempty"`
	PeriodEnd   *time.Time    `json:"periodEnd,omitempty"`
	Status      LicenseStatus `json:"status"`
}

// LicenseUtilization reports license metadata across invoices. A license is
// expiring when its period ends inside the window after now.
func LicenseUtilization(records []internal.InvoiceRecord, now time.Time, window time.Duration) []LicenseUsage {
	var out []LicenseUsage
	for _, rec := range records {
		if rec.License == nil {
			continue
		}
		usage := LicenseUsage{
			InvoiceID:   rec.ID,
			Vendor:      util.NormalizeVendor(rec.VendorName),
			ProductName: rec.License.ProductName,
			SeatCount:   rec.License.SeatCount,
			PeriodStart: rec.License.PeriodStart,
			PeriodEnd:   rec.License.PeriodEnd,
			Status:      LicenseUnknown,
		}
		if rec.License.PeriodEnd != nil {
			end := *rec.License.PeriodEnd
			switch {
			case end.Before(now):
				usage.Status = LicenseExpired
			case end.Before(now.Add(window)):
				usage.Status = LicenseExpiring
			default:
				usage.Status = LicenseActive
			}
		}
		out = append(out, usage)
	}
	return out
}

type VendorTerms struct {
	Vendor      string      `json:"vendor"`
	NetDaysDist map[int]int `json:"netDaysDist"`
	Samples     []string    `json:"samples,omitempty"`
}

// PaymentTerms groups parsed net-days by vendor, with raw terms text kept as
// samples for terms that did not parse to a number.
func PaymentTerms(records []internal.InvoiceRecord) []VendorTerms {
	buckets := map[string]*VendorTerms{}
	for _, rec := range records {
		if rec.PaymentTerms == nil && rec.NetDays == nil {
			continue
		}
		vendor := util.NormalizeVendor(rec.VendorName)
		if vendor == "" {
			vendor = internal.UnknownVendor
		}
		t, ok := buckets[vendor]
		if !ok {
			t = &VendorTerms{Vendor: vendor, NetDaysDist: map[int]int{}}
			buckets[vendor] = t
		}
		if rec.NetDays != nil {
			t.NetDaysDist[*rec.NetDays]++
		}
		if rec.PaymentTerms != nil && len(t.Samples) < 5 {
			t.Samples = append(t.Samples, *rec.PaymentTerms)
		}
	}

	out := make([]VendorTerms, 0, len(buckets))
	for _, t := range buckets {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Vendor < out[j].Vendor })
	return out
}

type PaymentDue struct {
	InvoiceID string    `json:"invoiceId"`
	Vendor    string    `json:"vendor"`
	DueDate   time.Time `json:"dueDate"`
	Amount    *float64  `json:"amount,omitempty"`
	Currency  string    `json:"currency"`
}

// UpcomingPayments returns records due in [now, now+withinDays], ascending
// by due date.
func UpcomingPayments(records []internal.InvoiceRecord, now time.Time, withinDays int) []PaymentDue {
	cutoff := now.AddDate(0, 0, withinDays)

	var out []PaymentDue
	for _, rec := range records {
		if rec.DueDate == nil {
			continue
		}
		due := *rec.DueDate
		if due.Before(now) || due.After(cutoff) {
			continue
		}
		out = append(out, PaymentDue{
			InvoiceID: rec.ID,
			Vendor:    util.NormalizeVendor(rec.VendorName),
			DueDate:   due,
			Amount:    rec.TotalAmount,
			Currency:  rec.Currency,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

// Search applies the supplied filters, ANDed, and returns matches in store
// order.
func Search(records []internal.InvoiceRecord, criteria internal.SearchCriteria) []internal.InvoiceRecord {
	var out []internal.InvoiceRecord
	for _, rec := range records {
		if !matches(rec, criteria) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func matches(rec internal.InvoiceRecord, c internal.SearchCriteria) bool {
	if c.Vendor != nil {
		if !strings.Contains(util.NormalizeVendor(rec.VendorName), util.NormalizeVendor(*c.Vendor)) {
			return false
		}
	}
	if c.MinAmount != nil {
		if rec.TotalAmount == nil || *rec.TotalAmount < *c.MinAmount {
			return false
		}
	}
	if c.MaxAmount != nil {
		if rec.TotalAmount == nil || *rec.TotalAmount > *c.MaxAmount {
			return false
		}
	}
	if c.DateFrom != nil {
		if rec.InvoiceDate == nil || rec.InvoiceDate.Before(*c.DateFrom) {
			return false
		}
	}
	if c.DateTo != nil {
		if rec.InvoiceDate == nil || rec.InvoiceDate.After(*c.DateTo) {
			return false
		}
	}
	if c.Confidence != nil && rec.Confidence != *c.Confidence {
		return false
	}
	if c.Keyword != nil {
		if !strings.Contains(strings.ToLower(rec.RawText), strings.ToLower(*c.Keyword)) {
			return false
		}
	}
	return true
}
