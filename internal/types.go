package internal

import "time"

// Confidence is a coarse quality signal derived from how many of the
// required fields (vendor, total, invoice date) were extracted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// UnknownVendor is the bucket for records whose vendor could not be parsed.
const UnknownVendor = "unknown"

type LineItem struct {
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unitPrice,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
}

type LicenseInfo struct {
	ProductName string     `json:"productName"`
	SeatCount   *int       `json:"seatCount,omitempty"`
	PeriodStart *time.Time `json:"periodStart,omitempty"`
	PeriodEnd   *time.Time `json:"periodEnd,omitempty"`
}

// SourceFileRef points back at the remote file a record was extracted from.
type SourceFileRef struct {
	FolderID     string `json:"folderId"`
	FileID       string `json:"fileId"`
	FileName     string `json:"fileName"`
	ModifiedTime string `json:"modifiedTime"`
}

type InvoiceRecord struct {
	ID            string        `json:"id"`
	Seq           int64         `json:"seq"`
	Source        SourceFileRef `json:"source"`
	InvoiceNumber *string       `json:"invoiceNumber,omitempty"`
	PONumber      *string       `json:"poNumber,omitempty"`
	VendorName    string        `json:"vendorName"`
	VendorAddress *string       `json:"vendorAddress,omitempty"`
	BilledTo      *string       `json:"billedTo,omitempty"`
	InvoiceDate   *time.Time    `json:"invoiceDate,omitempty"`
	DueDate       *time.Time    `json:"dueDate,omitempty"`
	LineItems     []LineItem    `json:"lineItems,omitempty"`
	Subtotal      *float64      `json:"subtotal,omitempty"`
	TaxAmount     *float64      `json:"taxAmount,omitempty"`
	TotalAmount   *float64      `json:"totalAmount,omitempty"`
	Currency      string        `json:"currency"`
	PaymentTerms  *string       `json:"paymentTerms,omitempty"`
	NetDays       *int          `json:"netDays,omitempty"`
	PaymentMethod *string       `json:"paymentMethod,omitempty"`
	License       *LicenseInfo  `json:"license,omitempty"`
	Confidence    Confidence    `json:"confidence"`
	Notes         []string      `json:"notes,omitempty"`
	RawText       string        `json:"rawText"`
	IngestedAt    time.Time     `json:"ingestedAt"`
}

// FileState is the terminal outcome recorded for a processed remote file.
type FileState string

const (
	FileStateStored   FileState = "stored"
	FileStateRejected FileState = "rejected"
	FileStateFailed   FileState = "failed"
)

func (s FileState) Terminal() bool {
	return s == FileStateStored || s == FileStateRejected || s == FileStateFailed
}

type RemoteFile struct {
	ID           string
	Name         string
	MimeType     string
	MD5Checksum  string
	ModifiedTime string
}

type FileRow struct {
	ID           int
	FolderID     string
	FileID       string
	Name         string
	ModifiedTime string
	Fingerprint  string
	State        string
	InvoiceID    *string
	Note         *string
}

// SearchCriteria carries optional filters; supplied filters are ANDed.
type SearchCriteria struct {
	Vendor     *string
	MinAmount  *float64
	MaxAmount  *float64
	DateFrom   *time.Time
	DateTo     *time.Time
	Confidence *Confidence
	Keyword    *string
}

type VendorSummary struct {
	Vendor       string     `json:"vendor"`
	InvoiceCount int        `json:"invoiceCount"`
	TotalSpend   float64    `json:"totalSpend"`
	Earliest     *time.Time `json:"earliest,omitempty"`
	Latest       *time.Time `json:"latest,omitempty"`
}
