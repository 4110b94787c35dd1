package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"driveinvoice/internal"
	"driveinvoice/internal/config"
	"driveinvoice/internal/storage"
	"driveinvoice/internal/store"
)

const sampleInvoice = `Invoice Number: INV-9001
Invoice Date: 02/01/2025
From: Acme Corp
Bill To: Initech LLC
Total Amount Due: $1,250.00
Payment Terms: Net 30`

const sampleProse = `Quarterly planning notes. The team agreed to revisit hiring in June.`

type fakeConnector struct {
	files map[string][]internal.RemoteFile
	blobs map[string][]byte
	errs  map[string]error
}

func (f *fakeConnector) ListFolder(_ context.Context, folderID string) ([]internal.RemoteFile, error) {
	return f.files[folderID], nil
}

func (f *fakeConnector) Download(_ context.Context, fileID string) ([]byte, error) {
	if err := f.errs[fileID]; err != nil {
		return nil, err
	}
	blob, ok := f.blobs[fileID]
	if !ok {
		return nil, errors.New("no such file: " + fileID)
	}
	return blob, nil
}

func newTestCoordinator(t *testing.T, conn *fakeConnector) (*Coordinator, *store.Store, *storage.DB) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "invoices"))
	if err != nil {
		t.Fatal(err)
	}
	db, err := storage.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		DefaultCurrency:   "USD",
		DateLayout:        "01/02/2006",
		ClassifyThreshold: 0.45,
		WorkerCount:       2,
	}
	c := NewCoordinator(st, db, conn, cfg, zerolog.Nop())
	// Tests feed plain text instead of PDF bytes.
	c.extractText = func(blob []byte) (string, error) { return string(blob), nil }
	return c, st, db
}

func TestProcessFolderStoresInvoice(t *testing.T) {
	conn := &fakeConnector{
		files: map[string][]internal.RemoteFile{
			"folder-1": {{ID: "f1", Name: "acme.pdf", ModifiedTime: "2025-02-01T00:00:00Z"}},
		},
		blobs: map[string][]byte{"f1": []byte(sampleInvoice)},
	}
	c, st, db := newTestCoordinator(t, conn)

	result, err := c.ProcessFolder(context.Background(), "folder-1")
	if err != nil {
		t.Fatal(err)
	}
	if result.Stored != 1 || result.Rejected != 0 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if st.Len() != 1 {
		t.Fatalf("store len got %d", st.Len())
	}

	rec := st.ListAll()[0]
	if rec.VendorName != "Acme Corp" {
		t.Fatalf("vendor got %q", rec.VendorName)
	}
	if rec.Source.FileID != "f1" || rec.Source.FolderID != "folder-1" {
		t.Fatalf("source got %+v", rec.Source)
	}

	row, err := db.MustFile("folder-1", "f1")
	if err != nil {
		t.Fatal(err)
	}
	if row.State != string(internal.FileStateStored) {
		t.Fatalf("ledger state got %q", row.State)
	}
	if row.InvoiceID == nil || *row.InvoiceID != rec.ID {
		t.Fatalf("ledger invoiceId got %v, want %q", row.InvoiceID, rec.ID)
	}
}

func TestProcessFolderSecondScanSkips(t *testing.T) {
	conn := &fakeConnector{
		files: map[string][]internal.RemoteFile{
			"folder-1": {{ID: "f1", Name: "acme.pdf", ModifiedTime: "2025-02-01T00:00:00Z"}},
		},
		blobs: map[string][]byte{"f1": []byte(sampleInvoice)},
	}
	c, st, _ := newTestCoordinator(t, conn)

	if _, err := c.ProcessFolder(context.Background(), "folder-1"); err != nil {
		t.Fatal(err)
	}
	result, err := c.ProcessFolder(context.Background(), "folder-1")
	if err != nil {
		t.Fatal(err)
	}
	if result.Skipped != 1 || result.Stored != 0 {
		t.Fatalf("second scan: %+v", result)
	}
	if st.Len() != 1 {
		t.Fatalf("store len got %d", st.Len())
	}
}

func TestProcessFileIdenticalContentTwoFiles(t *testing.T) {
	blob := []byte(sampleInvoice)
	conn := &fakeConnector{
		blobs: map[string][]byte{"f1": blob, "f2": blob},
	}
	c, st, db := newTestCoordinator(t, conn)

	out1, err := c.ProcessFile(context.Background(), "folder-1", internal.RemoteFile{ID: "f1", Name: "a.pdf"})
	if err != nil || out1 != OutcomeStored {
		t.Fatalf("first file: outcome=%v err=%v", out1, err)
	}
	out2, err := c.ProcessFile(context.Background(), "folder-1", internal.RemoteFile{ID: "f2", Name: "copy-of-a.pdf"})
	if err != nil || out2 != OutcomeSkipped {
		t.Fatalf("duplicate content: outcome=%v err=%v", out2, err)
	}

	if st.Len() != 1 {
		t.Fatalf("store len got %d, duplicate content must not add a record", st.Len())
	}
	row, err := db.MustFile("folder-1", "f2")
	if err != nil {
		t.Fatal(err)
	}
	if row.State != string(internal.FileStateStored) || row.InvoiceID == nil {
		t.Fatalf("duplicate ledger row: %+v", row)
	}
}

func TestProcessFileRejectsNonInvoice(t *testing.T) {
	conn := &fakeConnector{blobs: map[string][]byte{"f1": []byte(sampleProse)}}
	c, st, db := newTestCoordinator(t, conn)

	out, err := c.ProcessFile(context.Background(), "folder-1", internal.RemoteFile{ID: "f1", Name: "notes.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if out != OutcomeRejected {
		t.Fatalf("outcome got %v", out)
	}
	if st.Len() != 0 {
		t.Fatalf("rejected file must not be stored, len=%d", st.Len())
	}
	row, err := db.MustFile("folder-1", "f1")
	if err != nil {
		t.Fatal(err)
	}
	if row.State != string(internal.FileStateRejected) || row.Note == nil {
		t.Fatalf("ledger row: %+v", row)
	}
}

func TestProcessFileExtractionFailure(t *testing.T) {
	conn := &fakeConnector{blobs: map[string][]byte{"f1": []byte("garbled")}}
	c, _, db := newTestCoordinator(t, conn)
	c.extractText = func([]byte) (string, error) { return "", errors.New("no readable pages") }

	out, err := c.ProcessFile(context.Background(), "folder-1", internal.RemoteFile{ID: "f1", Name: "scan.pdf"})
	if err == nil {
		t.Fatal("expected error")
	}
	if out != OutcomeFailed {
		t.Fatalf("outcome got %v", out)
	}
	row, err := db.MustFile("folder-1", "f1")
	if err != nil {
		t.Fatal(err)
	}
	if row.State != string(internal.FileStateFailed) {
		t.Fatalf("ledger state got %q", row.State)
	}
}

func TestProcessFileFetchErrorLeavesNoLedgerRow(t *testing.T) {
	conn := &fakeConnector{errs: map[string]error{"f1": errors.New("403 rate limited")}}
	c, _, db := newTestCoordinator(t, conn)

	out, err := c.ProcessFile(context.Background(), "folder-1", internal.RemoteFile{ID: "f1", Name: "a.pdf"})
	if err == nil {
		t.Fatal("expected error")
	}
	if out != "" {
		t.Fatalf("outcome got %v", out)
	}
	row, err := db.GetFile("folder-1", "f1")
	if err != nil {
		t.Fatal(err)
	}
	if row != nil {
		t.Fatalf("fetch failure must stay retryable, got ledger row %+v", row)
	}
}
