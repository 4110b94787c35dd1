package storage

import (
	"path/filepath"
	"testing"

	"driveinvoice/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpsertFileConflict(t *testing.T) {
	db := openTestDB(t)

	row, err := db.UpsertFile(internal.FileRow{
		FolderID: "folder-1", FileID: "f1", Name: "a.pdf",
		Fingerprint: "abc", State: string(internal.FileStateStored),
	})
	if err != nil {
		t.Fatal(err)
	}
	if row.ID == 0 {
		t.Fatal("missing row id")
	}

	note := "reprocessed"
	again, err := db.UpsertFile(internal.FileRow{
		FolderID: "folder-1", FileID: "f1", Name: "a.pdf",
		Fingerprint: "def", State: string(internal.FileStateFailed), Note: &note,
	})
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != row.ID {
		t.Fatalf("conflict created new row: %d vs %d", again.ID, row.ID)
	}
	if again.State != string(internal.FileStateFailed) || again.Fingerprint != "def" {
		t.Fatalf("row not updated: %+v", again)
	}
	if again.Note == nil || *again.Note != note {
		t.Fatalf("note got %v", again.Note)
	}
}

func TestGetFileMissing(t *testing.T) {
	db := openTestDB(t)
	row, err := db.GetFile("folder-1", "nope")
	if err != nil {
		t.Fatal(err)
	}
	if row != nil {
		t.Fatalf("expected nil, got %+v", row)
	}
}

func TestGetFileByFingerprint(t *testing.T) {
	db := openTestDB(t)

	for _, fileID := range []string{"f1", "f2"} {
		if _, err := db.UpsertFile(internal.FileRow{
			FolderID: "folder-1", FileID: fileID,
			Fingerprint: "same-bytes", State: string(internal.FileStateStored),
		}); err != nil {
			t.Fatal(err)
		}
	}

	row, err := db.GetFileByFingerprint("same-bytes")
	if err != nil {
		t.Fatal(err)
	}
	if row == nil || row.FileID != "f1" {
		t.Fatalf("expected the earliest row, got %+v", row)
	}

	none, err := db.GetFileByFingerprint("unseen")
	if err != nil {
		t.Fatal(err)
	}
	if none != nil {
		t.Fatalf("expected nil, got %+v", none)
	}
}

func TestListFilesByState(t *testing.T) {
	db := openTestDB(t)

	states := []string{"stored", "rejected", "stored"}
	for i, state := range states {
		if _, err := db.UpsertFile(internal.FileRow{
			FolderID: "folder-1", FileID: string(rune('a' + i)),
			Fingerprint: "fp", State: state,
		}); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := db.ListFilesByState("stored", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	db := openTestDB(t)

	missing, err := db.GetMetadata("cursor")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatalf("expected nil, got %v", *missing)
	}

	if err := db.SetMetadata("cursor", "page-2"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("cursor", "page-3"); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetMetadata("cursor")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || *got != "page-3" {
		t.Fatalf("got %v", got)
	}
}

func TestInsertRun(t *testing.T) {
	db := openTestDB(t)
	err := db.InsertRun("trace-1", "folder-1",
		map[string]int{"stored": 2},
		map[string]float64{"totalMs": 12.5})
	if err != nil {
		t.Fatal(err)
	}
}
