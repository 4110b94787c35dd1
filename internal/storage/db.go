package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"driveinvoice/internal"
)

// DB is the processing ledger: which remote files have been seen, their
// content fingerprint, and the terminal state each one reached. It is what
// makes re-ingestion idempotent across process restarts.
type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS files (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  folderId TEXT NOT NULL,
  fileId TEXT NOT NULL,
  name TEXT,
  modifiedTime TEXT,
  fingerprint TEXT,
  state TEXT NOT NULL,
  invoiceId TEXT,
  note TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(folderId, fileId)
);
CREATE INDEX IF NOT EXISTS idx_files_fingerprint ON files(fingerprint);
CREATE INDEX IF NOT EXISTS idx_files_state ON files(state);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  folderId TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertFile(row internal.FileRow) (internal.FileRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO files (folderId, fileId, name, modifiedTime, fingerprint, state, invoiceId, note)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(folderId, fileId) DO UPDATE SET
  name=excluded.name,
  modifiedTime=excluded.modifiedTime,
  fingerprint=excluded.fingerprint,
  state=excluded.state,
  invoiceId=excluded.invoiceId,
  note=excluded.note,
  updatedAt=CURRENT_TIMESTAMP
`, row.FolderID, row.FileID, row.Name, row.ModifiedTime, row.Fingerprint, row.State, row.InvoiceID, row.Note)
	if err != nil {
		return internal.FileRow{}, err
	}

	stored, err := d.GetFile(row.FolderID, row.FileID)
	if err != nil {
		return internal.FileRow{}, err
	}
	if stored == nil {
		return internal.FileRow{}, errors.New("failed to upsert file row")
	}
	return *stored, nil
}

func (d *DB) GetFile(folderID, fileID string) (*internal.FileRow, error) {
	var row internal.FileRow
	err := d.conn.QueryRow(`
SELECT id, folderId, fileId, name, modifiedTime, fingerprint, state, invoiceId, note
FROM files WHERE folderId = ? AND fileId = ?
`, folderID, fileID).Scan(
		&row.ID, &row.FolderID, &row.FileID, &row.Name, &row.ModifiedTime, &row.Fingerprint, &row.State, &row.InvoiceID, &row.Note,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetFileByFingerprint returns any ledger row that already reached a state
// for identical content, regardless of which file it arrived as.
func (d *DB) GetFileByFingerprint(fingerprint string) (*internal.FileRow, error) {
	var row internal.FileRow
	err := d.conn.QueryRow(`
SELECT id, folderId, fileId, name, modifiedTime, fingerprint, state, invoiceId, note
FROM files WHERE fingerprint = ? ORDER BY id ASC LIMIT 1
`, fingerprint).Scan(
		&row.ID, &row.FolderID, &row.FileID, &row.Name, &row.ModifiedTime, &row.Fingerprint, &row.State, &row.InvoiceID, &row.Note,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListFilesByState(state string, limit int) ([]internal.FileRow, error) {
	rows, err := d.conn.Query(`
SELECT id, folderId, fileId, name, modifiedTime, fingerprint, state, invoiceId, note
FROM files WHERE state = ? ORDER BY id ASC LIMIT ?
`, state, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.FileRow
	for rows.Next() {
		var row internal.FileRow
		if err := rows.Scan(&row.ID, &row.FolderID, &row.FileID, &row.Name, &row.ModifiedTime, &row.Fingerprint, &row.State, &row.InvoiceID, &row.Note); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateFileState(id int, state string, invoiceID, note *string) error {
	_, err := d.conn.Exec(`
UPDATE files SET state = ?, invoiceId = ?, note = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?
`, state, invoiceID, note, id)
	return err
}

func (d *DB) InsertRun(traceID, folderID string, counts map[string]int, timings map[string]float64) error {
	countsJSON, _ := json.Marshal(counts)
	timingsJSON, _ := json.Marshal(timings)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, folderId, countsJson, timingsJson) VALUES (?, ?, ?, ?)`,
		traceID, folderID, string(countsJSON), string(timingsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (d *DB) MustFile(folderID, fileID string) (internal.FileRow, error) {
	row, err := d.GetFile(folderID, fileID)
	if err != nil {
		return internal.FileRow{}, err
	}
	if row == nil {
		return internal.FileRow{}, fmt.Errorf("file not found: folderId=%s fileId=%s", folderID, fileID)
	}
	return *row, nil
}
