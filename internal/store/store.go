package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"driveinvoice/internal"
	"driveinvoice/internal/util"
)

var ErrNotFound = errors.New("invoice not found")

// Store keeps one JSON document per invoice record under dir, with an
// in-memory primary map and a vendor index derived from it. Reads are
// concurrent; upserts are serialized by the write lock so the index never
// diverges from the primary set.
type Store struct {
	dir string

	mu       sync.RWMutex
	records  map[string]internal.InvoiceRecord
	byVendor map[string][]string
	nextSeq  int64
}

// Open loads every existing document from dir and rebuilds the vendor index.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	s := &Store{
		dir:     dir,
		records: map[string]internal.InvoiceRecord{},
		nextSeq: 1,
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		blob, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		var rec internal.InvoiceRecord
		if err := json.Unmarshal(blob, &rec); err != nil {
			return nil, fmt.Errorf("corrupt invoice document %s: %w", entry.Name(), err)
		}
		if rec.ID == "" {
			rec.ID = strings.TrimSuffix(entry.Name(), ".json")
		}
		s.records[rec.ID] = rec
		if rec.Seq >= s.nextSeq {
			s.nextSeq = rec.Seq + 1
		}
	}

	s.rebuildVendorIndex()
	return s, nil
}

// Upsert replaces any record with the same id. The document hits disk before
// the in-memory swap, so readers only ever observe fully persisted records.
func (s *Store) Upsert(rec internal.InvoiceRecord) (string, error) {
	if rec.ID == "" {
		return "", errors.New("record id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[rec.ID]; ok {
		rec.Seq = existing.Seq
	} else {
		rec.Seq = s.nextSeq
		s.nextSeq++
	}

	if err := s.writeDocument(rec); err != nil {
		return "", err
	}
	s.records[rec.ID] = rec
	s.rebuildVendorIndex()
	return rec.ID, nil
}

func (s *Store) Get(id string) (internal.InvoiceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return internal.InvoiceRecord{}, ErrNotFound
	}
	return rec, nil
}

// ListAll returns records in ingestion order.
func (s *Store) ListAll() []internal.InvoiceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]internal.InvoiceRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// FindByVendor looks up records by normalized vendor name, in ingestion order.
func (s *Store) FindByVendor(name string) []internal.InvoiceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byVendor[util.NormalizeVendor(name)]
	out := make([]internal.InvoiceRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Vendors returns the distinct normalized vendor buckets, sorted.
func (s *Store) Vendors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.byVendor))
	for vendor := range s.byVendor {
		out = append(out, vendor)
	}
	sort.Strings(out)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// rebuildVendorIndex derives the secondary index from the primary map. It is
// never updated by hand anywhere else. Callers hold the write lock.
func (s *Store) rebuildVendorIndex() {
	index := map[string][]string{}
	for id, rec := range s.records {
		bucket := util.NormalizeVendor(rec.VendorName)
		if bucket == "" {
			bucket = internal.UnknownVendor
		}
		index[bucket] = append(index[bucket], id)
	}
	s.byVendor = index
}

func (s *Store) writeDocument(rec internal.InvoiceRecord) error {
	blob, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, rec.ID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
