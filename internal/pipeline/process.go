package pipeline

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"driveinvoice/internal"
	"driveinvoice/internal/config"
	"driveinvoice/internal/connectors"
	"driveinvoice/internal/storage"
	"driveinvoice/internal/store"
)

type FileOutcome string

const (
	OutcomeStored   FileOutcome = "stored"
	OutcomeRejected FileOutcome = "rejected"
	OutcomeFailed   FileOutcome = "failed"
	OutcomeSkipped  FileOutcome = "skipped"
)

// Coordinator runs the per-file pipeline: download, fingerprint, normalize,
// classify, extract, store. The ledger short-circuits files whose content
// already reached a terminal state.
type Coordinator struct {
	store     *store.Store
	db        *storage.DB
	connector connectors.FileConnector
	extractor *Extractor
	cfg       config.Config
	log       zerolog.Logger

	// extractText is the opaque bytes→text boundary; swapped in tests.
	extractText func([]byte) (string, error)
}

func NewCoordinator(st *store.Store, db *storage.DB, conn connectors.FileConnector, cfg config.Config, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:       st,
		db:          db,
		connector:   conn,
		extractor:   NewExtractor(cfg),
		cfg:         cfg,
		log:         log,
		extractText: ExtractPDFText,
	}
}

type FolderResult struct {
	Listed      int
	Skipped     int
	Stored      int
	Rejected    int
	Failed      int
	FetchErrors int
}

// ProcessFolder lists the folder, diffs against the ledger, and runs the
// pending files through a bounded worker pool. A bad file never blocks the
// rest of the batch; once cancellation is requested no new files are
// admitted, while files already in flight finish.
func (c *Coordinator) ProcessFolder(ctx context.Context, folderID string) (FolderResult, error) {
	start := time.Now()

	files, err := c.connector.ListFolder(ctx, folderID)
	if err != nil {
		return FolderResult{}, err
	}

	result := FolderResult{Listed: len(files)}
	pending := make([]internal.RemoteFile, 0, len(files))
	for _, f := range files {
		row, err := c.db.GetFile(folderID, f.ID)
		if err != nil {
			return result, err
		}
		if row != nil && internal.FileState(row.State).Terminal() && row.ModifiedTime == f.ModifiedTime {
			result.Skipped++
			continue
		}
		pending = append(pending, f)
	}

	workers := c.cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for _, f := range pending {
		f := f
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome, err := c.ProcessFile(ctx, folderID, f)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case OutcomeStored:
				result.Stored++
			case OutcomeRejected:
				result.Rejected++
			case OutcomeSkipped:
				result.Skipped++
			case OutcomeFailed:
				result.Failed++
			default:
				result.FetchErrors++
			}
			if err != nil {
				c.log.Warn().Err(err).Str("fileId", f.ID).Str("name", f.Name).Msg("file processing failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	counts := map[string]int{
		"listed":      result.Listed,
		"skipped":     result.Skipped,
		"stored":      result.Stored,
		"rejected":    result.Rejected,
		"failed":      result.Failed,
		"fetchErrors": result.FetchErrors,
	}
	timings := map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}
	_ = c.db.InsertRun(traceID(), folderID, counts, timings)

	return result, nil
}

// ProcessFileByID runs a single known file through the pipeline, for the
// one-shot CLI path.
func (c *Coordinator) ProcessFileByID(ctx context.Context, folderID, fileID string) (FileOutcome, error) {
	return c.ProcessFile(ctx, folderID, internal.RemoteFile{ID: fileID, Name: fileID})
}

func (c *Coordinator) ProcessFile(ctx context.Context, folderID string, f internal.RemoteFile) (FileOutcome, error) {
	blob, err := c.connector.Download(ctx, f.ID)
	if err != nil {
		// Retryable: no terminal ledger state is written, so the next
		// tick sees the file again.
		return "", err
	}

	sum := sha256.Sum256(blob)
	fingerprint := hex.EncodeToString(sum[:])

	existing, err := c.db.GetFileByFingerprint(fingerprint)
	if err != nil {
		return "", err
	}
	if existing != nil && internal.FileState(existing.State).Terminal() {
		// Identical content already processed; record this file ref
		// against the same outcome without re-running the pipeline.
		if _, err := c.upsertLedger(folderID, f, fingerprint, internal.FileState(existing.State), existing.InvoiceID, existing.Note); err != nil {
			return "", err
		}
		return OutcomeSkipped, nil
	}

	text, extractErr := c.extractText(blob)
	if extractErr != nil {
		note := extractErr.Error()
		if _, err := c.upsertLedger(folderID, f, fingerprint, internal.FileStateFailed, nil, &note); err != nil {
			return "", err
		}
		return OutcomeFailed, extractErr
	}

	normalized := NormalizeText(text)
	decision := Classify(normalized, c.cfg.ClassifyThreshold)
	if !decision.IsInvoice {
		note := fmt.Sprintf("not an invoice (score %.2f)", decision.Score)
		if _, err := c.upsertLedger(folderID, f, fingerprint, internal.FileStateRejected, nil, &note); err != nil {
			return "", err
		}
		c.log.Debug().Str("fileId", f.ID).Float64("score", decision.Score).Msg("classification reject")
		return OutcomeRejected, nil
	}

	rec := c.extractor.Extract(normalized)
	rec.ID = fingerprint
	rec.Source = internal.SourceFileRef{
		FolderID:     folderID,
		FileID:       f.ID,
		FileName:     f.Name,
		ModifiedTime: f.ModifiedTime,
	}
	rec.IngestedAt = time.Now().UTC()

	invoiceID, err := c.store.Upsert(rec)
	if err != nil {
		return "", err
	}
	if _, err := c.upsertLedger(folderID, f, fingerprint, internal.FileStateStored, &invoiceID, nil); err != nil {
		return "", err
	}

	c.log.Info().
		Str("fileId", f.ID).
		Str("invoiceId", invoiceID).
		Str("vendor", rec.VendorName).
		Str("confidence", string(rec.Confidence)).
		Msg("invoice stored")
	return OutcomeStored, nil
}

func (c *Coordinator) upsertLedger(folderID string, f internal.RemoteFile, fingerprint string, state internal.FileState, invoiceID, note *string) (internal.FileRow, error) {
	return c.db.UpsertFile(internal.FileRow{
		FolderID:     folderID,
		FileID:       f.ID,
		Name:         f.Name,
		ModifiedTime: f.ModifiedTime,
		Fingerprint:  fingerprint,
		State:        string(state),
		InvoiceID:    invoiceID,
		Note:         note,
	})
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
