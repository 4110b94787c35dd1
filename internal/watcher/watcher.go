package watcher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"driveinvoice/internal/config"
	"driveinvoice/internal/pipeline"
)

// Service owns the poll-and-diff loop over a Drive folder. Each tick lists
// the folder, diffs against the ledger, and runs pending files through the
// coordinator. On cancellation the in-flight tick finishes; no new tick
// starts.
type Service struct {
	coordinator *pipeline.Coordinator
	cfg         config.Config
	log         zerolog.Logger
}

func NewService(coordinator *pipeline.Coordinator, cfg config.Config, log zerolog.Logger) *Service {
	return &Service{coordinator: coordinator, cfg: cfg, log: log}
}

func (s *Service) Run(ctx context.Context, folderID string) error {
	interval := time.Duration(s.cfg.WatchIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	for {
		result, err := s.coordinator.ProcessFolder(ctx, folderID)
		if err != nil {
			s.log.Error().Err(err).Str("folderId", folderID).Msg("watch cycle failed")
		} else {
			s.log.Info().
				Str("folderId", folderID).
				Int("listed", result.Listed).
				Int("stored", result.Stored).
				Int("rejected", result.Rejected).
				Int("skipped", result.Skipped).
				Int("failed", result.Failed).
				Msg("watch cycle done")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}
