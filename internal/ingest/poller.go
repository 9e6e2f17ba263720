package ingest

import (
	"context"
	"time"
)

// StartPoller sweeps dirs immediately and then every interval until ctx is
// done. A failed sweep is logged and retried on the next tick.
func (s *Service) StartPoller(ctx context.Context, dirs []string, interval time.Duration) {
	s.logger.Info("poller started", "dirs", len(dirs), "interval", interval.String())

	s.sweep(ctx, dirs)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("poller stopped")
			return
		case <-ticker.C:
			s.sweep(ctx, dirs)
		}
	}
}

// sweep runs one IngestDirectory pass over every directory.
func (s *Service) sweep(ctx context.Context, dirs []string) {
	start := time.Now()
	for _, dir := range dirs {
		if ctx.Err() != nil {
			return
		}
		sum, err := s.IngestDirectory(ctx, dir)
		if err != nil {
			s.logger.Error("sweep failed", "dir", dir, "error", err)
			continue
		}
		s.logger.Info("directory swept",
			"dir", dir,
			"listed", sum.Listed,
			"ingested", sum.Ingested,
			"skipped", sum.Skipped,
			"failed", sum.Failed,
			"records", sum.Records,
			"gaps", len(sum.Gaps),
			"duration_ms", sum.Duration.Milliseconds(),
		)
	}
	s.logger.Debug("sweep completed", "duration_ms", time.Since(start).Milliseconds())
}
