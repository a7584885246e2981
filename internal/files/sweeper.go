package files

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/webforge-labs/webforge-backend/internal/logging"
)

// Pruner deletes cache rows older than the retention window. Satisfied
// by CacheRepo.
type Pruner interface {
	PruneOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

// Sweeper prunes stale file-cache rows on a nightly schedule. It runs
// outside the request path and never touches project state.
type Sweeper struct {
	cache     Pruner
	retention time.Duration
	log       *logging.Logger
	cron      *cron.Cron
}

func NewSweeper(cache Pruner, retention time.Duration, log *logging.Logger) *Sweeper {
	return &Sweeper{cache: cache, retention: retention, log: log}
}

// Start schedules the nightly prune (03:00). Returns after scheduling.
func (s *Sweeper) Start() error {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc("0 0 3 * * *", s.sweep)
	if err != nil {
		return err
	}

	s.cron = c
	c.Start()
	s.log.Info("file cache sweeper started", "retention", s.retention.String())
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.cache.PruneOlderThan(ctx, s.retention)
	if err != nil {
		s.log.Error("file cache prune failed", "error", err)
		return
	}
	s.log.Info("file cache pruned", "rows", n)
}
