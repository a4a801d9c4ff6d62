// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wealthwise/docparse/internal/domain/bookkeeping"
)

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron        *cron.Cron
	bookkeeping *bookkeeping.Service
	logger      *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(bk *bookkeeping.Service, logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:        c,
		bookkeeping: bk,
		logger:      logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	// Bookkeeping sweep: rules plus duplicate detection, daily at 2:00 AM
	_, err := s.cron.AddFunc("0 2 * * *", s.runBookkeepingSweep)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the bookkeeping sweep (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.runBookkeepingSweep()
}

func (s *Scheduler) runBookkeepingSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	s.logger.Info("starting nightly bookkeeping sweep")
	start := time.Now()

	if err := s.bookkeeping.Sweep(ctx); err != nil {
		s.logger.Error("bookkeeping sweep failed", slog.Any("error", err))
		return
	}

	s.logger.Info("bookkeeping sweep finished", slog.Duration("took", time.Since(start)))
}
