// Package scheduler runs the periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron     *cron.Cron
	jobs     Jobs
	schedule string
	logger   *slog.Logger
}

// New builds a scheduler evaluating schedule in loc. Panicking jobs are
// recovered and logged.
func New(jobs Jobs, schedule string, loc *time.Location, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	return &Scheduler{cron: c, jobs: jobs, schedule: schedule, logger: logger}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.jobs.ExpireLeases); err != nil {
		return fmt.Errorf("schedule lease expiry %q: %w", s.schedule, err)
	}
	s.logger.Info("scheduled lease expiry job", "schedule", s.schedule)
	s.cron.Start()
	return nil
}

// Stop halts scheduling. The returned context is done when running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
