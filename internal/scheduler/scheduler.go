package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"ecodefill-backend/internal/jobs"
	"ecodefill-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config().Scheduler

	if _, err := s.cron.AddFunc(cfg.BackfillRegistrations, s.jobs.BackfillRegistrations); err != nil {
		logger.Error("Failed to register BackfillRegistrations job", "error", err, "spec", cfg.BackfillRegistrations)
	}

	if _, err := s.cron.AddFunc(cfg.PendingDigest, s.jobs.SendPendingDigest); err != nil {
		logger.Error("Failed to register SendPendingDigest job", "error", err, "spec", cfg.PendingDigest)
	}

	logger.Info("Cron jobs registered", "count", len(s.cron.Entries()))
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// JobCount reports how many jobs were registered successfully
func (s *Scheduler) JobCount() int {
	return len(s.cron.Entries())
}
