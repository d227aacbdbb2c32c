// Package scheduler runs periodic maintenance jobs (WAL checkpoints,
// backups, report regeneration) on cron schedules.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a named unit of periodic work.
type Job interface {
	Name() string
	Run() error
}

// Scheduler wraps a cron runner with job-level logging.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New creates a new scheduler
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Register schedules a job with a cron spec (standard 5-field syntax).
func (s *Scheduler) Register(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := job.Run(); err != nil {
			s.log.Error().
				Err(err).
				Str("job", job.Name()).
				Msg("Scheduled job failed")
			return
		}
		s.log.Debug().
			Str("job", job.Name()).
			Dur("elapsed", time.Since(start)).
			Msg("Scheduled job completed")
	})
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", job.Name(), err)
	}

	s.log.Info().
		Str("job", job.Name()).
		Str("schedule", spec).
		Msg("Job registered")
	return nil
}

// Start begins running scheduled jobs in their own goroutines.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
