package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/trueedge/trueedge/internal/reliability"
)

// BackupJob runs the nightly ledger backup.
type BackupJob struct {
	service *reliability.BackupService
	log     zerolog.Logger
}

// NewBackupJob creates a new BackupJob
func NewBackupJob(service *reliability.BackupService, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service: service,
		log:     log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run creates a backup archive, bounded so a stuck upload cannot pile up
// behind the next scheduled run.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	_, err := j.service.CreateBackup(ctx)
	return err
}
