package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/trueedge/trueedge/internal/database"
)

// WALCheckpointJob monitors and nudges the ledger database's WAL file.
type WALCheckpointJob struct {
	ledgerDB *database.DB
	log      zerolog.Logger
}

// NewWALCheckpointJob creates a new WALCheckpointJob
func NewWALCheckpointJob(ledgerDB *database.DB, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		ledgerDB: ledgerDB,
		log:      log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run checks WAL checkpoint status and truncates the WAL when it has
// grown large.
func (j *WALCheckpointJob) Run() error {
	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, walFrames, checkpointed int
	err := j.ledgerDB.QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &walFrames, &checkpointed)
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to check WAL checkpoint")
		return err
	}

	if walFrames > 1000 {
		j.log.Warn().
			Int("wal_frames", walFrames).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, forcing truncate checkpoint")
		return j.ledgerDB.WALCheckpoint("TRUNCATE")
	}

	j.log.Debug().
		Int("wal_frames", walFrames).
		Msg("WAL checkpoint status OK")
	return nil
}
