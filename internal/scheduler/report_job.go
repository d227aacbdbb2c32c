package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/trueedge/trueedge/internal/modules/events"
	"github.com/trueedge/trueedge/internal/modules/reports"
)

// ReportJob regenerates the HTML performance report from the full event
// collection.
type ReportJob struct {
	store           events.Store
	generator       *reports.Generator
	startingBalance float64
	log             zerolog.Logger
}

// NewReportJob creates a new ReportJob
func NewReportJob(store events.Store, generator *reports.Generator, startingBalance float64, log zerolog.Logger) *ReportJob {
	return &ReportJob{
		store:           store,
		generator:       generator,
		startingBalance: startingBalance,
		log:             log.With().Str("job", "report").Logger(),
	}
}

// Name returns the job name
func (j *ReportJob) Name() string {
	return "report"
}

// Run queries all events and rewrites the report.
func (j *ReportJob) Run() error {
	allEvents, err := j.store.Query(events.Filter{})
	if err != nil {
		return err
	}

	_, err = j.generator.Generate(allEvents, j.startingBalance)
	return err
}
