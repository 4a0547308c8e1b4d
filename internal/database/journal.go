package database

import (
	"context"

	"github.com/lucky89144/DataHawk/internal/model"
)

// RunJournal binds a CrawlDB to one run. It records URL state for the crawl
// engine and mirrors findings as a sink.
type RunJournal struct {
	db    *CrawlDB
	runID string
}

// Journal returns a RunJournal for runID.
func (cdb *CrawlDB) Journal(runID string) *RunJournal {
	return &RunJournal{db: cdb, runID: runID}
}

// RunID returns the run this journal writes to.
func (j *RunJournal) RunID() string {
	return j.runID
}

// TaskQueued records a URL accepted by the frontier.
func (j *RunJournal) TaskQueued(ctx context.Context, task model.URLTask) error {
	return j.db.MarkQueued(ctx, j.runID, task)
}

// TaskFinished records the outcome of a processed URL.
func (j *RunJournal) TaskFinished(ctx context.Context, task model.URLTask, state model.TaskState, statusCode int) error {
	return j.db.MarkFinished(ctx, j.runID, task, state, statusCode)
}

// Write stores a finding. Duplicate findings are silently ignored.
func (j *RunJournal) Write(f model.Finding) error {
	_, err := j.db.InsertFinding(context.Background(), j.runID, f)
	return err
}

// Close is a no-op; the CrawlDB is closed by its owner.
func (j *RunJournal) Close() error {
	return nil
}
