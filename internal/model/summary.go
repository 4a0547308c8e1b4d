package model

import (
	"fmt"
	"time"
)

// Summary is returned by a crawl run.
// Counts only reflect work that completed before the run ended.
type Summary struct {
	// RunID identifies the run in the crawl database. Empty when no
	// database was used.
	RunID string `json:"run_id,omitempty"`

	// OutputPath is the path of the results file.
	OutputPath string `json:"output_path,omitempty"`

	// PagesFetched counts fetch attempts that produced a response,
	// regardless of status code.
	PagesFetched int64 `json:"pages_fetched"`

	// FindingsWritten counts findings accepted by the sink.
	FindingsWritten int64 `json:"findings_written"`

	// ErrorsEncountered counts per-task failures: transport errors,
	// non-200 responses and sink write failures.
	ErrorsEncountered int64 `json:"errors_encountered"`

	// Elapsed is the wall time of the run.
	Elapsed time.Duration `json:"elapsed"`
}

// Add accumulates another summary's counters into s.
// RunID, OutputPath and Elapsed are left untouched.
func (s *Summary) Add(other Summary) {
	s.PagesFetched += other.PagesFetched
	s.FindingsWritten += other.FindingsWritten
	s.ErrorsEncountered += other.ErrorsEncountered
}

// String returns a one-line human readable summary.
func (s Summary) String() string {
	return fmt.Sprintf("pages fetched: %d, findings written: %d, errors: %d, elapsed: %s",
		s.PagesFetched, s.FindingsWritten, s.ErrorsEncountered, s.Elapsed.Round(time.Millisecond))
}
