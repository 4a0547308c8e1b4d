package report

import (
	"context"
	"fmt"
	"time"

	"github.com/lucky89144/DataHawk/internal/database"
	"github.com/lucky89144/DataHawk/internal/model"
)

// DefaultTopSources is how many source pages a report lists.
const DefaultTopSources = 10

// DefaultSampleSize is how many findings a report includes verbatim.
const DefaultSampleSize = 20

// Source is the read side of the crawl database used to build reports.
type Source interface {
	GetRun(ctx context.Context, runID string) (*database.Run, error)
	CountURLs(ctx context.Context, runID string) (map[model.TaskState]int, error)
	FindingCountsByPattern(ctx context.Context, runID string) ([]database.PatternCount, error)
	TopSources(ctx context.Context, runID string, limit int) ([]database.SourceCount, error)
	Findings(ctx context.Context, runID string, limit int) ([]model.Finding, error)
}

// RunReport is everything known about one crawl run.
type RunReport struct {
	RunID      string        `json:"run_id"`
	Seeds      []string      `json:"seeds"`
	Query      string        `json:"query"`
	Format     string        `json:"format"`
	OutputDir  string        `json:"output_dir"`
	Status     string        `json:"status"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at,omitzero"`
	Summary    model.Summary `json:"summary"`

	// URLStates counts the run's URLs per task state.
	URLStates map[model.TaskState]int `json:"url_states"`

	// Patterns counts distinct findings per pattern, largest first.
	Patterns []database.PatternCount `json:"patterns"`

	// TopSources lists the pages with the most findings.
	TopSources []database.SourceCount `json:"top_sources"`

	// Sample holds the first findings of the run.
	Sample []model.Finding `json:"sample"`
}

// TotalFindings returns the number of distinct stored findings.
func (r *RunReport) TotalFindings() int {
	total := 0
	for _, p := range r.Patterns {
		total += p.Count
	}
	return total
}

// HasFindings returns true if the run stored any finding.
func (r *RunReport) HasFindings() bool {
	return r.TotalFindings() > 0
}

// Options controls how much detail Build collects.
type Options struct {
	TopSources int
	SampleSize int
}

// Build assembles the report of runID from src.
func Build(ctx context.Context, src Source, runID string, opts Options) (*RunReport, error) {
	if opts.TopSources <= 0 {
		opts.TopSources = DefaultTopSources
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}

	run, err := src.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	states, err := src.CountURLs(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count URLs: %w", err)
	}
	patterns, err := src.FindingCountsByPattern(ctx, runID)
	if err != nil {
		return nil, err
	}
	sources, err := src.TopSources(ctx, runID, opts.TopSources)
	if err != nil {
		return nil, err
	}
	sample, err := src.Findings(ctx, runID, opts.SampleSize)
	if err != nil {
		return nil, err
	}

	return &RunReport{
		RunID:      run.ID,
		Seeds:      run.Seeds,
		Query:      run.Query,
		Format:     run.Format,
		OutputDir:  run.OutputDir,
		Status:     run.Status,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Summary:    run.Summary,
		URLStates:  states,
		Patterns:   patterns,
		TopSources: sources,
		Sample:     sample,
	}, nil
}
