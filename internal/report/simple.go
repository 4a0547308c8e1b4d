package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/lucky89144/DataHawk/internal/model"
)

// SimpleWriter outputs plain-text run reports.
type SimpleWriter struct {
	baseWriter

	// verbose adds the sample findings to the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose includes sample findings in the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *RunReport) (int, error) {
	var sb strings.Builder

	rule := strings.Repeat("=", 70)
	sb.WriteString(rule + "\n")
	sb.WriteString("DATAHAWK RUN " + report.RunID + "\n")
	sb.WriteString(rule + "\n\n")

	fmt.Fprintf(&sb, "Seeds:     %s\n", strings.Join(report.Seeds, ", "))
	fmt.Fprintf(&sb, "Query:     %s\n", report.Query)
	fmt.Fprintf(&sb, "Output:    %s (%s)\n", report.OutputDir, report.Format)
	fmt.Fprintf(&sb, "Started:   %s\n", formatTime(report.StartedAt))
	fmt.Fprintf(&sb, "Finished:  %s\n", formatTime(report.FinishedAt))
	fmt.Fprintf(&sb, "Status:    %s\n\n", report.Status)

	s := report.Summary
	fmt.Fprintf(&sb, "  Pages fetched:     %d\n", s.PagesFetched)
	fmt.Fprintf(&sb, "  Findings written:  %d\n", s.FindingsWritten)
	fmt.Fprintf(&sb, "  Distinct findings: %d\n", report.TotalFindings())
	fmt.Fprintf(&sb, "  Errors:            %d\n", s.ErrorsEncountered)
	fmt.Fprintf(&sb, "  URLs pending:      %d\n\n", report.URLStates[model.TaskQueued])

	if report.HasFindings() {
		sb.WriteString(strings.Repeat("-", 70) + "\n")
		sb.WriteString("FINDINGS BY PATTERN\n")
		sb.WriteString(strings.Repeat("-", 70) + "\n")
		for _, p := range report.Patterns {
			fmt.Fprintf(&sb, "  %-10s %d\n", p.Pattern, p.Count)
		}
		sb.WriteString("\n")
	}

	if w.verbose && len(report.Sample) > 0 {
		sb.WriteString(strings.Repeat("-", 70) + "\n")
		sb.WriteString("SAMPLE\n")
		sb.WriteString(strings.Repeat("-", 70) + "\n")
		for _, f := range report.Sample {
			fmt.Fprintf(&sb, "  [%s] %s\n      %s\n", f.PatternName, f.Data, f.SourceURL)
		}
		sb.WriteString("\n")
	}

	return io.WriteString(w.output, sb.String())
}
