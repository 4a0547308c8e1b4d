package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lucky89144/DataHawk/internal/report"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <run-id>",
		Short: "Show the report of a crawl run",
		Long: `Report summarizes a recorded crawl run: its settings, page and error
counts, findings per pattern, the pages with the most findings and a sample
of the findings themselves.

The report is Markdown. On a terminal it is rendered with colors; use
--output to write it to a file, in which case a plain summary is still
printed. --text --verbose includes the sample findings.

Examples:
  # Show the report of a run
  datahawk report 6f1c2d4e-...

  # Save it as a Markdown file
  datahawk report 6f1c2d4e-... -o reports/run.md

  # Output JSON for further processing
  datahawk report 6f1c2d4e-... --json`,
		Args: cobra.ExactArgs(1),
		RunE: runReportCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --text)")
	cmd.Flags().Bool("text", false,
		"Output plain text report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Int("top", report.DefaultTopSources,
		"Number of source pages to list")
	cmd.Flags().Int("sample", report.DefaultSampleSize,
		"Number of findings to include")
	addDBDirFlag(cmd)
	cmd.MarkFlagsMutuallyExclusive("json", "text")

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, args []string) error {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	textOutput, err := cmd.Flags().GetBool("text")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	top, err := cmd.Flags().GetInt("top")
	if err != nil {
		return err
	}
	sample, err := cmd.Flags().GetInt("sample")
	if err != nil {
		return err
	}

	db, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	runReport, err := report.Build(cmd.Context(), db, args[0], report.Options{
		TopSources: top,
		SampleSize: sample,
	})
	if err != nil {
		return err
	}

	var output io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := createReportFile(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case jsonOutput:
		w = report.NewJSONWriter(output, report.WithPrettyPrint())
	case textOutput:
		w = report.NewSimpleWriter(output, report.WithVerbose(verboseFlag(cmd)))
	case outputPath == "" && isTerminalWriter(output):
		return report.RenderTerminal(output, runReport, report.DefaultWordWrap)
	case outputPath != "":
		// Markdown goes to the file; the plain summary still reaches stdout.
		w = report.NewMultiWriter(
			report.NewMarkdownWriter(output),
			report.NewSimpleWriter(cmd.OutOrStdout()),
		)
	default:
		w = report.NewMarkdownWriter(output)
	}
	_, err = w.Write(runReport)
	return err
}

// verboseFlag reads the persistent --verbose flag; it is absent when the
// command runs without its root.
func verboseFlag(cmd *cobra.Command) bool {
	f := cmd.Flag("verbose")
	return f != nil && f.Value.String() == "true"
}

// createReportFile creates path and its parent directories.
// Reports contain the extracted data, so the file is readable by the
// owner only.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && report.IsTerminal(f)
}
