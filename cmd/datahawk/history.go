package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucky89144/DataHawk/internal/database"
)

// defaultHistoryLimit is the number of runs listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded crawl runs",
		Long: `History lists crawl runs recorded in the crawl database, newest first.

Use the run ID with 'datahawk report' to inspect a run, or with
'datahawk crawl --resume' to continue an interrupted one.

Examples:
  # List the 20 most recent runs
  datahawk history

  # List every run as JSON
  datahawk history --limit 0 --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list (0 for all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output runs in JSON format")
	addDBDirFlag(cmd)

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	db, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if jsonOutput {
		return writeHistoryJSON(cmd.OutOrStdout(), runs)
	}
	writeHistory(cmd.OutOrStdout(), runs)
	return nil
}

// historyEntry is the JSON form of a run.
type historyEntry struct {
	ID         string    `json:"id"`
	Seeds      []string  `json:"seeds"`
	Query      string    `json:"query"`
	Format     string    `json:"format"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Pages      int64     `json:"pages_fetched"`
	Findings   int64     `json:"findings_written"`
	Errors     int64     `json:"errors_encountered"`
}

func writeHistoryJSON(out io.Writer, runs []database.Run) error {
	entries := make([]historyEntry, 0, len(runs))
	for _, r := range runs {
		entries = append(entries, historyEntry{
			ID:         r.ID,
			Seeds:      r.Seeds,
			Query:      r.Query,
			Format:     r.Format,
			Status:     r.Status,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
			Pages:      r.Summary.PagesFetched,
			Findings:   r.Summary.FindingsWritten,
			Errors:     r.Summary.ErrorsEncountered,
		})
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}

func writeHistory(out io.Writer, runs []database.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No crawl runs found in the database.")
		fmt.Fprintln(out, "\nUse 'datahawk crawl <url>' to start a crawl.")
		return
	}

	fmt.Fprintf(out, "Crawl runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-36s  %-16s  %-9s  %6s  %8s  %s\n",
		"ID", "Started", "Status", "Pages", "Findings", "Seeds")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 100))

	for _, r := range runs {
		fmt.Fprintf(out, "  %-36s  %-16s  %-9s  %6d  %8d  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Status,
			r.Summary.PagesFetched,
			r.Summary.FindingsWritten,
			seedList(r.Seeds),
		)
	}
	fmt.Fprintln(out, "\nUse 'datahawk report <id>' to see the findings of a run.")
}

// seedList shortens the seed list to the first seed and a count.
func seedList(seeds []string) string {
	switch len(seeds) {
	case 0:
		return "-"
	case 1:
		return seeds[0]
	default:
		return fmt.Sprintf("%s (+%d more)", seeds[0], len(seeds)-1)
	}
}
