package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for DataHawk.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datahawk",
		Short: "Crawl websites and extract emails, phone numbers and other data",
		Long: `DataHawk crawls websites from one or more seed URLs, follows pagination
links and extracts pattern-matched data (emails, usernames, phone numbers,
URLs, IPv4 addresses or a custom regular expression).

Findings are written to datahawk_results_<host>.<txt|csv|json> files.
Every run is journaled in a local database so that an interrupted crawl
can be resumed and reported on later.

Every crawl flag can also be set through a DATAHAWK_<FLAG> environment
variable (for example DATAHAWK_THREADS=4). A .env file in the current
directory is loaded first.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// A missing .env file is the common case.
			_ = godotenv.Load() //nolint:errcheck // optional file
		},
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}
