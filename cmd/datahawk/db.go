package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucky89144/DataHawk/internal/config"
	"github.com/lucky89144/DataHawk/internal/database"
)

// addDBDirFlag registers --db-dir on commands that only read the database.
func addDBDirFlag(cmd *cobra.Command) {
	cmd.Flags().String(config.KeyDBDir, "",
		"Directory of the crawl database (default: XDG data directory)")
}

// openDB opens the crawl database named by --db-dir, DATAHAWK_DB_DIR or the
// XDG data directory, in that order.
func openDB(cmd *cobra.Command) (*database.CrawlDB, error) {
	v := config.NewViper()
	if f := cmd.Flags().Lookup(config.KeyDBDir); f != nil {
		_ = v.BindPFlag(config.KeyDBDir, f) //nolint:errcheck // flag exists
	}
	dir := config.XDGDataDir()
	if v.IsSet(config.KeyDBDir) {
		dir = v.GetString(config.KeyDBDir)
	}

	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
