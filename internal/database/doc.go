// Package database provides SQLite-based storage for DataHawk runs.
//
// The CrawlDB records, per run:
//   - the run parameters and final summary
//   - every URL accepted by the frontier and whether it was fetched
//   - every finding written, deduplicated by a SHA3 fingerprint
//
// This makes an interrupted crawl resumable (queued URLs are re-seeded and
// processed URLs are marked seen) and backs the history and report commands.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because the
// database is a single CGO-free file, and WAL mode keeps readers such as the
// history command from blocking a running crawl.
package database
