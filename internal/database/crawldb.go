package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/lucky89144/DataHawk/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "datahawk.db"

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusCancelled = "cancelled"
)

// CrawlDB provides SQLite-based storage for crawl runs.
type CrawlDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so readers do not block the
	// running crawl.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per crawl invocation
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seeds TEXT NOT NULL,
		query TEXT NOT NULL,
		format TEXT NOT NULL,
		output_dir TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		pages_fetched INTEGER NOT NULL DEFAULT 0,
		findings_written INTEGER NOT NULL DEFAULT 0,
		errors_encountered INTEGER NOT NULL DEFAULT 0,
		elapsed_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Every URL accepted by the frontier, with its processing state
	CREATE TABLE IF NOT EXISTS urls (
		run_id TEXT NOT NULL,
		url TEXT NOT NULL,
		depth INTEGER NOT NULL,
		state TEXT NOT NULL,
		status_code INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_urls_state ON urls(run_id, state);

	-- Findings, deduplicated per run by fingerprint
	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		data TEXT NOT NULL,
		pattern TEXT NOT NULL,
		source_url TEXT NOT NULL,
		scraped_at DATETIME NOT NULL,
		fingerprint TEXT NOT NULL,
		UNIQUE(run_id, fingerprint)
	);

	CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
	CREATE INDEX IF NOT EXISTS idx_findings_pattern ON findings(run_id, pattern);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// Run is a stored crawl run.
type Run struct {
	ID         string
	Seeds      []string
	Query      string
	Format     string
	OutputDir  string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    model.Summary
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// CreateRun inserts a run in the running state.
// An empty ID is replaced by NewRunID(); the ID used is returned.
func (cdb *CrawlDB) CreateRun(ctx context.Context, run *Run) (string, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = RunStatusRunning

	seeds, err := json.Marshal(run.Seeds)
	if err != nil {
		return "", fmt.Errorf("failed to serialize seeds: %w", err)
	}

	query := `
	INSERT INTO runs (id, seeds, query, format, output_dir, status, started_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := cdb.db.ExecContext(ctx, query,
		run.ID, string(seeds), run.Query, run.Format, run.OutputDir, run.Status,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return run.ID, nil
}

// ReopenRun marks an existing run as running again for a resumed crawl.
func (cdb *CrawlDB) ReopenRun(ctx context.Context, runID string) error {
	result, err := cdb.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = NULL WHERE id = ?`,
		RunStatusRunning, runID)
	if err != nil {
		return fmt.Errorf("failed to reopen run: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 { //nolint:errcheck // sqlite always reports rows affected
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// FinishRun stores the final status and summary of a run.
// Counts are accumulated so that a resumed run reports its total.
func (cdb *CrawlDB) FinishRun(ctx context.Context, runID, status string, summary model.Summary) error {
	query := `
	UPDATE runs SET
		status = ?,
		finished_at = ?,
		pages_fetched = pages_fetched + ?,
		findings_written = findings_written + ?,
		errors_encountered = errors_encountered + ?,
		elapsed_ms = elapsed_ms + ?
	WHERE id = ?
	`
	if _, err := cdb.db.ExecContext(ctx, query,
		status,
		time.Now().UTC().Format(time.RFC3339Nano),
		summary.PagesFetched,
		summary.FindingsWritten,
		summary.ErrorsEncountered,
		summary.Elapsed.Milliseconds(),
		runID,
	); err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, seeds, query, format, output_dir, status, started_at, finished_at,
	pages_fetched, findings_written, errors_encountered, elapsed_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run        Run
		seeds      string
		startedAt  string
		finishedAt sql.NullString
		elapsedMS  int64
	)
	if err := row.Scan(
		&run.ID, &seeds, &run.Query, &run.Format, &run.OutputDir, &run.Status,
		&startedAt, &finishedAt,
		&run.Summary.PagesFetched, &run.Summary.FindingsWritten, &run.Summary.ErrorsEncountered,
		&elapsedMS,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(seeds), &run.Seeds); err != nil {
		return nil, fmt.Errorf("failed to parse seeds: %w", err)
	}
	run.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTimestamp(finishedAt.String)
	}
	run.Summary.RunID = run.ID
	run.Summary.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return &run, nil
}

// GetRun retrieves a run by ID. It returns ErrRunNotFound if none exists.
func (cdb *CrawlDB) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := cdb.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// MarkQueued records a URL accepted by the frontier. Re-recording an
// existing URL is a no-op.
func (cdb *CrawlDB) MarkQueued(ctx context.Context, runID string, task model.URLTask) error {
	query := `
	INSERT INTO urls (run_id, url, depth, state)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO NOTHING
	`
	if _, err := cdb.db.ExecContext(ctx, query, runID, task.URL, task.Depth, string(model.TaskQueued)); err != nil {
		return fmt.Errorf("failed to record queued URL: %w", err)
	}
	return nil
}

// MarkFinished records the outcome of processing a URL.
func (cdb *CrawlDB) MarkFinished(ctx context.Context, runID string, task model.URLTask, state model.TaskState, statusCode int) error {
	query := `
	INSERT INTO urls (run_id, url, depth, state, status_code, updated_at)
	VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(run_id, url) DO UPDATE SET
		state = excluded.state,
		status_code = excluded.status_code,
		updated_at = CURRENT_TIMESTAMP
	`
	if _, err := cdb.db.ExecContext(ctx, query, runID, task.URL, task.Depth, string(state), statusCode); err != nil {
		return fmt.Errorf("failed to record URL state: %w", err)
	}
	return nil
}

// ResumeState is what a resumed run needs to rebuild its frontier.
type ResumeState struct {
	// Seen holds URLs already processed; they must not be fetched again.
	Seen []string
	// Pending holds URLs queued but never processed, oldest first.
	Pending []model.URLTask
}

// LoadResumeState returns the processed and pending URLs of a run.
func (cdb *CrawlDB) LoadResumeState(ctx context.Context, runID string) (*ResumeState, error) {
	rows, err := cdb.db.QueryContext(ctx,
		`SELECT url, depth, state FROM urls WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load resume state: %w", err)
	}
	defer rows.Close()

	state := &ResumeState{}
	for rows.Next() {
		var (
			u     string
			depth int
			st    string
		)
		if err := rows.Scan(&u, &depth, &st); err != nil {
			return nil, fmt.Errorf("failed to scan URL: %w", err)
		}
		if model.TaskState(st) == model.TaskQueued {
			state.Pending = append(state.Pending, model.URLTask{URL: u, Depth: depth})
		} else {
			state.Seen = append(state.Seen, u)
		}
	}
	return state, rows.Err()
}

// CountURLs returns how many URLs of a run are in each state.
func (cdb *CrawlDB) CountURLs(ctx context.Context, runID string) (map[model.TaskState]int, error) {
	rows, err := cdb.db.QueryContext(ctx,
		`SELECT state, COUNT(*) FROM urls WHERE run_id = ? GROUP BY state`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count URLs: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.TaskState]int)
	for rows.Next() {
		var (
			st string
			n  int
		)
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[model.TaskState(st)] = n
	}
	return counts, rows.Err()
}

// Fingerprint identifies a finding within a run: the SHA3-256 of its
// pattern, data and source URL.
func Fingerprint(f model.Finding) string {
	h := sha3.New256()
	h.Write([]byte(f.PatternName))
	h.Write([]byte{0})
	h.Write([]byte(f.Data))
	h.Write([]byte{0})
	h.Write([]byte(f.SourceURL))
	return hex.EncodeToString(h.Sum(nil))
}

// InsertFinding stores a finding. It returns false if an identical finding
// (same fingerprint) was already stored for the run.
func (cdb *CrawlDB) InsertFinding(ctx context.Context, runID string, f model.Finding) (bool, error) {
	query := `
	INSERT OR IGNORE INTO findings (run_id, data, pattern, source_url, scraped_at, fingerprint)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := cdb.db.ExecContext(ctx, query,
		runID, f.Data, f.PatternName, f.SourceURL, f.Timestamp(), Fingerprint(f))
	if err != nil {
		return false, fmt.Errorf("failed to insert finding: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert finding: %w", err)
	}
	return n > 0, nil
}

// Findings returns stored findings of a run in insertion order.
// limit <= 0 returns all of them.
func (cdb *CrawlDB) Findings(ctx context.Context, runID string, limit int) ([]model.Finding, error) {
	query := `SELECT data, pattern, source_url, scraped_at FROM findings WHERE run_id = ? ORDER BY id`
	args := []any{runID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get findings: %w", err)
	}
	defer rows.Close()

	var findings []model.Finding
	for rows.Next() {
		var (
			f         model.Finding
			scrapedAt string
		)
		if err := rows.Scan(&f.Data, &f.PatternName, &f.SourceURL, &scrapedAt); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		f.ScrapedAt = parseTimestamp(scrapedAt).UTC()
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// PatternCount is the number of distinct findings for one pattern.
type PatternCount struct {
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}

// FindingCountsByPattern returns distinct finding counts per pattern,
// largest first.
func (cdb *CrawlDB) FindingCountsByPattern(ctx context.Context, runID string) ([]PatternCount, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT pattern, COUNT(*) AS n FROM findings
	WHERE run_id = ?
	GROUP BY pattern
	ORDER BY n DESC, pattern ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count findings: %w", err)
	}
	defer rows.Close()

	var counts []PatternCount
	for rows.Next() {
		var pc PatternCount
		if err := rows.Scan(&pc.Pattern, &pc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts = append(counts, pc)
	}
	return counts, rows.Err()
}

// SourceCount is the number of findings on one page.
type SourceCount struct {
	SourceURL string `json:"source_url"`
	Count     int    `json:"count"`
}

// TopSources returns the pages with the most findings.
func (cdb *CrawlDB) TopSources(ctx context.Context, runID string, limit int) ([]SourceCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT source_url, COUNT(*) AS n FROM findings
	WHERE run_id = ?
	GROUP BY source_url
	ORDER BY n DESC, source_url ASC
	LIMIT ?
	`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top sources: %w", err)
	}
	defer rows.Close()

	var sources []SourceCount
	for rows.Next() {
		var sc SourceCount
		if err := rows.Scan(&sc.SourceURL, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, sc)
	}
	return sources, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries each known format and returns the zero time if none
// matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
