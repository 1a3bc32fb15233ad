package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/forumcrawl/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "forumcrawl.db"

// CrawlDB stores crawl run history and a mirror of the exported threads
// and posts of every forum crawled on this machine.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
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

	// mode=rw refuses to create a missing file, mode=rwc creates it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

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

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per forum crawl
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		forum_label TEXT NOT NULL,
		forum_id INTEGER NOT NULL,
		base_url TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		status TEXT NOT NULL,
		listing_pages INTEGER DEFAULT 0,
		thread_pages INTEGER DEFAULT 0,
		threads INTEGER DEFAULT 0,
		posts INTEGER DEFAULT 0,
		skipped_pages INTEGER DEFAULT 0,
		skipped_posts INTEGER DEFAULT 0,
		error TEXT,
		threads_file TEXT,
		posts_file TEXT,
		report_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_label ON crawl_runs(forum_label);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON crawl_runs(started_at);

	-- Threads are unique per id; later crawls refresh them
	CREATE TABLE IF NOT EXISTS threads (
		id INTEGER PRIMARY KEY,
		forum_label TEXT NOT NULL,
		url_slug TEXT,
		title TEXT,
		author TEXT,
		page_count INTEGER NOT NULL DEFAULT 1,
		discovered_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_threads_label ON threads(forum_label);

	-- Posts are unique per id across the site
	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY,
		thread_id INTEGER NOT NULL,
		author TEXT,
		content TEXT,
		posted_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_posts_thread ON posts(thread_id);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// Run is a recorded forum crawl.
type Run struct {
	ID           int64             `json:"id"`
	Forum        model.Forum       `json:"forum"`
	BaseURL      string            `json:"base_url"`
	StartedAt    time.Time         `json:"started_at"`
	FinishedAt   time.Time         `json:"finished_at"`
	Status       model.CrawlStatus `json:"status"`
	ListingPages int               `json:"listing_pages"`
	ThreadPages  int               `json:"thread_pages"`
	Threads      int               `json:"threads"`
	Posts        int               `json:"posts"`
	SkippedPages int               `json:"skipped_pages"`
	SkippedPosts int               `json:"skipped_posts"`
	Error        string            `json:"error,omitempty"`
	ThreadsFile  string            `json:"threads_file,omitempty"`
	PostsFile    string            `json:"posts_file,omitempty"`
}

// Duration returns the run time, or zero for an unfinished run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// StartRun records a crawl as running and returns its id.
func (cdb *CrawlDB) StartRun(ctx context.Context, report *model.CrawlReport) (int64, error) {
	query := `
	INSERT INTO crawl_runs (forum_label, forum_id, base_url, started_at, status)
	VALUES (?, ?, ?, ?, ?)
	`

	result, err := cdb.db.ExecContext(ctx, query,
		report.Forum.Label,
		report.Forum.ID,
		report.BaseURL,
		formatTimestamp(report.StartedAt),
		string(model.CrawlStatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to start crawl run: %w", err)
	}

	return result.LastInsertId()
}

// FinishRun stores the final state of a crawl.
func (cdb *CrawlDB) FinishRun(ctx context.Context, runID int64, report *model.CrawlReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	UPDATE crawl_runs SET
		finished_at = ?,
		status = ?,
		listing_pages = ?,
		thread_pages = ?,
		threads = ?,
		posts = ?,
		skipped_pages = ?,
		skipped_posts = ?,
		error = ?,
		threads_file = ?,
		posts_file = ?,
		report_json = ?
	WHERE id = ?
	`

	result, err := cdb.db.ExecContext(ctx, query,
		formatTimestamp(report.FinishedAt),
		string(report.Status),
		report.ListingPages,
		report.ThreadPages,
		report.Threads,
		report.Posts,
		len(report.SkippedPages),
		len(report.SkippedPosts),
		report.ErrorMessage,
		report.ThreadsFile,
		report.PostsFile,
		string(reportJSON),
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish crawl run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("crawl run %d not found", runID)
	}

	return nil
}

// SaveThreads upserts threads of forum in one transaction.
func (cdb *CrawlDB) SaveThreads(ctx context.Context, forum model.Forum, threads []model.Thread) error {
	query := `
	INSERT INTO threads (id, forum_label, url_slug, title, author, page_count, discovered_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		forum_label = excluded.forum_label,
		url_slug = excluded.url_slug,
		title = excluded.title,
		author = excluded.author,
		page_count = excluded.page_count,
		discovered_at = excluded.discovered_at
	`

	return cdb.inTx(ctx, query, len(threads), func(stmt *sql.Stmt, i int) error {
		t := threads[i]
		_, err := stmt.ExecContext(ctx,
			t.ID, forum.Label, t.URLSlug, t.Title, t.Author, t.PageCount, formatTimestamp(t.DiscoveredAt),
		)
		return err
	})
}

// SavePosts upserts posts in one transaction.
func (cdb *CrawlDB) SavePosts(ctx context.Context, posts []model.Post) error {
	query := `
	INSERT INTO posts (id, thread_id, author, content, posted_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		thread_id = excluded.thread_id,
		author = excluded.author,
		content = excluded.content,
		posted_at = excluded.posted_at
	`

	return cdb.inTx(ctx, query, len(posts), func(stmt *sql.Stmt, i int) error {
		p := posts[i]
		_, err := stmt.ExecContext(ctx, p.ID, p.ThreadID, p.Author, p.Content, formatTimestamp(p.PostedAt))
		return err
	})
}

// inTx prepares query once and calls exec n times inside a transaction.
func (cdb *CrawlDB) inTx(ctx context.Context, query string, n int, exec func(*sql.Stmt, int) error) error {
	if n == 0 {
		return nil
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range n {
		if err := exec(stmt, i); err != nil {
			return fmt.Errorf("failed to save row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

const runColumns = `id, forum_label, forum_id, base_url, started_at, finished_at, status,
	listing_pages, thread_pages, threads, posts, skipped_pages, skipped_posts,
	error, threads_file, posts_file`

// ListRuns returns recorded runs, newest first. An empty label lists the
// runs of every forum.
func (cdb *CrawlDB) ListRuns(ctx context.Context, label string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM crawl_runs`
	args := make([]any, 0, 1)
	if label != "" {
		query += ` WHERE forum_label = ?`
		args = append(args, label)
	}
	query += ` ORDER BY started_at DESC, id DESC`

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// GetRun retrieves a run by id. It returns nil, nil when no run exists.
func (cdb *CrawlDB) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := cdb.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM crawl_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// GetRunReport returns the full report stored with a finished run.
// It returns nil, nil for unknown or unfinished runs.
func (cdb *CrawlDB) GetRunReport(ctx context.Context, id int64) (*model.CrawlReport, error) {
	var reportJSON sql.NullString
	err := cdb.db.QueryRowContext(ctx, `SELECT report_json FROM crawl_runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !reportJSON.Valid) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl report: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON.String), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// CountThreads returns the number of stored threads of a forum label.
func (cdb *CrawlDB) CountThreads(ctx context.Context, label string) (int, error) {
	var count int
	err := cdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM threads WHERE forum_label = ?`, label).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count threads: %w", err)
	}
	return count, nil
}

// CountPosts returns the number of stored posts belonging to threads of a
// forum label.
func (cdb *CrawlDB) CountPosts(ctx context.Context, label string) (int, error) {
	query := `
	SELECT COUNT(*) FROM posts
	WHERE thread_id IN (SELECT id FROM threads WHERE forum_label = ?)
	`
	var count int
	if err := cdb.db.QueryRowContext(ctx, query, label).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run                  Run
		startedAt, status    string
		finishedAt, errorMsg sql.NullString
		threadsFile          sql.NullString
		postsFile            sql.NullString
	)
	err := row.Scan(
		&run.ID,
		&run.Forum.Label,
		&run.Forum.ID,
		&run.BaseURL,
		&startedAt,
		&finishedAt,
		&status,
		&run.ListingPages,
		&run.ThreadPages,
		&run.Threads,
		&run.Posts,
		&run.SkippedPages,
		&run.SkippedPosts,
		&errorMsg,
		&threadsFile,
		&postsFile,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan crawl run: %w", err)
	}

	run.StartedAt = parseTimestamp(startedAt)
	run.FinishedAt = parseTimestamp(finishedAt.String)
	run.Status = model.CrawlStatus(status)
	run.Error = errorMsg.String
	run.ThreadsFile = threadsFile.String
	run.PostsFile = postsFile.String
	return &run, nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
