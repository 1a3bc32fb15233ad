package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/forumcrawl/internal/model"
)

// Default configuration values.
// Batch size, batch delay and chunk size follow the throughput the crawler
// was tuned for against a single XenForo board.
const (
	// DefaultBatchSize is the number of thread or listing pages requested
	// concurrently before the crawler pauses for DefaultBatchDelay.
	DefaultBatchSize = 50

	// DefaultBatchDelay is the fixed pause between two fetch batches.
	DefaultBatchDelay = 500 * time.Millisecond

	// DefaultChunkSize is the number of thread page URLs fetched and parsed
	// before results are merged into the repository and checkpointed.
	// It bounds the number of raw HTML bodies held in memory at once.
	DefaultChunkSize = 10000

	// DefaultTimeout is the per-request timeout of the HTTP client.
	// Five minutes matches the total timeout common async HTTP clients use
	// when none is configured.
	DefaultTimeout = 5 * time.Minute

	// DefaultMaxBodySize is the largest page body accepted; a larger page
	// fails the fetch.
	// Forum pages rarely exceed 1MB; 10MB leaves room for long threads.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultOutputDir is where CSV exports and checkpoints are written.
	DefaultOutputDir = "data"

	// DefaultUserAgent identifies forumcrawl in HTTP requests.
	DefaultUserAgent = "forumcrawl/1.0 (+https://github.com/nao1215/forumcrawl)"

	// AppName is the application name used for XDG directory paths.
	AppName = "forumcrawl"
)

// Config holds all configuration options for forumcrawl.
// It is populated from defaults, then the config file, then CLI flags,
// and passed down explicitly rather than kept in global state.
type Config struct {
	// BaseURL is the site root, e.g. "https://forum.example.com".
	// Listing and thread URLs are built from it with fixed templates.
	BaseURL string

	// Forums is the list of forums to crawl, in order.
	Forums []model.Forum

	// BatchSize is the number of requests issued concurrently per batch.
	BatchSize int

	// BatchDelay is the pause between fetch batches.
	BatchDelay time.Duration

	// ChunkSize is the number of thread page URLs per fetch-and-extract chunk.
	ChunkSize int

	// Workers is the size of the HTML parsing worker pool.
	// Defaults to the number of CPUs since parsing is CPU-bound.
	Workers int

	// RequestsPerSecond caps the request rate across batches.
	// Zero disables the cap and leaves only the batch throttle.
	RequestsPerSecond float64

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// RandomUserAgent picks a random browser User-Agent per request
	// instead of UserAgent.
	RandomUserAgent bool

	// Headers are custom transport headers sent with every request.
	// Session headers such as Cookie are dropped by the fetcher.
	Headers map[string]string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// OutputDir is the directory for CSV exports and checkpoints.
	OutputDir string

	// Compress writes exports as zip archives (".csv.zip").
	Compress bool

	// SaveToDB mirrors every persisted dataset into the SQLite database
	// and records the crawl run for the history command.
	SaveToDB bool

	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/forumcrawl on Linux).
	DBDir string

	// ConfigFilePath is the path to the configuration file.
	// If empty, .forumcrawl is searched in the current and home directories.
	ConfigFilePath string

	// Verbose enables debug logging.
	Verbose bool

	// JSONReport prints the crawl summary as JSON.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport prints the crawl summary as Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the crawl summary to a file instead of stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
// BaseURL and Forums have no default and must be supplied by the caller.
func NewConfig() *Config {
	return &Config{
		BatchSize:   DefaultBatchSize,
		BatchDelay:  DefaultBatchDelay,
		ChunkSize:   DefaultChunkSize,
		Workers:     runtime.NumCPU(),
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		OutputDir:   DefaultOutputDir,
		Compress:    true,
		SaveToDB:    true,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for forumcrawl.
// On Linux: ~/.local/share/forumcrawl
// On macOS: ~/Library/Application Support/forumcrawl
// On Windows: %LOCALAPPDATA%\forumcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for forumcrawl.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found. It runs before any network activity, so a bad forum
// label never reaches the site.
func (c *Config) Validate() error {
	if len(c.Forums) == 0 {
		return ErrNoForum
	}

	for _, f := range c.Forums {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidForum, err)
		}
	}

	u, err := url.Parse(c.BaseURL)
	if c.BaseURL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.BatchDelay < 0 {
		return ErrInvalidBatchDelay
	}

	if c.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.RequestsPerSecond < 0 {
		return ErrInvalidRateLimit
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.OutputDir == "" {
		return ErrNoOutputDir
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
