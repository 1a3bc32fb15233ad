package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can match them
// with errors.Is while still printing a readable message.
var (
	// ErrNoForum is returned when no forum is given on the command line
	// or in the configuration file.
	ErrNoForum = errors.New("no forum specified: pass <label>.<id> arguments or list forums in the config file")

	// ErrInvalidForum wraps a forum whose label or ID is rejected.
	// A label containing whitespace is the common case.
	ErrInvalidForum = errors.New("invalid forum")

	// ErrInvalidBaseURL is returned when the base URL is missing or is not
	// an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http or https URL")

	// ErrInvalidBatchSize is returned when the fetch batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidBatchDelay is returned when the batch delay is negative.
	// Use 0 for no pause between batches.
	ErrInvalidBatchDelay = errors.New("invalid batch delay: must be non-negative")

	// ErrInvalidChunkSize is returned when the thread page chunk size is not positive.
	ErrInvalidChunkSize = errors.New("invalid chunk size: must be positive")

	// ErrInvalidWorkers is returned when the parser worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidRateLimit is returned when the request rate cap is negative.
	ErrInvalidRateLimit = errors.New("invalid requests per second: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
