package model

import "time"

// CrawlStatus is the terminal state of a forum crawl.
type CrawlStatus string

const (
	// CrawlStatusRunning marks a crawl that has not finished yet.
	CrawlStatusRunning CrawlStatus = "running"

	// CrawlStatusCompleted marks a crawl whose every phase succeeded.
	CrawlStatusCompleted CrawlStatus = "completed"

	// CrawlStatusFailed marks a crawl aborted by an unrecovered error.
	// Its partial dataset is written under ERROR_-prefixed file names.
	CrawlStatusFailed CrawlStatus = "failed"
)

// Skip records a page or post that was dropped during extraction.
// Skipped items are flagged here instead of being silently discarded.
type Skip struct {
	// Location identifies the dropped item (a URL or "post <id>").
	Location string `json:"location"`

	// Reason is the extraction error message.
	Reason string `json:"reason"`
}

// CrawlReport summarises one forum crawl.
// Pipeline steps fill it in as they run; the orchestrator finalizes it.
type CrawlReport struct {
	// Forum is the crawled forum.
	Forum Forum `json:"forum"`

	// BaseURL is the site root the crawl ran against.
	BaseURL string `json:"base_url"`

	// StartedAt and FinishedAt bound the crawl.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Status is the crawl outcome.
	Status CrawlStatus `json:"status"`

	// ListingPages is the number of forum listing pages fetched.
	ListingPages int `json:"listing_pages"`

	// ThreadPages is the number of thread pages fetched and parsed.
	ThreadPages int `json:"thread_pages"`

	// ThreadPagesTotal is the number of thread page URLs generated.
	ThreadPagesTotal int `json:"thread_pages_total"`

	// Chunks is the number of thread-page chunks merged into the repository.
	Chunks int `json:"chunks"`

	// Threads and Posts are the deduplicated record counts at the last export.
	Threads int `json:"threads"`
	Posts   int `json:"posts"`

	// SkippedPages lists thread pages whose structure could not be parsed.
	SkippedPages []Skip `json:"skipped_pages,omitempty"`

	// SkippedPosts lists posts dropped for bad timestamps, IDs or bodies.
	SkippedPosts []Skip `json:"skipped_posts,omitempty"`

	// Files lists every file written for this crawl, checkpoints included.
	Files []string `json:"files,omitempty"`

	// ThreadsFile and PostsFile are the final dataset files. On a failed
	// crawl they carry the ERROR_ prefix.
	ThreadsFile string `json:"threads_file,omitempty"`
	PostsFile   string `json:"posts_file,omitempty"`

	// PerformedSteps lists the pipeline steps that ran to completion.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error is the error that aborted the crawl, if any.
	Error error `json:"-"`

	// ErrorMessage is Error rendered for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewCrawlReport creates a running report for the given forum.
func NewCrawlReport(forum Forum, baseURL string, startedAt time.Time) *CrawlReport {
	return &CrawlReport{
		Forum:     forum,
		BaseURL:   baseURL,
		StartedAt: startedAt,
		Status:    CrawlStatusRunning,
	}
}

// Fail records err as the reason the crawl was aborted.
func (r *CrawlReport) Fail(err error) {
	r.Status = CrawlStatusFailed
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// Finish stamps the end time. A running report becomes completed.
func (r *CrawlReport) Finish(at time.Time) {
	r.FinishedAt = at
	if r.Status == CrawlStatusRunning {
		r.Status = CrawlStatusCompleted
	}
}

// Failed reports whether the crawl was aborted.
func (r *CrawlReport) Failed() bool {
	return r.Status == CrawlStatusFailed
}

// Duration returns the wall time of the crawl, or zero while it is running.
func (r *CrawlReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// AddFile records a written file path. Repeated dumps of the same
// checkpoint file are recorded once.
func (r *CrawlReport) AddFile(path string) {
	for _, f := range r.Files {
		if f == path {
			return
		}
	}
	r.Files = append(r.Files, path)
}

// SkipPage flags a thread page that was dropped.
func (r *CrawlReport) SkipPage(location, reason string) {
	r.SkippedPages = append(r.SkippedPages, Skip{Location: location, Reason: reason})
}

// SkipPost flags a post that was dropped.
func (r *CrawlReport) SkipPost(location, reason string) {
	r.SkippedPosts = append(r.SkippedPosts, Skip{Location: location, Reason: reason})
}
