package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/nao1215/forumcrawl/internal/crawler"
	"github.com/nao1215/forumcrawl/internal/model"
	"github.com/nao1215/forumcrawl/internal/repository"
)

// Store records crawl runs and mirrors exported records.
// *database.CrawlDB satisfies it.
type Store interface {
	StartRun(ctx context.Context, report *model.CrawlReport) (int64, error)
	FinishRun(ctx context.Context, runID int64, report *model.CrawlReport) error
	SaveThreads(ctx context.Context, forum model.Forum, threads []model.Thread) error
	SavePosts(ctx context.Context, posts []model.Post) error
}

// Orchestrator runs complete forum crawls. Each forum gets a fresh
// Repository and pipeline; forums are crawled one after another.
type Orchestrator struct {
	baseURL   string
	fetcher   crawler.PageFetcher
	outputDir string
	compress  bool
	chunkSize int
	workers   int
	store     Store
	now       func() time.Time
	logger    *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOutputDir sets the export directory.
func WithOutputDir(dir string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.outputDir = dir
	}
}

// WithCompression toggles zip compression of exports.
func WithCompression(enabled bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.compress = enabled
	}
}

// WithChunkSize sets the number of thread pages per chunk.
func WithChunkSize(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithWorkers sets the size of the parsing worker pool.
func WithWorkers(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithStore mirrors every crawl into s.
func WithStore(s Store) OrchestratorOption {
	return func(o *Orchestrator) {
		o.store = s
	}
}

// WithClock sets the clock used for report times, discovery times and
// export file names.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates an Orchestrator crawling baseURL through f.
func NewOrchestrator(baseURL string, f crawler.PageFetcher, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		baseURL:   baseURL,
		fetcher:   f,
		outputDir: "data",
		compress:  true,
		chunkSize: 10000,
		workers:   runtime.NumCPU(),
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CrawlForums crawls forums sequentially. A failed forum does not stop the
// next one unless ctx is done. The returned error joins every forum error.
func (o *Orchestrator) CrawlForums(ctx context.Context, forums []model.Forum) ([]*model.CrawlReport, error) {
	reports := make([]*model.CrawlReport, 0, len(forums))
	var errs []error
	for _, forum := range forums {
		report, err := o.CrawlForum(ctx, forum)
		reports = append(reports, report)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", forum, err))
			if ctx.Err() != nil {
				break
			}
		}
	}
	return reports, errors.Join(errs...)
}

// CrawlForum crawls one forum: listing discovery, thread extraction with a
// thread checkpoint, then chunked thread page extraction with a post
// checkpoint after each chunk.
//
// Whatever the outcome, the repository is persisted. A failed or cancelled
// crawl writes ERROR_-prefixed files holding everything merged so far.
// The report is always returned, also on error. A forum failing
// Validate is rejected before any request is sent or file is written.
func (o *Orchestrator) CrawlForum(ctx context.Context, forum model.Forum) (*model.CrawlReport, error) {
	report := model.NewCrawlReport(forum, o.baseURL, o.now())

	// An invalid forum never reaches the network or the output directory.
	if err := forum.Validate(); err != nil {
		err = fmt.Errorf("refusing to crawl forum %q: %w", forum.String(), err)
		report.Fail(err)
		report.Finish(o.now())
		return report, err
	}

	crawl := NewCrawl(forum, o.baseURL, report)
	exporter := repository.NewExporter(o.outputDir,
		repository.WithCompression(o.compress),
		repository.WithClock(o.now),
		repository.WithLogger(o.logger),
	)

	p := New(WithLogger(o.logger))
	p.AddSteps(
		NewDiscoverStep(o.fetcher, o.logger),
		NewThreadListStep(exporter, o.now, o.logger),
		NewThreadPagesStep(o.fetcher, exporter, o.chunkSize, o.workers, o.logger),
	)
	o.logger.Debug("crawl pipeline", "forum", forum.String(), "steps", p.StepNames())

	// Bookkeeping must outlive a cancelled crawl so that the partial
	// dataset is still recorded.
	bg := context.WithoutCancel(ctx)

	runID := o.startRun(bg, report)

	crawlErr := p.Execute(ctx, crawl)
	failed := crawlErr != nil

	persisted, err := exporter.Persist(crawl.Repo, failed)
	if err != nil {
		o.logger.Error("failed to persist dataset", "forum", forum.String(), "error", err)
		if crawlErr == nil {
			report.Fail(err)
		}
		crawlErr = errors.Join(crawlErr, err)
	} else {
		report.ThreadsFile = persisted.ThreadsFile
		report.PostsFile = persisted.PostsFile
		report.AddFile(persisted.ThreadsFile)
		report.AddFile(persisted.PostsFile)
	}

	threads := crawl.Repo.ExportThreads()
	posts := crawl.Repo.ExportPosts()
	report.Threads = len(threads)
	report.Posts = len(posts)
	o.mirror(bg, forum, threads, posts)

	report.Finish(o.now())
	o.finishRun(bg, runID, report)

	if crawlErr != nil {
		o.logger.Warn("crawl failed",
			"forum", forum.String(),
			"threads", report.Threads,
			"posts", report.Posts,
			"error", crawlErr,
		)
		return report, crawlErr
	}

	o.logger.Info("crawl completed",
		"forum", forum.String(),
		"threads", report.Threads,
		"posts", report.Posts,
		"duration", report.Duration(),
	)
	return report, nil
}

func (o *Orchestrator) startRun(ctx context.Context, report *model.CrawlReport) int64 {
	if o.store == nil {
		return 0
	}
	id, err := o.store.StartRun(ctx, report)
	if err != nil {
		o.logger.Warn("failed to record crawl run", "error", err)
		return 0
	}
	return id
}

func (o *Orchestrator) finishRun(ctx context.Context, runID int64, report *model.CrawlReport) {
	if o.store == nil || runID == 0 {
		return
	}
	if err := o.store.FinishRun(ctx, runID, report); err != nil {
		o.logger.Warn("failed to finish crawl run", "run", runID, "error", err)
	}
}

// mirror copies the exported records into the store. Failures are logged
// only; the files on disk are the primary output.
func (o *Orchestrator) mirror(ctx context.Context, forum model.Forum, threads []model.Thread, posts []model.Post) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveThreads(ctx, forum, threads); err != nil {
		o.logger.Warn("failed to save threads to database", "forum", forum.String(), "error", err)
	}
	if err := o.store.SavePosts(ctx, posts); err != nil {
		o.logger.Warn("failed to save posts to database", "forum", forum.String(), "error", err)
	}
}
