package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/forumcrawl/internal/crawler"
	"github.com/nao1215/forumcrawl/internal/repository"
)

// DiscoverStep fetches every listing page of the forum.
// A transport failure or an unreadable page count aborts the crawl.
type DiscoverStep struct {
	fetcher crawler.PageFetcher
	logger  *slog.Logger
}

// NewDiscoverStep creates a listing discovery step.
func NewDiscoverStep(f crawler.PageFetcher, logger *slog.Logger) *DiscoverStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscoverStep{fetcher: f, logger: logger}
}

// Name returns the step name.
func (s *DiscoverStep) Name() string {
	return "discover_listing"
}

// Do executes the discovery step.
func (s *DiscoverStep) Do(ctx context.Context, c *Crawl) error {
	listing, err := crawler.Discover(ctx, s.fetcher, c.BaseURL, c.Forum)
	if err != nil {
		return err
	}

	c.Listing = listing
	c.Report.ListingPages = len(listing.Pages)

	s.logger.Info("listing discovered",
		"forum", c.Forum.String(),
		"pages", listing.PageCount,
	)
	return nil
}

// ThreadListStep extracts threads from the listing pages, checkpoints them
// and generates the thread page URLs.
// A structurally broken listing page aborts the crawl.
type ThreadListStep struct {
	exporter *repository.Exporter
	now      func() time.Time
	logger   *slog.Logger
}

// NewThreadListStep creates a thread extraction step. now stamps the
// discovery time of the threads.
func NewThreadListStep(exporter *repository.Exporter, now func() time.Time, logger *slog.Logger) *ThreadListStep {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ThreadListStep{exporter: exporter, now: now, logger: logger}
}

// Name returns the step name.
func (s *ThreadListStep) Name() string {
	return "extract_threads"
}

// Do executes the thread extraction step.
func (s *ThreadListStep) Do(_ context.Context, c *Crawl) error {
	if c.Listing == nil {
		return fmt.Errorf("%s: listing has not been discovered", s.Name())
	}

	threads, err := crawler.ExtractThreads(c.Listing.Pages, s.now())
	if err != nil {
		return err
	}
	c.Repo.AddThreads(threads)

	// Sticky threads are repeated on every listing page; only the
	// deduplicated set is expanded into URLs.
	unique := c.Repo.ExportThreads()
	c.ThreadURLs = crawler.GenerateThreadURLs(c.BaseURL, unique)
	c.Report.Threads = len(unique)
	c.Report.ThreadPagesTotal = len(c.ThreadURLs)

	path, err := s.exporter.DumpThreads(c.Repo)
	if err != nil {
		return fmt.Errorf("failed to checkpoint threads: %w", err)
	}
	c.Report.AddFile(path)

	s.logger.Info("threads extracted",
		"forum", c.Forum.String(),
		"threads", len(unique),
		"thread_pages", len(c.ThreadURLs),
	)
	return nil
}

// ThreadPagesStep fetches thread pages chunk by chunk, parses each chunk on
// a worker pool and merges the posts into the repository. The post
// checkpoint is rewritten after every merged chunk, so a later failure
// loses at most the chunk in flight.
type ThreadPagesStep struct {
	fetcher   crawler.PageFetcher
	exporter  *repository.Exporter
	chunkSize int
	workers   int
	logger    *slog.Logger
}

// NewThreadPagesStep creates a thread page step.
func NewThreadPagesStep(f crawler.PageFetcher, exporter *repository.Exporter, chunkSize, workers int, logger *slog.Logger) *ThreadPagesStep {
	if chunkSize < 1 {
		chunkSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ThreadPagesStep{
		fetcher:   f,
		exporter:  exporter,
		chunkSize: chunkSize,
		workers:   workers,
		logger:    logger,
	}
}

// Name returns the step name.
func (s *ThreadPagesStep) Name() string {
	return "extract_posts"
}

// Do executes the thread page step.
func (s *ThreadPagesStep) Do(ctx context.Context, c *Crawl) error {
	chunks := (len(c.ThreadURLs) + s.chunkSize - 1) / s.chunkSize
	for i := 0; i < chunks; i++ {
		start := i * s.chunkSize
		end := min(start+s.chunkSize, len(c.ThreadURLs))
		urls := c.ThreadURLs[start:end]

		s.logger.Info("fetching thread pages",
			"forum", c.Forum.String(),
			"chunk", i+1,
			"chunks", chunks,
			"pages", len(urls),
		)

		bodies, err := s.fetcher.FetchAll(ctx, urls)
		if err != nil {
			return err
		}

		pages := make([]ThreadPage, len(urls))
		for j := range urls {
			pages[j] = ThreadPage{URL: urls[j], HTML: bodies[j]}
		}

		ex, err := ExtractPostsParallel(ctx, pages, s.workers)
		if err != nil {
			return err
		}
		s.merge(c, ex)

		path, err := s.exporter.DumpPosts(c.Repo)
		if err != nil {
			return fmt.Errorf("failed to checkpoint posts: %w", err)
		}
		c.Report.AddFile(path)
		c.Report.Chunks++
	}
	return nil
}

func (s *ThreadPagesStep) merge(c *Crawl, ex *Extraction) {
	c.Repo.AddPosts(ex.Posts)
	c.Report.ThreadPages += ex.Pages
	c.Report.Posts = len(c.Repo.ExportPosts())

	for _, skip := range ex.SkippedPages {
		s.logger.Warn("thread page skipped", "url", skip.Location, "reason", skip.Reason)
		c.Report.SkipPage(skip.Location, skip.Reason)
	}
	for _, skip := range ex.SkippedPosts {
		s.logger.Warn("post skipped", "location", skip.Location, "reason", skip.Reason)
		c.Report.SkipPost(skip.Location, skip.Reason)
	}
	if ex.NoReplyPages > 0 {
		s.logger.Debug("thread pages without replies", "pages", ex.NoReplyPages)
	}
}
