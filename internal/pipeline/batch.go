package pipeline

import (
	"context"
	"sync"

	"github.com/nao1215/forumcrawl/internal/crawler"
	"github.com/nao1215/forumcrawl/internal/model"
	"golang.org/x/sync/errgroup"
)

// ThreadPage is a fetched thread page waiting to be parsed.
type ThreadPage struct {
	URL  string
	HTML string
}

// Extraction is the merged result of parsing a set of thread pages.
type Extraction struct {
	// Posts from all parsed pages. Order is not guaranteed.
	Posts []model.Post

	// Pages is the number of pages parsed successfully.
	Pages int

	// NoReplyPages counts parsed pages without a reply container.
	NoReplyPages int

	// SkippedPages lists pages that failed to parse.
	SkippedPages []model.Skip

	// SkippedPosts lists posts dropped from otherwise valid pages.
	SkippedPosts []model.Skip
}

type pageResult struct {
	url  string
	page *crawler.PostPage
	err  error
}

// ExtractPostsParallel parses pages on a pool of workers goroutines.
//
// A feeder sends pages over a job channel, each worker parses pages until
// the channel closes, and the results are merged on the calling goroutine.
// Workers share nothing but the channels. A page that fails to parse is
// recorded in SkippedPages and does not stop its siblings. The call only
// fails when ctx is cancelled.
func ExtractPostsParallel(ctx context.Context, pages []ThreadPage, workers int) (*Extraction, error) {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan ThreadPage)
	results := make(chan pageResult)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for _, p := range pages {
			select {
			case jobs <- p:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var running sync.WaitGroup
	for range workers {
		running.Add(1)
		g.Go(func() error {
			defer running.Done()
			for p := range jobs {
				page, err := crawler.ExtractPosts(p.HTML)
				select {
				case results <- pageResult{url: p.URL, page: page, err: err}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		running.Wait()
		close(results)
	}()

	ex := &Extraction{Posts: make([]model.Post, 0)}
	for r := range results {
		if r.err != nil {
			ex.SkippedPages = append(ex.SkippedPages, model.Skip{Location: r.url, Reason: r.err.Error()})
			continue
		}
		ex.Pages++
		if r.page.NoReplies {
			ex.NoReplyPages++
		}
		ex.Posts = append(ex.Posts, r.page.Posts...)
		for _, s := range r.page.Skipped {
			ex.SkippedPosts = append(ex.SkippedPosts, model.Skip{Location: r.url + " " + s.Location, Reason: s.Reason})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ex, nil
}
