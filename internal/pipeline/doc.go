// Package pipeline runs forum crawls as a sequence of steps.
//
// A crawl of one forum is three steps over a shared Crawl state:
// listing discovery, thread extraction, and thread page extraction. The
// Orchestrator builds the pipeline, persists the repository whatever the
// outcome and mirrors the result into a Store.
//
// Fetching and parsing use separate concurrency. The fetcher runs one
// goroutine per request inside a batch; ExtractPostsParallel parses fetched
// pages on a fixed worker pool built on errgroup. Only immutable page
// bodies and records cross between the two, and the repository is only
// touched between chunks.
package pipeline
