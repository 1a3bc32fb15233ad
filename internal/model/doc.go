// Package model defines the records produced by a forum crawl.
//
// This package contains the following main types:
//   - Forum: A forum section identified by label and numeric ID
//   - Thread: A discussion thread discovered on a listing page
//   - Post: A single cleaned message belonging to a thread
//   - CrawlReport: The summary of one forum crawl
//
// Models live in their own package because the crawler, repository,
// database and report packages all share them.
//
// Records are plain values. Every timestamp is supplied explicitly by the
// caller; no constructor falls back to the current time.
package model
