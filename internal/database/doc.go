// Package database provides SQLite-based storage for forumcrawl.
//
// The CrawlDB stores:
//   - One crawl_runs row per forum crawl, with counts, status and the
//     files written, for the history command
//   - A mirror of the exported threads and posts, upserted by id so that
//     repeated crawls refresh rather than duplicate records
//
// SQLite is used via modernc.org/sqlite, which needs no CGO. The database
// lives in the XDG data directory by default and is written by a single
// connection in WAL mode.
package database
