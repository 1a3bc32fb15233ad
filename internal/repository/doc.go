// Package repository accumulates the records of one forum crawl and
// writes them to disk.
//
// A Repository is append-only. Duplicates are kept on insert and removed
// on export, where the first record seen for an id wins and insertion order
// is preserved.
//
// An Exporter writes the exported records as CSV, optionally inside a zip
// archive:
//
//	threads_<label>_<id>.csv.zip         thread checkpoint after the listing phase
//	posts_dump.csv.zip                   post checkpoint, rewritten after every chunk
//	threads_<label>_<timestamp>.csv.zip  final threads
//	posts_<label>_<timestamp>.csv.zip    final posts
//
// Final files of an aborted crawl are prefixed with ERROR_.
package repository
