// Package fetcher downloads pages in throttled, fully concurrent batches.
//
// URLs are split into fixed-size batches. Every request in a batch runs in
// its own goroutine; the next batch starts only after the whole batch has
// completed and a fixed delay has elapsed. An optional token bucket caps the
// request rate on top of the batch throttle.
//
// FetchAll is all-or-nothing: the first non-2xx response or transport error
// cancels the remaining requests and fails the call. There are no retries;
// callers checkpoint what they already have and abort.
package fetcher
