// Package crawler turns forum HTML into thread and post records.
//
// It knows the URL layout and markup of XenForo-style boards:
//
//   - Discover and ParsePageCount read the listing pagination and fetch
//     every listing page of a forum.
//   - ExtractThreads reads thread records from listing pages.
//   - GenerateThreadURLs expands threads into the URLs of all their pages.
//   - ExtractPosts reads post records from one thread page.
//
// HTML is queried with goquery. Post bodies are stripped of quotes, media
// and embeds, then rendered to plain text.
//
// Everything except Discover is pure and safe for concurrent use, which
// lets the pipeline parse thread pages on a worker pool.
package crawler
