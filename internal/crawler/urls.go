package crawler

import (
	"strconv"
	"strings"

	"github.com/nao1215/forumcrawl/internal/model"
)

// orderQuery sorts listings and threads oldest first so page contents stay
// stable while a crawl is running.
const orderQuery = "?order=post_date&direction=asc"

// ListingURL returns the URL of page n of the forum listing.
// Page 1 has no page segment.
func ListingURL(baseURL string, forum model.Forum, n int) string {
	base := strings.TrimRight(baseURL, "/") + "/forums/" + forum.String()
	if n <= 1 {
		return base + orderQuery
	}
	return base + "/page-" + strconv.Itoa(n) + orderQuery
}

// ListingURLs returns the URLs of listing pages 2 through pageCount.
// Page 1 is excluded because Discover already holds its body.
func ListingURLs(baseURL string, forum model.Forum, pageCount int) []string {
	if pageCount < 2 {
		return []string{}
	}
	urls := make([]string, 0, pageCount-1)
	for n := 2; n <= pageCount; n++ {
		urls = append(urls, ListingURL(baseURL, forum, n))
	}
	return urls
}

// ThreadPageURL returns the URL of page n of thread t.
func ThreadPageURL(baseURL string, t model.Thread, n int) string {
	base := strings.TrimRight(baseURL, "/") + "/threads/" + t.PathSegment()
	if n <= 1 {
		return base + "/" + orderQuery
	}
	return base + "/page-" + strconv.Itoa(n) + orderQuery
}

// GenerateThreadURLs expands threads into the URLs of all their pages.
// Threads keep their input order and pages are ascending within a thread,
// so the result has exactly sum(PageCount) entries.
func GenerateThreadURLs(baseURL string, threads []model.Thread) []string {
	total := 0
	for _, t := range threads {
		total += max(t.PageCount, 1)
	}

	urls := make([]string, 0, total)
	for _, t := range threads {
		for n := 1; n <= max(t.PageCount, 1); n++ {
			urls = append(urls, ThreadPageURL(baseURL, t, n))
		}
	}
	return urls
}
