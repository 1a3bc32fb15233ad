package crawler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/forumcrawl/internal/model"
)

// PageFetcher downloads pages and returns their bodies in input order.
// *fetcher.Fetcher satisfies it.
type PageFetcher interface {
	FetchAll(ctx context.Context, urls []string) ([]string, error)
}

// Listing is the complete set of listing pages of one forum.
type Listing struct {
	// Forum is the forum the pages belong to.
	Forum model.Forum

	// PageCount is the number of listing pages reported by page 1.
	PageCount int

	// URLs are the listing page URLs, page 1 first.
	URLs []string

	// Pages are the page bodies aligned with URLs.
	Pages []string
}

// Discover fetches page 1 of the forum listing, reads the page count from
// its pagination control and fetches the remaining pages.
// Page 1 is fetched once and its body is the first element of Pages.
func Discover(ctx context.Context, f PageFetcher, baseURL string, forum model.Forum) (*Listing, error) {
	firstURL := ListingURL(baseURL, forum, 1)
	first, err := f.FetchAll(ctx, []string{firstURL})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first listing page of %s: %w", forum, err)
	}

	pageCount, err := ParsePageCount(first[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", firstURL, err)
	}

	rest := ListingURLs(baseURL, forum, pageCount)
	bodies, err := f.FetchAll(ctx, rest)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing pages of %s: %w", forum, err)
	}

	return &Listing{
		Forum:     forum,
		PageCount: pageCount,
		URLs:      append([]string{firstURL}, rest...),
		Pages:     append([]string{first[0]}, bodies...),
	}, nil
}

// ParsePageCount returns the number of listing pages announced by the
// pagination control of a listing page. The last entry of
// "ul.pageNav-main" holds the last page number. A page without the control
// has a single page.
func ParsePageCount(html string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("failed to parse listing page: %w", err)
	}

	nav := doc.Find("ul.pageNav-main").First()
	if nav.Length() == 0 {
		return 1, nil
	}

	last := nav.Find("li").Last()
	label := last.Find("a").First()
	if label.Length() == 0 {
		label = last
	}
	return parsePageNumber(label.Text())
}

func parsePageNumber(text string) (int, error) {
	text = strings.TrimSpace(text)
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrPageCount, text)
	}
	return n, nil
}
