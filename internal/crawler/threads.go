package crawler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/forumcrawl/internal/model"
)

// Selectors of the forum listing markup.
const (
	threadListSelector  = "div.js-threadList"
	threadLinkSelector  = `a[data-tp-primary="on"]`
	threadPagesSelector = "span.structItem-pageJump"
)

// ExtractThreads extracts the threads of every listing page, in page order
// and in document order within a page. A structurally broken page fails the
// whole call because a missing listing page would silently lose threads.
func ExtractThreads(pages []string, now time.Time) ([]model.Thread, error) {
	threads := make([]model.Thread, 0)
	for i, page := range pages {
		found, err := ExtractThreadsFromPage(page, now)
		if err != nil {
			return nil, fmt.Errorf("listing page %d: %w", i+1, err)
		}
		threads = append(threads, found...)
	}
	return threads, nil
}

// ExtractThreadsFromPage extracts the threads of one listing page.
// Each direct child div of the thread list is one thread. now is recorded
// as the DiscoveredAt time of every thread.
func ExtractThreadsFromPage(page string, now time.Time) ([]model.Thread, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	list := doc.Find(threadListSelector).First()
	if list.Length() == 0 {
		return nil, fmt.Errorf("%w: no %s", ErrStructure, threadListSelector)
	}

	items := list.ChildrenFiltered("div")
	threads := make([]model.Thread, 0, items.Length())
	var extractErr error
	items.EachWithBreak(func(i int, item *goquery.Selection) bool {
		t, err := extractThread(item, now)
		if err != nil {
			extractErr = fmt.Errorf("thread item %d: %w", i+1, err)
			return false
		}
		threads = append(threads, t)
		return true
	})
	if extractErr != nil {
		return nil, extractErr
	}
	return threads, nil
}

func extractThread(item *goquery.Selection, now time.Time) (model.Thread, error) {
	link := item.Find(threadLinkSelector).First()
	if link.Length() == 0 {
		return model.Thread{}, fmt.Errorf("%w: no primary thread link", ErrStructure)
	}

	href, _ := link.Attr("href")
	slug, id, err := parseThreadHref(href)
	if err != nil {
		return model.Thread{}, err
	}

	pageCount := 1
	if jump := item.Find(threadPagesSelector).First(); jump.Length() > 0 {
		if last := jump.ChildrenFiltered("a").Last(); last.Length() > 0 {
			pageCount, err = parsePageNumber(last.Text())
			if err != nil {
				return model.Thread{}, err
			}
		}
	}

	author, _ := item.Attr("data-author")
	return model.NewThread(slug, id, cleanInline(link.Text()), author, pageCount, now), nil
}

// parseThreadHref splits the last path segment of a thread link,
// "<slug>.<id>", into slug and id. Slugs may themselves contain dots.
func parseThreadHref(href string) (string, int64, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", 0, fmt.Errorf("%w: thread link %q: %w", ErrStructure, href, err)
	}

	var segment string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segment = s
		}
	}

	parts := strings.Split(segment, ".")
	id, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("%w: no thread id in link %q", ErrStructure, href)
	}
	return strings.Join(parts[:len(parts)-1], "."), id, nil
}
