package crawler

import (
	"errors"
	"testing"
	"time"
)

func TestExtractThreadsFromPage(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	t.Run("extracts all fields", func(t *testing.T) {
		t.Parallel()

		html := listingHTML("",
			listingItem{href: "/threads/welcome-thread.101/", title: "  Welcome\n thread ", author: "alice"},
			listingItem{href: "/threads/v1.2-release-notes.102/", title: "Release", author: "bob", jump: []string{"2", "3", "14"}},
		)
		threads, err := ExtractThreadsFromPage(html, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(threads) != 2 {
			t.Fatalf("expected 2 threads, got %d", len(threads))
		}

		first := threads[0]
		if first.ID != 101 || first.URLSlug != "welcome-thread" {
			t.Errorf("unexpected id/slug %d/%q", first.ID, first.URLSlug)
		}
		if first.Title != "Welcome thread" {
			t.Errorf("unexpected title %q", first.Title)
		}
		if first.Author != "alice" {
			t.Errorf("unexpected author %q", first.Author)
		}
		if first.PageCount != 1 {
			t.Errorf("expected 1 page, got %d", first.PageCount)
		}
		if !first.DiscoveredAt.Equal(now) {
			t.Errorf("unexpected discovered time %v", first.DiscoveredAt)
		}

		second := threads[1]
		if second.URLSlug != "v1.2-release-notes" || second.ID != 102 {
			t.Errorf("dotted slug not preserved: %q/%d", second.URLSlug, second.ID)
		}
		if second.PageCount != 14 {
			t.Errorf("expected 14 pages, got %d", second.PageCount)
		}
	})

	t.Run("absolute links are accepted", func(t *testing.T) {
		t.Parallel()

		html := listingHTML("", listingItem{href: "https://f.example/threads/abs.7/", title: "Abs"})
		threads, err := ExtractThreadsFromPage(html, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if threads[0].ID != 7 || threads[0].URLSlug != "abs" {
			t.Errorf("unexpected thread %+v", threads[0])
		}
	})

	t.Run("empty thread list yields no threads", func(t *testing.T) {
		t.Parallel()

		threads, err := ExtractThreadsFromPage(listingHTML(""), now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(threads) != 0 {
			t.Errorf("expected no threads, got %d", len(threads))
		}
	})

	t.Run("missing container is a structural error", func(t *testing.T) {
		t.Parallel()

		_, err := ExtractThreadsFromPage(`<html><body><p>maintenance</p></body></html>`, now)
		if !errors.Is(err, ErrStructure) {
			t.Errorf("expected ErrStructure, got %v", err)
		}
	})

	t.Run("missing primary link is a structural error", func(t *testing.T) {
		t.Parallel()

		html := `<div class="js-threadList"><div class="structItem" data-author="x"><a href="/threads/a.1/">no marker</a></div></div>`
		if _, err := ExtractThreadsFromPage(html, now); !errors.Is(err, ErrStructure) {
			t.Errorf("expected ErrStructure, got %v", err)
		}
	})

	t.Run("link without numeric id is a structural error", func(t *testing.T) {
		t.Parallel()

		html := listingHTML("", listingItem{href: "/threads/no-id/", title: "x"})
		if _, err := ExtractThreadsFromPage(html, now); !errors.Is(err, ErrStructure) {
			t.Errorf("expected ErrStructure, got %v", err)
		}
	})

	t.Run("unparsable page jump is a page count error", func(t *testing.T) {
		t.Parallel()

		html := listingHTML("", listingItem{href: "/threads/a.1/", title: "x", jump: []string{"2", "last"}})
		if _, err := ExtractThreadsFromPage(html, now); !errors.Is(err, ErrPageCount) {
			t.Errorf("expected ErrPageCount, got %v", err)
		}
	})
}

func TestExtractThreads(t *testing.T) {
	t.Parallel()

	now := time.Now()

	t.Run("keeps page order", func(t *testing.T) {
		t.Parallel()

		pages := []string{
			listingHTML("", listingItem{href: "/threads/a.1/"}, listingItem{href: "/threads/b.2/"}),
			listingHTML("", listingItem{href: "/threads/c.3/"}),
		}
		threads, err := ExtractThreads(pages, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var ids []int64
		for _, th := range threads {
			ids = append(ids, th.ID)
		}
		if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
			t.Errorf("unexpected order %v", ids)
		}
	})

	t.Run("one broken page fails the call", func(t *testing.T) {
		t.Parallel()

		pages := []string{listingHTML("", listingItem{href: "/threads/a.1/"}), "<html></html>"}
		if _, err := ExtractThreads(pages, now); !errors.Is(err, ErrStructure) {
			t.Errorf("expected ErrStructure, got %v", err)
		}
	})
}
