package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/forumcrawl/internal/fetcher"
	"github.com/nao1215/forumcrawl/internal/model"
)

// stubFetcher serves canned bodies and records requested URLs.
type stubFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	calls   [][]string
	failURL string
}

func (s *stubFetcher) FetchAll(_ context.Context, urls []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, urls)

	out := make([]string, len(urls))
	for i, u := range urls {
		if u == s.failURL {
			return nil, &fetcher.StatusError{URL: u, StatusCode: http.StatusInternalServerError}
		}
		body, ok := s.bodies[u]
		if !ok {
			return nil, fmt.Errorf("unexpected url %s", u)
		}
		out[i] = body
	}
	return out, nil
}

func TestParsePageCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		html    string
		want    int
		wantErr error
	}{
		{"last entry is the page count", listingHTML("7"), 7, nil},
		{"whitespace around label", listingHTML("  12\n"), 12, nil},
		{"no pagination control means one page", listingHTML(""), 1, nil},
		{"unparsable label", listingHTML("Next"), 0, ErrPageCount},
		{"empty control", `<ul class="pageNav-main"></ul>`, 0, ErrPageCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParsePageCount(tt.html)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	base := "https://f.example"
	forum := model.Forum{Label: "lounge", ID: 4}

	t.Run("reuses page one and fetches the rest", func(t *testing.T) {
		t.Parallel()

		page1 := listingHTML("3")
		stub := &stubFetcher{bodies: map[string]string{
			ListingURL(base, forum, 1): page1,
			ListingURL(base, forum, 2): "p2",
			ListingURL(base, forum, 3): "p3",
		}}

		listing, err := Discover(context.Background(), stub, base, forum)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if listing.PageCount != 3 {
			t.Errorf("expected 3 pages, got %d", listing.PageCount)
		}
		if len(listing.Pages) != 3 || listing.Pages[0] != page1 || listing.Pages[2] != "p3" {
			t.Errorf("unexpected pages %v", listing.Pages)
		}
		if len(listing.URLs) != 3 || listing.URLs[0] != ListingURL(base, forum, 1) {
			t.Errorf("unexpected urls %v", listing.URLs)
		}

		requested := 0
		for _, call := range stub.calls {
			for _, u := range call {
				if u == ListingURL(base, forum, 1) {
					requested++
				}
			}
		}
		if requested != 1 {
			t.Errorf("page 1 requested %d times", requested)
		}
	})

	t.Run("single page forum", func(t *testing.T) {
		t.Parallel()

		stub := &stubFetcher{bodies: map[string]string{ListingURL(base, forum, 1): listingHTML("")}}
		listing, err := Discover(context.Background(), stub, base, forum)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if listing.PageCount != 1 || len(listing.Pages) != 1 {
			t.Errorf("unexpected listing %+v", listing)
		}
	})

	t.Run("unparsable page count is fatal", func(t *testing.T) {
		t.Parallel()

		stub := &stubFetcher{bodies: map[string]string{ListingURL(base, forum, 1): listingHTML("last")}}
		if _, err := Discover(context.Background(), stub, base, forum); !errors.Is(err, ErrPageCount) {
			t.Errorf("expected ErrPageCount, got %v", err)
		}
	})

	t.Run("transport failure is returned", func(t *testing.T) {
		t.Parallel()

		stub := &stubFetcher{
			bodies:  map[string]string{ListingURL(base, forum, 1): listingHTML("2")},
			failURL: ListingURL(base, forum, 2),
		}
		if _, err := Discover(context.Background(), stub, base, forum); !errors.Is(err, fetcher.ErrUnexpectedStatus) {
			t.Errorf("expected ErrUnexpectedStatus, got %v", err)
		}
	})
}

// TestListingEndToEnd serves a two-page listing over HTTP and checks that
// the threads it announces expand into the expected thread URLs.
func TestListingEndToEnd(t *testing.T) {
	t.Parallel()

	forum := model.Forum{Label: "lounge", ID: 4}
	pages := map[string]string{
		"/forums/lounge.4": listingHTML("2",
			listingItem{href: "/threads/hello-world.10/", title: "Hello", author: "alice"},
		),
		"/forums/lounge.4/page-2": listingHTML("2",
			listingItem{href: "/threads/long-one.11/", title: "Long", author: "bob", jump: []string{"2", "3"}},
		),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("order") != "post_date" || r.URL.Query().Get("direction") != "asc" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	f := fetcher.New(server.Client(), fetcher.WithBatchDelay(0))
	listing, err := Discover(context.Background(), f, server.URL, forum)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	threads, err := ExtractThreads(listing.Pages, time.Now())
	if err != nil {
		t.Fatalf("ExtractThreads failed: %v", err)
	}

	urls := GenerateThreadURLs(server.URL, threads)
	want := []string{
		"/threads/hello-world.10/?",
		"/threads/long-one.11/?",
		"/threads/long-one.11/page-2?",
		"/threads/long-one.11/page-3?",
	}
	if len(urls) != len(want) {
		t.Fatalf("expected %d urls, got %v", len(want), urls)
	}
	for i := range want {
		if !strings.HasPrefix(urls[i], server.URL+want[i]) {
			t.Errorf("url %d = %q, want prefix %q", i, urls[i], want[i])
		}
	}
}
