package crawler

import (
	"testing"
	"time"

	"github.com/nao1215/forumcrawl/internal/model"
)

func TestListingURL(t *testing.T) {
	t.Parallel()

	forum := model.Forum{Label: "must-read-content", ID: 23}

	tests := []struct {
		name string
		base string
		page int
		want string
	}{
		{"first page", "https://f.example", 1, "https://f.example/forums/must-read-content.23?order=post_date&direction=asc"},
		{"later page", "https://f.example", 3, "https://f.example/forums/must-read-content.23/page-3?order=post_date&direction=asc"},
		{"trailing slash on base", "https://f.example/", 1, "https://f.example/forums/must-read-content.23?order=post_date&direction=asc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ListingURL(tt.base, forum, tt.page); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListingURLs(t *testing.T) {
	t.Parallel()

	forum := model.Forum{Label: "lounge", ID: 4}

	t.Run("seven pages yield six urls", func(t *testing.T) {
		t.Parallel()
		urls := ListingURLs("https://f.example", forum, 7)
		if len(urls) != 6 {
			t.Fatalf("expected 6 urls, got %d", len(urls))
		}
		if urls[0] != "https://f.example/forums/lounge.4/page-2?order=post_date&direction=asc" {
			t.Errorf("unexpected first url %q", urls[0])
		}
		if urls[5] != "https://f.example/forums/lounge.4/page-7?order=post_date&direction=asc" {
			t.Errorf("unexpected last url %q", urls[5])
		}
	})

	t.Run("single page yields none", func(t *testing.T) {
		t.Parallel()
		if urls := ListingURLs("https://f.example", forum, 1); len(urls) != 0 {
			t.Errorf("expected no urls, got %v", urls)
		}
	})
}

func TestGenerateThreadURLs(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("expands pages in thread order", func(t *testing.T) {
		t.Parallel()

		threads := []model.Thread{
			model.NewThread("a", 1, "A", "x", 1, now),
			model.NewThread("b", 2, "B", "y", 3, now),
		}
		got := GenerateThreadURLs("https://f.example", threads)
		want := []string{
			"https://f.example/threads/a.1/?order=post_date&direction=asc",
			"https://f.example/threads/b.2/?order=post_date&direction=asc",
			"https://f.example/threads/b.2/page-2?order=post_date&direction=asc",
			"https://f.example/threads/b.2/page-3?order=post_date&direction=asc",
		}
		if len(got) != len(want) {
			t.Fatalf("expected %d urls, got %v", len(want), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("url %d = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("thread without slug uses the id alone", func(t *testing.T) {
		t.Parallel()
		got := GenerateThreadURLs("https://f.example", []model.Thread{model.NewThread("", 9, "", "", 1, now)})
		if len(got) != 1 || got[0] != "https://f.example/threads/9/?order=post_date&direction=asc" {
			t.Errorf("unexpected urls %v", got)
		}
	})

	t.Run("no threads yields no urls", func(t *testing.T) {
		t.Parallel()
		if got := GenerateThreadURLs("https://f.example", nil); len(got) != 0 {
			t.Errorf("expected no urls, got %v", got)
		}
	})
}
