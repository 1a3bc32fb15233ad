package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
)

func threadPageHTML(threadID int, postIDs ...int) string {
	html := fmt.Sprintf(`<html><body><div class="block-container lbContainer" data-lb-id="thread-%d">`, threadID)
	html += `<div class="block-body js-replyNewMessageContainer">`
	for _, id := range postIDs {
		html += fmt.Sprintf(`<article class="message message--post js-post" data-author="u%d" data-content="post-%d">
<time class="u-dt" datetime="2023-01-02T03:04:05+00:00"></time>
<div class="bbWrapper">post %d</div></article>`, id, id, id)
	}
	html += `</div></div></body></html>`
	return html
}

// TestExtractPostsParallel tests the parsing worker pool.
func TestExtractPostsParallel(t *testing.T) {
	t.Parallel()

	t.Run("collects posts from every page", func(t *testing.T) {
		t.Parallel()

		pages := make([]ThreadPage, 0)
		want := make([]int, 0)
		for i := 1; i <= 20; i++ {
			pages = append(pages, ThreadPage{URL: fmt.Sprintf("u%d", i), HTML: threadPageHTML(i, i*10, i*10+1)})
			want = append(want, i*10, i*10+1)
		}

		ex, err := ExtractPostsParallel(context.Background(), pages, 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ex.Pages != 20 {
			t.Errorf("expected 20 pages, got %d", ex.Pages)
		}

		got := make([]int, 0, len(ex.Posts))
		for _, p := range ex.Posts {
			got = append(got, int(p.ID))
		}
		sort.Ints(got)
		if len(got) != len(want) {
			t.Fatalf("expected %d posts, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("post %d: got %d, want %d", i, got[i], want[i])
			}
		}
	})

	t.Run("broken page is skipped, siblings continue", func(t *testing.T) {
		t.Parallel()

		pages := []ThreadPage{
			{URL: "ok-1", HTML: threadPageHTML(1, 1)},
			{URL: "broken", HTML: "<html><body>rate limited</body></html>"},
			{URL: "ok-2", HTML: threadPageHTML(2, 2)},
		}
		ex, err := ExtractPostsParallel(context.Background(), pages, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ex.Posts) != 2 {
			t.Errorf("expected 2 posts, got %d", len(ex.Posts))
		}
		if len(ex.SkippedPages) != 1 || ex.SkippedPages[0].Location != "broken" {
			t.Errorf("unexpected skipped pages %+v", ex.SkippedPages)
		}
	})

	t.Run("zero workers falls back to one", func(t *testing.T) {
		t.Parallel()

		ex, err := ExtractPostsParallel(context.Background(), []ThreadPage{{URL: "a", HTML: threadPageHTML(1, 1)}}, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ex.Posts) != 1 {
			t.Errorf("expected 1 post, got %d", len(ex.Posts))
		}
	})

	t.Run("no pages yields an empty extraction", func(t *testing.T) {
		t.Parallel()

		ex, err := ExtractPostsParallel(context.Background(), nil, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ex.Pages != 0 || len(ex.Posts) != 0 {
			t.Errorf("expected empty extraction, got %+v", ex)
		}
	})

	t.Run("cancelled context fails the call", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		pages := make([]ThreadPage, 50)
		for i := range pages {
			pages[i] = ThreadPage{URL: "x", HTML: threadPageHTML(1, i+1)}
		}
		if _, err := ExtractPostsParallel(ctx, pages, 2); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
