package repository

import (
	"testing"
	"time"

	"github.com/nao1215/forumcrawl/internal/model"
)

func TestRepositoryExport(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	forum := model.Forum{Label: "lounge", ID: 4}

	t.Run("first occurrence wins and order is kept", func(t *testing.T) {
		t.Parallel()

		repo := New(forum)
		repo.AddPosts([]model.Post{
			{ID: 3, Content: "first three"},
			{ID: 1, Content: "one"},
		})
		repo.AddPosts([]model.Post{
			{ID: 3, Content: "second three"},
			{ID: 2, Content: "two"},
		})

		posts := repo.ExportPosts()
		if len(posts) != 3 {
			t.Fatalf("expected 3 posts, got %d", len(posts))
		}
		if posts[0].ID != 3 || posts[1].ID != 1 || posts[2].ID != 2 {
			t.Errorf("unexpected order %d %d %d", posts[0].ID, posts[1].ID, posts[2].ID)
		}
		if posts[0].Content != "first three" {
			t.Errorf("expected first occurrence, got %q", posts[0].Content)
		}
	})

	t.Run("threads are deduplicated the same way", func(t *testing.T) {
		t.Parallel()

		repo := New(forum)
		repo.AddThreads([]model.Thread{
			model.NewThread("a", 1, "first", "x", 1, now),
			model.NewThread("a", 1, "again", "x", 2, now),
			model.NewThread("b", 2, "b", "y", 1, now),
		})

		threads := repo.ExportThreads()
		if len(threads) != 2 || threads[0].Title != "first" || threads[1].ID != 2 {
			t.Errorf("unexpected threads %+v", threads)
		}
	})

	t.Run("export is idempotent", func(t *testing.T) {
		t.Parallel()

		repo := New(forum)
		repo.AddPosts([]model.Post{{ID: 1}, {ID: 1}, {ID: 2}})

		a := repo.ExportPosts()
		b := repo.ExportPosts()
		if len(a) != len(b) {
			t.Fatalf("exports differ in length: %d vs %d", len(a), len(b))
		}
		for i := range a {
			if a[i] != b[i] {
				t.Errorf("exports differ at %d: %+v vs %+v", i, a[i], b[i])
			}
		}
	})

	t.Run("empty repository exports nothing", func(t *testing.T) {
		t.Parallel()

		repo := New(forum)
		if len(repo.ExportThreads()) != 0 || len(repo.ExportPosts()) != 0 {
			t.Error("expected empty exports")
		}
		if repo.Forum() != forum {
			t.Errorf("unexpected forum %v", repo.Forum())
		}
	})
}
