package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/forumcrawl/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *CrawlDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("CreateIfNotExists=false opens an existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		_ = db.Close()
	})
}

func newReport(label string, startedAt time.Time) *model.CrawlReport {
	return model.NewCrawlReport(model.Forum{Label: label, ID: 7}, "https://f.example", startedAt)
}

// TestCrawlRuns tests the run lifecycle.
func TestCrawlRuns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("start and finish a run", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		report := newReport("lounge", start)

		id, err := db.StartRun(ctx, report)
		if err != nil {
			t.Fatalf("StartRun failed: %v", err)
		}

		run, err := db.GetRun(ctx, id)
		if err != nil || run == nil {
			t.Fatalf("GetRun failed: %v", err)
		}
		if run.Status != model.CrawlStatusRunning || !run.FinishedAt.IsZero() {
			t.Errorf("expected running run, got %+v", run)
		}

		report.ListingPages = 3
		report.ThreadPages = 12
		report.Threads = 5
		report.Posts = 40
		report.SkipPage("u1", "bad")
		report.ThreadsFile = "data/threads.csv.zip"
		report.PostsFile = "data/posts.csv.zip"
		report.Finish(start.Add(90 * time.Second))

		if err := db.FinishRun(ctx, id, report); err != nil {
			t.Fatalf("FinishRun failed: %v", err)
		}

		run, err = db.GetRun(ctx, id)
		if err != nil {
			t.Fatalf("GetRun failed: %v", err)
		}
		if run.Status != model.CrawlStatusCompleted {
			t.Errorf("expected completed, got %s", run.Status)
		}
		if run.Forum.Label != "lounge" || run.Forum.ID != 7 {
			t.Errorf("unexpected forum %+v", run.Forum)
		}
		if run.ThreadPages != 12 || run.Posts != 40 || run.SkippedPages != 1 {
			t.Errorf("unexpected counts %+v", run)
		}
		if run.Duration() != 90*time.Second {
			t.Errorf("expected 90s, got %v", run.Duration())
		}
		if run.PostsFile != "data/posts.csv.zip" {
			t.Errorf("unexpected posts file %q", run.PostsFile)
		}

		stored, err := db.GetRunReport(ctx, id)
		if err != nil || stored == nil {
			t.Fatalf("GetRunReport failed: %v", err)
		}
		if len(stored.SkippedPages) != 1 || stored.SkippedPages[0].Location != "u1" {
			t.Errorf("unexpected stored report %+v", stored)
		}
	})

	t.Run("failed run keeps the error", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		report := newReport("lounge", start)
		id, err := db.StartRun(ctx, report)
		if err != nil {
			t.Fatal(err)
		}
		report.Fail(errors.New("503 for page 4"))
		report.Finish(start.Add(time.Minute))
		if err := db.FinishRun(ctx, id, report); err != nil {
			t.Fatal(err)
		}

		run, err := db.GetRun(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if run.Status != model.CrawlStatusFailed || run.Error != "503 for page 4" {
			t.Errorf("unexpected run %+v", run)
		}
	})

	t.Run("finishing an unknown run fails", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		if err := db.FinishRun(ctx, 99, newReport("x", start)); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("unknown run is nil", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		run, err := db.GetRun(ctx, 42)
		if err != nil || run != nil {
			t.Errorf("expected nil, nil; got %v, %v", run, err)
		}
		report, err := db.GetRunReport(ctx, 42)
		if err != nil || report != nil {
			t.Errorf("expected nil, nil; got %v, %v", report, err)
		}
	})

	t.Run("list runs newest first with label filter", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		for i, label := range []string{"lounge", "news", "lounge"} {
			if _, err := db.StartRun(ctx, newReport(label, start.Add(time.Duration(i)*time.Hour))); err != nil {
				t.Fatal(err)
			}
		}

		all, err := db.ListRuns(ctx, "")
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(all))
		}
		if !all[0].StartedAt.After(all[1].StartedAt) {
			t.Error("expected newest run first")
		}

		lounge, err := db.ListRuns(ctx, "lounge")
		if err != nil {
			t.Fatal(err)
		}
		if len(lounge) != 2 {
			t.Errorf("expected 2 lounge runs, got %d", len(lounge))
		}
	})
}

// TestSaveRecords tests the thread and post mirror.
func TestSaveRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	at := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	forum := model.Forum{Label: "lounge", ID: 4}

	t.Run("upserts by id", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		threads := []model.Thread{
			model.NewThread("a", 1, "A", "x", 1, at),
			model.NewThread("b", 2, "B", "y", 2, at),
		}
		if err := db.SaveThreads(ctx, forum, threads); err != nil {
			t.Fatalf("SaveThreads failed: %v", err)
		}
		threads[0].Title = "A renamed"
		if err := db.SaveThreads(ctx, forum, threads[:1]); err != nil {
			t.Fatalf("SaveThreads failed: %v", err)
		}

		n, err := db.CountThreads(ctx, "lounge")
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Errorf("expected 2 threads, got %d", n)
		}

		posts := []model.Post{
			{ID: 10, ThreadID: 1, Author: "x", Content: "hi", PostedAt: at},
			{ID: 11, ThreadID: 2, Author: "y", Content: "yo", PostedAt: at},
			{ID: 12, ThreadID: 99, Author: "z", Content: "other forum", PostedAt: at},
		}
		if err := db.SavePosts(ctx, posts); err != nil {
			t.Fatalf("SavePosts failed: %v", err)
		}
		if err := db.SavePosts(ctx, posts[:1]); err != nil {
			t.Fatalf("SavePosts failed: %v", err)
		}

		n, err = db.CountPosts(ctx, "lounge")
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Errorf("expected 2 posts in lounge threads, got %d", n)
		}
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		if err := db.SaveThreads(ctx, forum, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if err := db.SavePosts(ctx, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestParseTimestamp tests the stored timestamp formats.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, in := range []string{"2024-01-02T03:04:05Z", "2024-01-02 03:04:05", "2024-01-02T03:04:05"} {
		if got := parseTimestamp(in); !got.Equal(want) {
			t.Errorf("parseTimestamp(%q) = %v", in, got)
		}
	}
	if !parseTimestamp("").IsZero() || !parseTimestamp("garbage").IsZero() {
		t.Error("expected zero time for empty or invalid input")
	}
	if formatTimestamp(time.Time{}) != "" {
		t.Error("expected empty string for zero time")
	}
}
