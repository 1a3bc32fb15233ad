package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/forumcrawl/internal/config"
	"github.com/nao1215/forumcrawl/internal/database"
	"github.com/nao1215/forumcrawl/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// It lists crawl runs recorded in the database by the crawl command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [label]",
		Short: "List recorded crawl runs",
		Long: `History lists the crawl runs recorded in the database, newest first.

Every crawl started without --no-db records its run (status, page and
record counts, output files) and mirrors the exported threads and posts
into the database.

Examples:
  # List every recorded run
  forumcrawl history

  # List the runs of one forum label together with stored record counts
  forumcrawl history the-lounge

  # Show the full summary of one run
  forumcrawl history --run 12

  # Machine readable output
  forumcrawl history --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64P("run", "r", 0,
		"Show the full summary of the run with this ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	runID, err := cmd.Flags().GetInt64("run")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	var label string
	if len(args) > 0 {
		label = args[0]
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if runID > 0 {
		return showRun(ctx, db, out, runID, jsonOutput)
	}
	return listRuns(ctx, db, out, label, jsonOutput)
}

// showRun prints the stored report of a single run.
func showRun(ctx context.Context, db *database.CrawlDB, out io.Writer, id int64, jsonOutput bool) error {
	r, err := db.GetRunReport(ctx, id)
	if err != nil {
		return err
	}
	if r == nil {
		run, err := db.GetRun(ctx, id)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("crawl run %d not found", id)
		}
		return fmt.Errorf("crawl run %d has not finished (status %s)", id, run.Status)
	}

	var w report.Writer = report.NewSimpleWriter(out, report.WithVerbose(true))
	if jsonOutput {
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	}
	_, err = w.Write(r)
	return err
}

// listRuns prints the run table, optionally filtered by forum label.
func listRuns(ctx context.Context, db *database.CrawlDB, out io.Writer, label string, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, label)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		if label != "" {
			fmt.Fprintf(out, "No crawl runs found for %s\n", label)
		} else {
			fmt.Fprintln(out, "No crawl runs found in the database.")
		}
		fmt.Fprintln(out, "\nUse 'forumcrawl crawl' to crawl a forum.")
		return nil
	}

	fmt.Fprintf(out, "Crawl runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-5s  %-24s  %-19s  %-9s  %-9s  %8s  %8s\n",
		"ID", "Forum", "Started", "Duration", "Status", "Threads", "Posts")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 94))

	for _, run := range runs {
		duration := "-"
		if d := run.Duration(); d > 0 {
			duration = d.Round(time.Second).String()
		}
		fmt.Fprintf(out, "  %-5d  %-24s  %-19s  %-9s  %-9s  %8d  %8d\n",
			run.ID,
			truncate(run.Forum.String(), 24),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			duration,
			run.Status,
			run.Threads,
			run.Posts,
		)
	}

	if label != "" {
		threads, err := db.CountThreads(ctx, label)
		if err != nil {
			return err
		}
		posts, err := db.CountPosts(ctx, label)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nStored for %s: %d threads, %d posts\n", label, threads, posts)
	}

	fmt.Fprintln(out, "\nUse 'forumcrawl history --run <id>' to see the full summary of a run.")
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
