package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/forumcrawl/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose adds the checkpoint file list and skip reasons.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one crawl report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb)
	w.writeReport(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteAll outputs every report under a single banner.
func (w *SimpleWriter) WriteAll(reports []*model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeBanner(&sb)
	for _, report := range reports {
		w.writeReport(&sb, report)
	}
	if len(reports) > 1 {
		w.writeTotals(&sb, reports)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeBanner(sb *strings.Builder) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         FORUMCRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeReport(sb *strings.Builder, report *model.CrawlReport) {
	w.writeHeader(sb, report)
	w.writeSummary(sb, report)
	w.writeFiles(sb, report)
	w.writeSkipped(sb, "SKIPPED THREAD PAGES", report.SkippedPages)
	w.writeSkipped(sb, "SKIPPED POSTS", report.SkippedPosts)
}

// writeHeader writes the forum, timing and status lines.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(fmt.Sprintf("Forum:          %s\n", report.Forum))
	sb.WriteString(fmt.Sprintf("Base URL:       %s\n", report.BaseURL))
	sb.WriteString(fmt.Sprintf("Started:        %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	if d := report.Duration(); d > 0 {
		sb.WriteString(fmt.Sprintf("Duration:       %s\n", d.Round(time.Millisecond)))
	}
	sb.WriteString(fmt.Sprintf("Status:         %s\n", statusText(report)))
	sb.WriteString("\n")
}

// writeSummary writes the page and record counters.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	writeSection(sb, "SUMMARY")

	sb.WriteString(fmt.Sprintf("  Listing pages: %d\n", report.ListingPages))
	sb.WriteString(fmt.Sprintf("  Thread pages:  %d/%d\n", report.ThreadPages, report.ThreadPagesTotal))
	sb.WriteString(fmt.Sprintf("  Chunks:        %d\n", report.Chunks))
	sb.WriteString(fmt.Sprintf("  Threads:       %d\n", report.Threads))
	sb.WriteString(fmt.Sprintf("  Posts:         %d\n", report.Posts))
	sb.WriteString(fmt.Sprintf("  Skipped:       %d page(s), %d post(s)\n", len(report.SkippedPages), len(report.SkippedPosts)))
	sb.WriteString("\n")
}

// writeFiles writes the final dataset files, and with verbose every checkpoint.
func (w *SimpleWriter) writeFiles(sb *strings.Builder, report *model.CrawlReport) {
	if report.ThreadsFile == "" && report.PostsFile == "" && !w.showEmpty {
		return
	}

	writeSection(sb, "OUTPUT FILES")

	if report.ThreadsFile == "" && report.PostsFile == "" {
		sb.WriteString("  No files written\n")
	}
	if report.ThreadsFile != "" {
		sb.WriteString(fmt.Sprintf("  [+] %s\n", report.ThreadsFile))
	}
	if report.PostsFile != "" {
		sb.WriteString(fmt.Sprintf("  [+] %s\n", report.PostsFile))
	}
	if w.verbose {
		for _, f := range report.Files {
			if f == report.ThreadsFile || f == report.PostsFile {
				continue
			}
			sb.WriteString(fmt.Sprintf("  [-] %s\n", f))
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSkipped(sb *strings.Builder, title string, skips []model.Skip) {
	if len(skips) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, title)

	if len(skips) == 0 {
		sb.WriteString("  None\n\n")
		return
	}
	for _, s := range skips {
		sb.WriteString(fmt.Sprintf("  * %s\n", s.Location))
		if w.verbose && s.Reason != "" {
			sb.WriteString(fmt.Sprintf("    Reason: %s\n", s.Reason))
		}
	}
	sb.WriteString("\n")
}

// writeTotals sums the counters of a multi-forum run.
func (w *SimpleWriter) writeTotals(sb *strings.Builder, reports []*model.CrawlReport) {
	var threads, posts, failed int
	for _, r := range reports {
		threads += r.Threads
		posts += r.Posts
		if r.Failed() {
			failed++
		}
	}

	writeSection(sb, "TOTAL")
	sb.WriteString(fmt.Sprintf("  Forums:  %d (%d failed)\n", len(reports), failed))
	sb.WriteString(fmt.Sprintf("  Threads: %d\n", threads))
	sb.WriteString(fmt.Sprintf("  Posts:   %d\n", posts))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by forumcrawl\n")
	sb.WriteString("https://github.com/nao1215/forumcrawl\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}
