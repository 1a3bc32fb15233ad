package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/forumcrawl/internal/model"
	"github.com/nao1215/forumcrawl/internal/repository"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format for sharing crawl results.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs one crawl report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	return w.WriteAll([]*model.CrawlReport{report})
}

// WriteAll outputs every report as a section of one document.
func (w *MarkdownWriter) WriteAll(reports []*model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Forumcrawl Report")
	md.PlainText("")

	if len(reports) > 1 {
		w.writeOverview(md, reports)
	}
	for _, report := range reports {
		w.writeReport(md, report)
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeOverview writes one row per forum for multi-forum runs.
func (w *MarkdownWriter) writeOverview(md *markdown.Markdown, reports []*model.CrawlReport) {
	md.H2("Overview")
	md.PlainText("")

	rows := make([][]string, len(reports))
	for i, r := range reports {
		rows[i] = []string{
			"`" + r.Forum.String() + "`",
			w.statusText(r),
			strconv.Itoa(r.Threads),
			strconv.Itoa(r.Posts),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Forum", "Status", "Threads", "Posts"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeReport(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Forum " + report.Forum.String())
	md.PlainText("")

	duration := "-"
	if d := report.Duration(); d > 0 {
		duration = d.Round(time.Millisecond).String()
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Base URL", "`" + report.BaseURL + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", duration},
			{"Status", w.statusText(report)},
			{"Listing Pages", strconv.Itoa(report.ListingPages)},
			{"Thread Pages", strconv.Itoa(report.ThreadPages) + "/" + strconv.Itoa(report.ThreadPagesTotal)},
			{"Chunks", strconv.Itoa(report.Chunks)},
			{"Threads", strconv.Itoa(report.Threads)},
			{"Posts", strconv.Itoa(report.Posts)},
		},
	})
	md.PlainText("")

	if report.ThreadPagesTotal > 0 {
		w.writePieChart(md, report)
	}

	w.writeFiles(md, report)
	w.writeSkipped(md, "Skipped Thread Pages", report.SkippedPages)
	w.writeSkipped(md, "Skipped Posts", report.SkippedPosts)
	w.writeAlert(md, report)
}

// statusText decorates the plain status for markdown tables.
func (w *MarkdownWriter) statusText(report *model.CrawlReport) string {
	switch report.Status {
	case model.CrawlStatusCompleted:
		return "✅ " + statusText(report)
	case model.CrawlStatusFailed:
		return "❌ " + statusText(report)
	default:
		return "⏳ " + statusText(report)
	}
}

// writePieChart writes a mermaid pie chart of thread page outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.CrawlReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Thread Pages"),
		piechart.WithShowData(true),
	)

	if report.ThreadPages > 0 {
		chart.LabelAndIntValue("Parsed", uint64(report.ThreadPages))
	}
	if n := len(report.SkippedPages); n > 0 {
		chart.LabelAndIntValue("Skipped", uint64(n))
	}
	if rest := report.ThreadPagesTotal - report.ThreadPages - len(report.SkippedPages); rest > 0 {
		chart.LabelAndIntValue("Not fetched", uint64(rest))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFiles(md *markdown.Markdown, report *model.CrawlReport) {
	md.H3("Output Files")
	md.PlainText("")

	var files []string
	for _, f := range []string{report.ThreadsFile, report.PostsFile} {
		if f != "" {
			files = append(files, "`"+f+"`")
		}
	}
	if len(files) == 0 {
		md.PlainText("No dataset files were written.")
		md.PlainText("")
		return
	}

	md.BulletList(files...)
	md.PlainText("")
}

// writeSkipped lists skipped items inside a collapsed details block.
func (w *MarkdownWriter) writeSkipped(md *markdown.Markdown, title string, skips []model.Skip) {
	if len(skips) == 0 {
		return
	}

	md.H3(title + " (" + strconv.Itoa(len(skips)) + ")")
	md.PlainText("")
	for _, s := range skips {
		md.Details(truncateString(s.Location, 80), s.Reason)
	}
	md.PlainText("")
}

// writeAlert closes the section with an alert matching the outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CrawlReport) {
	switch {
	case report.Failed():
		md.Cautionf("The crawl was aborted: %s", report.ErrorMessage)
		if repository.IsErrorFile(report.PostsFile) {
			md.Warningf("`%s` holds a partial dataset.", report.PostsFile)
		}
	case len(report.SkippedPages) > 0 || len(report.SkippedPosts) > 0:
		md.Notef(
			"%d thread page(s) and %d post(s) could not be parsed and were skipped.",
			len(report.SkippedPages), len(report.SkippedPosts),
		)
	default:
		md.Tip("Every thread page was parsed.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [forumcrawl](https://github.com/nao1215/forumcrawl)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
