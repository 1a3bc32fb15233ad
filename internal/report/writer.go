package report

import (
	"io"

	"github.com/nao1215/forumcrawl/internal/model"
)

// Writer defines the interface for report output.
// Implementations render crawl summaries in various formats.
type Writer interface {
	// Write outputs a single forum crawl report.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.CrawlReport) (int, error)

	// WriteAll outputs the reports of a multi-forum run as one document.
	WriteAll(reports []*model.CrawlReport) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.CrawlReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteAll outputs all reports to every configured Writer.
func (m *MultiWriter) WriteAll(reports []*model.CrawlReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteAll(reports)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText returns a short status line for the report.
func statusText(report *model.CrawlReport) string {
	switch report.Status {
	case model.CrawlStatusCompleted:
		return "Complete"
	case model.CrawlStatusFailed:
		if report.ErrorMessage != "" {
			return "FAILED - " + report.ErrorMessage
		}
		return "FAILED"
	default:
		return "Running"
	}
}
