package repository

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/nao1215/forumcrawl/internal/model"
)

// TimestampLayout formats the crawl time in final export file names.
const TimestampLayout = "2006-01-02_15.04.05"

// ErrorPrefix is prepended to the final files of an aborted crawl.
const ErrorPrefix = "ERROR_"

// PostsDumpName is the base name of the rolling post checkpoint.
const PostsDumpName = "posts_dump"

// CSV headers. Column names are part of the dataset contract consumed by
// the analysis tooling.
var (
	ThreadColumns = []string{"id", "urlSlug", "title", "author", "pageCount", "discoveredAt"}
	PostColumns   = []string{"id", "author", "content", "threadId", "postedAt"}
)

// Persisted names the final files written by Persist.
type Persisted struct {
	ThreadsFile string
	PostsFile   string
}

// Exporter writes repository contents below a directory.
type Exporter struct {
	dir      string
	compress bool
	now      func() time.Time
	logger   *slog.Logger
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithCompression toggles zip archives. Enabled by default.
func WithCompression(enabled bool) ExporterOption {
	return func(e *Exporter) {
		e.compress = enabled
	}
}

// WithClock sets the clock used for final file names.
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ExporterOption {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExporter creates an Exporter writing into dir.
func NewExporter(dir string, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		dir:      dir,
		compress: true,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Persist writes the final threads and posts files of repo. When failed is
// set the file names carry the ERROR_ prefix so a partial dataset is never
// mistaken for a complete one.
func (e *Exporter) Persist(repo *Repository, failed bool) (*Persisted, error) {
	prefix := ""
	if failed {
		prefix = ErrorPrefix
	}
	label := repo.Forum().Label
	ts := e.now().Format(TimestampLayout)

	threadsFile, err := e.writeThreads(prefix+"threads_"+label+"_"+ts, repo.ExportThreads())
	if err != nil {
		return nil, err
	}
	postsFile, err := e.writePosts(prefix+"posts_"+label+"_"+ts, repo.ExportPosts())
	if err != nil {
		return nil, err
	}

	return &Persisted{ThreadsFile: threadsFile, PostsFile: postsFile}, nil
}

// DumpPosts overwrites the rolling post checkpoint with the current posts.
func (e *Exporter) DumpPosts(repo *Repository) (string, error) {
	return e.writePosts(PostsDumpName, repo.ExportPosts())
}

// DumpThreads writes the thread checkpoint taken after the listing phase,
// named after the forum label and id.
func (e *Exporter) DumpThreads(repo *Repository) (string, error) {
	forum := repo.Forum()
	return e.writeThreads("threads_"+forum.Label+"_"+strconv.FormatInt(forum.ID, 10), repo.ExportThreads())
}

func (e *Exporter) writeThreads(base string, threads []model.Thread) (string, error) {
	rows := make([][]string, 0, len(threads))
	for _, t := range threads {
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			t.URLSlug,
			t.Title,
			t.Author,
			strconv.Itoa(t.PageCount),
			formatTime(t.DiscoveredAt),
		})
	}
	return e.write(base, ThreadColumns, rows)
}

func (e *Exporter) writePosts(base string, posts []model.Post) (string, error) {
	rows := make([][]string, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			p.Author,
			p.Content,
			strconv.FormatInt(p.ThreadID, 10),
			formatTime(p.PostedAt),
		})
	}
	return e.write(base, PostColumns, rows)
}

// write stores a CSV table as <base>.csv or <base>.csv.zip. The file is
// written to a temporary name and renamed so readers never see a partial
// checkpoint.
func (e *Exporter) write(base string, header []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(e.dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := base + ".csv"
	path := filepath.Join(e.dir, name)
	if e.compress {
		path += ".zip"
	}

	tmp, err := os.CreateTemp(e.dir, "."+base+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // already renamed on success

	if err := e.encode(tmp, name, header, rows); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	e.logger.Debug("export written", slog.String("file", path), slog.Int("rows", len(rows)))
	return path, nil
}

func (e *Exporter) encode(w io.Writer, entry string, header []string, rows [][]string) error {
	if !e.compress {
		return writeCSV(w, header, rows)
	}

	zw := zip.NewWriter(w)
	fw, err := zw.CreateHeader(&zip.FileHeader{
		Name:     entry,
		Method:   zip.Deflate,
		Modified: e.now(),
	})
	if err != nil {
		return err
	}
	if err := writeCSV(fw, header, rows); err != nil {
		return err
	}
	return zw.Close()
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// IsErrorFile reports whether path names the final file of an aborted crawl.
func IsErrorFile(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ErrorPrefix)
}
