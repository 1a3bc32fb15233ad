package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/forumcrawl/internal/config"
	"github.com/nao1215/forumcrawl/internal/database"
	"github.com/nao1215/forumcrawl/internal/fetcher"
	"github.com/nao1215/forumcrawl/internal/log"
	"github.com/nao1215/forumcrawl/internal/model"
	"github.com/nao1215/forumcrawl/internal/pipeline"
	"github.com/nao1215/forumcrawl/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [label.id ...]",
		Short: "Crawl forums and export their threads and posts",
		Long: `Crawl walks every listing page of the given forums, extracts all threads,
then fetches every thread page and extracts all posts.

Forums are given as <label>.<id>, exactly as they appear in listing URLs
(/forums/<label>.<id>/). Without arguments the forums listed in the
configuration file are crawled.

Results are written to the output directory:
  threads_<label>_<id>.csv.zip            thread checkpoint after the listing phase
  posts_dump.csv.zip                      post checkpoint after every chunk
  threads_<label>_<timestamp>.csv.zip     final thread dataset
  posts_<label>_<timestamp>.csv.zip       final post dataset

If a crawl fails, the final files carry an ERROR_ prefix and hold every
record gathered before the failure.

Examples:
  # Crawl one forum
  forumcrawl crawl -u https://forum.example.com the-lounge.8

  # Crawl two forums with smaller batches and a longer pause
  forumcrawl crawl -u https://forum.example.com -b 20 -D 2s news.2 the-lounge.8

  # Write uncompressed CSV to ./out and print a Markdown summary
  forumcrawl crawl -u https://forum.example.com --no-compress -O out -m news.2

  # Use the forums and settings of a configuration file
  forumcrawl crawl -c myconfig.yaml`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Target flags
	cmd.Flags().StringP("base-url", "u", "",
		"Site root of the forum board (e.g. https://forum.example.com)")

	// Throughput flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent requests per batch")
	cmd.Flags().DurationP("batch-delay", "D", config.DefaultBatchDelay,
		"Pause between two fetch batches")
	cmd.Flags().IntP("chunk", "k", config.DefaultChunkSize,
		"Number of thread pages fetched and parsed per checkpoint")
	cmd.Flags().IntP("workers", "w", 0,
		"Number of HTML parsing workers (default: number of CPUs)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Float64("rps", 0,
		"Maximum requests per second (0 = only the batch throttle)")
	cmd.Flags().Bool("random-user-agent", false,
		"Send a random browser User-Agent with each request")

	// Output flags
	cmd.Flags().StringP("output-dir", "O", config.DefaultOutputDir,
		"Directory for exported datasets and checkpoints")
	cmd.Flags().Bool("no-compress", false,
		"Write plain .csv files instead of .csv.zip archives")
	cmd.Flags().Bool("no-db", false,
		"Do not record the crawl in the history database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .forumcrawl in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the summary to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the configuration file and
// command flags, in increasing order of precedence.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	for _, arg := range args {
		forum, err := model.ParseForum(arg)
		if err != nil {
			return nil, err
		}
		cfg.Forums = append(cfg.Forums, forum)
	}

	var err error
	if cfg.BaseURL, err = flags.GetString("base-url"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	// An explicit --config must exist; the implicit search may find nothing.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(cf)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if flags.Changed("batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("batch-delay") {
		if cfg.BatchDelay, err = flags.GetDuration("batch-delay"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("chunk") {
		if cfg.ChunkSize, err = flags.GetInt("chunk"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("rps") {
		if cfg.RequestsPerSecond, err = flags.GetFloat64("rps"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("random-user-agent") {
		if cfg.RandomUserAgent, err = flags.GetBool("random-user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("output-dir") {
		if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
			return nil, err
		}
	}

	noCompress, err := flags.GetBool("no-compress")
	if err != nil {
		return nil, err
	}
	if noCompress {
		cfg.Compress = false
	}

	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// newFetcher builds the page fetcher for cfg. Batch progress is printed to
// progress as "Fetching: n/total batches".
func newFetcher(cfg *config.Config, progress io.Writer, logger *slog.Logger) *fetcher.Fetcher {
	client := &http.Client{Timeout: cfg.Timeout}

	return fetcher.New(client,
		fetcher.WithBatchSize(cfg.BatchSize),
		fetcher.WithBatchDelay(cfg.BatchDelay),
		fetcher.WithRateLimit(cfg.RequestsPerSecond),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithRandomUserAgent(cfg.RandomUserAgent),
		fetcher.WithHeaders(cfg.Headers),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithProgress(func(done, total int) {
			fmt.Fprintf(progress, "Fetching: %d/%d batches\n", done, total)
		}),
		fetcher.WithLogger(logger),
	)
}

// runCrawl crawls every configured forum and writes the summary report.
// The report is written even when a forum failed, and the crawl error is
// returned afterwards.
func runCrawl(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"baseURL", cfg.BaseURL,
		"forums", len(cfg.Forums),
		"batchSize", cfg.BatchSize,
		"chunkSize", cfg.ChunkSize,
		"workers", cfg.Workers,
		"saveToDB", cfg.SaveToDB,
	)

	opts := []pipeline.OrchestratorOption{
		pipeline.WithOutputDir(cfg.OutputDir),
		pipeline.WithCompression(cfg.Compress),
		pipeline.WithChunkSize(cfg.ChunkSize),
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithOrchestratorLogger(logger),
	}

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
		opts = append(opts, pipeline.WithStore(db))
	}

	o := pipeline.NewOrchestrator(cfg.BaseURL, newFetcher(cfg, stderr, logger), opts...)

	fmt.Fprintf(stderr, "Crawling %d forum(s) on %s...\n", len(cfg.Forums), log.SanitizeURL(cfg.BaseURL))
	startTime := time.Now()
	reports, crawlErr := o.CrawlForums(ctx, cfg.Forums)
	fmt.Fprintf(stderr, "Crawl finished in %s\n\n", time.Since(startTime).Round(time.Millisecond))

	if err := outputReport(cfg, stdout, reports); err != nil {
		return errors.Join(crawlErr, fmt.Errorf("failed to write report: %w", err))
	}
	return crawlErr
}

// outputReport writes the crawl summaries in the requested format.
func outputReport(cfg *config.Config, stdout io.Writer, reports []*model.CrawlReport) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	w := newReportWriter(cfg, output)
	if cfg.ReportFile != "" && !cfg.JSONReport && !cfg.MarkdownReport {
		// The text summary goes to the file and the terminal.
		w = report.NewMultiWriter(w, report.NewSimpleWriter(stdout))
	}

	_, err := w.WriteAll(reports)
	return err
}

// newReportWriter returns the writer for the requested report format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}
