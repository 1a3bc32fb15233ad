package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/forumcrawl/internal/crawler"
	"github.com/nao1215/forumcrawl/internal/model"
	"github.com/nao1215/forumcrawl/internal/repository"
)

// Crawl is the state of one forum crawl. Steps read what earlier steps
// produced and add their own results.
type Crawl struct {
	// Forum is the forum being crawled.
	Forum model.Forum

	// BaseURL is the site root.
	BaseURL string

	// Repo accumulates threads and posts. Only steps running on the
	// pipeline goroutine write to it.
	Repo *repository.Repository

	// Report is the crawl summary the steps fill in.
	Report *model.CrawlReport

	// Listing holds the listing pages once discovery has run.
	Listing *crawler.Listing

	// ThreadURLs are the thread page URLs to fetch.
	ThreadURLs []string
}

// NewCrawl creates the state of a crawl of forum.
func NewCrawl(forum model.Forum, baseURL string, report *model.CrawlReport) *Crawl {
	return &Crawl{
		Forum:   forum,
		BaseURL: baseURL,
		Repo:    repository.New(forum),
		Report:  report,
	}
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence on the same Crawl.
type Step interface {
	// Do executes the pipeline step.
	// Returns an error if the step fails critically; recoverable problems
	// are recorded in the report and Do returns nil.
	Do(ctx context.Context, crawl *Crawl) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order and stops at the first failure,
// since every crawl phase depends on the output of the previous one.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
// Cancellation is checked before each step; steps handle it themselves
// while running. The first error is recorded in the report and returned.
func (p *Pipeline) Execute(ctx context.Context, crawl *Crawl) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"forum", crawl.Forum.String(),
				"reason", ctx.Err(),
			)
			crawl.Report.Fail(ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"forum", crawl.Forum.String(),
		)

		if err := step.Do(ctx, crawl); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"forum", crawl.Forum.String(),
				"error", err,
			)
			crawl.Report.Fail(err)
			return err
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"forum", crawl.Forum.String(),
		)
		crawl.Report.PerformedSteps = append(crawl.Report.PerformedSteps, step.Name())
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
