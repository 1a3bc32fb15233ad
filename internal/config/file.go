package config

import (
	"time"

	"github.com/nao1215/forumcrawl/internal/model"
)

// CrawlSettings holds crawl tuning that can be set in the configuration file.
// Zero values mean "not set" and leave the current Config value untouched.
type CrawlSettings struct {
	// BatchSize overrides the number of concurrent requests per batch.
	BatchSize int `yaml:"batchSize,omitempty"`

	// BatchDelay overrides the pause between batches, e.g. "500ms".
	BatchDelay time.Duration `yaml:"batchDelay,omitempty"`

	// ChunkSize overrides the number of thread pages per chunk.
	ChunkSize int `yaml:"chunkSize,omitempty"`

	// Workers overrides the parser worker count.
	Workers int `yaml:"workers,omitempty"`

	// RequestsPerSecond caps the request rate.
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`

	// Timeout overrides the per-request timeout, e.g. "2m".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// RandomUserAgent rotates browser User-Agents per request.
	RandomUserAgent bool `yaml:"randomUserAgent,omitempty"`

	// Headers are custom transport headers included in every request,
	// e.g. Accept-Language. Cookie and Authorization are not sent.
	Headers map[string]string `yaml:"headers,omitempty"`

	// OutputDir overrides the export directory.
	OutputDir string `yaml:"outputDir,omitempty"`

	// Compress toggles zip compression of exports.
	// A pointer so that an explicit false can be told apart from unset.
	Compress *bool `yaml:"compress,omitempty"`
}

// File represents the structure of the .forumcrawl configuration file.
//
//	baseURL: https://forum.example.com
//	forums:
//	  - label: general-discussion
//	    id: 12
//	defaults:
//	  batchSize: 50
//	  batchDelay: 500ms
type File struct {
	// BaseURL is the site root used when --base-url is not given.
	BaseURL string `yaml:"baseURL,omitempty"`

	// Forums are crawled when no forum arguments are given.
	Forums []model.Forum `yaml:"forums,omitempty"`

	// Defaults contains crawl settings applied before CLI flags.
	Defaults CrawlSettings `yaml:"defaults,omitempty"`
}

// ApplyFile merges the configuration file into c.
// Only values that are set in the file override c, and c.BaseURL and
// c.Forums are only filled in when they are still empty so that
// command line arguments keep precedence.
func (c *Config) ApplyFile(cf *File) {
	if cf == nil {
		return
	}

	if c.BaseURL == "" {
		c.BaseURL = cf.BaseURL
	}
	if len(c.Forums) == 0 && len(cf.Forums) > 0 {
		c.Forums = append([]model.Forum(nil), cf.Forums...)
	}

	d := cf.Defaults
	if d.BatchSize != 0 {
		c.BatchSize = d.BatchSize
	}
	if d.BatchDelay != 0 {
		c.BatchDelay = d.BatchDelay
	}
	if d.ChunkSize != 0 {
		c.ChunkSize = d.ChunkSize
	}
	if d.Workers != 0 {
		c.Workers = d.Workers
	}
	if d.RequestsPerSecond != 0 {
		c.RequestsPerSecond = d.RequestsPerSecond
	}
	if d.Timeout != 0 {
		c.Timeout = d.Timeout
	}
	if d.UserAgent != "" {
		c.UserAgent = d.UserAgent
	}
	if d.RandomUserAgent {
		c.RandomUserAgent = true
	}
	if len(d.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(d.Headers))
		}
		for k, v := range d.Headers {
			c.Headers[k] = v
		}
	}
	if d.OutputDir != "" {
		c.OutputDir = d.OutputDir
	}
	if d.Compress != nil {
		c.Compress = *d.Compress
	}
}
