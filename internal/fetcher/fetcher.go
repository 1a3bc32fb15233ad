package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/corpix/uarand"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ProgressFunc observes fetch progress. It is called once per completed
// batch with the number of batches done and the total number of batches.
type ProgressFunc func(done, total int)

// Fetcher downloads page bodies in throttled concurrent batches.
// A Fetcher is safe for sequential reuse across phases; FetchAll calls
// must not overlap.
type Fetcher struct {
	// client performs the requests. Its Timeout bounds each request.
	client *http.Client

	// batchSize is the number of requests issued concurrently.
	batchSize int

	// batchDelay is the pause between two batches.
	batchDelay time.Duration

	// limiter caps the request rate when non-nil.
	limiter *rate.Limiter

	// userAgent is sent unless randomUserAgent is set.
	userAgent string

	// randomUserAgent picks a browser User-Agent per request.
	randomUserAgent bool

	// headers are extra request headers.
	headers map[string]string

	// maxBodySize is the largest accepted response body. A larger body
	// fails the fetch. Zero means unlimited.
	maxBodySize int64

	// progress is notified after every batch.
	progress ProgressFunc

	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBatchSize sets the number of concurrent requests per batch.
func WithBatchSize(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.batchSize = n
		}
	}
}

// WithBatchDelay sets the pause between batches.
func WithBatchDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.batchDelay = d
	}
}

// WithRateLimit caps the request rate to rps requests per second.
// A value <= 0 disables the cap.
func WithRateLimit(rps float64) Option {
	return func(f *Fetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithRandomUserAgent sends a random browser User-Agent with each request.
func WithRandomUserAgent(enabled bool) Option {
	return func(f *Fetcher) {
		f.randomUserAgent = enabled
	}
}

// sessionHeaders carry login state. The crawler only reads public pages,
// so they are never sent.
var sessionHeaders = map[string]bool{
	"Cookie":              true,
	"Authorization":       true,
	"Proxy-Authorization": true,
}

// WithHeaders adds custom transport headers such as Accept-Language.
// Session headers (Cookie, Authorization) are dropped.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		f.headers = make(map[string]string, len(headers))
		for k, v := range headers {
			if sessionHeaders[http.CanonicalHeaderKey(k)] {
				continue
			}
			f.headers[k] = v
		}
	}
}

// WithMaxBodySize sets the largest accepted response body. A page over the
// limit fails with ErrBodyTooLarge instead of being truncated.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithProgress sets the per-batch progress observer.
func WithProgress(fn ProgressFunc) Option {
	return func(f *Fetcher) {
		f.progress = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a Fetcher using client. A nil client is replaced by a zero
// http.Client. Defaults: batches of 50 with a 500ms pause.
func New(client *http.Client, opts ...Option) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	f := &Fetcher{
		client:     client,
		batchSize:  50,
		batchDelay: 500 * time.Millisecond,
		userAgent:  "forumcrawl/1.0",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAll downloads every URL and returns the bodies in input order.
//
// URLs are processed in batches of batchSize; all requests of a batch run
// concurrently and the fetcher waits batchDelay before the next batch.
// The first failure cancels in-flight requests of the batch and is returned
// without any partial result.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) ([]string, error) {
	bodies := make([]string, len(urls))
	if len(urls) == 0 {
		return bodies, nil
	}

	total := (len(urls) + f.batchSize - 1) / f.batchSize
	for b := 0; b < total; b++ {
		start := b * f.batchSize
		end := min(start+f.batchSize, len(urls))

		if err := f.fetchBatch(ctx, urls[start:end], bodies[start:end]); err != nil {
			return nil, err
		}

		f.logger.Debug("batch fetched",
			slog.Int("batch", b+1),
			slog.Int("batches", total),
			slog.Int("pages", end-start),
		)
		if f.progress != nil {
			f.progress(b+1, total)
		}

		if b < total-1 && f.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.batchDelay):
			}
		}
	}

	return bodies, nil
}

// fetchBatch fetches urls concurrently, writing body i into out[i].
// Each goroutine owns exactly one slot of out.
func (f *Fetcher) fetchBatch(ctx context.Context, urls, out []string) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		g.Go(func() error {
			body, err := f.fetch(gctx, u)
			if err != nil {
				return err
			}
			out[i] = body
			return nil
		})
	}
	return g.Wait()
}

// fetch performs a single GET request.
func (f *Fetcher) fetch(ctx context.Context, pageURL string) (string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for %s: %w", pageURL, err)
	}

	ua := f.userAgent
	if f.randomUserAgent {
		ua = uarand.GetRandom()
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	var reader io.Reader = resp.Body
	if f.maxBodySize > 0 {
		// One extra byte tells an oversized body apart from one of exactly
		// maxBodySize bytes.
		reader = io.LimitReader(resp.Body, f.maxBodySize+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read body of %s: %w", pageURL, err)
	}
	if f.maxBodySize > 0 && int64(len(body)) > f.maxBodySize {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, pageURL, f.maxBodySize)
	}
	return string(body), nil
}
