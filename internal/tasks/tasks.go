// package tasks implements batch oEmbed fetches.
//
// The core abstraction is BatchEngine, which resolves a list of URLs against the provider registry under a rate limit.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/oembed/internal/models"
	"github.com/desertthunder/oembed/internal/services"
	"github.com/desertthunder/oembed/internal/shared"
	"golang.org/x/time/rate"
)

const maxWorkers = 8

var errNotAttempted = errors.New("not attempted")

// Outcome aliases keep call sites short.
const (
	OutcomeFetched   = models.OutcomeFetched
	OutcomeUnmatched = models.OutcomeUnmatched
	OutcomeFailed    = models.OutcomeFailed
)

// Resolver is the part of [services.Service] a batch needs.
type Resolver interface {
	Resolve(ctx context.Context, req services.ConsumerRequest) (*services.Embed, error)
}

// URLResult is the outcome for a single URL of a batch.
type URLResult struct {
	Index   int                 // Position in the input list
	URL     string              // Source URL
	Outcome models.Outcome      // fetched, unmatched or failed
	Embed   *services.Embed     // Set when fetched
	Record  *models.EmbedRecord // Set when the embed was archived
	Error   error               // Set when unmatched or failed
}

// BatchResult contains all data from a batch run. Results are in input order.
type BatchResult struct {
	Run      *models.BatchRun
	Results  []URLResult
	Duration time.Duration
}

// Total returns the number of URLs in the batch.
func (r *BatchResult) Total() int {
	return len(r.Results)
}

// BatchOpts contains configuration for a batch run.
type BatchOpts struct {
	RateLimit float64           // Requests per second across all workers (0 = unlimited)
	Workers   int               // Concurrent resolvers (default: 1, max: 8)
	MaxWidth  *int              // Applied to every request
	MaxHeight *int              // Applied to every request
	Params    map[string]string // Applied to every request
}

// BatchEngine resolves URL lists with rate limiting and optional archiving.
type BatchEngine struct {
	svc      Resolver
	archiver EmbedArchiver
	logger   *log.Logger
}

// NewBatchEngine creates a BatchEngine. archiver may be nil to skip persistence.
func NewBatchEngine(svc Resolver, archiver EmbedArchiver, logger *log.Logger) *BatchEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &BatchEngine{svc: svc, archiver: archiver, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *BatchEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run resolves and fetches every URL.
//
// Unmatched URLs and per-URL fetch errors are recorded in the result rather than returned.
// If ctx is canceled, URLs not yet attempted are marked failed and ctx.Err() is returned with the partial result.
func (e *BatchEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, urls []string, opts BatchOpts) (*BatchResult, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: resolver not initialized", shared.ErrInvalidInput)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no urls to fetch", shared.ErrInvalidInput)
	}

	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Workers > maxWorkers {
		opts.Workers = maxWorkers
	}
	if opts.Workers > len(urls) {
		opts.Workers = len(urls)
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	limiter := rate.NewLimiter(limit, 1)

	started := time.Now()
	run := models.NewBatchRun(len(urls))
	if e.archiver != nil {
		if err := e.archiver.StartBatch(run); err != nil {
			return nil, fmt.Errorf("failed to start batch: %w", err)
		}
	}

	result := &BatchResult{Run: run, Results: make([]URLResult, len(urls))}
	e.sendProgress(progress, startBatchUpdate(len(urls)))

	jobs := make(chan int)
	results := make(chan URLResult, len(urls))

	var wg sync.WaitGroup
	for range opts.Workers {
		wg.Add(1)
		go e.worker(ctx, &wg, limiter, urls, opts, jobs, results)
	}

	go func() {
		defer close(jobs)
		for i := range urls {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	done := make([]bool, len(urls))
	completed := 0
	for res := range results {
		completed++
		done[res.Index] = true

		if res.Outcome == OutcomeFetched && e.archiver != nil {
			record, err := e.archiver.SaveEmbed(res.Embed, run.ID())
			if err != nil {
				e.logger.Warn("failed to archive embed", "url", res.URL, "error", err)
				e.sendProgress(progress, saveFailedUpdate(completed, len(urls), res.URL, err))
			} else {
				res.Record = record
			}
		}

		run.Record(res.Outcome)
		result.Results[res.Index] = res
		e.sendProgress(progress, fetchedUpdate(completed, len(urls), res))
	}

	skipped := ctx.Err()
	if skipped == nil {
		skipped = errNotAttempted
	}
	for i, ok := range done {
		if !ok {
			run.Record(OutcomeFailed)
			result.Results[i] = URLResult{Index: i, URL: urls[i], Outcome: OutcomeFailed, Error: skipped}
		}
	}

	run.Complete(time.Now())
	result.Duration = time.Since(started)

	if e.archiver != nil {
		if err := e.archiver.FinishBatch(run); err != nil {
			e.logger.Warn("failed to record batch", "batch", run.ID(), "error", err)
		}
	}

	e.sendProgress(progress, finishBatchUpdate(result))

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// worker resolves URLs by index from jobs until the channel closes or ctx is canceled.
func (e *BatchEngine) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	urls []string,
	opts BatchOpts,
	jobs <-chan int,
	results chan<- URLResult,
) {
	defer wg.Done()

	for i := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		results <- e.resolve(ctx, i, urls[i], opts)
	}
}

func (e *BatchEngine) resolve(ctx context.Context, i int, url string, opts BatchOpts) URLResult {
	res := URLResult{Index: i, URL: url}

	embed, err := e.svc.Resolve(ctx, services.ConsumerRequest{
		URL:       url,
		MaxWidth:  opts.MaxWidth,
		MaxHeight: opts.MaxHeight,
		Params:    opts.Params,
	})
	switch {
	case err == nil:
		res.Outcome = OutcomeFetched
		res.Embed = embed
	case errors.Is(err, shared.ErrNoMatchingProvider):
		res.Outcome = OutcomeUnmatched
		res.Error = err
	default:
		res.Outcome = OutcomeFailed
		res.Error = err
	}
	return res
}
