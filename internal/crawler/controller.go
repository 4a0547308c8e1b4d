package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lucky89144/DataHawk/internal/extract"
	"github.com/lucky89144/DataHawk/internal/fetcher"
	"github.com/lucky89144/DataHawk/internal/frontier"
	"github.com/lucky89144/DataHawk/internal/model"
	"github.com/lucky89144/DataHawk/internal/ratelimit"
	"github.com/lucky89144/DataHawk/internal/sink"
)

// Journal records the lifecycle of crawl tasks so that an interrupted run
// can be resumed. Implementations must be safe for concurrent use.
type Journal interface {
	// TaskQueued records a URL accepted by the frontier.
	TaskQueued(ctx context.Context, task model.URLTask) error

	// TaskFinished records the outcome of a processed URL.
	TaskFinished(ctx context.Context, task model.URLTask, state model.TaskState, statusCode int) error
}

// RequestHook adjusts a request before it is fetched, for example to add
// per-site headers or cookies.
type RequestHook func(req *fetcher.Request)

// Controller owns one crawl: it seeds the frontier, runs the worker pool and
// reports the summary.
type Controller struct {
	fetcher   fetcher.Fetcher
	sink      sink.Sink
	processor *Processor
	policy    *Policy
	journal   Journal
	hook      RequestHook
	logger    *slog.Logger

	threads  int
	minDelay time.Duration
	maxDelay time.Duration
	maxPages int

	resumeSeen    []string
	resumePending []model.URLTask
}

// Option configures a Controller.
type Option func(*Controller)

// WithThreads sets the number of workers.
func WithThreads(n int) Option {
	return func(c *Controller) {
		c.threads = n
	}
}

// WithDelay sets the per-worker delay range between fetches.
func WithDelay(minDelay, maxDelay time.Duration) Option {
	return func(c *Controller) {
		c.minDelay = minDelay
		c.maxDelay = maxDelay
	}
}

// WithMaxPages caps the number of pages fetched. 0 means unlimited.
func WithMaxPages(n int) Option {
	return func(c *Controller) {
		c.maxPages = n
	}
}

// WithPolicy sets the link scope policy.
func WithPolicy(p *Policy) Option {
	return func(c *Controller) {
		c.policy = p
	}
}

// WithProcessor sets the page processor.
func WithProcessor(p *Processor) Option {
	return func(c *Controller) {
		c.processor = p
	}
}

// WithJournal records task state in j.
func WithJournal(j Journal) Option {
	return func(c *Controller) {
		c.journal = j
	}
}

// WithResume restores the frontier of an earlier run: seen URLs are never
// fetched again and pending tasks are queued before the seeds.
func WithResume(seen []string, pending []model.URLTask) Option {
	return func(c *Controller) {
		c.resumeSeen = seen
		c.resumePending = pending
	}
}

// WithRequestHook sets a hook applied to every page request.
func WithRequestHook(hook RequestHook) Option {
	return func(c *Controller) {
		c.hook = hook
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a Controller that fetches with f and writes findings
// to out.
func NewController(f fetcher.Fetcher, out sink.Sink, opts ...Option) *Controller {
	c := &Controller{
		fetcher:  f,
		sink:     out,
		threads:  1,
		minDelay: ratelimit.DefaultMinDelay,
		maxDelay: ratelimit.DefaultMaxDelay,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.processor == nil {
		c.processor = NewProcessor(WithProcessorLogger(c.logger))
	}
	if c.policy == nil {
		c.policy = NewPolicy(WithPolicyLogger(c.logger))
	}
	return c
}

// Run crawls from seeds until no work remains, the page budget is spent or
// ctx is cancelled, and returns what was completed.
//
// Only configuration problems are returned as errors. Fetch, status and
// write failures are logged, counted in the summary and skipped.
func (c *Controller) Run(ctx context.Context, seeds []string, q extract.Query) (*model.Summary, error) {
	if c.threads < 1 {
		return nil, ErrInvalidThreads
	}

	start := time.Now()
	f := frontier.New(
		frontier.WithMaxPages(c.maxPages),
		frontier.WithLogger(c.logger),
	)

	for _, u := range c.resumeSeen {
		f.MarkSeen(u)
	}
	for _, task := range c.resumePending {
		f.Enqueue(task.URL, task.Depth)
	}

	valid := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		normalized, err := frontier.Normalize(seed)
		if err != nil {
			c.logger.Warn("skipping seed", "url", seed, "error", fmt.Errorf("%w: %w", ErrInvalidSeed, err))
			continue
		}
		valid = append(valid, normalized)
		if f.Enqueue(normalized, 0) {
			c.recordQueued(ctx, model.URLTask{URL: normalized})
		}
	}
	if len(valid) == 0 && len(c.resumePending) == 0 {
		return nil, ErrNoSeeds
	}
	c.policy.AddSeeds(valid)

	// Cancellation closes the frontier; workers drain their current cycle.
	stop := context.AfterFunc(ctx, f.Close)
	defer stop()

	c.logger.Info("starting crawl",
		"seeds", len(valid),
		"pending", f.Stats().Queued,
		"threads", c.threads,
		"query", q.String(),
	)

	summary := c.runPool(ctx, f, q)
	summary.Elapsed = time.Since(start)

	c.logger.Info("crawl complete",
		"pages", summary.PagesFetched,
		"findings", summary.FindingsWritten,
		"errors", summary.ErrorsEncountered,
		"elapsed", summary.Elapsed.Round(time.Millisecond),
	)
	return summary, nil
}

func (c *Controller) recordQueued(ctx context.Context, task model.URLTask) {
	if c.journal == nil {
		return
	}
	if err := c.journal.TaskQueued(context.WithoutCancel(ctx), task); err != nil {
		c.logger.Warn("failed to journal queued URL", "url", task.URL, "error", err)
	}
}

func (c *Controller) recordFinished(ctx context.Context, task model.URLTask, state model.TaskState, statusCode int) {
	if c.journal == nil {
		return
	}
	if err := c.journal.TaskFinished(context.WithoutCancel(ctx), task, state, statusCode); err != nil {
		c.logger.Warn("failed to journal URL state", "url", task.URL, "error", err)
	}
}
