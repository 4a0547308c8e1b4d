package crawler

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/lucky89144/DataHawk/internal/extract"
	"github.com/lucky89144/DataHawk/internal/fetcher"
	"github.com/lucky89144/DataHawk/internal/frontier"
	"github.com/lucky89144/DataHawk/internal/model"
	"github.com/lucky89144/DataHawk/internal/ratelimit"
)

// runPool starts the workers and sums their counters once all have exited.
func (c *Controller) runPool(ctx context.Context, f *frontier.Frontier, q extract.Query) *model.Summary {
	workers := make([]*worker, c.threads)
	var g errgroup.Group
	for i := range workers {
		w := &worker{
			id:       i,
			ctrl:     c,
			frontier: f,
			limiter:  ratelimit.New(c.minDelay, c.maxDelay),
			query:    q,
			logger:   c.logger.With("worker", i),
		}
		workers[i] = w
		g.Go(func() error {
			w.run(ctx)
			return nil
		})
	}
	// Workers never return errors; failures are counted instead.
	_ = g.Wait()

	summary := &model.Summary{}
	for _, w := range workers {
		summary.Add(w.stats)
	}
	return summary
}

// worker runs crawl cycles until the frontier is terminal. Its counters are
// owned by its goroutine and read only after the pool has stopped.
type worker struct {
	id       int
	ctrl     *Controller
	frontier *frontier.Frontier
	limiter  *ratelimit.Limiter
	query    extract.Query
	logger   *slog.Logger
	stats    model.Summary
}

func (w *worker) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := w.limiter.WaitTurn(ctx); err != nil {
			return
		}

		task, ok := w.frontier.Dequeue()
		if !ok {
			return
		}
		if ctx.Err() != nil {
			// Leave the task queued in the journal for a later resume.
			w.frontier.Done(task)
			return
		}

		w.process(ctx, task)
		w.frontier.Done(task)
	}
}

// process runs one fetch/extract/follow/write cycle. The fetch and the
// writes are not interrupted by cancellation of ctx.
func (w *worker) process(ctx context.Context, task model.URLTask) {
	c := w.ctrl
	workCtx := context.WithoutCancel(ctx)

	req := fetcher.Request{URL: task.URL}
	if c.hook != nil {
		c.hook(&req)
	}

	page, err := c.fetcher.Fetch(workCtx, req)
	if err != nil {
		w.logger.Warn("fetch failed", "url", task.URL, "error", err)
		w.stats.ErrorsEncountered++
		c.recordFinished(ctx, task, model.TaskFailed, 0)
		return
	}
	w.stats.PagesFetched++
	if page.Redirected() {
		w.frontier.MarkSeen(page.FinalURL)
	}

	findings, links, err := c.processor.Process(page, w.query)
	if err != nil {
		var statusErr *FetchStatusError
		if errors.As(err, &statusErr) {
			w.logger.Warn("skipping page", "url", task.URL, "status", statusErr.StatusCode)
		} else {
			w.logger.Warn("failed to process page", "url", task.URL, "error", err)
		}
		w.stats.ErrorsEncountered++
		c.recordFinished(ctx, task, model.TaskFailed, page.StatusCode)
		return
	}

	w.follow(workCtx, task, links)

	for _, finding := range findings {
		if err := c.sink.Write(finding); err != nil {
			w.logger.Error("failed to write finding", "url", finding.SourceURL, "error", err)
			w.stats.ErrorsEncountered++
			continue
		}
		w.stats.FindingsWritten++
	}

	w.logger.Debug("page processed",
		"url", task.URL,
		"depth", task.Depth,
		"findings", len(findings),
		"links", len(links),
	)
	c.recordFinished(ctx, task, model.TaskFetched, page.StatusCode)
}

// follow enqueues the links the policy allows, one level deeper than task.
func (w *worker) follow(ctx context.Context, task model.URLTask, links []string) {
	depth := task.Depth + 1
	for _, link := range links {
		normalized, err := frontier.Normalize(link)
		if err != nil {
			continue
		}
		if w.frontier.Seen(normalized) {
			continue
		}
		if !w.ctrl.policy.Allow(ctx, normalized, depth) {
			continue
		}
		if w.frontier.Enqueue(normalized, depth) {
			w.ctrl.recordQueued(ctx, model.URLTask{URL: normalized, Depth: depth})
		}
	}
}
