// Package crawler runs the DataHawk crawl loop.
//
// # Architecture
//
// A Controller seeds a frontier.Frontier and starts a fixed pool of workers.
// Each worker owns a ratelimit.Limiter and repeats one cycle until the
// frontier reports a terminal state:
//
//	wait turn -> dequeue -> fetch -> process -> enqueue links -> write findings -> done
//
// The Processor turns a fetched page into findings and pagination links.
// The Policy decides which of those links may be enqueued (depth, host scope,
// glob ignore/follow patterns and, optionally, robots.txt).
//
// # Cancellation
//
// Cancelling the context passed to Controller.Run closes the frontier.
// Workers finish the cycle they are in and exit. A fetch that has already
// started is not aborted; it is bounded by the fetcher timeout instead.
//
// # Usage
//
//	ctrl := crawler.NewController(f, out, crawler.WithThreads(4))
//	summary, err := ctrl.Run(ctx, []string{"https://example.com"}, extract.MustParseQuery("email"))
package crawler
