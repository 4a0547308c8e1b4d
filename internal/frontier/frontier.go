package frontier

import (
	"log/slog"
	"sync"

	"github.com/lucky89144/DataHawk/internal/model"
)

// Frontier is the shared, deduplicating crawl queue.
//
// All operations are safe for concurrent use. The mutex is only held for
// check-and-update of queue, seen-set and counters; it is never held while a
// caller fetches or processes a page.
type Frontier struct {
	mu   sync.Mutex
	cond *sync.Cond

	// queue holds pending tasks in FIFO order.
	queue []model.URLTask

	// seen holds every normalized URL ever accepted. It never shrinks.
	seen map[string]struct{}

	// inFlight counts dequeued tasks not yet reported via Done.
	inFlight int

	// dequeued counts tasks handed out, for the page budget.
	dequeued int

	// maxPages stops handing out tasks after this many. 0 means unlimited.
	maxPages int

	// closed makes every Dequeue return terminal.
	closed bool

	logger *slog.Logger
}

// Option configures a Frontier.
type Option func(*Frontier)

// WithMaxPages limits the number of tasks handed out over the frontier's
// lifetime. 0 means unlimited.
func WithMaxPages(n int) Option {
	return func(f *Frontier) {
		f.maxPages = n
	}
}

// WithLogger sets the logger used for rejected URLs.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Frontier) {
		f.logger = logger
	}
}

// New creates an empty Frontier.
func New(opts ...Option) *Frontier {
	f := &Frontier{
		seen:   make(map[string]struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Enqueue normalizes rawURL and queues it unless it has been seen before.
// It returns true only if the URL was newly added. Unparseable and
// non-HTTP(S) URLs are rejected. Enqueue after Close is a no-op.
func (f *Frontier) Enqueue(rawURL string, depth int) bool {
	normalized, err := Normalize(rawURL)
	if err != nil {
		f.logger.Debug("rejected URL", "url", rawURL, "error", err)
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false
	}
	if _, ok := f.seen[normalized]; ok {
		return false
	}
	f.seen[normalized] = struct{}{}
	f.queue = append(f.queue, model.URLTask{URL: normalized, Depth: depth})
	f.cond.Signal()
	return true
}

// MarkSeen records rawURL in the seen-set without queueing it.
// It is used for redirect targets and for URLs already processed in a
// previous run. It returns true if the URL was not seen before.
func (f *Frontier) MarkSeen(rawURL string) bool {
	normalized, err := Normalize(rawURL)
	if err != nil {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.seen[normalized]; ok {
		return false
	}
	f.seen[normalized] = struct{}{}
	return true
}

// Seen reports whether rawURL has been accepted or marked seen.
func (f *Frontier) Seen(rawURL string) bool {
	normalized, err := Normalize(rawURL)
	if err != nil {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.seen[normalized]
	return ok
}

// Dequeue returns the next task.
//
// It blocks while the queue is empty but other tasks are still in flight,
// since those may enqueue more work. It returns false when the frontier is
// quiescent (queue empty and nothing in flight), when the page budget is
// spent, or after Close. A successful Dequeue must be paired with Done.
func (f *Frontier) Dequeue() (model.URLTask, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if f.closed || f.budgetSpent() {
			return model.URLTask{}, false
		}
		if len(f.queue) > 0 {
			task := f.queue[0]
			f.queue[0] = model.URLTask{}
			f.queue = f.queue[1:]
			f.inFlight++
			f.dequeued++
			return task, true
		}
		if f.inFlight == 0 {
			// Quiescent: wake everyone else so they observe it too.
			f.cond.Broadcast()
			return model.URLTask{}, false
		}
		f.cond.Wait()
	}
}

// Done reports that a dequeued task has been fully processed, including
// enqueueing any links it produced.
func (f *Frontier) Done(model.URLTask) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inFlight > 0 {
		f.inFlight--
	}
	if f.inFlight == 0 && (len(f.queue) == 0 || f.budgetSpent()) {
		f.cond.Broadcast()
	}
}

// Close makes all blocked and future Dequeue calls return false.
// It is safe to call more than once.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.cond.Broadcast()
}

// Pending returns a snapshot of the queued tasks, oldest first.
func (f *Frontier) Pending() []model.URLTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.URLTask, len(f.queue))
	copy(out, f.queue)
	return out
}

// Stats is a point-in-time view of frontier counters.
type Stats struct {
	// Queued is the number of tasks waiting to be dequeued.
	Queued int
	// InFlight is the number of tasks dequeued but not yet done.
	InFlight int
	// Seen is the number of distinct normalized URLs recorded.
	Seen int
	// Dequeued is the number of tasks handed out so far.
	Dequeued int
}

// Stats returns current counters.
func (f *Frontier) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{
		Queued:   len(f.queue),
		InFlight: f.inFlight,
		Seen:     len(f.seen),
		Dequeued: f.dequeued,
	}
}

// budgetSpent must be called with mu held.
func (f *Frontier) budgetSpent() bool {
	return f.maxPages > 0 && f.dequeued >= f.maxPages
}
