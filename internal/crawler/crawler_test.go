package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lucky89144/DataHawk/internal/extract"
	"github.com/lucky89144/DataHawk/internal/fetcher"
	"github.com/lucky89144/DataHawk/internal/model"
)

type fakePage struct {
	status int
	body   string
	final  string
	err    error
}

// fakeFetcher serves canned pages and counts requests per URL.
// Unknown URLs return 404.
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]fakePage
	calls   map[string]int
	onFetch func(url string)
}

func newFakeFetcher(pages map[string]fakePage) *fakeFetcher {
	return &fakeFetcher{pages: pages, calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(_ context.Context, req fetcher.Request) (*model.PageResult, error) {
	f.mu.Lock()
	f.calls[req.URL]++
	p, ok := f.pages[req.URL]
	hook := f.onFetch
	f.mu.Unlock()

	if hook != nil {
		hook(req.URL)
	}
	if !ok {
		p = fakePage{status: http.StatusNotFound}
	}
	if p.err != nil {
		return nil, &fetcher.TransportError{URL: req.URL, Err: p.err}
	}
	final := p.final
	if final == "" {
		final = req.URL
	}
	return &model.PageResult{
		URL:         req.URL,
		FinalURL:    final,
		StatusCode:  p.status,
		ContentType: "text/html; charset=utf-8",
		Body:        p.body,
		FetchedAt:   time.Now(),
	}, nil
}

func (f *fakeFetcher) Close() error { return nil }
func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeFetcher) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type memorySink struct {
	mu       sync.Mutex
	findings []model.Finding
	err      error
}

func (s *memorySink) Write(f model.Finding) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings = append(s.findings, f)
	return nil
}

func (s *memorySink) Close() error { return nil }

func (s *memorySink) all() []model.Finding {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Finding(nil), s.findings...)
}

type journalEntry struct {
	url    string
	depth  int
	state  model.TaskState
	status int
}

type memoryJournal struct {
	mu      sync.Mutex
	entries []journalEntry
}

func (j *memoryJournal) TaskQueued(_ context.Context, task model.URLTask) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, journalEntry{url: task.URL, depth: task.Depth, state: model.TaskQueued})
	return nil
}

func (j *memoryJournal) TaskFinished(_ context.Context, task model.URLTask, state model.TaskState, status int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, journalEntry{url: task.URL, depth: task.Depth, state: state, status: status})
	return nil
}

func (j *memoryJournal) final(url string) (journalEntry, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := len(j.entries) - 1; i >= 0; i-- {
		if j.entries[i].url == url {
			return j.entries[i], true
		}
	}
	return journalEntry{}, false
}

func page(email, next string) fakePage {
	body := fmt.Sprintf(`<html><body><p>Contact %s</p>`, email)
	if next != "" {
		body += fmt.Sprintf(`<a class="next" href="%s">Next</a>`, next)
	}
	return fakePage{status: http.StatusOK, body: body + `</body></html>`}
}

func newTestController(f fetcher.Fetcher, out *memorySink, opts ...Option) *Controller {
	base := []Option{WithDelay(0, 0)}
	return NewController(f, out, append(base, opts...)...)
}

func TestProcessor(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	email := extract.MustParseQuery("email")

	t.Run("non-200 yields status error and nothing else", func(t *testing.T) {
		t.Parallel()

		p := NewProcessor()
		findings, links, err := p.Process(&model.PageResult{
			URL:        "http://site.test/missing",
			StatusCode: http.StatusNotFound,
			Body:       `<a class="next" href="/p2">x</a> a@b.com`,
		}, email)

		var statusErr *FetchStatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("expected FetchStatusError, got %v", err)
		}
		if statusErr.StatusCode != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", statusErr.StatusCode)
		}
		if len(findings) != 0 || len(links) != 0 {
			t.Errorf("expected no findings or links, got %d and %d", len(findings), len(links))
		}
	})

	t.Run("findings carry final URL and timestamp", func(t *testing.T) {
		t.Parallel()

		p := NewProcessor(WithClock(func() time.Time { return fixed }))
		findings, _, err := p.Process(&model.PageResult{
			URL:        "http://site.test/old",
			FinalURL:   "http://site.test/new",
			StatusCode: http.StatusOK,
			Body:       "one@example.com and two@example.com and one@example.com",
		}, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(findings) != 3 {
			t.Fatalf("expected 3 findings, got %d", len(findings))
		}
		for _, f := range findings {
			if f.SourceURL != "http://site.test/new" {
				t.Errorf("expected final URL as source, got %q", f.SourceURL)
			}
			if !f.ScrapedAt.Equal(fixed) {
				t.Errorf("expected fixed timestamp, got %v", f.ScrapedAt)
			}
			if f.PatternName != extract.PatternEmail {
				t.Errorf("expected pattern %q, got %q", extract.PatternEmail, f.PatternName)
			}
		}
	})

	t.Run("pagination links are resolved and deduplicated", func(t *testing.T) {
		t.Parallel()

		body := `<html><head><link rel="next" href="/page/2"></head><body>
			<a class="next" href="/page/2">Next</a>
			<a rel="nofollow next" href="3">Three</a>
			<a href="/ignored">Plain</a>
			<a class="next" href="javascript:void(0)">JS</a>
			<a class="next" href="https://other.test/x">Elsewhere</a>
		</body></html>`

		p := NewProcessor()
		_, links, err := p.Process(&model.PageResult{
			URL:        "http://site.test/page/1",
			StatusCode: http.StatusOK,
			Body:       body,
		}, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{
			"http://site.test/page/2",
			"http://site.test/page/3",
			"https://other.test/x",
		}
		if len(links) != len(want) {
			t.Fatalf("expected %v, got %v", want, links)
		}
		for i := range want {
			if links[i] != want[i] {
				t.Errorf("link %d: expected %q, got %q", i, want[i], links[i])
			}
		}
	})

	t.Run("non-HTML pages have no links", func(t *testing.T) {
		t.Parallel()

		p := NewProcessor()
		findings, links, err := p.Process(&model.PageResult{
			URL:         "http://site.test/data.json",
			StatusCode:  http.StatusOK,
			ContentType: "application/json",
			Body:        `{"next": "<a class=\"next\" href=\"/p2\">", "mail": "x@y.org"}`,
		}, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(links) != 0 {
			t.Errorf("expected no links, got %v", links)
		}
		if len(findings) != 1 {
			t.Errorf("expected 1 finding, got %d", len(findings))
		}
	})

	t.Run("text-only mode ignores markup and scripts", func(t *testing.T) {
		t.Parallel()

		body := `<html><head><script>var a = "hidden@script.com";</script></head>
			<body><a href="mailto:link@attr.com">Mail</a> visible@text.com <!-- old@comment.com --></body></html>`

		p := NewProcessor(WithTextOnly(true))
		findings, _, err := p.Process(&model.PageResult{
			URL:        "http://site.test/",
			StatusCode: http.StatusOK,
			Body:       body,
		}, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := make([]string, 0, len(findings))
		for _, f := range findings {
			got = append(got, f.Data)
		}
		want := []string{"visible@text.com", "old@comment.com"}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("expected %v, got %v", want, got)
		}
	})
}

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/admin/*", "/admin/dashboard", true},
		{"/admin/*", "/admin", true},
		{"/admin/*", "/administrator", false},
		{"*.pdf", "/docs/file.pdf", true},
		{"*.pdf", "/docs/file.html", false},
		{"/api/v?", "/api/v1", true},
		{"/api/v?", "/api/v10", false},
		{"logout*", "/account/logout-now", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			t.Parallel()
			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func TestPolicy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("depth limit", func(t *testing.T) {
		t.Parallel()

		p := NewPolicy(WithMaxDepth(2))
		if !p.Allow(ctx, "http://site.test/a", 2) {
			t.Error("expected depth 2 to be allowed")
		}
		if p.Allow(ctx, "http://site.test/a", 3) {
			t.Error("expected depth 3 to be rejected")
		}
	})

	t.Run("site depth overrides the global limit", func(t *testing.T) {
		t.Parallel()

		p := NewPolicy(
			WithMaxDepth(1),
			WithCrossDomains(true),
			WithSiteRules("deep.test", PathRules{MaxDepth: 5}),
		)
		if !p.Allow(ctx, "http://deep.test/a", 5) {
			t.Error("expected site depth to allow depth 5")
		}
		if p.Allow(ctx, "http://shallow.test/a", 2) {
			t.Error("expected global depth to reject depth 2")
		}
	})

	t.Run("negative depth is unlimited", func(t *testing.T) {
		t.Parallel()

		p := NewPolicy(WithMaxDepth(-1))
		if !p.Allow(ctx, "http://site.test/a", 10000) {
			t.Error("expected unlimited depth")
		}
	})

	t.Run("seed hosts only by default", func(t *testing.T) {
		t.Parallel()

		p := NewPolicy()
		p.AddSeeds([]string{"http://Site.test/"})
		if !p.Allow(ctx, "http://site.test/x", 1) {
			t.Error("expected seed host to be allowed")
		}
		if p.Allow(ctx, "http://other.test/x", 1) {
			t.Error("expected foreign host to be rejected")
		}
	})

	t.Run("cross domains", func(t *testing.T) {
		t.Parallel()

		p := NewPolicy(WithCrossDomains(true))
		p.AddSeeds([]string{"http://site.test/"})
		if !p.Allow(ctx, "http://other.test/x", 1) {
			t.Error("expected foreign host to be allowed")
		}
	})

	t.Run("site rules override defaults", func(t *testing.T) {
		t.Parallel()

		p := NewPolicy(
			WithPathRules(PathRules{Ignore: []string{"*.pdf"}}),
			WithSiteRules("forum.test", PathRules{Follow: []string{"/threads/*"}}),
			WithCrossDomains(true),
		)
		if p.Allow(ctx, "http://site.test/doc.pdf", 1) {
			t.Error("expected default ignore rule to apply")
		}
		if !p.Allow(ctx, "http://forum.test/threads/42", 1) {
			t.Error("expected follow rule to allow thread")
		}
		if p.Allow(ctx, "http://forum.test/users/1", 1) {
			t.Error("expected follow rule to reject other paths")
		}
	})
}

func TestRobots(t *testing.T) {
	t.Parallel()

	f := newFakeFetcher(map[string]fakePage{
		"http://site.test/robots.txt": {
			status: http.StatusOK,
			body:   "User-agent: *\nDisallow: /private\n",
		},
	})
	r := NewRobots(f, "", nil)
	ctx := context.Background()

	if r.Allowed(ctx, "http://site.test/private/data") {
		t.Error("expected /private to be disallowed")
	}
	if !r.Allowed(ctx, "http://site.test/public") {
		t.Error("expected /public to be allowed")
	}
	if !r.Allowed(ctx, "http://norobots.test/anything") {
		t.Error("expected missing robots.txt to allow everything")
	}
	if got := f.callCount("http://site.test/robots.txt"); got != 1 {
		t.Errorf("expected robots.txt to be fetched once, got %d", got)
	}
}

func TestController(t *testing.T) {
	t.Parallel()

	email := extract.MustParseQuery("email")

	t.Run("follows a chain with a back-link once per page", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/":   page("a@site.test", "/p2"),
			"http://site.test/p2": page("b@site.test", "/p3"),
			"http://site.test/p3": page("c@site.test", "/"),
		})
		out := &memorySink{}
		journal := &memoryJournal{}

		summary, err := newTestController(f, out, WithJournal(journal)).
			Run(context.Background(), []string{"http://SITE.test"}, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if summary.PagesFetched != 3 {
			t.Errorf("expected 3 pages, got %d", summary.PagesFetched)
		}
		if summary.FindingsWritten != 3 || len(out.all()) != 3 {
			t.Errorf("expected 3 findings, got %d (%d written)", summary.FindingsWritten, len(out.all()))
		}
		if summary.ErrorsEncountered != 0 {
			t.Errorf("expected no errors, got %d", summary.ErrorsEncountered)
		}
		if got := f.callCount("http://site.test/"); got != 1 {
			t.Errorf("expected seed fetched once, got %d", got)
		}

		entry, ok := journal.final("http://site.test/p3")
		if !ok || entry.state != model.TaskFetched || entry.depth != 2 || entry.status != http.StatusOK {
			t.Errorf("unexpected journal entry for p3: %+v", entry)
		}
	})

	t.Run("single page without links", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/": page("only@site.test", ""),
		})
		out := &memorySink{}

		summary, err := newTestController(f, out, WithThreads(3)).
			Run(context.Background(), []string{"http://site.test/"}, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.PagesFetched != 1 || summary.FindingsWritten != 1 {
			t.Errorf("unexpected summary: %+v", summary)
		}
	})

	t.Run("non-200 seed counts as fetched and as an error", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]fakePage{})
		journal := &memoryJournal{}

		summary, err := newTestController(f, &memorySink{}, WithJournal(journal)).
			Run(context.Background(), []string{"http://site.test/"}, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.PagesFetched != 1 || summary.ErrorsEncountered != 1 || summary.FindingsWritten != 0 {
			t.Errorf("unexpected summary: %+v", summary)
		}
		entry, _ := journal.final("http://site.test/")
		if entry.state != model.TaskFailed || entry.status != http.StatusNotFound {
			t.Errorf("unexpected journal entry: %+v", entry)
		}
	})

	t.Run("transport errors are counted and skipped", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]fakePage{
			"http://a.test/": {err: errors.New("connection refused")},
			"http://b.test/": page("b@b.test", ""),
		})

		summary, err := newTestController(f, &memorySink{}).
			Run(context.Background(), []string{"http://a.test/", "http://b.test/"}, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.PagesFetched != 1 || summary.ErrorsEncountered != 1 || summary.FindingsWritten != 1 {
			t.Errorf("unexpected summary: %+v", summary)
		}
	})

	t.Run("sink errors do not stop the crawl", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/":   page("a@site.test", "/p2"),
			"http://site.test/p2": page("b@site.test", ""),
		})
		out := &memorySink{err: errors.New("disk full")}

		summary, err := newTestController(f, out).
			Run(context.Background(), []string{"http://site.test/"}, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.PagesFetched != 2 || summary.ErrorsEncountered != 2 || summary.FindingsWritten != 0 {
			t.Errorf("unexpected summary: %+v", summary)
		}
	})

	t.Run("redirect targets are not fetched again", func(t *testing.T) {
		t.Parallel()

		p := page("a@site.test", "/new")
		p.final = "http://site.test/new"
		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/old": p,
		})

		summary, err := newTestController(f, &memorySink{}).
			Run(context.Background(), []string{"http://site.test/old"}, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.PagesFetched != 1 {
			t.Errorf("expected 1 page, got %d", summary.PagesFetched)
		}
		if got := f.callCount("http://site.test/new"); got != 0 {
			t.Errorf("expected redirect target not to be fetched, got %d", got)
		}
	})

	t.Run("page budget", func(t *testing.T) {
		t.Parallel()

		pages := make(map[string]fakePage)
		pages["http://site.test/"] = page("p0@site.test", "/p1")
		for i := 1; i < 5; i++ {
			pages[fmt.Sprintf("http://site.test/p%d", i)] = page(fmt.Sprintf("p%d@site.test", i), fmt.Sprintf("/p%d", i+1))
		}
		f := newFakeFetcher(pages)

		summary, err := newTestController(f, &memorySink{}, WithMaxPages(2)).
			Run(context.Background(), []string{"http://site.test/"}, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.PagesFetched != 2 {
			t.Errorf("expected 2 pages, got %d", summary.PagesFetched)
		}
	})

	t.Run("depth limit", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/":   page("a@site.test", "/p2"),
			"http://site.test/p2": page("b@site.test", "/p3"),
			"http://site.test/p3": page("c@site.test", ""),
		})

		summary, err := newTestController(f, &memorySink{}, WithPolicy(NewPolicy(WithMaxDepth(1)))).
			Run(context.Background(), []string{"http://site.test/"}, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.PagesFetched != 2 {
			t.Errorf("expected 2 pages, got %d", summary.PagesFetched)
		}
	})

	t.Run("concurrent workers fetch each page once", func(t *testing.T) {
		t.Parallel()

		var hub strings.Builder
		hub.WriteString("<html><body>")
		pages := make(map[string]fakePage)
		for i := range 20 {
			path := fmt.Sprintf("/item/%d", i)
			fmt.Fprintf(&hub, `<a rel="next" href="%s">%d</a>`, path, i)
			// Every item links back to every other item.
			pages["http://site.test"+path] = page(fmt.Sprintf("item%d@site.test", i), fmt.Sprintf("/item/%d", (i+1)%20))
		}
		hub.WriteString("</body></html>")
		pages["http://site.test/"] = fakePage{status: http.StatusOK, body: hub.String()}
		f := newFakeFetcher(pages)

		summary, err := newTestController(f, &memorySink{}, WithThreads(4)).
			Run(context.Background(), []string{"http://site.test/"}, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.PagesFetched != 21 {
			t.Errorf("expected 21 pages, got %d", summary.PagesFetched)
		}
		if got := f.totalCalls(); got != 21 {
			t.Errorf("expected 21 fetches, got %d", got)
		}
	})

	t.Run("resume skips seen URLs and drains pending ones", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/":   page("a@site.test", "/p2"),
			"http://site.test/p2": page("b@site.test", "/p3"),
			"http://site.test/p3": page("c@site.test", ""),
		})

		ctrl := newTestController(f, &memorySink{}, WithResume(
			[]string{"http://site.test/"},
			[]model.URLTask{{URL: "http://site.test/p2", Depth: 1}},
		))
		summary, err := ctrl.Run(context.Background(), []string{"http://site.test/"}, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.PagesFetched != 2 {
			t.Errorf("expected 2 pages, got %d", summary.PagesFetched)
		}
		if got := f.callCount("http://site.test/"); got != 0 {
			t.Errorf("expected seen seed not to be fetched, got %d", got)
		}
	})

	t.Run("cancellation finishes the current page only", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/":   page("a@site.test", "/p2"),
			"http://site.test/p2": page("b@site.test", ""),
		})
		f.onFetch = func(string) { cancel() }
		out := &memorySink{}

		summary, err := newTestController(f, out).
			Run(ctx, []string{"http://site.test/"}, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.PagesFetched != 1 {
			t.Errorf("expected 1 page, got %d", summary.PagesFetched)
		}
		if len(out.all()) != 1 {
			t.Errorf("expected in-flight page findings to be written, got %d", len(out.all()))
		}
		if got := f.callCount("http://site.test/p2"); got != 0 {
			t.Errorf("expected no fetch after cancellation, got %d", got)
		}
	})

	t.Run("already cancelled context fetches nothing", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/": page("a@site.test", ""),
		})

		summary, err := newTestController(f, &memorySink{}).
			Run(ctx, []string{"http://site.test/"}, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.PagesFetched != 0 || f.totalCalls() != 0 {
			t.Errorf("expected no work, got %+v", summary)
		}
	})

	t.Run("configuration errors", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(nil)
		if _, err := newTestController(f, &memorySink{}).Run(context.Background(), nil, email); !errors.Is(err, ErrNoSeeds) {
			t.Errorf("expected ErrNoSeeds, got %v", err)
		}
		if _, err := newTestController(f, &memorySink{}).Run(context.Background(), []string{"ftp://x"}, email); !errors.Is(err, ErrNoSeeds) {
			t.Errorf("expected ErrNoSeeds for unusable seeds, got %v", err)
		}
		if _, err := newTestController(f, &memorySink{}, WithThreads(0)).Run(context.Background(), []string{"http://x.test"}, email); !errors.Is(err, ErrInvalidThreads) {
			t.Errorf("expected ErrInvalidThreads, got %v", err)
		}
	})

	t.Run("request hook adds headers", func(t *testing.T) {
		t.Parallel()

		var (
			mu  sync.Mutex
			got string
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			got = r.Header.Get("X-Api-Key")
			mu.Unlock()
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body>ops@example.org</body></html>`)
		}))
		defer srv.Close()

		hf, err := fetcher.NewHTTPFetcher(fetcher.Options{Timeout: 5 * time.Second})
		if err != nil {
			t.Fatalf("failed to create fetcher: %v", err)
		}
		defer hf.Close()

		out := &memorySink{}
		hook := func(req *fetcher.Request) {
			req.Headers = map[string]string{"X-Api-Key": "secret"}
		}
		summary, err := newTestController(hf, out, WithRequestHook(hook)).
			Run(context.Background(), []string{srv.URL}, email)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.FindingsWritten != 1 {
			t.Errorf("expected 1 finding, got %d", summary.FindingsWritten)
		}
		mu.Lock()
		defer mu.Unlock()
		if got != "secret" {
			t.Errorf("expected hook header, got %q", got)
		}
	})
}
