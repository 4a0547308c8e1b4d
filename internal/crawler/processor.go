package crawler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lucky89144/DataHawk/internal/extract"
	"github.com/lucky89144/DataHawk/internal/model"
)

// paginationSelector matches the links a crawl follows from a page.
const paginationSelector = `a.next[href], a[rel~="next"][href], link[rel~="next"][href]`

// Processor turns fetched pages into findings and pagination links.
// It holds no mutable state and is safe for concurrent use.
type Processor struct {
	textOnly bool
	now      func() time.Time
	logger   *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithTextOnly makes the processor match patterns against the visible text
// of HTML pages instead of the raw body.
func WithTextOnly(textOnly bool) ProcessorOption {
	return func(p *Processor) {
		p.textOnly = textOnly
	}
}

// WithClock sets the time source for finding timestamps.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		p.now = now
	}
}

// WithProcessorLogger sets the processor logger.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor creates a Processor.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process extracts findings matching q from page and collects its pagination
// links as absolute URLs.
//
// A page with a status other than 200 yields nothing and a *FetchStatusError.
// Every match becomes one finding, in order of appearance; matches are not
// deduplicated. Links are deduplicated and returned in document order.
func (p *Processor) Process(page *model.PageResult, q extract.Query) ([]model.Finding, []string, error) {
	if page.StatusCode != http.StatusOK {
		return nil, nil, &FetchStatusError{URL: page.URL, StatusCode: page.StatusCode}
	}

	source := page.SourceURL()
	scrapedAt := p.now()

	text := page.Body
	if p.textOnly && page.IsHTML() {
		visible, err := VisibleText(strings.NewReader(page.Body))
		if err != nil {
			p.logger.Debug("falling back to raw body", "url", source, "error", err)
		} else {
			text = visible
		}
	}

	matches := q.Extract(text)
	findings := make([]model.Finding, 0, len(matches))
	for _, m := range matches {
		findings = append(findings, model.NewFinding(m.Value, m.Pattern, source, scrapedAt))
	}
	if len(findings) == 0 {
		p.logger.Info("no data found", "url", source, "query", q.String())
	}

	if !page.IsHTML() {
		return findings, nil, nil
	}
	return findings, p.paginationLinks(page.Body, source), nil
}

// paginationLinks returns the next-page links of an HTML document.
func (p *Processor) paginationLinks(body, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		p.logger.Debug("failed to parse HTML", "url", pageURL, "error", err)
		return nil
	}

	// <base href> changes the resolution root for the whole document.
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	seen := make(map[string]struct{})
	links := make([]string, 0)
	doc.Find(paginationSelector).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link := resolveLink(base, href)
		if link == "" {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})
	return links
}
