package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/lucky89144/DataHawk/internal/model"
)

// CollyFetcher fetches pages with a gocolly collector.
// A new collector is created for each request so no state (visited set,
// callbacks) leaks between workers.
type CollyFetcher struct {
	opts Options
}

// NewCollyFetcher creates a CollyFetcher. The proxy URL is validated eagerly.
func NewCollyFetcher(opts Options) (*CollyFetcher, error) {
	opts = opts.withDefaults()
	if opts.Proxy != "" {
		if _, err := ParseProxy(opts.Proxy); err != nil {
			return nil, err
		}
	}
	return &CollyFetcher{opts: opts}, nil
}

// Fetch implements Fetcher.
func (f *CollyFetcher) Fetch(ctx context.Context, req Request) (*model.PageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{URL: req.URL, Err: err}
	}

	c := colly.NewCollector(
		colly.UserAgent(f.opts.userAgent(req)),
		colly.MaxBodySize(int(f.opts.MaxBodySize)),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.opts.Timeout)
	// Non-2xx responses are results, not errors.
	c.ParseHTTPErrorResponse = true
	c.DetectCharset = true

	if f.opts.Proxy != "" {
		if err := c.SetProxy(f.opts.Proxy); err != nil {
			return nil, &TransportError{URL: req.URL, Err: fmt.Errorf("failed to set proxy: %w", err)}
		}
	}

	headers := f.opts.headers(req)
	c.OnRequest(func(r *colly.Request) {
		for k, v := range headers {
			r.Headers.Set(k, v)
		}
		if req.Cookie != "" {
			r.Headers.Set("Cookie", req.Cookie)
		}
	})

	var (
		result   *model.PageResult
		fetchErr error
	)

	c.OnResponse(func(r *colly.Response) {
		finalURL := req.URL
		if r.Request != nil && r.Request.URL != nil {
			finalURL = r.Request.URL.String()
		}
		contentType := ""
		if r.Headers != nil {
			contentType = r.Headers.Get("Content-Type")
		}
		result = &model.PageResult{
			URL:         req.URL,
			FinalURL:    finalURL,
			StatusCode:  r.StatusCode,
			ContentType: contentType,
			Body:        string(r.Body),
			FetchedAt:   time.Now().UTC(),
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		f.opts.Logger.Debug("colly fetch error", "url", req.URL, "status", status, "error", err)
		fetchErr = err
	})

	if err := c.Visit(req.URL); err != nil && fetchErr == nil {
		fetchErr = err
	}

	if result == nil {
		if fetchErr == nil {
			fetchErr = fmt.Errorf("no response received")
		}
		return nil, &TransportError{URL: req.URL, Err: fetchErr}
	}

	f.opts.Logger.Debug("fetched page",
		"fetcher", NameColly,
		"url", req.URL,
		"final_url", result.FinalURL,
		"status", result.StatusCode,
		"bytes", len(result.Body))

	return result, nil
}

// Close implements Fetcher.
func (f *CollyFetcher) Close() error {
	return nil
}

// Name implements Fetcher.
func (f *CollyFetcher) Name() string {
	return NameColly
}
