package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/lucky89144/DataHawk/internal/model"
)

// BrowserFetcher renders pages in headless Chrome through chromedp.
//
// One browser process is shared by all workers; every Fetch opens its own
// tab. Chrome does not expose the HTTP status of the main document through
// the actions used here, so a rendered page is reported with status 200.
type BrowserFetcher struct {
	opts Options

	mu          sync.Mutex
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

// NewBrowserFetcher creates a BrowserFetcher. The browser itself is started
// lazily on the first Fetch.
func NewBrowserFetcher(opts Options) (*BrowserFetcher, error) {
	opts = opts.withDefaults()
	if opts.Proxy != "" {
		if _, err := ParseProxy(opts.Proxy); err != nil {
			return nil, err
		}
	}
	return &BrowserFetcher{opts: opts}, nil
}

// allocator returns the shared exec allocator, creating it on first use.
func (f *BrowserFetcher) allocator() context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.allocCtx != nil {
		return f.allocCtx
	}

	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(f.opts.userAgent(Request{})),
		chromedp.WindowSize(1920, 1080),
	)
	if f.opts.Proxy != "" {
		execOpts = append(execOpts, chromedp.ProxyServer(f.opts.Proxy))
	}

	f.allocCtx, f.cancelAlloc = chromedp.NewExecAllocator(context.Background(), execOpts...)
	return f.allocCtx
}

// Fetch implements Fetcher.
func (f *BrowserFetcher) Fetch(ctx context.Context, req Request) (*model.PageResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{URL: req.URL, Err: err}
	}

	tabCtx, cancelTab := chromedp.NewContext(f.allocator())
	defer cancelTab()

	timeoutCtx, cancelTimeout := context.WithTimeout(tabCtx, f.opts.Timeout)
	defer cancelTimeout()

	// Tie the tab to the caller's context as well.
	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	var html, location string
	actions := []chromedp.Action{network.Enable()}

	headers := f.opts.headers(req)
	if req.Cookie != "" {
		headers["Cookie"] = req.Cookie
	}
	if req.UserAgent != "" {
		headers["User-Agent"] = req.UserAgent
	}
	if len(headers) > 0 {
		extra := make(network.Headers, len(headers))
		for k, v := range headers {
			extra[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(extra))
	}

	actions = append(actions,
		chromedp.Navigate(req.URL),
		chromedp.WaitReady("body"),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html),
	)

	if err := chromedp.Run(timeoutCtx, actions...); err != nil {
		return nil, &TransportError{URL: req.URL, Err: fmt.Errorf("browser automation failed: %w", err)}
	}

	if int64(len(html)) > f.opts.MaxBodySize {
		html = html[:f.opts.MaxBodySize]
	}
	if location == "" {
		location = req.URL
	}

	f.opts.Logger.Debug("rendered page",
		"fetcher", NameBrowser,
		"url", req.URL,
		"final_url", location,
		"bytes", len(html))

	return &model.PageResult{
		URL:         req.URL,
		FinalURL:    location,
		StatusCode:  200,
		ContentType: "text/html",
		Body:        html,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

// Close shuts down the browser process, if one was started.
func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelAlloc != nil {
		f.cancelAlloc()
		f.cancelAlloc = nil
		f.allocCtx = nil
	}
	return nil
}

// Name implements Fetcher.
func (f *BrowserFetcher) Name() string {
	return NameBrowser
}
