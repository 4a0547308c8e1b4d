package fetcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/net/proxy"

	"github.com/lucky89144/DataHawk/internal/model"
)

// HTTPFetcher fetches pages with net/http.
// It is safe for concurrent use; all workers share one connection pool.
type HTTPFetcher struct {
	opts   Options
	client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher.
//
// HTTP(S) proxies are set on the transport; SOCKS5 proxies (including the
// embedded Tor daemon) are used as the transport's dialer.
func NewHTTPFetcher(opts Options) (*HTTPFetcher, error) {
	opts = opts.withDefaults()

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if opts.Proxy != "" {
		proxyURL, err := ParseProxy(opts.Proxy)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(proxyURL.Scheme) {
		case "socks5", "socks5h":
			dialer, err := proxy.FromURL(proxyURL, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
			}
			transport.Proxy = nil
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				transport.DialContext = cd.DialContext
			} else {
				transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
					return dialer.Dial(network, addr)
				}
			}
		default:
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	client := &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	return &HTTPFetcher{opts: opts, client: client}, nil
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (*model.PageResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, &TransportError{URL: req.URL, Err: err}
	}

	httpReq.Header.Set("User-Agent", f.opts.userAgent(req))
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range f.opts.headers(req) {
		httpReq.Header.Set(k, v)
	}
	if req.Cookie != "" {
		httpReq.Header.Set("Cookie", req.Cookie)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{URL: req.URL, Err: err}
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	body, err := readBody(resp.Body, contentType, f.opts.MaxBodySize)
	if err != nil {
		return nil, &TransportError{URL: req.URL, Err: err}
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	f.opts.Logger.Debug("fetched page",
		"url", req.URL,
		"final_url", finalURL,
		"status", resp.StatusCode,
		"bytes", len(body))

	return &model.PageResult{
		URL:         req.URL,
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

// Close implements Fetcher.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// Name implements Fetcher.
func (f *HTTPFetcher) Name() string {
	return NameHTTP
}

// readBody reads at most limit bytes and decodes them to UTF-8 using the
// charset from the Content-Type header or the document itself.
func readBody(r io.Reader, contentType string, limit int64) (string, error) {
	limited := io.LimitReader(r, limit)
	decoded, err := charset.NewReader(limited, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	data, err := io.ReadAll(decoded)
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(data), nil
}
