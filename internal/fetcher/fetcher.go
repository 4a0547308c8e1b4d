package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/lucky89144/DataHawk/internal/model"
)

// Fetcher abstracts page retrieval.
type Fetcher interface {
	// Fetch retrieves one page. Network, DNS, TLS and timeout failures are
	// returned as *TransportError. Any HTTP response, whatever its status,
	// is returned as a PageResult.
	Fetch(ctx context.Context, req Request) (*model.PageResult, error)

	// Close releases resources such as browser processes.
	Close() error

	// Name identifies the implementation ("http", "colly", "browser").
	Name() string
}

// Request describes one fetch.
type Request struct {
	// URL is the absolute URL to fetch.
	URL string

	// Headers are extra request headers (e.g. per-site auth headers).
	Headers map[string]string

	// Cookie is a raw Cookie header value sent with the request.
	Cookie string

	// UserAgent overrides the fetcher's user agent selection.
	UserAgent string
}

// Names of the available implementations.
const (
	NameHTTP    = "http"
	NameColly   = "colly"
	NameBrowser = "browser"
)

// ErrUnknownFetcher is returned by New for an unsupported implementation name.
var ErrUnknownFetcher = errors.New("unknown fetcher")

// ErrInvalidProxy is returned when the proxy URL cannot be used.
var ErrInvalidProxy = errors.New("invalid proxy URL")

// TransportError reports a failure to obtain any HTTP response.
type TransportError struct {
	// URL is the URL that was requested.
	URL string
	// Err is the underlying network error.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Default option values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxBodySize = int64(model.MaxPageSize)
	maxRedirects       = 10
)

// DefaultUserAgents is the pool a user agent is drawn from for each request
// when no explicit user agent is configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
}

// Options configures any Fetcher implementation.
type Options struct {
	// Proxy is a proxy URL: http://, https://, socks5:// or socks5h://.
	// Empty means a direct connection.
	Proxy string

	// Timeout bounds a single fetch, including redirects.
	Timeout time.Duration

	// MaxBodySize limits how many bytes of a body are read.
	MaxBodySize int64

	// UserAgents is the pool to draw from. Empty uses DefaultUserAgents.
	UserAgents []string

	// Headers are sent with every request.
	Headers map[string]string

	// Logger receives debug output.
	Logger *slog.Logger
}

// withDefaults fills zero fields.
func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxBodySize <= 0 {
		o.MaxBodySize = DefaultMaxBodySize
	}
	if len(o.UserAgents) == 0 {
		o.UserAgents = DefaultUserAgents
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// userAgent picks the user agent for req.
func (o Options) userAgent(req Request) string {
	if req.UserAgent != "" {
		return req.UserAgent
	}
	if len(o.UserAgents) == 0 {
		return DefaultUserAgents[0]
	}
	return o.UserAgents[rand.IntN(len(o.UserAgents))]
}

// headers merges fetcher-wide headers with per-request headers.
// Request headers win.
func (o Options) headers(req Request) map[string]string {
	merged := make(map[string]string, len(o.Headers)+len(req.Headers))
	for k, v := range o.Headers {
		merged[k] = v
	}
	for k, v := range req.Headers {
		merged[k] = v
	}
	return merged
}

// ParseProxy validates a proxy URL.
func ParseProxy(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProxy, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidProxy, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidProxy)
	}
	return u, nil
}

// New creates the named Fetcher implementation.
func New(name string, opts Options) (Fetcher, error) {
	switch strings.ToLower(name) {
	case "", NameHTTP:
		return NewHTTPFetcher(opts)
	case NameColly:
		return NewCollyFetcher(opts)
	case NameBrowser:
		return NewBrowserFetcher(opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFetcher, name)
	}
}
