package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"

	"github.com/lucky89144/DataHawk/internal/fetcher"
)

// Robots answers robots.txt queries, fetching each host's rules once.
//
// Lookups fail open: a robots.txt that cannot be fetched or parsed allows
// everything. The cache is safe for concurrent use; concurrent misses for
// the same host share one fetch.
type Robots struct {
	fetcher   fetcher.Fetcher
	userAgent string
	logger    *slog.Logger

	// cache maps scheme://host to *robotstxt.RobotsData. A nil entry means
	// the host has no usable rules.
	cache sync.Map
	group singleflight.Group
}

// NewRobots creates a robots.txt checker that fetches through f and tests
// rules for userAgent. An empty userAgent tests the "*" group.
func NewRobots(f fetcher.Fetcher, userAgent string, logger *slog.Logger) *Robots {
	if userAgent == "" {
		userAgent = "*"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Robots{
		fetcher:   f,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Allowed reports whether rawURL may be crawled.
func (r *Robots) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	data := r.rules(ctx, u)
	if data == nil {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, r.userAgent)
}

func (r *Robots) rules(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	key := strings.ToLower(u.Scheme + "://" + u.Host)
	if val, ok := r.cache.Load(key); ok {
		data, _ := val.(*robotstxt.RobotsData)
		return data
	}

	val, _, _ := r.group.Do(key, func() (any, error) {
		data := r.fetchRules(ctx, key)
		r.cache.Store(key, data)
		return data, nil
	})
	data, _ := val.(*robotstxt.RobotsData)
	return data
}

func (r *Robots) fetchRules(ctx context.Context, origin string) *robotstxt.RobotsData {
	robotsURL := origin + "/robots.txt"
	page, err := r.fetcher.Fetch(ctx, fetcher.Request{URL: robotsURL})
	if err != nil {
		r.logger.Debug("robots.txt unavailable", "url", robotsURL, "error", err)
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(page.StatusCode, []byte(page.Body))
	if err != nil {
		r.logger.Debug("robots.txt unparseable", "url", robotsURL, "error", err)
		return nil
	}
	return data
}
