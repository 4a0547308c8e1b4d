package model

import (
	"strings"
	"time"
)

// MaxPageSize is the maximum size of a page body read by a fetcher.
// Larger bodies are truncated to this size.
const MaxPageSize = 5 * 1024 * 1024 // 5 MB

// URLTask is one unit of crawl work.
// The frontier owns a task until it is dequeued; afterwards the worker owns it
// for exactly one fetch/process cycle.
type URLTask struct {
	// URL is the normalized absolute URL to fetch.
	URL string `json:"url"`

	// Depth is the number of links followed from a seed to reach URL.
	// Seeds have depth 0.
	Depth int `json:"depth"`
}

// PageResult is the outcome of fetching a URL.
// It is produced by a fetcher and consumed exactly once by the page processor.
type PageResult struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// FinalURL is the URL after following redirects.
	// Fetchers that do not follow redirects set it equal to URL.
	FinalURL string `json:"final_url"`

	// StatusCode is the HTTP response status code.
	// Browser fetchers report 200 once the DOM has been rendered.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type of the response, if known.
	ContentType string `json:"content_type,omitempty"`

	// Body is the decoded page text (HTML source or rendered DOM).
	Body string `json:"-"`

	// FetchedAt is when the response was received.
	FetchedAt time.Time `json:"fetched_at"`
}

// SourceURL returns the URL findings from this page are attributed to.
// It is the final URL after redirects when known.
func (p *PageResult) SourceURL() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}

// IsHTML returns true if the content type indicates HTML.
// An unknown content type is treated as HTML.
func (p *PageResult) IsHTML() bool {
	if p.ContentType == "" {
		return true
	}
	ct := strings.ToLower(p.ContentType)
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

// Redirected reports whether the final URL differs from the requested URL.
func (p *PageResult) Redirected() bool {
	return p.FinalURL != "" && p.FinalURL != p.URL
}

// TaskState is the lifecycle state of a URL within a run.
type TaskState string

const (
	// TaskQueued means the URL was accepted by the frontier but not yet fetched.
	TaskQueued TaskState = "queued"
	// TaskFetched means a response was received (any status code).
	TaskFetched TaskState = "fetched"
	// TaskFailed means the fetch failed at the transport level.
	TaskFailed TaskState = "failed"
)
