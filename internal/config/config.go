package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/lucky89144/DataHawk/internal/extract"
	"github.com/lucky89144/DataHawk/internal/fetcher"
	"github.com/lucky89144/DataHawk/internal/ratelimit"
	"github.com/lucky89144/DataHawk/internal/sink"
	"github.com/lucky89144/DataHawk/internal/tor"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "datahawk"

	// DefaultQuery extracts email addresses.
	DefaultQuery = extract.PatternEmail

	// DefaultOutputFormat writes plain-text blocks.
	DefaultOutputFormat = string(sink.FormatTXT)

	// DefaultThreads is one worker, which keeps the request rate at one page
	// per 3-6 seconds.
	DefaultThreads = 1

	// DefaultMinDelay and DefaultMaxDelay bound the per-worker pause
	// between fetches.
	DefaultMinDelay = ratelimit.DefaultMinDelay
	DefaultMaxDelay = ratelimit.DefaultMaxDelay

	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = fetcher.DefaultTimeout

	// DefaultCrawlDepth is the number of link hops followed from a seed.
	DefaultCrawlDepth = 100

	// DefaultMaxPages of 0 means no page budget.
	DefaultMaxPages = 0

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = fetcher.DefaultMaxBodySize

	// DefaultFetcher is the plain net/http fetcher.
	DefaultFetcher = fetcher.NameHTTP

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = tor.DefaultStartupTimeout
)

// Config holds all options of a crawl run.
// It is populated from flags, environment and defaults, and passed down
// explicitly rather than kept in global state.
type Config struct {
	// Seeds are the start URLs.
	Seeds []string

	// Query selects what to extract: a pattern name, "all", or a regular
	// expression.
	Query string

	// OutputFormat is txt, csv or json.
	OutputFormat string

	// OutputDir is where result files are created.
	OutputDir string

	// Proxy is an optional http, https or socks5 proxy URL.
	Proxy string

	// Threads is the number of concurrent workers.
	Threads int

	// MinDelay and MaxDelay bound each worker's pause between fetches.
	MinDelay time.Duration
	MaxDelay time.Duration

	// Timeout bounds one page fetch.
	Timeout time.Duration

	// CrawlDepth is the maximum number of link hops from a seed.
	// Depth 0 fetches the seeds only.
	CrawlDepth int

	// MaxPages caps the pages fetched in this run. 0 means unlimited.
	MaxPages int

	// CrossDomains allows following links to hosts other than the seeds'.
	CrossDomains bool

	// RespectRobots skips links disallowed by robots.txt.
	RespectRobots bool

	// TextOnly matches patterns against visible page text only.
	TextOnly bool

	// Fetcher selects the page fetcher: http, colly or browser.
	Fetcher string

	// UseTor routes all requests through an embedded Tor daemon.
	UseTor bool

	// TorStartupTimeout is the maximum time to wait for Tor to bootstrap.
	TorStartupTimeout time.Duration

	// UserAgent overrides the rotating default User-Agent list.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	// Set to 0 to use the default.
	MaxBodySize int64

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON writes logs as JSON lines instead of styled text.
	LogJSON bool

	// ConfigFilePath is the site file path. If empty, .datahawk is searched
	// in the current directory and then in the home directory.
	ConfigFilePath string

	// SiteConfigs holds the loaded site file, if any.
	SiteConfigs *File

	// DBDir is the directory of the crawl database.
	DBDir string

	// SaveToDB records run state for history, reports and resume.
	SaveToDB bool

	// Resume is the ID of an earlier run to continue.
	Resume string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Query:             DefaultQuery,
		OutputFormat:      DefaultOutputFormat,
		OutputDir:         ".",
		Threads:           DefaultThreads,
		MinDelay:          DefaultMinDelay,
		MaxDelay:          DefaultMaxDelay,
		Timeout:           DefaultTimeout,
		CrawlDepth:        DefaultCrawlDepth,
		MaxPages:          DefaultMaxPages,
		Fetcher:           DefaultFetcher,
		TorStartupTimeout: DefaultTorStartupTimeout,
		MaxBodySize:       DefaultMaxBodySize,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
	}
}

// XDGDataDir returns the XDG data directory for DataHawk.
// On Linux: ~/.local/share/datahawk
// On macOS: ~/Library/Application Support/datahawk
// On Windows: %LOCALAPPDATA%\datahawk
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for DataHawk.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// It runs once after flag parsing, before anything touches the network.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 && c.Resume == "" {
		return ErrNoSeeds
	}

	if c.Query == "" {
		return ErrInvalidQuery
	}
	if _, err := extract.ParseQuery(c.Query); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	if _, err := sink.ParseFormat(c.OutputFormat); err != nil {
		return ErrInvalidOutputFormat
	}

	if c.Threads < 1 {
		return ErrInvalidThreads
	}

	if c.MinDelay < 0 || c.MaxDelay < 0 || c.MaxDelay < c.MinDelay {
		return ErrInvalidDelay
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	switch c.Fetcher {
	case fetcher.NameHTTP, fetcher.NameColly, fetcher.NameBrowser:
	default:
		return ErrInvalidFetcher
	}

	if c.CrawlDepth < 0 {
		return ErrInvalidMaxDepth
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.Resume != "" && !c.SaveToDB {
		return ErrResumeWithoutDB
	}

	if c.UseTor && c.Proxy != "" {
		return ErrConflictingProxy
	}

	if c.Proxy != "" {
		if _, err := fetcher.ParseProxy(c.Proxy); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProxy, err)
		}
	}

	return nil
}

// Format returns the parsed output format. It assumes Validate succeeded.
func (c *Config) Format() sink.Format {
	f, err := sink.ParseFormat(c.OutputFormat)
	if err != nil {
		return sink.FormatTXT
	}
	return f
}

// UserAgents returns the user agents for fetcher options.
func (c *Config) UserAgents() []string {
	if c.UserAgent == "" {
		return nil
	}
	return []string{c.UserAgent}
}
