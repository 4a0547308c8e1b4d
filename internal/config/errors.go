package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so that callers can use
// errors.Is() while users still get a readable message.
var (
	// ErrNoSeeds is returned when no seed URL is given and no run is resumed.
	ErrNoSeeds = errors.New("no seed URLs: pass URLs as arguments, on stdin, or use --resume")

	// ErrInvalidQuery is returned when the query is empty or does not compile.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidOutputFormat is returned for formats other than txt, csv and json.
	ErrInvalidOutputFormat = errors.New("invalid output format: must be txt, csv or json")

	// ErrInvalidThreads is returned when the worker count is not positive.
	ErrInvalidThreads = errors.New("invalid threads: must be at least 1")

	// ErrInvalidDelay is returned when a delay is negative or the maximum is
	// below the minimum.
	ErrInvalidDelay = errors.New("invalid delay: need 0 <= min-delay <= max-delay")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidFetcher is returned for unknown fetcher names.
	ErrInvalidFetcher = errors.New("invalid fetcher: must be http, colly or browser")

	// ErrInvalidMaxDepth is returned when the crawl depth is negative.
	ErrInvalidMaxDepth = errors.New("invalid depth: must be non-negative")

	// ErrInvalidMaxPages is returned when the page budget is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidProxy is returned when the proxy URL cannot be used.
	ErrInvalidProxy = errors.New("invalid proxy")

	// ErrConflictingProxy is returned when --tor and --proxy are combined.
	ErrConflictingProxy = errors.New("conflicting proxy settings: --tor and --proxy cannot be used together")

	// ErrResumeWithoutDB is returned when --resume is combined with --no-db.
	ErrResumeWithoutDB = errors.New("--resume needs the crawl database: remove --no-db")

	// ErrInvalidConfigFile is returned when the site file fails validation.
	ErrInvalidConfigFile = errors.New("invalid configuration file")
)
