package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
)

// DefaultMaxDepth is the link depth limit when none is configured.
const DefaultMaxDepth = 100

// PathRules are glob path patterns that restrict which links are followed.
type PathRules struct {
	// Ignore lists patterns whose matching paths are never crawled.
	Ignore []string

	// Follow lists patterns of which at least one must match, when set.
	Follow []string

	// MaxDepth overrides the policy depth limit when positive.
	MaxDepth int
}

// Policy decides which discovered links may enter the frontier.
//
// A link is allowed when its depth is within the limit, its host belongs to
// a seed (unless cross-domain crawling is on), its path passes the ignore
// and follow rules for its host, and, when enabled, robots.txt permits it.
type Policy struct {
	maxDepth     int
	crossDomains bool
	defaults     PathRules
	sites        map[string]PathRules
	robots       *Robots
	seedHosts    map[string]struct{}
	logger       *slog.Logger
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// WithMaxDepth sets the maximum link depth. Seeds are depth 0, so 0 crawls
// seeds only. A negative depth removes the limit.
func WithMaxDepth(depth int) PolicyOption {
	return func(p *Policy) {
		p.maxDepth = depth
	}
}

// WithCrossDomains allows links to hosts other than the seed hosts.
func WithCrossDomains(allow bool) PolicyOption {
	return func(p *Policy) {
		p.crossDomains = allow
	}
}

// WithPathRules sets the rules applied to hosts without site-specific rules.
func WithPathRules(rules PathRules) PolicyOption {
	return func(p *Policy) {
		p.defaults = rules
	}
}

// WithSiteRules sets path rules for one host.
func WithSiteRules(host string, rules PathRules) PolicyOption {
	return func(p *Policy) {
		p.sites[strings.ToLower(host)] = rules
	}
}

// WithRobots enables robots.txt checks.
func WithRobots(r *Robots) PolicyOption {
	return func(p *Policy) {
		p.robots = r
	}
}

// WithPolicyLogger sets the logger used for rejected links.
func WithPolicyLogger(logger *slog.Logger) PolicyOption {
	return func(p *Policy) {
		p.logger = logger
	}
}

// NewPolicy creates a Policy.
func NewPolicy(opts ...PolicyOption) *Policy {
	p := &Policy{
		maxDepth:  DefaultMaxDepth,
		sites:     make(map[string]PathRules),
		seedHosts: make(map[string]struct{}),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxDepth returns the configured depth limit.
func (p *Policy) MaxDepth() int {
	return p.maxDepth
}

// AddSeeds registers the hosts of seeds as in scope.
// It must be called before the crawl starts.
func (p *Policy) AddSeeds(seeds []string) {
	for _, seed := range seeds {
		if u, err := url.Parse(seed); err == nil && u.Hostname() != "" {
			p.seedHosts[strings.ToLower(u.Hostname())] = struct{}{}
		}
	}
}

// Allow reports whether link, discovered at the given depth, may be crawled.
func (p *Policy) Allow(ctx context.Context, link string, depth int) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	rules := p.rulesFor(host)

	limit := p.maxDepth
	if rules.MaxDepth > 0 {
		limit = rules.MaxDepth
	}
	if limit >= 0 && depth > limit {
		p.logger.Debug("link beyond depth limit", "url", link, "depth", depth)
		return false
	}

	if !p.crossDomains && !p.inScope(host) {
		p.logger.Debug("link outside seed hosts", "url", link)
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	if !rules.allows(path) {
		p.logger.Debug("link excluded by path rules", "url", link)
		return false
	}

	if p.robots != nil && !p.robots.Allowed(ctx, link) {
		p.logger.Info("link disallowed by robots.txt", "url", link)
		return false
	}
	return true
}

func (p *Policy) inScope(host string) bool {
	if len(p.seedHosts) == 0 {
		return true
	}
	_, ok := p.seedHosts[host]
	return ok
}

func (p *Policy) rulesFor(host string) PathRules {
	if rules, ok := p.sites[host]; ok {
		return rules
	}
	return p.defaults
}

// allows applies ignore patterns first, then follow patterns if any.
func (r PathRules) allows(path string) bool {
	for _, pattern := range r.Ignore {
		if matchPattern(pattern, path) {
			return false
		}
	}
	if len(r.Follow) == 0 {
		return true
	}
	for _, pattern := range r.Follow {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//   - a trailing /* to match everything below a directory
//   - a leading *. to match a file extension anywhere
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard" and "/admin/users/1"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1"
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*."); ok {
		if strings.HasSuffix(path, "."+ext) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// A pattern without a leading slash matches the last path segment.
	if !strings.HasPrefix(pattern, "/") {
		matched, err = filepath.Match(pattern, filepath.Base(path))
		return err == nil && matched
	}
	return false
}
