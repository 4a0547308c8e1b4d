package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SiteConfig holds crawl settings for one host.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send to this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty" validate:"dive,keys,required,endkeys"`

	// Depth overrides the global crawl depth for this site.
	// If zero, the global CrawlDepth is used.
	Depth int `yaml:"depth,omitempty" validate:"gte=0"`

	// IgnorePatterns are path globs to skip during crawling.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty" validate:"dive,required,glob"`

	// FollowPatterns are path globs to follow during crawling.
	// If specified, only paths matching one of them are crawled.
	FollowPatterns []string `yaml:"followPatterns,omitempty" validate:"dive,required,glob"`

	// UserAgents replaces the rotating User-Agent list for this site.
	UserAgents []string `yaml:"userAgents,omitempty" validate:"dive,required"`
}

// File represents the structure of the .datahawk configuration file.
type File struct {
	// Sites maps host names (e.g. "example.com") to their configuration.
	Sites map[string]SiteConfig `yaml:"sites,omitempty" validate:"dive,keys,required,excludesall=/,endkeys"`

	// Defaults applies to all sites unless overridden per site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// newValidator returns a validator that knows the "glob" tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("glob", func(fl validator.FieldLevel) bool { //nolint:errcheck // tag name is static
		_, err := filepath.Match(fl.Field().String(), "")
		return err == nil
	})
	return v
}

// Validate checks the site file for malformed entries.
func (cf *File) Validate() error {
	err := newValidator().Struct(cf)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfigFile, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q", e.Namespace(), e.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfigFile, strings.Join(msgs, "; "))
}

// GetSiteConfig returns the configuration for host merged over the defaults.
// host may carry a port; the lookup tries "host:port" first, then the bare
// host name.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	// Copy so that merging never writes into the defaults.
	if cf.Defaults.Headers != nil {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	siteConfig, ok := cf.lookup(host)
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.Depth != 0 {
		result.Depth = siteConfig.Depth
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if len(siteConfig.FollowPatterns) > 0 {
		result.FollowPatterns = siteConfig.FollowPatterns
	}
	if len(siteConfig.UserAgents) > 0 {
		result.UserAgents = siteConfig.UserAgents
	}
	return result
}

// HasRequestSettings reports whether any entry sets headers, a cookie or
// user agents, which have to be applied per request.
func (cf *File) HasRequestSettings() bool {
	has := func(sc SiteConfig) bool {
		return len(sc.Headers) > 0 || sc.Cookie != "" || len(sc.UserAgents) > 0
	}
	if has(cf.Defaults) {
		return true
	}
	for _, sc := range cf.Sites {
		if has(sc) {
			return true
		}
	}
	return false
}

// SiteConfigForURL returns the merged configuration for the host of rawURL.
func (cf *File) SiteConfigForURL(rawURL string) SiteConfig {
	u, err := url.Parse(rawURL)
	if err != nil {
		return cf.GetSiteConfig("")
	}
	return cf.GetSiteConfig(u.Host)
}

func (cf *File) lookup(host string) (SiteConfig, bool) {
	host = strings.ToLower(host)
	for key, sc := range cf.Sites {
		if strings.EqualFold(key, host) {
			return sc, true
		}
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		for key, sc := range cf.Sites {
			if strings.EqualFold(key, h) {
				return sc, true
			}
		}
	}
	return SiteConfig{}, false
}
